package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stagepass/config"
	"stagepass/middleware"
	"stagepass/models"
	"stagepass/services"
	"stagepass/utils"
	"stagepass/youtube"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testCookie = "test.session"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&models.Stage{},
		&models.Song{},
		&models.User{},
		&models.Session{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	utils.InitAuditLog(db)

	return db
}

type noopResolver struct{}

func (noopResolver) ResolveKaraoke(context.Context, string, string) (string, error) {
	return "", nil
}

type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	stages *services.StageService
	token  string
}

func newTestApp(t *testing.T) *testApp {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	stages := services.NewStageService(db, 10)
	participants := services.NewParticipantService(db)
	songs := services.NewSongStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	rooms := services.NewLiveRoomManager(ctx, stages, songs, participants, noopResolver{}, config.StageConfig{
		PollInterval:            time.Hour,
		ParticipantPollInterval: time.Hour,
		ResolveTimeout:          time.Second,
		AutoStart:               true,
		IdleTimeout:             time.Hour,
		MaxNotifications:        10,
	})
	stages.OnTerminate(rooms.Close)
	t.Cleanup(func() {
		rooms.CloseAll()
		cancel()
	})

	host := models.User{Name: "host", Email: "host@example.com"}
	db.Create(&host)
	db.Create(&models.Session{Token: "host-token", UserID: host.ID, ExpiresAt: time.Now().Add(time.Hour)})

	stageController := NewStageController(stages, participants)
	songController := NewSongController(stages, songs, rooms)
	liveRoomController := NewLiveRoomController(rooms)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.RequireSession(db, config.AuthConfig{SessionCookie: testCookie}))
	api.POST("/stages", stageController.CreateStage)
	api.GET("/stages/join/:code", stageController.LookupJoinCode)
	api.GET("/stages/:stageId", stageController.GetStage)
	api.POST("/stages/:stageId/join", stageController.JoinStage)
	api.POST("/stages/:stageId/terminate", stageController.TerminateStage)
	api.GET("/stages/:stageId/participants", stageController.GetParticipants)
	api.GET("/stages/:stageId/audit", stageController.GetAuditLogs)
	api.GET("/stages/:stageId/songs", songController.ListSongs)
	api.POST("/stages/:stageId/songs", songController.AddSong)
	api.DELETE("/stages/:stageId/songs/:songId", songController.RemoveSong)
	api.GET("/live-room/:stageId/state", liveRoomController.GetState)
	api.POST("/live-room/:stageId/player", liveRoomController.PlayerEvent)
	api.POST("/live-room/:stageId/skip", liveRoomController.Skip)
	api.POST("/live-room/:stageId/toggle", liveRoomController.TogglePlayback)
	api.POST("/live-room/:stageId/play-now", liveRoomController.PlayNow)
	api.POST("/live-room/:stageId/move-up", liveRoomController.MoveUp)
	api.DELETE("/live-room/:stageId/queue/:index", liveRoomController.RemoveAt)

	return &testApp{db: db, router: r, stages: stages, token: "host-token"}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: testCookie, Value: a.token})

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) createStage(t *testing.T) models.Stage {
	t.Helper()
	w := a.do(t, "POST", "/api/stages", gin.H{"name": "Karaoke Night", "max_capacity": 4})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", w.Code, w.Body.String())
	}
	var stage models.Stage
	if err := json.Unmarshal(w.Body.Bytes(), &stage); err != nil {
		t.Fatalf("Failed to unmarshal stage: %v", err)
	}
	return stage
}

func TestCreateStage(t *testing.T) {
	app := newTestApp(t)

	t.Run("valid", func(t *testing.T) {
		stage := app.createStage(t)
		if len(stage.JoinCode) != 6 {
			t.Errorf("Expected 6 digit join code, got %q", stage.JoinCode)
		}
		if stage.MaxCapacity != 4 {
			t.Errorf("Expected capacity 4, got %d", stage.MaxCapacity)
		}

		w := app.do(t, "GET", "/api/stages/"+stage.ID+"/participants", nil)
		if !strings.Contains(w.Body.String(), `"host"`) {
			t.Errorf("Expected host to be a participant, got %s", w.Body.String())
		}

		var count int64
		app.db.Model(&models.AuditLog{}).Where("stage_id = ? AND event_action = ?", stage.ID, models.AuditActionCreate).Count(&count)
		if count != 1 {
			t.Errorf("Expected one audit entry, got %d", count)
		}
	})

	t.Run("omitted capacity uses default", func(t *testing.T) {
		w := app.do(t, "POST", "/api/stages", gin.H{"name": "Open Mic"})
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d. Body: %s", w.Code, w.Body.String())
		}
		var stage models.Stage
		if err := json.Unmarshal(w.Body.Bytes(), &stage); err != nil {
			t.Fatalf("Failed to unmarshal stage: %v", err)
		}
		if stage.MaxCapacity != 10 {
			t.Errorf("Expected default capacity 10, got %d", stage.MaxCapacity)
		}
	})

	tests := []struct {
		name string
		body gin.H
	}{
		{"empty name", gin.H{"name": "   "}},
		{"bad privacy", gin.H{"name": "x", "privacy": "secret"}},
		{"negative capacity", gin.H{"name": "x", "max_capacity": -1}},
		{"zero capacity", gin.H{"name": "x", "max_capacity": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, "POST", "/api/stages", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d. Body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateStageRequiresSession(t *testing.T) {
	app := newTestApp(t)
	app.token = "bogus"

	w := app.do(t, "POST", "/api/stages", gin.H{"name": "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestLookupJoinCode(t *testing.T) {
	app := newTestApp(t)
	stage := app.createStage(t)

	tests := []struct {
		name   string
		code   string
		status int
	}{
		{"malformed", "12ab56", http.StatusBadRequest},
		{"too long", "1234567", http.StatusBadRequest},
		{"found", stage.JoinCode, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, "GET", "/api/stages/join/"+tt.code, nil)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}

	w := app.do(t, "POST", "/api/stages/"+stage.ID+"/terminate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	w = app.do(t, "GET", "/api/stages/join/"+stage.JoinCode, nil)
	if w.Code != http.StatusGone {
		t.Errorf("Expected status 410 after terminate, got %d", w.Code)
	}
}

func TestSongEndpoints(t *testing.T) {
	app := newTestApp(t)
	stage := app.createStage(t)
	base := "/api/stages/" + stage.ID + "/songs"

	w := app.do(t, "POST", base, gin.H{"title": strings.Repeat("a", 301)})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for long title, got %d", w.Code)
	}
	w = app.do(t, "POST", base, gin.H{"title": "ok", "artist": strings.Repeat("b", 201)})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for long artist, got %d", w.Code)
	}
	w = app.do(t, "POST", base, gin.H{"title": "ok", "video_id": "not a video"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad video id, got %d", w.Code)
	}

	w = app.do(t, "POST", base, gin.H{"title": "Imagine", "artist": "John Lennon", "video_id": "https://youtu.be/dQw4w9WgXcQ"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", w.Code, w.Body.String())
	}
	var song models.Song
	json.Unmarshal(w.Body.Bytes(), &song)
	if song.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected the link to be reduced to its id, got %q", song.VideoID)
	}
	if song.RequestedBy != "host" {
		t.Errorf("Expected requester host, got %q", song.RequestedBy)
	}

	w = app.do(t, "GET", base, nil)
	var songs []models.Song
	json.Unmarshal(w.Body.Bytes(), &songs)
	if len(songs) != 1 || songs[0].Title != "Imagine" {
		t.Fatalf("Expected [Imagine], got %s", w.Body.String())
	}

	w = app.do(t, "DELETE", base+"/"+song.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	w = app.do(t, "DELETE", base+"/"+song.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = app.do(t, "GET", "/api/stages/missing/songs", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown stage, got %d", w.Code)
	}
}

func TestLiveRoomEndpoints(t *testing.T) {
	app := newTestApp(t)
	stage := app.createStage(t)
	room := "/api/live-room/" + stage.ID

	for _, s := range []string{"A", "B", "C"} {
		w := app.do(t, "POST", "/api/stages/"+stage.ID+"/songs", gin.H{"title": s, "video_id": "video" + s + "00000"})
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", w.Code)
		}
		time.Sleep(2 * time.Millisecond)
	}

	w := app.do(t, "GET", room+"/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	var state services.RoomState
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("Failed to unmarshal state: %v", err)
	}
	if len(state.Queue.Entries) != 3 || state.Queue.LoadedVideoID != "videoA00000" {
		t.Fatalf("Unexpected queue: %+v", state.Queue)
	}

	w = app.do(t, "GET", room+"/state?since=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad since, got %d", w.Code)
	}

	w = app.do(t, "POST", room+"/move-up", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without index, got %d", w.Code)
	}
	w = app.do(t, "POST", room+"/move-up", gin.H{"index": 2})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	w = app.do(t, "DELETE", room+"/queue/9", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = app.do(t, "POST", room+"/player", gin.H{"type": "explode"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown event, got %d", w.Code)
	}
	w = app.do(t, "POST", room+"/player", gin.H{"type": "stateChanged", "state": "playing"})
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}

	w = app.do(t, "POST", room+"/skip", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	w = app.do(t, "GET", room+"/state", nil)
	json.Unmarshal(w.Body.Bytes(), &state)
	if len(state.Queue.Entries) != 2 || state.Queue.LoadedVideoID != "videoC00000" {
		t.Errorf("Expected C loaded after skip, got %+v", state.Queue)
	}

	app.do(t, "POST", "/api/stages/"+stage.ID+"/terminate", nil)
	w = app.do(t, "GET", room+"/state", nil)
	if w.Code != http.StatusGone {
		t.Errorf("Expected status 410 after terminate, got %d", w.Code)
	}
}

type fakeSearcher struct {
	query string
	max   int
	err   error
}

func (f *fakeSearcher) SearchGeneral(_ context.Context, query string, maxResults int) ([]youtube.Video, error) {
	f.query = query
	f.max = maxResults
	if f.err != nil {
		return nil, f.err
	}
	return []youtube.Video{{VideoID: "abc123", Title: "Imagine (Karaoke)"}}, nil
}

func TestYouTubeSearch(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		url       string
		err       error
		status    int
		wantQuery string
		wantMax   int
	}{
		{"short query", "/search?q=ab", nil, http.StatusBadRequest, "", 0},
		{"bad max", "/search?q=imagine&max=lots", nil, http.StatusBadRequest, "", 0},
		{"default max", "/search?q=imagine", nil, http.StatusOK, "imagine karaoke", 5},
		{"clamped max", "/search?q=imagine&max=50", nil, http.StatusOK, "imagine karaoke", 10},
		{"not configured", "/search?q=imagine", youtube.ErrNotConfigured, http.StatusServiceUnavailable, "imagine karaoke", 5},
		{"upstream failure", "/search?q=imagine", errors.New("quota exceeded"), http.StatusBadGateway, "imagine karaoke", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{err: tt.err}
			r := gin.New()
			r.GET("/search", NewYouTubeController(searcher, "karaoke").Search)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", tt.url, nil)
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.status, w.Code, w.Body.String())
			}
			if searcher.query != tt.wantQuery || searcher.max != tt.wantMax {
				t.Errorf("Expected search (%q, %d), got (%q, %d)", tt.wantQuery, tt.wantMax, searcher.query, searcher.max)
			}
		})
	}
}

package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stagepass/config"
	"stagepass/database"
	"stagepass/services"
	"stagepass/youtube"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	stages := services.NewStageService(db, 10)
	participants := services.NewParticipantService(db)
	songs := services.NewSongStore(db)
	ctx, cancel := context.WithCancel(context.Background())
	rooms := services.NewLiveRoomManager(ctx, stages, songs, participants, nil, config.Stage)
	t.Cleanup(func() {
		rooms.CloseAll()
		cancel()
	})

	r := gin.New()
	SetupRoutes(r, Dependencies{
		DB:           db,
		Stages:       stages,
		Participants: participants,
		Songs:        songs,
		Rooms:        rooms,
		YouTube:      youtube.NewClient(config.YouTubeConfig{}, nil),
	})
	return r
}

func TestHealth(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if body["database"] != "connected" || body["cache"] != "disabled" {
		t.Errorf("Unexpected health body: %v", body)
	}
	if body["youtube"] != false {
		t.Errorf("Expected youtube to be unconfigured, got %v", body["youtube"])
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("Expected security headers on /health")
	}
}

func TestAPIRequiresSession(t *testing.T) {
	if config.Auth.Disabled {
		t.Skip("AUTH_DISABLED is set")
	}
	r := setupRouter(t)

	for _, path := range []string{"/api/stages/join/123456", "/api/youtube/search?q=imagine"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d", path, w.Code)
		}
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagepass/config"
	"stagepass/models"
	"stagepass/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(&models.Stage{}, &models.User{}, &models.Session{}, &models.AuditLog{})
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func newAuthRouter(db *gorm.DB, cfg config.AuthConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequireSession(db, cfg))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": CurrentUserID(c)})
	})
	return r
}

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	utils.InitAuditLog(db)

	cfg := config.AuthConfig{SessionCookie: "test.session"}
	router := newAuthRouter(db, cfg)

	user := models.User{Name: "host", Email: "host@example.com"}
	db.Create(&user)
	db.Create(&models.Session{Token: "live", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)})
	db.Create(&models.Session{Token: "stale", UserID: user.ID, ExpiresAt: time.Now().Add(-time.Hour)})

	tests := []struct {
		name   string
		cookie string
		status int
	}{
		{"no cookie", "", http.StatusUnauthorized},
		{"unknown token", "nope", http.StatusUnauthorized},
		{"expired session", "stale", http.StatusUnauthorized},
		{"valid session", "live", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cfg.SessionCookie, Value: tt.cookie})
			}
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}

	var denied int64
	db.Model(&models.AuditLog{}).Where("event_action = ?", models.AuditActionDenied).Count(&denied)
	if denied != 3 {
		t.Errorf("Expected 3 denied audit entries, got %d", denied)
	}
}

func TestRequireSessionDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	router := newAuthRouter(db, config.AuthConfig{SessionCookie: "test.session", Disabled: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("X-Content-Type-Options header should be nosniff")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("X-Frame-Options header should be DENY")
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("Content-Security-Policy header should be set")
	}
}

package middleware

import (
	"errors"
	"log"
	"net/http"
	"time"

	"stagepass/config"
	"stagepass/models"
	"stagepass/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userContextKey = "stagepass.user"

// RequireSession rejects requests without a live session cookie and stores
// the session's user in the gin context.
func RequireSession(db *gorm.DB, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Disabled {
			c.Next()
			return
		}

		token, err := c.Cookie(cfg.SessionCookie)
		if err != nil || token == "" {
			deny(c, "missing session cookie")
			return
		}

		var session models.Session
		err = db.WithContext(c.Request.Context()).
			Preload("User").
			Where("token = ?", token).
			First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			deny(c, "unknown session")
			return
		}
		if err != nil {
			log.Printf("auth: session lookup failed: %v", err)
			utils.Abort(c, http.StatusInternalServerError, "Failed to verify session")
			return
		}
		if session.Expired(time.Now()) {
			deny(c, "expired session")
			return
		}

		c.Set(userContextKey, &session.User)
		c.Next()
	}
}

func deny(c *gin.Context, reason string) {
	utils.LogSecurityEvent(models.AuditActionDenied, c.ClientIP(), c.FullPath(), reason)
	utils.Abort(c, http.StatusUnauthorized, "Authentication required")
}

// CurrentUser returns the authenticated user, or nil when the session check
// is disabled.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentUserID is CurrentUser's id, or "" without a user.
func CurrentUserID(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return ""
}

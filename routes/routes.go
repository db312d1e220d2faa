package routes

import (
	"context"
	"time"

	"stagepass/config"
	"stagepass/controllers"
	"stagepass/middleware"
	"stagepass/services"
	"stagepass/youtube"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the long-lived services the HTTP surface is built on.
// Cache is optional.
type Dependencies struct {
	DB           *gorm.DB
	Stages       *services.StageService
	Participants *services.ParticipantService
	Songs        *services.SongStore
	Rooms        *services.LiveRoomManager
	YouTube      *youtube.Client
	Cache        *youtube.RedisCache
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	stageController := controllers.NewStageController(deps.Stages, deps.Participants)
	songController := controllers.NewSongController(deps.Stages, deps.Songs, deps.Rooms)
	liveRoomController := controllers.NewLiveRoomController(deps.Rooms)
	youtubeController := controllers.NewYouTubeController(deps.YouTube, config.YouTube.KaraokeSuffix)

	r.Use(middleware.SecurityHeaders())
	r.GET("/health", healthHandler(deps))

	api := r.Group("/api")
	api.Use(middleware.RequireSession(deps.DB, config.Auth))

	stages := api.Group("/stages")
	{
		stages.POST("", stageController.CreateStage)
		stages.GET("/join/:code", stageController.LookupJoinCode)
		stages.GET("/:stageId", stageController.GetStage)
		stages.POST("/:stageId/join", stageController.JoinStage)
		stages.POST("/:stageId/terminate", stageController.TerminateStage)
		stages.GET("/:stageId/participants", stageController.GetParticipants)
		stages.GET("/:stageId/audit", stageController.GetAuditLogs)

		stages.GET("/:stageId/songs", songController.ListSongs)
		stages.POST("/:stageId/songs", songController.AddSong)
		stages.DELETE("/:stageId/songs/:songId", songController.RemoveSong)
	}

	room := api.Group("/live-room/:stageId")
	{
		room.GET("/state", liveRoomController.GetState)
		room.POST("/player", liveRoomController.PlayerEvent)
		room.POST("/skip", liveRoomController.Skip)
		room.POST("/toggle", liveRoomController.TogglePlayback)
		room.POST("/play-now", liveRoomController.PlayNow)
		room.POST("/move-up", liveRoomController.MoveUp)
		room.DELETE("/queue/:index", liveRoomController.RemoveAt)
	}

	api.GET("/youtube/search", youtubeController.Search)
}

func healthHandler(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := deps.DB.DB()
		if err != nil {
			c.JSON(503, gin.H{
				"status":    "unhealthy",
				"error":     "database connection error",
				"timestamp": time.Now().Unix(),
			})
			return
		}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := sqlDB.PingContext(pingCtx); err != nil {
			c.JSON(503, gin.H{
				"status":    "unhealthy",
				"error":     "database ping failed",
				"timestamp": time.Now().Unix(),
			})
			return
		}

		cache := "disabled"
		if deps.Cache != nil {
			cache = "connected"
			if err := deps.Cache.Ping(pingCtx); err != nil {
				// Suggestions still work without the cache.
				cache = "unreachable"
			}
		}

		c.JSON(200, gin.H{
			"status":    "healthy",
			"database":  "connected",
			"cache":     cache,
			"youtube":   deps.YouTube != nil && deps.YouTube.IsConfigured(),
			"timestamp": time.Now().Unix(),
		})
	}
}

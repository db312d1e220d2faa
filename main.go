package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"stagepass/config"
	"stagepass/database"
	"stagepass/routes"
	"stagepass/services"
	"stagepass/utils"
	"stagepass/youtube"
)

const auditRetentionDays = 90

func main() {
	db, err := database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if os.Getenv("SEED_DB") == "true" {
		if err := database.SeedDatabase(db); err != nil {
			log.Printf("Warning: failed to seed database: %v", err)
		}
	}

	utils.InitAuditLog(db)

	var suggestionCache youtube.SuggestionCache
	var redisCache *youtube.RedisCache
	if config.YouTube.RedisURL != "" {
		redisCache, err = youtube.NewRedisCache(config.YouTube.RedisURL, config.YouTube.SuggestionTTL)
		if err != nil {
			log.Printf("Warning: suggestion cache disabled: %v", err)
		} else {
			suggestionCache = redisCache
		}
	}

	yt := youtube.NewClient(config.YouTube, suggestionCache)
	if !yt.IsConfigured() {
		log.Println("Warning: YOUTUBE_API_KEY is not set. Songs will not resolve to videos.")
	} else {
		log.Printf("YouTube API key: %s", utils.MaskValue(config.YouTube.APIKey))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stages := services.NewStageService(db, config.Stage.DefaultCapacity)
	participants := services.NewParticipantService(db)
	songs := services.NewSongStore(db)
	rooms := services.NewLiveRoomManager(ctx, stages, songs, participants, yt, config.Stage)
	stages.OnTerminate(rooms.Close)

	go rooms.RunJanitor(ctx)
	go cleanupAuditLogs(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	routes.SetupRoutes(r, routes.Dependencies{
		DB:           db,
		Stages:       stages,
		Participants: participants,
		Songs:        songs,
		Rooms:        rooms,
		YouTube:      yt,
		Cache:        redisCache,
	})

	srv := &http.Server{
		Addr:              ":" + config.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: config.HTTP.DefaultTimeout,
	}

	go func() {
		log.Printf("Server starting on port %s", config.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	cancel()
	rooms.CloseAll()

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Printf("Error closing redis connection: %v", err)
		}
	}

	if err := database.ShutdownDB(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Server exited")
}

func cleanupAuditLogs(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := utils.CleanupOldAuditLogs(auditRetentionDays)
			if err != nil {
				log.Printf("audit: cleanup failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("audit: removed %d entries older than %d days", removed, auditRetentionDays)
			}
		}
	}
}

package controllers

import (
	"errors"
	"log"
	"net/http"

	"stagepass/middleware"
	"stagepass/models"
	"stagepass/queue"
	"stagepass/services"
	"stagepass/utils"
	"stagepass/youtube"

	"github.com/gin-gonic/gin"
)

const (
	maxTitleLength  = 300
	maxArtistLength = 200
)

type SongController struct {
	stages *services.StageService
	songs  *services.SongStore
	rooms  *services.LiveRoomManager
}

func NewSongController(stages *services.StageService, songs *services.SongStore, rooms *services.LiveRoomManager) *SongController {
	return &SongController{stages: stages, songs: songs, rooms: rooms}
}

type addSongRequest struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	VideoID string `json:"video_id"`
}

func (c *SongController) ListSongs(ctx *gin.Context) {
	stageID := ctx.Param("stageId")
	if _, err := c.stages.GetStage(ctx.Request.Context(), stageID); err != nil {
		writeStageError(ctx, err)
		return
	}

	songs, err := c.songs.ListSongs(ctx.Request.Context(), stageID)
	if err != nil {
		log.Printf("ListSongs error: %v", err)
		utils.InternalError(ctx, "Failed to fetch songs")
		return
	}
	ctx.JSON(http.StatusOK, songs)
}

// AddSong stores a song request. When the stage's live room is open the
// song is queued immediately instead of on the next poll.
func (c *SongController) AddSong(ctx *gin.Context) {
	stageID := ctx.Param("stageId")

	var req addSongRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, "Invalid request body")
		return
	}
	if !utils.ValidateRequest(ctx,
		utils.ValidateStringNotEmpty(req.Title, "title"),
		utils.ValidateStringLength(req.Title, "title", 1, maxTitleLength),
		utils.ValidateStringLength(req.Artist, "artist", 0, maxArtistLength),
	) {
		return
	}

	if req.VideoID != "" {
		id, ok := youtube.ParseVideoID(req.VideoID)
		if !ok {
			utils.ValidationError(ctx, "video_id must be a YouTube video id or link")
			return
		}
		req.VideoID = id
	}

	if _, err := c.stages.GetActiveStage(ctx.Request.Context(), stageID); err != nil {
		writeStageError(ctx, err)
		return
	}

	requestedBy := ""
	if user := middleware.CurrentUser(ctx); user != nil {
		requestedBy = user.Name
	}

	song, err := c.rooms.AddSong(ctx.Request.Context(), stageID, services.SongInput{
		Title:       req.Title,
		Artist:      req.Artist,
		VideoID:     req.VideoID,
		RequestedBy: requestedBy,
	})
	if err != nil {
		if errors.Is(err, queue.ErrEmptyTitle) {
			utils.ValidationError(ctx, "title cannot be empty")
			return
		}
		log.Printf("AddSong error: %v", err)
		utils.InternalError(ctx, "Failed to add song")
		return
	}

	utils.LogSongEvent(models.AuditActionCreate, middleware.CurrentUserID(ctx), stageID, ctx.ClientIP(), map[string]interface{}{
		"song_id": song.ID,
		"title":   song.Title,
	})
	utils.Created(ctx, song)
}

func (c *SongController) RemoveSong(ctx *gin.Context) {
	stageID := ctx.Param("stageId")
	songID := ctx.Param("songId")

	err := c.rooms.RemoveSong(ctx.Request.Context(), stageID, songID)
	if errors.Is(err, services.ErrSongNotFound) {
		utils.NotFound(ctx, "Song not found")
		return
	}
	if err != nil {
		log.Printf("RemoveSong error: %v", err)
		utils.InternalError(ctx, "Failed to remove song")
		return
	}

	utils.LogSongEvent(models.AuditActionDelete, middleware.CurrentUserID(ctx), stageID, ctx.ClientIP(), map[string]interface{}{
		"song_id": songID,
	})
	utils.NoContent(ctx)
}

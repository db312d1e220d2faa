package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"stagepass/queue"
	"stagepass/services"
	"stagepass/utils"

	"github.com/gin-gonic/gin"
)

type LiveRoomController struct {
	rooms *services.LiveRoomManager
}

func NewLiveRoomController(rooms *services.LiveRoomManager) *LiveRoomController {
	return &LiveRoomController{rooms: rooms}
}

type indexRequest struct {
	Index *int `json:"index" binding:"required"`
}

func (c *LiveRoomController) room(ctx *gin.Context) (*services.LiveRoom, bool) {
	room, err := c.rooms.Room(ctx.Request.Context(), ctx.Param("stageId"))
	if err != nil {
		writeStageError(ctx, err)
		return nil, false
	}
	return room, true
}

// GetState returns the queue plus the player commands and notifications
// newer than ?since.
func (c *LiveRoomController) GetState(ctx *gin.Context) {
	var since uint64
	if raw := ctx.Query("since"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.ValidationError(ctx, "since must be a non-negative integer")
			return
		}
		since = n
	}

	room, ok := c.room(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, room.State(since))
}

func (c *LiveRoomController) PlayerEvent(ctx *gin.Context) {
	var ev services.PlayerEvent
	if err := ctx.ShouldBindJSON(&ev); err != nil {
		utils.BadRequest(ctx, "Invalid player event")
		return
	}

	room, ok := c.room(ctx)
	if !ok {
		return
	}
	if err := room.HandlePlayerEvent(ev); err != nil {
		utils.ValidationError(ctx, err.Error())
		return
	}
	utils.NoContent(ctx)
}

func (c *LiveRoomController) Skip(ctx *gin.Context) {
	room, ok := c.room(ctx)
	if !ok {
		return
	}
	if err := room.Skip(); err != nil {
		writeQueueError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room.State(0).Queue)
}

func (c *LiveRoomController) TogglePlayback(ctx *gin.Context) {
	room, ok := c.room(ctx)
	if !ok {
		return
	}
	room.TogglePlayback()
	ctx.JSON(http.StatusOK, room.State(0).Queue)
}

func (c *LiveRoomController) PlayNow(ctx *gin.Context) {
	c.withIndex(ctx, func(room *services.LiveRoom, index int) error {
		return room.PlayNow(index)
	})
}

func (c *LiveRoomController) MoveUp(ctx *gin.Context) {
	c.withIndex(ctx, func(room *services.LiveRoom, index int) error {
		return room.MoveUp(index)
	})
}

func (c *LiveRoomController) RemoveAt(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		utils.ValidationError(ctx, "index must be an integer")
		return
	}

	room, ok := c.room(ctx)
	if !ok {
		return
	}
	if err := room.RemoveAt(ctx.Request.Context(), index); err != nil {
		writeQueueError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room.State(0).Queue)
}

func (c *LiveRoomController) withIndex(ctx *gin.Context, op func(*services.LiveRoom, int) error) {
	var req indexRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(ctx, "index is required")
		return
	}

	room, ok := c.room(ctx)
	if !ok {
		return
	}
	if err := op(room, *req.Index); err != nil {
		writeQueueError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, room.State(0).Queue)
}

func writeQueueError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrBusy):
		utils.Conflict(ctx, "A song is still loading")
	case errors.Is(err, queue.ErrNoCurrent):
		utils.Conflict(ctx, "Nothing is playing")
	case errors.Is(err, queue.ErrClosed):
		utils.Conflict(ctx, "Live room was closed, reopen it and try again")
	case errors.Is(err, queue.ErrIndexOutOfRange):
		utils.NotFound(ctx, "No song at that position")
	case errors.Is(err, services.ErrSongNotFound):
		utils.NotFound(ctx, "Song not found")
	default:
		log.Printf("live room request failed: %v", err)
		utils.InternalError(ctx, "Live room request failed")
	}
}

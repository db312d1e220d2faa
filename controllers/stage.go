package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"stagepass/middleware"
	"stagepass/models"
	"stagepass/services"
	"stagepass/utils"

	"github.com/gin-gonic/gin"
)

type StageController struct {
	stages       *services.StageService
	participants *services.ParticipantService
}

func NewStageController(stages *services.StageService, participants *services.ParticipantService) *StageController {
	return &StageController{stages: stages, participants: participants}
}

type createStageRequest struct {
	Name        string `json:"name"`
	MaxCapacity *int   `json:"max_capacity"`
	Privacy     string `json:"privacy"`
}

// CreateStage opens a new stage and makes the caller its first participant.
func (c *StageController) CreateStage(ctx *gin.Context) {
	var req createStageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Privacy == "" {
		req.Privacy = "public"
	}
	validators := []*utils.ValidationResult{
		utils.ValidateStringNotEmpty(req.Name, "name"),
		utils.ValidateStringLength(req.Name, "name", 1, 100),
		utils.ValidateEnum(req.Privacy, "privacy", []string{"public", "private"}),
	}
	// Omitted capacity falls back to the stage default.
	capacity := 0
	if req.MaxCapacity != nil {
		capacity = *req.MaxCapacity
		validators = append(validators, utils.ValidatePositiveInt(capacity, "max_capacity"))
	}
	if !utils.ValidateRequest(ctx, validators...) {
		return
	}

	stage, err := c.stages.CreateStage(ctx.Request.Context(), services.CreateStageInput{
		Name:        req.Name,
		MaxCapacity: capacity,
		IsPrivate:   req.Privacy == "private",
	})
	if err != nil {
		log.Printf("CreateStage error: %v", err)
		utils.InternalError(ctx, "Failed to create stage")
		return
	}

	userID := middleware.CurrentUserID(ctx)
	if userID != "" {
		if err := c.participants.AssignUserToStage(ctx.Request.Context(), userID, stage.ID); err != nil {
			log.Printf("CreateStage: failed to join host %s to %s: %v", userID, stage.ID, err)
		}
	}

	utils.LogStageEvent(models.AuditActionCreate, userID, stage.ID, ctx.ClientIP(), map[string]interface{}{
		"name":         stage.Name,
		"max_capacity": stage.MaxCapacity,
		"private":      stage.IsPrivate,
	})
	utils.Created(ctx, stage)
}

// LookupJoinCode resolves a six-digit join code to a stage id.
func (c *StageController) LookupJoinCode(ctx *gin.Context) {
	code := ctx.Param("code")
	if !utils.ValidateRequest(ctx, utils.ValidateJoinCode(code)) {
		return
	}

	stage, err := c.stages.LookupByJoinCode(ctx.Request.Context(), code)
	if err != nil {
		writeStageError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"stage_id": stage.ID})
}

func (c *StageController) GetStage(ctx *gin.Context) {
	stage, err := c.stages.GetStage(ctx.Request.Context(), ctx.Param("stageId"))
	if err != nil {
		writeStageError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"id":            stage.ID,
		"name":          stage.Name,
		"join_code":     stage.JoinCode,
		"max_capacity":  stage.MaxCapacity,
		"is_private":    stage.IsPrivate,
		"is_terminated": stage.IsTerminated,
	})
}

func (c *StageController) JoinStage(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)
	if userID == "" {
		utils.Unauthorized(ctx, "Authentication required")
		return
	}
	stageID := ctx.Param("stageId")

	if err := c.participants.AssignUserToStage(ctx.Request.Context(), userID, stageID); err != nil {
		writeStageError(ctx, err)
		return
	}

	utils.LogStageEvent(models.AuditActionJoin, userID, stageID, ctx.ClientIP(), nil)
	ctx.JSON(http.StatusOK, gin.H{"stage_id": stageID, "user_id": userID})
}

func (c *StageController) TerminateStage(ctx *gin.Context) {
	stageID := ctx.Param("stageId")
	if err := c.stages.TerminateStage(ctx.Request.Context(), stageID); err != nil {
		writeStageError(ctx, err)
		return
	}

	utils.LogStageEvent(models.AuditActionTerminate, middleware.CurrentUserID(ctx), stageID, ctx.ClientIP(), nil)
	ctx.JSON(http.StatusOK, gin.H{"stage_id": stageID, "terminated": true})
}

func (c *StageController) GetParticipants(ctx *gin.Context) {
	stageID := ctx.Param("stageId")
	if _, err := c.stages.GetStage(ctx.Request.Context(), stageID); err != nil {
		writeStageError(ctx, err)
		return
	}

	users, err := c.participants.ListParticipants(ctx.Request.Context(), stageID)
	if err != nil {
		log.Printf("GetParticipants error: %v", err)
		utils.InternalError(ctx, "Failed to fetch participants")
		return
	}

	type participantResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	response := make([]participantResponse, 0, len(users))
	for _, u := range users {
		response = append(response, participantResponse{ID: u.ID, Name: u.Name})
	}
	ctx.JSON(http.StatusOK, response)
}

func (c *StageController) GetAuditLogs(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, total, err := utils.GetAuditLogs(ctx.Param("stageId"), limit, offset)
	if err != nil {
		log.Printf("GetAuditLogs error: %v", err)
		utils.InternalError(ctx, "Failed to fetch audit logs")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func writeStageError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidJoinCode):
		utils.ValidationError(ctx, err.Error())
	case errors.Is(err, services.ErrStageNotFound):
		utils.NotFound(ctx, "Stage not found")
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFound(ctx, "User not found")
	case errors.Is(err, services.ErrStageTerminated):
		utils.Error(ctx, http.StatusGone, "Stage has been terminated")
	case errors.Is(err, services.ErrStageFull):
		utils.Conflict(ctx, "Stage is full")
	default:
		log.Printf("stage request failed: %v", err)
		utils.InternalError(ctx, "Stage request failed")
	}
}

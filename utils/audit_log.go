package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"stagepass/models"

	"gorm.io/gorm"
)

var auditDB *gorm.DB

func InitAuditLog(dbInstance *gorm.DB) {
	auditDB = dbInstance
}

type AuditLogEntry struct {
	EventType   models.AuditEventType   `json:"event_type"`
	EventAction models.AuditEventAction `json:"event_action"`
	UserID      string                  `json:"user_id"`
	StageID     string                  `json:"stage_id"`
	IPAddress   string                  `json:"ip_address"`
	Resource    string                  `json:"resource"`
	Details     map[string]interface{}  `json:"details"`
	Status      string                  `json:"status"`
	ErrorMsg    string                  `json:"error_msg"`
}

func LogAuditEvent(entry AuditLogEntry) error {
	if auditDB == nil {
		return fmt.Errorf("audit log database not initialized")
	}

	detailsJSON, _ := json.Marshal(entry.Details)

	record := &models.AuditLog{
		EventType:   string(entry.EventType),
		EventAction: string(entry.EventAction),
		UserID:      entry.UserID,
		StageID:     entry.StageID,
		IPAddress:   entry.IPAddress,
		Resource:    entry.Resource,
		Details:     string(detailsJSON),
		Status:      entry.Status,
		ErrorMsg:    entry.ErrorMsg,
		CreatedAt:   time.Now(),
	}

	return auditDB.Create(record).Error
}

// LogStageEvent records a stage lifecycle action. Failures are logged, not
// returned, so that auditing never fails a request.
func LogStageEvent(action models.AuditEventAction, userID, stageID, ipAddress string, details map[string]interface{}) {
	err := LogAuditEvent(AuditLogEntry{
		EventType:   models.AuditEventStage,
		EventAction: action,
		UserID:      userID,
		StageID:     stageID,
		IPAddress:   ipAddress,
		Resource:    "stage",
		Details:     details,
		Status:      "success",
	})
	if err != nil {
		log.Printf("audit: failed to record stage %s: %v", action, err)
	}
}

func LogSongEvent(action models.AuditEventAction, userID, stageID, ipAddress string, details map[string]interface{}) {
	err := LogAuditEvent(AuditLogEntry{
		EventType:   models.AuditEventSong,
		EventAction: action,
		UserID:      userID,
		StageID:     stageID,
		IPAddress:   ipAddress,
		Resource:    "song",
		Details:     details,
		Status:      "success",
	})
	if err != nil {
		log.Printf("audit: failed to record song %s: %v", action, err)
	}
}

func LogSecurityEvent(action models.AuditEventAction, ipAddress, resource, errorMsg string) {
	err := LogAuditEvent(AuditLogEntry{
		EventType:   models.AuditEventSecurity,
		EventAction: action,
		IPAddress:   ipAddress,
		Resource:    resource,
		Status:      "warning",
		ErrorMsg:    errorMsg,
	})
	if err != nil {
		log.Printf("audit: failed to record security event: %v", err)
	}
}

func GetAuditLogs(stageID string, limit, offset int) ([]models.AuditLog, int64, error) {
	if auditDB == nil {
		return nil, 0, fmt.Errorf("audit log database not initialized")
	}

	var logs []models.AuditLog
	var total int64

	query := auditDB.Model(&models.AuditLog{})
	if stageID != "" {
		query = query.Where("stage_id = ?", stageID)
	}

	query.Count(&total)
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error

	return logs, total, err
}

func CleanupOldAuditLogs(daysRetained int) (int64, error) {
	if auditDB == nil {
		return 0, fmt.Errorf("audit log database not initialized")
	}

	cutoff := time.Now().AddDate(0, 0, -daysRetained)
	result := auditDB.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}

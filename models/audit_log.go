package models

import (
	"time"
)

type AuditLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType   string    `gorm:"size:100;index" json:"event_type"`
	EventAction string    `gorm:"size:100;index" json:"event_action"`
	UserID      string    `gorm:"size:36;index" json:"user_id"`
	StageID     string    `gorm:"size:36;index" json:"stage_id"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	Resource    string    `gorm:"size:255" json:"resource"`
	Details     string    `gorm:"type:text" json:"details"`
	Status      string    `gorm:"size:50" json:"status"`
	ErrorMsg    string    `gorm:"type:text" json:"error_msg"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type AuditEventType string

const (
	AuditEventStage    AuditEventType = "stage"
	AuditEventSong     AuditEventType = "song"
	AuditEventAuth     AuditEventType = "auth"
	AuditEventSecurity AuditEventType = "security"
)

type AuditEventAction string

const (
	AuditActionCreate    AuditEventAction = "create"
	AuditActionDelete    AuditEventAction = "delete"
	AuditActionJoin      AuditEventAction = "join"
	AuditActionTerminate AuditEventAction = "terminate"
	AuditActionDenied    AuditEventAction = "denied"
)

package model

import "time"

type AuditAction string

const (
	AuditCreate     AuditAction = "create"
	AuditUpdate     AuditAction = "update"
	AuditDelete     AuditAction = "delete"
	AuditSoftDelete AuditAction = "soft_delete"
	AuditRestore    AuditAction = "restore"
	AuditView       AuditAction = "view"
	AuditExport     AuditAction = "export"
	AuditShare      AuditAction = "share"
	AuditUpload     AuditAction = "upload"
	AuditProcess    AuditAction = "process"
)

// AuditLog rows are append-only. Nothing in the application updates or
// deletes them
type AuditLog struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string      `gorm:"index;not null" json:"user_id"`
	ProjectID    string      `gorm:"index" json:"project_id,omitempty"`
	Action       AuditAction `gorm:"not null" json:"action"`
	ResourceType string      `gorm:"not null" json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      JSONMap     `json:"details"`
	Success      bool        `gorm:"not null" json:"success"`
	CreatedAt    time.Time   `json:"created_at"`
}

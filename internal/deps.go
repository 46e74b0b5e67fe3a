package internal

import (
	"clipforge/editor-api/internal/service"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Guard    *service.AccessGuard
	Audit    *service.AuditRecorder
	Projects *service.ProjectService
	Timeline *service.TimelineService
	Media    *service.MediaService
}

package service

import (
	"sync"

	"clipforge/editor-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditRecorder persists audit entries in the background. Record never
// blocks the calling operation and never returns an error: when the buffer
// is full or the insert fails the entry is logged and dropped
type AuditRecorder struct {
	db      *gorm.DB
	entries chan model.AuditLog
	wg      sync.WaitGroup

	closeOnce sync.Once
}

func NewAuditRecorder(db *gorm.DB, bufferSize int) *AuditRecorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	r := &AuditRecorder{
		db:      db,
		entries: make(chan model.AuditLog, bufferSize),
	}

	r.wg.Add(1)
	go r.writer()

	return r
}

func (r *AuditRecorder) writer() {
	defer r.wg.Done()

	for e := range r.entries {
		if err := r.db.Create(&e).Error; err != nil {
			zap.L().Warn("Failed to write audit entry",
				zap.String("user_id", e.UserID),
				zap.String("action", string(e.Action)),
				zap.Error(err))
		}
	}
}

// Record enqueues an entry for persistence. Fire and forget
func (r *AuditRecorder) Record(e model.AuditLog) {
	select {
	case r.entries <- e:
	default:
		zap.L().Warn("Audit buffer full, dropping entry",
			zap.String("user_id", e.UserID),
			zap.String("action", string(e.Action)))
	}
}

// Close drains buffered entries and stops the writer. Safe to call more
// than once
func (r *AuditRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.entries)
	})
	r.wg.Wait()
}

package service

import (
	"context"
	"errors"
	"fmt"

	"clipforge/editor-api/internal/model"
	"clipforge/editor-api/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimelineService manages the append-only sequence of timeline snapshots
// per project. At most one snapshot per project is current at any moment,
// Save and Restore keep that true inside a single transaction
type TimelineService struct {
	DB    *gorm.DB
	Guard *AccessGuard
	Audit *AuditRecorder
}

func NewTimelineService(db *gorm.DB, guard *AccessGuard, audit *AuditRecorder) *TimelineService {
	return &TimelineService{DB: db, Guard: guard, Audit: audit}
}

// TimelineUpdate carries a partial snapshot update. Nil fields are left
// untouched, version and is_current can't be changed this way
type TimelineUpdate struct {
	TimelineState *model.TimelineState `json:"timeline_state,omitempty"`
	Description   *string              `json:"description,omitempty"`
	ChangeSummary *string              `json:"change_summary,omitempty"`
}

// Save writes a new snapshot and makes it current. The previous current
// flag, the version counter bump and the insert happen in one transaction
// so no reader ever sees zero or two current snapshots
func (s *TimelineService) Save(ctx context.Context, projectID, callerID string, state model.TimelineState, description, changeSummary string) (*model.TimelineSnapshot, error) {
	if _, err := s.Guard.RequireProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	var snap *model.TimelineSnapshot

	err := withRetry(ctx, "save timeline state", func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Atomic version hand-out: insert 1 or bump the existing row
			// in a single statement
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "project_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"next_version": gorm.Expr("version_counters.next_version + ?", 1)}),
			}).Create(&model.VersionCounter{ProjectID: projectID, NextVersion: 1}).Error
			if err != nil {
				return err
			}

			var counter model.VersionCounter
			if err := tx.Where("project_id = ?", projectID).First(&counter).Error; err != nil {
				return err
			}

			err = tx.Model(&model.TimelineSnapshot{}).
				Where("project_id = ? AND is_current = ?", projectID, true).
				Update("is_current", false).
				Error
			if err != nil {
				return err
			}

			snap = &model.TimelineSnapshot{
				ID:            uuid.NewString(),
				ProjectID:     projectID,
				Version:       counter.NextVersion,
				TimelineState: state,
				IsCurrent:     true,
				Description:   description,
				ChangeSummary: changeSummary,
				CreatedBy:     callerID,
			}

			return tx.Create(snap).Error
		})
	})
	if err != nil {
		return nil, apperr.Operation("failed to save timeline state", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditCreate,
		ResourceType: "timeline_state",
		Success:      true,
		ResourceID:   snap.ID,
		Details:      model.JSONMap{"version": snap.Version, "description": description},
	})

	zap.L().Info("Saved timeline state",
		zap.String("project_id", projectID),
		zap.Int("version", snap.Version))

	return snap, nil
}

// GetCurrent returns the current snapshot. A project that was never saved
// gets a synthesized version-0 snapshot with an empty timeline, nothing is
// persisted for it. If a crash left the project without a current flag the
// highest version is promoted back to current on the way out
func (s *TimelineService) GetCurrent(ctx context.Context, projectID, callerID string) (*model.TimelineSnapshot, error) {
	if _, err := s.Guard.RequireProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	var snap model.TimelineSnapshot

	err := withRetry(ctx, "get current timeline state", func() error {
		return s.DB.WithContext(ctx).
			Where("project_id = ? AND is_current = ?", projectID, true).
			First(&snap).
			Error
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Operation("failed to fetch current timeline state", err)
		}

		healed, healErr := s.healCurrent(ctx, projectID)
		if healErr != nil {
			return nil, healErr
		}

		if healed == nil {
			// Never saved, hand back the default editor state
			return &model.TimelineSnapshot{
				ProjectID:     projectID,
				Version:       0,
				TimelineState: model.DefaultTimelineState(),
				IsCurrent:     true,
				CreatedBy:     callerID,
			}, nil
		}

		snap = *healed
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditView,
		ResourceType: "timeline_state",
		Success:      true,
		ResourceID:   snap.ID,
	})

	return &snap, nil
}

// healCurrent promotes the highest version snapshot to current after an
// interrupted Save or Restore left the project with none. Returns nil when
// the project simply has no snapshots
func (s *TimelineService) healCurrent(ctx context.Context, projectID string) (*model.TimelineSnapshot, error) {
	var snap model.TimelineSnapshot

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("project_id = ?", projectID).
			Order("version desc").
			First(&snap).
			Error
		if err != nil {
			return err
		}

		if snap.IsCurrent {
			return nil
		}

		return tx.Model(&model.TimelineSnapshot{}).
			Where("id = ?", snap.ID).
			Update("is_current", true).
			Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, apperr.Operation("failed to recover current timeline state", err)
	}

	zap.L().Warn("Recovered missing current flag",
		zap.String("project_id", projectID),
		zap.Int("version", snap.Version))

	snap.IsCurrent = true
	return &snap, nil
}

// GetByVersion returns the exact snapshot at version for the project
func (s *TimelineService) GetByVersion(ctx context.Context, projectID string, version int, callerID string) (*model.TimelineSnapshot, error) {
	if _, err := s.Guard.RequireProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	var snap model.TimelineSnapshot

	err := withRetry(ctx, "get timeline state by version", func() error {
		return s.DB.WithContext(ctx).
			Where("project_id = ? AND version = ?", projectID, version).
			First(&snap).
			Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("no timeline state at version %d", version))
		}

		return nil, apperr.Operation("failed to fetch timeline state", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditView,
		ResourceType: "timeline_state",
		Success:      true,
		ResourceID:   snap.ID,
		Details:      model.JSONMap{"version": version},
	})

	return &snap, nil
}

// GetHistory lists snapshots for the project newest version first,
// current and non-current alike
func (s *TimelineService) GetHistory(ctx context.Context, projectID, callerID string, limit, offset int) ([]model.TimelineSnapshot, error) {
	if _, err := s.Guard.RequireProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var snaps []model.TimelineSnapshot

	err := withRetry(ctx, "get timeline history", func() error {
		return s.DB.WithContext(ctx).
			Where("project_id = ?", projectID).
			Order("version desc").
			Limit(limit).
			Offset(offset).
			Find(&snaps).
			Error
	})
	if err != nil {
		return nil, apperr.Operation("failed to fetch timeline history", err)
	}

	return snaps, nil
}

// Update applies a partial update to a snapshot. Version and the current
// flag are never touched here
func (s *TimelineService) Update(ctx context.Context, snapshotID, callerID string, upd TimelineUpdate) (*model.TimelineSnapshot, error) {
	snap, err := s.getSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	if _, err := s.Guard.RequireProject(ctx, snap.ProjectID, callerID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if upd.TimelineState != nil {
		updates["timeline_state"] = *upd.TimelineState
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.ChangeSummary != nil {
		updates["change_summary"] = *upd.ChangeSummary
	}

	if len(updates) > 0 {
		err = withRetry(ctx, "update timeline state", func() error {
			return s.DB.WithContext(ctx).
				Model(&model.TimelineSnapshot{}).
				Where("id = ?", snapshotID).
				Updates(updates).
				Error
		})
		if err != nil {
			return nil, apperr.Operation("failed to update timeline state", err)
		}
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    snap.ProjectID,
		Action:       model.AuditUpdate,
		ResourceType: "timeline_state",
		Success:      true,
		ResourceID:   snapshotID,
		Details:      model.JSONMap{"version": snap.Version},
	})

	return s.getSnapshot(ctx, snapshotID)
}

// Restore flips the current flag back to an older version. No new version
// is created, the old snapshot object is reused. Restoring the version
// that is already current is a no-op
func (s *TimelineService) Restore(ctx context.Context, projectID string, version int, callerID string) (*model.TimelineSnapshot, error) {
	if _, err := s.Guard.RequireProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	var snap model.TimelineSnapshot

	err := withRetry(ctx, "restore timeline state", func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.
				Where("project_id = ? AND version = ?", projectID, version).
				First(&snap).
				Error
			if err != nil {
				return err
			}

			err = tx.Model(&model.TimelineSnapshot{}).
				Where("project_id = ? AND is_current = ? AND id <> ?", projectID, true, snap.ID).
				Update("is_current", false).
				Error
			if err != nil {
				return err
			}

			return tx.Model(&model.TimelineSnapshot{}).
				Where("id = ?", snap.ID).
				Update("is_current", true).
				Error
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("no timeline state at version %d", version))
		}

		return nil, apperr.Operation("failed to restore timeline state", err)
	}

	snap.IsCurrent = true

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditUpdate,
		ResourceType: "timeline_state",
		Success:      true,
		ResourceID:   snap.ID,
		Details:      model.JSONMap{"action": "restore", "version": version},
	})

	zap.L().Info("Restored timeline state",
		zap.String("project_id", projectID),
		zap.Int("version", version))

	return &snap, nil
}

// Delete hard-deletes a non-current snapshot. The current snapshot can't
// be deleted, that would leave the project with no live state. Versions of
// the surviving snapshots are never renumbered
func (s *TimelineService) Delete(ctx context.Context, snapshotID, callerID string) error {
	snap, err := s.getSnapshot(ctx, snapshotID)
	if err != nil {
		return err
	}

	if _, err := s.Guard.RequireProject(ctx, snap.ProjectID, callerID); err != nil {
		return err
	}

	// The is_current guard lives in the DELETE itself so a snapshot promoted
	// after the read above can't slip through
	var removed int64

	err = withRetry(ctx, "delete timeline state", func() error {
		res := s.DB.WithContext(ctx).
			Where("id = ? AND is_current = ?", snapshotID, false).
			Delete(&model.TimelineSnapshot{})

		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return apperr.Operation("failed to delete timeline state", err)
	}

	if removed == 0 {
		return apperr.Conflict("cannot delete current timeline state")
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    snap.ProjectID,
		Action:       model.AuditDelete,
		ResourceType: "timeline_state",
		Success:      true,
		ResourceID:   snapshotID,
		Details:      model.JSONMap{"version": snap.Version},
	})

	return nil
}

func (s *TimelineService) getSnapshot(ctx context.Context, snapshotID string) (*model.TimelineSnapshot, error) {
	var snap model.TimelineSnapshot

	err := withRetry(ctx, "get timeline state", func() error {
		return s.DB.WithContext(ctx).
			Where("id = ?", snapshotID).
			First(&snap).
			Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("timeline state not found")
		}

		return nil, apperr.Operation("failed to fetch timeline state", err)
	}

	return &snap, nil
}

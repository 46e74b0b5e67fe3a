package service

import (
	"context"
	"time"

	"clipforge/editor-api/internal/model"
	"clipforge/editor-api/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectService owns the project lifecycle. The timeline store and the
// media pipeline only ever read projects, through the guard
type ProjectService struct {
	DB    *gorm.DB
	Guard *AccessGuard
	Audit *AuditRecorder
}

func NewProjectService(db *gorm.DB, guard *AccessGuard, audit *AuditRecorder) *ProjectService {
	return &ProjectService{DB: db, Guard: guard, Audit: audit}
}

func (s *ProjectService) Create(ctx context.Context, ownerID, name, description string) (*model.Project, error) {
	if name == "" {
		return nil, apperr.Validation("project name can't be empty")
	}

	p := &model.Project{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Name:          name,
		Description:   description,
		Collaborators: model.StringSlice{},
		Permissions:   model.JSONMap{},
	}

	err := withRetry(ctx, "create project", func() error {
		return s.DB.WithContext(ctx).Create(p).Error
	})
	if err != nil {
		return nil, apperr.Operation("failed to create project", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       ownerID,
		ProjectID:    p.ID,
		Action:       model.AuditCreate,
		ResourceType: "project",
		Success:      true,
		ResourceID:   p.ID,
		Details:      model.JSONMap{"name": name},
	})

	zap.L().Info("Created project", zap.String("project_id", p.ID), zap.String("owner_id", ownerID))
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, projectID, callerID string) (*model.Project, error) {
	p, err := s.Guard.RequireProject(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditView,
		ResourceType: "project",
		Success:      true,
		ResourceID:   projectID,
	})

	return p, nil
}

// List returns the caller's projects, owned or shared, newest activity first
func (s *ProjectService) List(ctx context.Context, callerID string, limit, offset int) ([]model.Project, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var projects []model.Project

	err := withRetry(ctx, "list projects", func() error {
		return s.DB.WithContext(ctx).
			Where("is_deleted = ?", false).
			Where("owner_id = ? OR collaborators LIKE ?", callerID, "%"+callerID+"%").
			Order("updated_at desc").
			Limit(limit).
			Offset(offset).
			Find(&projects).
			Error
	})
	if err != nil {
		return nil, apperr.Operation("failed to list projects", err)
	}

	// The LIKE match is a coarse filter over the comma separated column,
	// drop any false positives here
	filtered := projects[:0]
	for _, p := range projects {
		if p.OwnerID == callerID || p.Collaborators.Contains(callerID) {
			filtered = append(filtered, p)
		}
	}

	return filtered, nil
}

// ProjectUpdate carries a partial project update, nil fields stay untouched
type ProjectUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Thumbnail   *string  `json:"thumbnail,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
}

func (s *ProjectService) Update(ctx context.Context, projectID, callerID string, upd ProjectUpdate) (*model.Project, error) {
	if _, err := s.Guard.RequireProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, apperr.Validation("project name can't be empty")
		}
		updates["name"] = *upd.Name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Thumbnail != nil {
		updates["thumbnail"] = *upd.Thumbnail
	}
	if upd.Duration != nil {
		updates["duration"] = *upd.Duration
	}

	if len(updates) > 0 {
		err := withRetry(ctx, "update project", func() error {
			return s.DB.WithContext(ctx).
				Model(&model.Project{}).
				Where("id = ?", projectID).
				Updates(updates).
				Error
		})
		if err != nil {
			return nil, apperr.Operation("failed to update project", err)
		}
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditUpdate,
		ResourceType: "project",
		Success:      true,
		ResourceID:   projectID,
	})

	return s.Guard.RequireProject(ctx, projectID, callerID)
}

// SoftDelete flips the deleted flag. Only the owner may do this, the row
// and all snapshots stay around for restore
func (s *ProjectService) SoftDelete(ctx context.Context, projectID, callerID string) error {
	p, err := s.Guard.RequireProject(ctx, projectID, callerID)
	if err != nil {
		return err
	}

	if p.OwnerID != callerID {
		return apperr.AccessDenied("only the owner can delete a project")
	}

	now := time.Now()

	err = withRetry(ctx, "soft delete project", func() error {
		return s.DB.WithContext(ctx).
			Model(&model.Project{}).
			Where("id = ?", projectID).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": &now}).
			Error
	})
	if err != nil {
		return apperr.Operation("failed to delete project", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditSoftDelete,
		ResourceType: "project",
		Success:      true,
		ResourceID:   projectID,
	})

	return nil
}

// Restore brings a soft-deleted project back
func (s *ProjectService) Restore(ctx context.Context, projectID, callerID string) (*model.Project, error) {
	p, err := s.Guard.RequireDeletedProject(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}

	if !p.IsDeleted {
		return p, nil
	}

	err = withRetry(ctx, "restore project", func() error {
		return s.DB.WithContext(ctx).
			Model(&model.Project{}).
			Where("id = ?", projectID).
			Updates(map[string]interface{}{"is_deleted": false, "deleted_at": gorm.Expr("NULL")}).
			Error
	})
	if err != nil {
		return nil, apperr.Operation("failed to restore project", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditRestore,
		ResourceType: "project",
		Success:      true,
		ResourceID:   projectID,
	})

	p.IsDeleted = false
	p.DeletedAt = nil
	return p, nil
}

// AddCollaborator grants a user access with an optional permission list
func (s *ProjectService) AddCollaborator(ctx context.Context, projectID, callerID, userID string, permissions []string) (*model.Project, error) {
	p, err := s.Guard.RequireProject(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}

	if p.OwnerID != callerID {
		return nil, apperr.AccessDenied("only the owner can share a project")
	}

	if userID == "" {
		return nil, apperr.Validation("user id can't be empty")
	}

	if userID == p.OwnerID || p.Collaborators.Contains(userID) {
		return p, nil
	}

	p.Collaborators = append(p.Collaborators, userID)
	if p.Permissions == nil {
		p.Permissions = model.JSONMap{}
	}
	p.Permissions[userID] = permissions

	err = withRetry(ctx, "add collaborator", func() error {
		return s.DB.WithContext(ctx).
			Model(&model.Project{}).
			Where("id = ?", projectID).
			Updates(map[string]interface{}{
				"collaborators": p.Collaborators,
				"permissions":   p.Permissions,
			}).
			Error
	})
	if err != nil {
		return nil, apperr.Operation("failed to add collaborator", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditShare,
		ResourceType: "project",
		Success:      true,
		ResourceID:   projectID,
		Details:      model.JSONMap{"collaborator": userID, "permissions": permissions},
	})

	return p, nil
}

// RemoveCollaborator revokes a user's access
func (s *ProjectService) RemoveCollaborator(ctx context.Context, projectID, callerID, userID string) (*model.Project, error) {
	p, err := s.Guard.RequireProject(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}

	if p.OwnerID != callerID {
		return nil, apperr.AccessDenied("only the owner can share a project")
	}

	kept := model.StringSlice{}
	for _, c := range p.Collaborators {
		if c != userID {
			kept = append(kept, c)
		}
	}
	p.Collaborators = kept
	delete(p.Permissions, userID)

	err = withRetry(ctx, "remove collaborator", func() error {
		return s.DB.WithContext(ctx).
			Model(&model.Project{}).
			Where("id = ?", projectID).
			Updates(map[string]interface{}{
				"collaborators": p.Collaborators,
				"permissions":   p.Permissions,
			}).
			Error
	})
	if err != nil {
		return nil, apperr.Operation("failed to remove collaborator", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditShare,
		ResourceType: "project",
		Success:      true,
		ResourceID:   projectID,
		Details:      model.JSONMap{"removed": userID},
	})

	return p, nil
}

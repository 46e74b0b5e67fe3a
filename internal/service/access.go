// Package service contains the business logic behind the HTTP handlers:
// project lifecycle, versioned timeline storage, segment compilation and
// audit recording
package service

import (
	"context"
	"errors"

	"clipforge/editor-api/internal/model"
	"clipforge/editor-api/pkg/apperr"

	"gorm.io/gorm"
)

// AccessGuard answers "may this caller touch this project". Every read and
// write in the other services goes through it first
type AccessGuard struct {
	DB *gorm.DB
}

func NewAccessGuard(db *gorm.DB) *AccessGuard {
	return &AccessGuard{DB: db}
}

// CheckAccess reports whether callerID owns the project or is listed as a
// collaborator. Soft-deleted projects are off limits for everyone, the
// restore path loads them through RequireDeletedProject instead
func (g *AccessGuard) CheckAccess(p *model.Project, callerID string) bool {
	if p == nil || p.IsDeleted {
		return false
	}

	if p.OwnerID == callerID {
		return true
	}

	return p.Collaborators.Contains(callerID)
}

// RequireProject loads the project and verifies access in one step. A
// missing project and a forbidden one produce the same error so callers
// can't probe which project ids exist
func (g *AccessGuard) RequireProject(ctx context.Context, projectID, callerID string) (*model.Project, error) {
	var p model.Project

	err := g.DB.WithContext(ctx).
		Where("id = ?", projectID).
		First(&p).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("project not found or access denied")
		}

		return nil, apperr.Operation("failed to fetch project", err)
	}

	if !g.CheckAccess(&p, callerID) {
		return nil, apperr.AccessDenied("project not found or access denied")
	}

	return &p, nil
}

// RequireDeletedProject is the restore-path variant: it accepts soft-deleted
// projects but only for the owner
func (g *AccessGuard) RequireDeletedProject(ctx context.Context, projectID, callerID string) (*model.Project, error) {
	var p model.Project

	err := g.DB.WithContext(ctx).
		Where("id = ?", projectID).
		First(&p).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.AccessDenied("project not found or access denied")
		}

		return nil, apperr.Operation("failed to fetch project", err)
	}

	if p.OwnerID != callerID {
		return nil, apperr.AccessDenied("project not found or access denied")
	}

	return &p, nil
}

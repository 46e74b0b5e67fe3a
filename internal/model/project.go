// Package model defines database models
package model

import "time"

type Project struct {
	ID          string `gorm:"primaryKey" json:"id"`
	OwnerID     string `gorm:"index;not null" json:"owner_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`

	// Collaborators may read and write the project's timeline. Permissions
	// holds an optional per-collaborator permission list keyed by user id
	Collaborators StringSlice `json:"collaborators"`
	Permissions   JSONMap     `json:"permissions"`

	Thumbnail string  `json:"thumbnail,omitempty"`
	Duration  float64 `json:"duration"`

	// SourcePath points at the uploaded media file the segment compiler
	// reads from. Empty until a file is uploaded
	SourcePath string `json:"source_path,omitempty"`

	IsDeleted bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package service

import (
	"context"
	"os"
	"path/filepath"

	"clipforge/editor-api/internal/model"
	"clipforge/editor-api/pkg/apperr"
	"clipforge/editor-api/pkg/validators"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MediaService sits between the HTTP layer and the segment compiler. It
// checks project access, tracks the uploaded source file on the project
// and stores compiled results
type MediaService struct {
	DB         *gorm.DB
	Guard      *AccessGuard
	Audit      *AuditRecorder
	Transcoder Transcoder
	Compiler   *SegmentCompiler
	Storage    Storage
}

func NewMediaService(db *gorm.DB, guard *AccessGuard, audit *AuditRecorder, t Transcoder, c *SegmentCompiler, st Storage) *MediaService {
	return &MediaService{DB: db, Guard: guard, Audit: audit, Transcoder: t, Compiler: c, Storage: st}
}

// SaveSource registers an uploaded media file as the project's source. The
// file at tempPath is consumed. Duration and a thumbnail are derived with
// the transcoder, a probe failure only loses the metadata, not the upload
func (s *MediaService) SaveSource(ctx context.Context, projectID, callerID, tempPath, originalName string) (*model.Project, error) {
	if _, err := s.Guard.RequireProject(ctx, projectID, callerID); err != nil {
		return nil, err
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".mp4"
	}

	updates := map[string]interface{}{}

	// Probe and thumbnail while the upload is still a local file, Store
	// consumes it
	duration, err := s.Transcoder.Duration(ctx, tempPath)
	if err != nil {
		zap.L().Warn("Failed to probe uploaded media duration", zap.Error(err))
	} else {
		updates["duration"] = duration
	}

	thumbPath := filepath.Join(os.TempDir(), "thumb_"+uuid.NewString()+".jpg")
	if err := s.Transcoder.Thumbnail(ctx, tempPath, thumbPath, 1.0); err != nil {
		zap.L().Warn("Failed to generate thumbnail", zap.Error(err))
	} else {
		thumbKey := filepath.Join("thumbnails", filepath.Base(thumbPath))
		if storedThumb, err := s.Storage.Store(ctx, thumbPath, thumbKey); err != nil {
			zap.L().Warn("Failed to store thumbnail", zap.Error(err))
			os.Remove(thumbPath)
		} else {
			updates["thumbnail"] = storedThumb
		}
	}

	key := filepath.Join("videos", uuid.NewString()+ext)

	stored, err := s.Storage.Store(ctx, tempPath, key)
	if err != nil {
		return nil, apperr.Operation("failed to store uploaded media", err)
	}
	updates["source_path"] = stored

	err = withRetry(ctx, "record uploaded media", func() error {
		return s.DB.WithContext(ctx).
			Model(&model.Project{}).
			Where("id = ?", projectID).
			Updates(updates).
			Error
	})
	if err != nil {
		return nil, apperr.Operation("failed to record uploaded media", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditUpload,
		ResourceType: "media",
		Success:      true,
		ResourceID:   stored,
		Details:      model.JSONMap{"original_name": originalName},
	})

	return s.Guard.RequireProject(ctx, projectID, callerID)
}

// TrimResult is what a segment compile produced
type TrimResult struct {
	OutputPath  string  `json:"output_path"`
	NewDuration float64 `json:"new_duration"`
}

// TrimSegments compiles the requested segments of the project's source
// media into one output file and stores it. An empty segment list leaves
// the source untouched
func (s *MediaService) TrimSegments(ctx context.Context, projectID, callerID string, segments []validators.MediaSegment) (*TrimResult, error) {
	p, err := s.Guard.RequireProject(ctx, projectID, callerID)
	if err != nil {
		return nil, err
	}

	if p.SourcePath == "" {
		return nil, apperr.Validation("project has no uploaded media")
	}

	// ffmpeg reads local files only, S3-backed sources are pulled down first
	local, cleanup, err := s.Storage.Fetch(ctx, p.SourcePath)
	if err != nil {
		return nil, apperr.Operation("failed to fetch source media", err)
	}
	defer cleanup()

	out, err := s.Compiler.Compile(ctx, local, segments)
	if err != nil {
		s.Audit.Record(model.AuditLog{
			UserID:       callerID,
			ProjectID:    projectID,
			Action:       model.AuditProcess,
			ResourceType: "media",
			Success:      false,
			Details:      model.JSONMap{"segments": len(segments), "error": apperr.KindOf(err).String()},
		})

		return nil, err
	}

	if out == local {
		// No segments, nothing was produced
		return &TrimResult{OutputPath: p.SourcePath, NewDuration: p.Duration}, nil
	}

	var newDuration float64
	for _, seg := range segments {
		newDuration += seg.Duration
	}

	key := filepath.Join("processed", filepath.Base(out))

	stored, err := s.Storage.Store(ctx, out, key)
	if err != nil {
		os.Remove(out)
		return nil, apperr.Operation("failed to store compiled media", err)
	}

	s.Audit.Record(model.AuditLog{
		UserID:       callerID,
		ProjectID:    projectID,
		Action:       model.AuditProcess,
		ResourceType: "media",
		Success:      true,
		ResourceID:   stored,
		Details:      model.JSONMap{"segments": len(segments), "new_duration": newDuration},
	})

	zap.L().Info("Compiled media segments",
		zap.String("project_id", projectID),
		zap.Int("segments", len(segments)),
		zap.String("output", stored))

	return &TrimResult{OutputPath: stored, NewDuration: newDuration}, nil
}

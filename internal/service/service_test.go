package service_test

import (
	"path/filepath"
	"testing"

	"clipforge/editor-api/internal/model"
	"clipforge/editor-api/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// The busy timeout keeps concurrent writer tests from tripping over
	// sqlite's single-writer lock
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		model.Project{},
		model.TimelineSnapshot{},
		model.VersionCounter{},
		model.AuditLog{},
	))

	return db
}

type testEnv struct {
	db       *gorm.DB
	guard    *service.AccessGuard
	audit    *service.AuditRecorder
	timeline *service.TimelineService
	projects *service.ProjectService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	guard := service.NewAccessGuard(db)
	audit := service.NewAuditRecorder(db, 64)
	t.Cleanup(audit.Close)

	return &testEnv{
		db:       db,
		guard:    guard,
		audit:    audit,
		timeline: service.NewTimelineService(db, guard, audit),
		projects: service.NewProjectService(db, guard, audit),
	}
}

func (e *testEnv) createProject(t *testing.T, ownerID string, collaborators ...string) *model.Project {
	t.Helper()

	p := &model.Project{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Name:          "test project",
		Collaborators: collaborators,
		Permissions:   model.JSONMap{},
	}
	require.NoError(t, e.db.Create(p).Error)

	return p
}

func stateWithPlayhead(at float64) model.TimelineState {
	s := model.DefaultTimelineState()
	s.PlayheadTime = at
	return s
}

package service_test

import (
	"context"
	"testing"

	"clipforge/editor-api/internal/service"
	"clipforge/editor-api/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetProject(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	p, err := e.projects.Create(ctx, "owner", "My edit", "rough cut")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := e.projects.Get(ctx, p.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, "My edit", got.Name)
	assert.Equal(t, "rough cut", got.Description)
	assert.Equal(t, "owner", got.OwnerID)
	assert.False(t, got.IsDeleted)
}

func TestCreateProjectRequiresName(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.projects.Create(context.Background(), "owner", "", "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestListProjectsScopedToCaller(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	mine, err := e.projects.Create(ctx, "alice", "mine", "")
	require.NoError(t, err)
	shared := e.createProject(t, "bob", "alice")
	e.createProject(t, "bob")
	e.createProject(t, "carol", "bob")

	projects, err := e.projects.List(ctx, "alice", 50, 0)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	ids := []string{projects[0].ID, projects[1].ID}
	assert.Contains(t, ids, mine.ID)
	assert.Contains(t, ids, shared.ID)
}

func TestListProjectsSkipsSubstringMatches(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	// "al" is a substring of "alice" but not a collaborator
	e.createProject(t, "bob", "alice")

	projects, err := e.projects.List(ctx, "al", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestUpdateProjectPartial(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner")

	name := "renamed"
	got, err := e.projects.Update(ctx, p.ID, "owner", service.ProjectUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	empty := ""
	_, err = e.projects.Update(ctx, p.ID, "owner", service.ProjectUpdate{Name: &empty})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSoftDeleteAndRestoreProject(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner", "collab")

	// Collaborators can read but not delete
	err := e.projects.SoftDelete(ctx, p.ID, "collab")
	assert.True(t, apperr.IsKind(err, apperr.KindAccessDenied))

	require.NoError(t, e.projects.SoftDelete(ctx, p.ID, "owner"))

	// Deleted projects behave as missing for everyone
	_, err = e.projects.Get(ctx, p.ID, "owner")
	assert.True(t, apperr.IsKind(err, apperr.KindAccessDenied))

	projects, err := e.projects.List(ctx, "owner", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, projects)

	// Only the owner can bring it back
	_, err = e.projects.Restore(ctx, p.ID, "collab")
	assert.True(t, apperr.IsKind(err, apperr.KindAccessDenied))

	restored, err := e.projects.Restore(ctx, p.ID, "owner")
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)

	got, err := e.projects.Get(ctx, p.ID, "collab")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestRestoreNotDeletedProjectIsNoop(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner")

	got, err := e.projects.Restore(ctx, p.ID, "owner")
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
}

func TestSoftDeletePreservesTimelineHistory(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner")

	_, err := e.timeline.Save(ctx, p.ID, "owner", stateWithPlayhead(3), "", "")
	require.NoError(t, err)

	require.NoError(t, e.projects.SoftDelete(ctx, p.ID, "owner"))
	_, err = e.projects.Restore(ctx, p.ID, "owner")
	require.NoError(t, err)

	current, err := e.timeline.GetCurrent(ctx, p.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
	assert.Equal(t, 3.0, current.TimelineState.PlayheadTime)
}

func TestCollaboratorManagement(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner")

	_, err := e.projects.AddCollaborator(ctx, p.ID, "owner", "dave", []string{"edit"})
	require.NoError(t, err)

	got, err := e.projects.Get(ctx, p.ID, "dave")
	require.NoError(t, err)
	assert.True(t, got.Collaborators.Contains("dave"))

	// Adding twice keeps a single entry
	updated, err := e.projects.AddCollaborator(ctx, p.ID, "owner", "dave", nil)
	require.NoError(t, err)
	assert.Len(t, updated.Collaborators, 1)

	// Owners never appear in their own collaborator list
	updated, err = e.projects.AddCollaborator(ctx, p.ID, "owner", "owner", nil)
	require.NoError(t, err)
	assert.Len(t, updated.Collaborators, 1)

	// Non-owners can't share
	_, err = e.projects.AddCollaborator(ctx, p.ID, "dave", "eve", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindAccessDenied))

	_, err = e.projects.RemoveCollaborator(ctx, p.ID, "owner", "dave")
	require.NoError(t, err)

	_, err = e.projects.Get(ctx, p.ID, "dave")
	assert.True(t, apperr.IsKind(err, apperr.KindAccessDenied))
}

func TestAddCollaboratorValidation(t *testing.T) {
	e := newTestEnv(t)
	p := e.createProject(t, "owner")

	_, err := e.projects.AddCollaborator(context.Background(), p.ID, "owner", "", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/editor-api/internal/service"
	"clipforge/editor-api/pkg/apperr"
	"clipforge/editor-api/pkg/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMediaEnv(t *testing.T, e *testEnv, ft *fakeTranscoder) (*service.MediaService, string) {
	t.Helper()

	mediaDir := t.TempDir()
	st, err := service.NewLocalStorage(mediaDir)
	require.NoError(t, err)

	compiler := service.NewSegmentCompiler(ft, t.TempDir(), 2)
	return service.NewMediaService(e.db, e.guard, e.audit, ft, compiler, st), mediaDir
}

func writeUpload(t *testing.T, name string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("fake video bytes"), 0o644))
	return p
}

func TestSaveSourceStoresFileAndMetadata(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner")

	ft := &fakeTranscoder{}
	media, mediaDir := newMediaEnv(t, e, ft)

	upload := writeUpload(t, "clip.webm")

	got, err := media.SaveSource(ctx, p.ID, "owner", upload, "clip.webm")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got.SourcePath, filepath.Join(mediaDir, "videos")))
	assert.Equal(t, ".webm", filepath.Ext(got.SourcePath))
	assert.FileExists(t, got.SourcePath)
	assert.NoFileExists(t, upload)

	// Probed duration and thumbnail land on the project
	assert.Equal(t, 60.0, got.Duration)
	assert.NotEmpty(t, got.Thumbnail)
	assert.FileExists(t, got.Thumbnail)
}

func TestSaveSourceDeniedForStrangers(t *testing.T) {
	e := newTestEnv(t)
	p := e.createProject(t, "owner")

	ft := &fakeTranscoder{}
	media, _ := newMediaEnv(t, e, ft)

	_, err := media.SaveSource(context.Background(), p.ID, "stranger", writeUpload(t, "a.mp4"), "a.mp4")
	assert.True(t, apperr.IsKind(err, apperr.KindAccessDenied))
}

func TestTrimSegmentsProducesStoredOutput(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner")

	ft := &fakeTranscoder{}
	media, mediaDir := newMediaEnv(t, e, ft)

	_, err := media.SaveSource(ctx, p.ID, "owner", writeUpload(t, "clip.mp4"), "clip.mp4")
	require.NoError(t, err)

	res, err := media.TrimSegments(ctx, p.ID, "owner", []validators.MediaSegment{
		{StartTime: 10, Duration: 4},
		{StartTime: 0, Duration: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 6.0, res.NewDuration)
	assert.True(t, strings.HasPrefix(res.OutputPath, filepath.Join(mediaDir, "processed")))
	assert.FileExists(t, res.OutputPath)
}

func TestTrimSegmentsEmptyListIsNoop(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner")

	ft := &fakeTranscoder{}
	media, _ := newMediaEnv(t, e, ft)

	got, err := media.SaveSource(ctx, p.ID, "owner", writeUpload(t, "clip.mp4"), "clip.mp4")
	require.NoError(t, err)

	res, err := media.TrimSegments(ctx, p.ID, "owner", nil)
	require.NoError(t, err)

	assert.Equal(t, got.SourcePath, res.OutputPath)
	assert.Equal(t, got.Duration, res.NewDuration)
	assert.FileExists(t, got.SourcePath)
	assert.Empty(t, ft.extracts)
}

func TestMediaFlowOverS3Storage(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.createProject(t, "owner")

	_, st := newFakeS3Storage()
	ft := &fakeTranscoder{}
	media := service.NewMediaService(e.db, e.guard, e.audit, ft, service.NewSegmentCompiler(ft, t.TempDir(), 2), st)

	got, err := media.SaveSource(ctx, p.ID, "owner", writeUpload(t, "clip.mp4"), "clip.mp4")
	require.NoError(t, err)

	// The stored source is an object key, not a filesystem path
	assert.True(t, strings.HasPrefix(got.SourcePath, "videos/"), "got %q", got.SourcePath)
	assert.True(t, strings.HasPrefix(got.Thumbnail, "thumbnails/"), "got %q", got.Thumbnail)
	assert.Equal(t, 60.0, got.Duration)

	res, err := media.TrimSegments(ctx, p.ID, "owner", []validators.MediaSegment{
		{StartTime: 0, Duration: 2},
		{StartTime: 10, Duration: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, 6.0, res.NewDuration)
	assert.True(t, strings.HasPrefix(res.OutputPath, "processed/"), "got %q", res.OutputPath)

	// The transcoder never saw the object key, only a downloaded local copy
	require.NotEmpty(t, ft.sources)
	for _, src := range ft.sources {
		assert.NotEqual(t, got.SourcePath, src)
		assert.Contains(t, filepath.Base(src), "fetch-")
	}
}

func TestTrimSegmentsWithoutSource(t *testing.T) {
	e := newTestEnv(t)
	p := e.createProject(t, "owner")

	ft := &fakeTranscoder{}
	media, _ := newMediaEnv(t, e, ft)

	_, err := media.TrimSegments(context.Background(), p.ID, "owner", []validators.MediaSegment{
		{StartTime: 0, Duration: 1},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

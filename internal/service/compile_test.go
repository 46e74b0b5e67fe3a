package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"clipforge/editor-api/internal/service"
	"clipforge/editor-api/pkg/apperr"
	"clipforge/editor-api/pkg/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranscoder records every call and writes real files so cleanup
// behavior can be observed on disk
type fakeTranscoder struct {
	mu       sync.Mutex
	extracts []validators.MediaSegment
	sources  []string
	temps    []string
	concats  int

	// failAtStart makes Extract fail for the segment starting there
	failAtStart float64
	failConcat  bool
}

func (f *fakeTranscoder) Extract(ctx context.Context, src string, start, duration float64, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	f.extracts = append(f.extracts, validators.MediaSegment{StartTime: start, Duration: duration})
	f.sources = append(f.sources, src)
	f.temps = append(f.temps, dst)
	f.mu.Unlock()

	if f.failAtStart != 0 && start == f.failAtStart {
		return errors.New("ffmpeg exited with status 1")
	}

	return os.WriteFile(dst, []byte("segment"), 0o644)
}

func (f *fakeTranscoder) Concat(ctx context.Context, listPath, dst string) error {
	f.mu.Lock()
	f.concats++
	f.mu.Unlock()

	if f.failConcat {
		return errors.New("ffmpeg exited with status 1")
	}

	list, err := os.ReadFile(listPath)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, list, 0o644)
}

// Duration and Thumbnail insist on a readable local file, like ffprobe would
func (f *fakeTranscoder) Duration(ctx context.Context, src string) (float64, error) {
	if _, err := os.Stat(src); err != nil {
		return 0, err
	}

	return 60, nil
}

func (f *fakeTranscoder) Thumbnail(ctx context.Context, src, dst string, at float64) error {
	if _, err := os.Stat(src); err != nil {
		return err
	}

	return os.WriteFile(dst, []byte("thumb"), 0o644)
}

func (f *fakeTranscoder) tempPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.temps...)
}

func newCompiler(t *testing.T, ft *fakeTranscoder) *service.SegmentCompiler {
	t.Helper()
	return service.NewSegmentCompiler(ft, t.TempDir(), 2)
}

func TestCompileEmptySegmentsReturnsSource(t *testing.T) {
	ft := &fakeTranscoder{}
	sc := newCompiler(t, ft)

	out, err := sc.Compile(context.Background(), "/media/in.mp4", nil)
	require.NoError(t, err)
	assert.Equal(t, "/media/in.mp4", out)
	assert.Empty(t, ft.extracts)
	assert.Zero(t, ft.concats)
}

func TestCompileSingleSegmentFastPath(t *testing.T) {
	ft := &fakeTranscoder{}
	sc := newCompiler(t, ft)

	out, err := sc.Compile(context.Background(), "/media/in.mp4", []validators.MediaSegment{
		{StartTime: 5, Duration: 10},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(out, ".mp4"))
	assert.FileExists(t, out)

	// One extract straight into the output, no concat
	require.Len(t, ft.extracts, 1)
	assert.Equal(t, 5.0, ft.extracts[0].StartTime)
	assert.Zero(t, ft.concats)
}

func TestCompileSortsSegmentsByStartTime(t *testing.T) {
	ft := &fakeTranscoder{}
	sc := service.NewSegmentCompiler(ft, t.TempDir(), 1)

	out, err := sc.Compile(context.Background(), "/media/in.mp4", []validators.MediaSegment{
		{StartTime: 30, Duration: 5},
		{StartTime: 0, Duration: 5},
		{StartTime: 10, Duration: 5},
	})
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.Equal(t, 1, ft.concats)

	// A single worker extracts in submission order, which is sorted order
	require.Len(t, ft.extracts, 3)
	assert.Equal(t, 0.0, ft.extracts[0].StartTime)
	assert.Equal(t, 10.0, ft.extracts[1].StartTime)
	assert.Equal(t, 30.0, ft.extracts[2].StartTime)

	// The concat list, captured in the output, names the temps in order
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Contains(t, line, fmt.Sprintf("segment_%d_", i))
	}
}

func TestCompileKeepsSourceExtension(t *testing.T) {
	ft := &fakeTranscoder{}
	sc := newCompiler(t, ft)

	out, err := sc.Compile(context.Background(), "/media/in.webm", []validators.MediaSegment{
		{StartTime: 0, Duration: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, ".webm", filepath.Ext(out))
}

func TestCompileRejectsBadSegments(t *testing.T) {
	ft := &fakeTranscoder{}
	sc := newCompiler(t, ft)

	_, err := sc.Compile(context.Background(), "/media/in.mp4", []validators.MediaSegment{
		{StartTime: -1, Duration: 5},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = sc.Compile(context.Background(), "/media/in.mp4", []validators.MediaSegment{
		{StartTime: 0, Duration: 0},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// Nothing was started
	assert.Empty(t, ft.extracts)
}

func TestCompileCleansUpOnExtractFailure(t *testing.T) {
	ft := &fakeTranscoder{failAtStart: 10}
	sc := service.NewSegmentCompiler(ft, t.TempDir(), 1)

	_, err := sc.Compile(context.Background(), "/media/in.mp4", []validators.MediaSegment{
		{StartTime: 0, Duration: 5},
		{StartTime: 10, Duration: 5},
		{StartTime: 20, Duration: 5},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindOperation))

	// Every temp that was written is gone again
	for _, p := range ft.tempPaths() {
		assert.NoFileExists(t, p)
	}
	assert.Zero(t, ft.concats)
}

func TestCompileCleansUpOnConcatFailure(t *testing.T) {
	ft := &fakeTranscoder{failConcat: true}
	sc := newCompiler(t, ft)

	_, err := sc.Compile(context.Background(), "/media/in.mp4", []validators.MediaSegment{
		{StartTime: 0, Duration: 5},
		{StartTime: 10, Duration: 5},
	})
	require.Error(t, err)

	for _, p := range ft.tempPaths() {
		assert.NoFileExists(t, p)
	}
}

func TestCompileCleansUpOnCancel(t *testing.T) {
	ft := &fakeTranscoder{}
	sc := newCompiler(t, ft)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sc.Compile(ctx, "/media/in.mp4", []validators.MediaSegment{
		{StartTime: 0, Duration: 5},
		{StartTime: 10, Duration: 5},
		{StartTime: 20, Duration: 5},
	})
	require.Error(t, err)

	for _, p := range ft.tempPaths() {
		assert.NoFileExists(t, p)
	}
}

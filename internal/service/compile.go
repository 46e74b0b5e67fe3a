package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"clipforge/editor-api/pkg/apperr"
	"clipforge/editor-api/pkg/validators"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SegmentCompiler turns an ordered list of (start, duration) windows of a
// source file into a single output file. Extracts run in parallel against
// the shared read-only source, the final concat waits for all of them.
// Temp files are removed on every exit path, including cancellation
type SegmentCompiler struct {
	Transcoder Transcoder

	// OutputDir receives compiled files. Temp extracts live in os.TempDir
	OutputDir string

	// Workers bounds parallel extracts, zero means 4
	Workers int
}

func NewSegmentCompiler(t Transcoder, outputDir string, workers int) *SegmentCompiler {
	if workers <= 0 {
		workers = 4
	}

	return &SegmentCompiler{Transcoder: t, OutputDir: outputDir, Workers: workers}
}

// Compile produces one file containing the requested segments in start-time
// order. An empty segment list is a no-op returning the source path. A
// single segment takes the fast path with no concat machinery
func (sc *SegmentCompiler) Compile(ctx context.Context, sourcePath string, segments []validators.MediaSegment) (string, error) {
	if err := validators.SegmentsValidator(segments); err != nil {
		return "", err
	}

	if len(segments) == 0 {
		return sourcePath, nil
	}

	// Caller order is not trusted, output order is start-time order
	sorted := slices.Clone(segments)
	slices.SortStableFunc(sorted, func(a, b validators.MediaSegment) int {
		switch {
		case a.StartTime < b.StartTime:
			return -1
		case a.StartTime > b.StartTime:
			return 1
		default:
			return 0
		}
	})

	ext := filepath.Ext(sourcePath)
	if ext == "" {
		ext = ".mp4"
	}

	outPath := filepath.Join(sc.OutputDir, "trimmed_"+uuid.NewString()+ext)

	if len(sorted) == 1 {
		seg := sorted[0]
		if err := sc.Transcoder.Extract(ctx, sourcePath, seg.StartTime, seg.Duration, outPath); err != nil {
			os.Remove(outPath)
			return "", apperr.Operation("failed to extract segment", err)
		}

		return outPath, nil
	}

	out, err := sc.concatSegments(ctx, sourcePath, sorted, outPath, ext)
	if err != nil {
		os.Remove(outPath)
		return "", err
	}

	return out, nil
}

func (sc *SegmentCompiler) concatSegments(ctx context.Context, sourcePath string, segments []validators.MediaSegment, outPath, ext string) (string, error) {
	tempPaths := make([]string, len(segments))
	for i := range segments {
		tempPaths[i] = filepath.Join(os.TempDir(), fmt.Sprintf("segment_%d_%s%s", i, uuid.NewString(), ext))
	}

	listPath := filepath.Join(os.TempDir(), "concat_"+uuid.NewString()+".txt")

	// Cleanup runs no matter how we leave, a failed or cancelled compile
	// must not leak temp media
	defer func() {
		for _, p := range tempPaths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				zap.L().Warn("Failed to remove temp segment", zap.String("path", p), zap.Error(err))
			}
		}

		if err := os.Remove(listPath); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("Failed to remove concat list", zap.String("path", listPath), zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.Workers)

	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			return sc.Transcoder.Extract(gctx, sourcePath, seg.StartTime, seg.Duration, tempPaths[i])
		})
	}

	if err := g.Wait(); err != nil {
		return "", apperr.Operation("failed to extract segment", err)
	}

	var list strings.Builder
	for _, p := range tempPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", apperr.Operation("failed to resolve temp segment path", err)
		}

		fmt.Fprintf(&list, "file '%s'\n", abs)
	}

	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", apperr.Operation("failed to write concat list", err)
	}

	if err := sc.Transcoder.Concat(ctx, listPath, outPath); err != nil {
		return "", apperr.Operation("failed to concatenate segments", err)
	}

	return outPath, nil
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"clipforge/editor-api/pkg/util"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Transcoder is the external media tool behind the segment compiler. It may
// fail non-deterministically (corrupt input, codec mismatch), callers treat
// any error as opaque
type Transcoder interface {
	// Extract copies [start, start+duration) of src into dst
	Extract(ctx context.Context, src string, start, duration float64, dst string) error

	// Concat merges the files named in the concat list into dst, in list order
	Concat(ctx context.Context, listPath, dst string) error

	// Duration probes the media duration of src in seconds
	Duration(ctx context.Context, src string) (float64, error)

	// Thumbnail grabs a single frame of src at the given offset into dst
	Thumbnail(ctx context.Context, src, dst string, at float64) error
}

// FFmpeg shells out to ffmpeg/ffprobe. Stream copy is used for cut and
// concat so no re-encode happens, cuts land on keyframe boundaries
type FFmpeg struct {
	Path      string
	ProbePath string
}

func NewFFmpeg() *FFmpeg {
	path := viper.GetString("ffmpeg.path")
	if path == "" {
		path = "ffmpeg"
	}

	probe := viper.GetString("ffmpeg.probe_path")
	if probe == "" {
		probe = "ffprobe"
	}

	return &FFmpeg{Path: path, ProbePath: probe}
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.Path, args...)

	zap.L().Debug("Running FFmpeg command", zap.String("cmd", cmd.String()))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		zap.L().Error("FFmpeg failed", zap.Error(err), zap.String("stderr", stderr.String()))
		return fmt.Errorf("ffmpeg failed, %w", err)
	}

	return nil
}

func (f *FFmpeg) Extract(ctx context.Context, src string, start, duration float64, dst string) error {
	return f.run(ctx, []string{
		"-loglevel", "error",
		"-ss", util.FloatToTimestamp(start),
		"-t", util.FloatToTimestamp(duration),
		"-i", src,
		"-c", "copy",
		"-y", dst,
	})
}

func (f *FFmpeg) Concat(ctx context.Context, listPath, dst string) error {
	return f.run(ctx, []string{
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", dst,
	})
}

func (f *FFmpeg) Thumbnail(ctx context.Context, src, dst string, at float64) error {
	return f.run(ctx, []string{
		"-loglevel", "error",
		"-ss", util.FloatToTimestamp(at),
		"-i", src,
		"-frames:v", "1",
		"-q:v", "2",
		"-vf", "scale=640:-2",
		"-y", dst,
	})
}

func (f *FFmpeg) Duration(ctx context.Context, src string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	zap.L().Debug("Running FFprobe to determine media duration")

	cmd := exec.CommandContext(ctx, f.ProbePath, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", "-i", src)

	var stdOut, stdErr bytes.Buffer
	cmd.Stdout = &stdOut
	cmd.Stderr = &stdErr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed, %w (%s)", err, stdErr.String())
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(stdOut.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed duration: %w (%s)", err, stdErr.String())
	}

	return d, nil
}

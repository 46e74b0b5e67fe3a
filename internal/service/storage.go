package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	a "clipforge/editor-api/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Storage puts compiled and uploaded media somewhere durable. The local
// path handed to Store is consumed, it's gone after a successful store
type Storage interface {
	// Store moves the file at localPath under the given key and returns
	// where it ended up (a filesystem path or an object key)
	Store(ctx context.Context, localPath, key string) (string, error)

	// Fetch makes a stored object available on the local filesystem for
	// tools that can't read remote storage. The cleanup func removes any
	// temporary copy, call it when done with the path
	Fetch(ctx context.Context, stored string) (string, func(), error)
}

// LocalStorage keeps media on the local disk under Dir
type LocalStorage struct {
	Dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory, %w", err)
	}

	return &LocalStorage{Dir: dir}, nil
}

func (l *LocalStorage) Store(ctx context.Context, localPath, key string) (string, error) {
	dst := filepath.Join(l.Dir, key)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media subdirectory, %w", err)
	}

	if err := os.Rename(localPath, dst); err == nil {
		return dst, nil
	}

	// Rename fails across filesystems (temp dir on tmpfs), fall back to copy
	in, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open media file, %w", err)
	}
	defer os.Remove(localPath)
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create media file, %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to copy media file, %w", err)
	}

	return dst, nil
}

// Fetch is a no-op for local storage, stored values are already paths
func (l *LocalStorage) Fetch(ctx context.Context, stored string) (string, func(), error) {
	return stored, func() {}, nil
}

// S3Storage uploads media to the configured bucket and removes the local
// file afterwards. Fetch downloads objects to a temp file for ffmpeg
type S3Storage struct {
	Bucket     *string
	Uploader   *manager.Uploader
	Downloader *manager.Downloader
}

func NewS3Storage(c *a.S3Client) *S3Storage {
	return &S3Storage{
		Bucket:     c.Bucket,
		Uploader:   manager.NewUploader(c.C),
		Downloader: manager.NewDownloader(c.C),
	}
}

func (s *S3Storage) Store(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open media file, %w", err)
	}
	defer os.Remove(localPath)
	defer f.Close()

	_, err = s.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3, %w", err)
	}

	zap.L().Debug("Uploaded media to S3", zap.String("key", key))
	return key, nil
}

func (s *S3Storage) Fetch(ctx context.Context, stored string) (string, func(), error) {
	f, err := os.CreateTemp("", "fetch-*"+filepath.Ext(stored))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary file, %w", err)
	}
	defer f.Close()

	cleanup := func() { os.Remove(f.Name()) }

	_, err = s.Downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(stored),
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to download from S3, %w", err)
	}

	zap.L().Debug("Downloaded media from S3", zap.String("key", stored))
	return f.Name(), cleanup, nil
}

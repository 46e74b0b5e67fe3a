package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxRetries   = 3
	retryBackoff = 100 * time.Millisecond
)

// isTransient classifies store errors. Only connection-level trouble is
// worth retrying, logical failures like duplicate keys will fail again
// no matter how often we try
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	msg := err.Error()
	for _, s := range []string{
		"database is locked",
		"database table is locked",
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}

// withRetry runs fn up to maxRetries+1 times with doubling backoff for
// transient store errors. Anything else propagates immediately
func withRetry(ctx context.Context, op string, fn func() error) error {
	delay := retryBackoff

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}

		if attempt == maxRetries {
			break
		}

		zap.L().Warn("Transient database error, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
	}

	return err
}

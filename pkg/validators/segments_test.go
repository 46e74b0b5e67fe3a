package validators_test

import (
	"testing"

	"clipforge/editor-api/pkg/apperr"
	"clipforge/editor-api/pkg/validators"

	"github.com/stretchr/testify/assert"
)

func TestSegmentsValidator(t *testing.T) {
	assert.NoError(t, validators.SegmentsValidator(nil))
	assert.NoError(t, validators.SegmentsValidator([]validators.MediaSegment{
		{StartTime: 0, Duration: 1},
		{StartTime: 10.5, Duration: 0.25},
	}))

	err := validators.SegmentsValidator([]validators.MediaSegment{
		{StartTime: 0, Duration: 1},
		{StartTime: -0.5, Duration: 1},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "segment 1")

	err = validators.SegmentsValidator([]validators.MediaSegment{
		{StartTime: 3, Duration: 0},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "duration")
}

func TestMediaSegmentEnd(t *testing.T) {
	s := validators.MediaSegment{StartTime: 2.5, Duration: 5}
	assert.Equal(t, 7.5, s.End())
}

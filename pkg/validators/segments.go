// Package validators bundles request payload checks shared by the
// HTTP layer and the services
package validators

import (
	"fmt"

	"clipforge/editor-api/pkg/apperr"
)

// MediaSegment is one (start, duration) window of the source media to keep.
// Callers may send segments in any order, the compiler sorts by start time
type MediaSegment struct {
	StartTime float64 `json:"start_time" form:"startTime"`
	Duration  float64 `json:"duration" form:"duration"`
}

func (s MediaSegment) End() float64 {
	return s.StartTime + s.Duration
}

// SegmentsValidator rejects malformed segments before any transcoder work
// is started. An empty list is fine, it means "keep the source as is"
func SegmentsValidator(segments []MediaSegment) error {
	for i, s := range segments {
		if s.StartTime < 0 {
			return apperr.Validation(fmt.Sprintf("segment %d: start time can't be negative", i))
		}

		if s.Duration <= 0 {
			return apperr.Validation(fmt.Sprintf("segment %d: duration must be bigger than 0", i))
		}
	}

	return nil
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ClipType string

const (
	ClipVideo   ClipType = "video"
	ClipAudio   ClipType = "audio"
	ClipText    ClipType = "text"
	ClipEffect  ClipType = "effect"
	ClipOverlay ClipType = "overlay"
)

type Keyframe struct {
	ID       string  `json:"id"`
	Time     float64 `json:"time"`
	Property string  `json:"property"`
	Value    any     `json:"value"`
	Easing   string  `json:"easing,omitempty"`
}

type ClipProperties struct {
	Opacity  float64            `json:"opacity"`
	Scale    float64            `json:"scale"`
	Position map[string]float64 `json:"position,omitempty"`
	Rotation float64            `json:"rotation"`
}

type Clip struct {
	ID         string         `json:"id"`
	Type       ClipType       `json:"type"`
	StartTime  float64        `json:"start_time"`
	EndTime    float64        `json:"end_time"`
	Duration   float64        `json:"duration"`
	SourcePath string         `json:"source_path,omitempty"`
	Content    string         `json:"content,omitempty"`
	Properties ClipProperties `json:"properties"`
	Keyframes  []Keyframe     `json:"keyframes,omitempty"`
}

type Layer struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      ClipType `json:"type"`
	Clips     []Clip   `json:"clips"`
	IsVisible bool     `json:"is_visible"`
	IsLocked  bool     `json:"is_locked"`
	IsMuted   bool     `json:"is_muted"`
	Order     int      `json:"order"`
}

type Marker struct {
	ID    string  `json:"id"`
	Time  float64 `json:"time"`
	Label string  `json:"label"`
	Color string  `json:"color,omitempty"`
}

// TimelineState is the full editor state for a project. The editor enforces
// cross-field rules like clip non-overlap, the backend stores it verbatim.
// Stored as a JSON text column on TimelineSnapshot
type TimelineState struct {
	Layers          []Layer  `json:"layers"`
	PlayheadTime    float64  `json:"playhead_time"`
	Zoom            float64  `json:"zoom"`
	Duration        float64  `json:"duration"`
	Markers         []Marker `json:"markers"`
	SelectedClipIDs []string `json:"selected_clip_ids"`
	IsPlaying       bool     `json:"is_playing"`
	IsSnapping      bool     `json:"is_snapping"`
}

// DefaultTimelineState is what a project looks like before its first save.
// Never persisted, only synthesized for reads
func DefaultTimelineState() TimelineState {
	return TimelineState{
		Layers:          []Layer{},
		Zoom:            1.0,
		Markers:         []Marker{},
		SelectedClipIDs: []string{},
		IsSnapping:      true,
	}
}

// Value implements the driver.Valuer interface.
func (t TimelineState) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TimelineState, %w", err)
	}

	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (t *TimelineState) Scan(value interface{}) error {
	if value == nil {
		*t = DefaultTimelineState()
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("failed to scan TimelineState, %v", value)
	}

	if len(b) == 0 {
		*t = DefaultTimelineState()
		return nil
	}

	return json.Unmarshal(b, t)
}

// TimelineSnapshot is one persisted version of a project's timeline.
// Immutable once written except for is_current, description, change_summary
// and partial timeline_state updates
type TimelineSnapshot struct {
	ID        string `gorm:"primaryKey" json:"id"`
	ProjectID string `gorm:"index:idx_project_version,unique;index:idx_project_current;not null" json:"project_id"`

	// Version starts at 1 per project and only ever grows. Deleting a
	// snapshot never renumbers the survivors
	Version int `gorm:"index:idx_project_version,unique;not null" json:"version"`

	TimelineState TimelineState `gorm:"type:text" json:"timeline_state"`

	IsCurrent     bool   `gorm:"index:idx_project_current;default:false" json:"is_current"`
	Description   string `json:"description,omitempty"`
	ChangeSummary string `json:"change_summary,omitempty"`

	CreatedBy string    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

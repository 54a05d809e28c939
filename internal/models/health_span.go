package models

import "time"

// HealthLabel is the health attributed to a span of time
type HealthLabel string

const (
	LabelHealthy   HealthLabel = "healthy"
	LabelRolling   HealthLabel = "rolling"
	LabelDegraded  HealthLabel = "degraded"
	LabelUnhealthy HealthLabel = "unhealthy"
	LabelUnknown   HealthLabel = "unknown"
)

// HealthSpan is a half-open interval [Start, End) with one health label
type HealthSpan struct {
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
	Label HealthLabel `json:"label"`
}

// Duration returns the length of the span
func (s HealthSpan) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Contains reports whether t falls inside [Start, End)
func (s HealthSpan) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Validate validates HealthSpan
func (s HealthSpan) Validate() error {
	if s.End.Before(s.Start) {
		return NewValidationError("span end %s is before start %s", s.End, s.Start)
	}
	switch s.Label {
	case LabelHealthy, LabelRolling, LabelDegraded, LabelUnhealthy, LabelUnknown:
	default:
		return NewValidationError("label must be one of: healthy, rolling, degraded, unhealthy, unknown")
	}
	return nil
}

// HealthTimeline is the reconstructed health history of one lane
type HealthTimeline struct {
	Spans               []HealthSpan `json:"spans"`
	CreatedAt           *time.Time   `json:"createdAt,omitempty"`
	CreatedBeforeWindow bool         `json:"createdBeforeWindow"`
}

// LabelAt returns the label in effect at t, if any span covers it
func (h HealthTimeline) LabelAt(t time.Time) (HealthLabel, bool) {
	for _, s := range h.Spans {
		if s.Contains(t) {
			return s.Label, true
		}
	}
	return "", false
}

package classify

import (
	"strings"

	"github.com/moolen/laneview/internal/kinds"
	"github.com/moolen/laneview/internal/models"
)

// DefaultRolloutMarkers are the diff-summary fragments that indicate a replica
// count, image or pod template change.
//
// Matching free text is fuzzy by nature: a summary that mentions "template"
// for an unrelated field is a false positive, and a summary format that drops
// these tokens is a false negative. Tune the markers through configuration.
var DefaultRolloutMarkers = []string{"replicas", "updated:", "image(", "template"}

// RolloutDetector decides whether an event belongs to an in-progress rollout
type RolloutDetector interface {
	IsRollout(e *models.Event) bool
}

// RolloutDetectorFunc adapts a function to RolloutDetector
type RolloutDetectorFunc func(e *models.Event) bool

// IsRollout implements RolloutDetector
func (f RolloutDetectorFunc) IsRollout(e *models.Event) bool {
	return f(e)
}

// MarkerRolloutDetector flags events on kinds with revisions whose diff summary
// contains one of Markers (case-insensitive).
type MarkerRolloutDetector struct {
	Markers []string
}

// NewMarkerRolloutDetector returns a detector for markers, or the defaults when markers is empty
func NewMarkerRolloutDetector(markers ...string) *MarkerRolloutDetector {
	if len(markers) == 0 {
		markers = DefaultRolloutMarkers
	}
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			lowered = append(lowered, strings.ToLower(m))
		}
	}
	return &MarkerRolloutDetector{Markers: lowered}
}

// IsRollout implements RolloutDetector
func (d *MarkerRolloutDetector) IsRollout(e *models.Event) bool {
	if !kinds.Parse(e.Kind).HasRevisions() {
		return false
	}
	summary := strings.ToLower(e.DiffSummary())
	if summary == "" {
		return false
	}
	for _, m := range d.Markers {
		if strings.Contains(summary, m) {
			return true
		}
	}
	return false
}

// Package timeline turns point-in-time change events into contiguous health
// spans for one resource.
package timeline

import (
	"sort"
	"time"

	"github.com/moolen/laneview/internal/classify"
	"github.com/moolen/laneview/internal/kinds"
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
)

// Window is the observed time range. Spans never start before Start or end after Now.
type Window struct {
	Start time.Time
	Now   time.Time
}

// Reconstructor builds health timelines with a given classifier
type Reconstructor struct {
	classifier *classify.Classifier
	logger     *logging.Logger
}

// NewReconstructor creates a new Reconstructor. A nil classifier uses classify.Default().
func NewReconstructor(classifier *classify.Classifier) *Reconstructor {
	if classifier == nil {
		classifier = classify.Default()
	}
	return &Reconstructor{
		classifier: classifier,
		logger:     logging.GetLogger("timeline"),
	}
}

// BuildHealthSpans reconstructs a health timeline with the default classifier
func BuildHealthSpans(events []models.Event, windowStart, now time.Time, allEvents []models.Event) models.HealthTimeline {
	return NewReconstructor(nil).Build(events, windowStart, now, allEvents)
}

// Build reconstructs the health timeline of one resource from its events.
// allEvents, when non-empty, is searched instead of events for the creation time.
func (r *Reconstructor) Build(events []models.Event, windowStart, now time.Time, allEvents []models.Event) models.HealthTimeline {
	lookup := allEvents
	if len(lookup) == 0 {
		lookup = events
	}
	return r.build(events, windowStart, now, lookup)
}

// build reconstructs the timeline, taking the creation time from lookup only
func (r *Reconstructor) build(events []models.Event, windowStart, now time.Time, lookup []models.Event) models.HealthTimeline {
	var result models.HealthTimeline

	existenceStart := windowStart
	if createdAt := firstCreatedAt(lookup); createdAt != nil {
		existenceStart = *createdAt
		result.CreatedAt = createdAt
		result.CreatedBeforeWindow = createdAt.Before(windowStart)
	}

	changes := changeEvents(events)

	existenceEnd := now
	deleted := false
	for i := range changes {
		if changes[i].EventType == models.EventTypeDelete {
			existenceEnd = changes[i].Timestamp
			deleted = true
			break
		}
	}
	closeAt := existenceEnd
	if now.Before(closeAt) {
		closeAt = now
	}

	var current *models.HealthSpan
	for i := range changes {
		e := &changes[i]
		if e.EventType == models.EventTypeDelete {
			continue
		}
		if e.Timestamp.Before(windowStart) || e.Timestamp.Before(existenceStart) || !e.Timestamp.Before(closeAt) {
			continue
		}

		label := r.classifier.EffectiveHealth(e)
		if current != nil && current.Label == label {
			continue
		}
		if current != nil {
			current.End = e.Timestamp
			result.Spans = appendSpan(result.Spans, *current)
		}
		current = &models.HealthSpan{Start: e.Timestamp, Label: label}
	}

	if current != nil {
		current.End = closeAt
		result.Spans = appendSpan(result.Spans, *current)
	}

	if len(result.Spans) == 0 && result.CreatedAt != nil && !deleted {
		start := existenceStart
		if start.Before(windowStart) {
			start = windowStart
		}
		if start.Before(now) {
			r.logger.Debug("no health signal, presuming healthy since %s", start)
			result.Spans = []models.HealthSpan{{Start: start, End: now, Label: models.LabelHealthy}}
		}
	}

	return result
}

// ForLane reconstructs the timeline of a lane from its own events. Only events
// about the lane's resource supply its creation time; attached records do not.
func (r *Reconstructor) ForLane(lane *models.ResourceLane, window Window) models.HealthTimeline {
	return r.build(lane.Events, window.Start, window.Now, resourceEvents(lane))
}

// resourceEvents returns the lane events whose resource is the lane's own
func resourceEvents(lane *models.ResourceLane) []models.Event {
	var out []models.Event
	for i := range lane.Events {
		if sameResource(lane.Events[i].Key(), lane.Key) {
			out = append(out, lane.Events[i])
		}
	}
	return out
}

func sameResource(a, b models.ResourceKey) bool {
	return a.Namespace == b.Namespace && a.Name == b.Name &&
		(a.Kind == b.Kind || (kinds.Parse(a.Kind) != kinds.KindGeneric && kinds.Parse(a.Kind) == kinds.Parse(b.Kind)))
}

// firstCreatedAt returns the first creation time carried by any event
func firstCreatedAt(events []models.Event) *time.Time {
	for i := range events {
		if events[i].CreatedAt != nil && !events[i].CreatedAt.IsZero() {
			createdAt := *events[i].CreatedAt
			return &createdAt
		}
	}
	return nil
}

// changeEvents returns the add/update/delete events sorted by timestamp
func changeEvents(events []models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for i := range events {
		if events[i].IsChange() {
			out = append(out, events[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// appendSpan drops empty spans and merges s into an adjacent span with the same label
func appendSpan(spans []models.HealthSpan, s models.HealthSpan) []models.HealthSpan {
	if !s.Start.Before(s.End) {
		return spans
	}
	if n := len(spans); n > 0 && spans[n-1].Label == s.Label && spans[n-1].End.Equal(s.Start) {
		spans[n-1].End = s.End
		return spans
	}
	return append(spans, s)
}

package timeline

import (
	"testing"
	"time"

	"github.com/moolen/laneview/internal/classify"
	"github.com/moolen/laneview/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func change(id string, ts time.Time, eventType models.EventType, state models.HealthState) models.Event {
	return models.Event{
		ID:          id,
		Kind:        "Pod",
		Namespace:   "ns",
		Name:        "p1",
		Timestamp:   ts,
		EventType:   eventType,
		HealthState: state,
	}
}

func withCreatedAt(e models.Event, createdAt time.Time) models.Event {
	e.CreatedAt = &createdAt
	return e
}

// requireContiguous checks ordering, contiguity and containment of spans
func requireContiguous(t *testing.T, spans []models.HealthSpan, lower, upper time.Time) {
	t.Helper()
	for i, s := range spans {
		require.NoError(t, s.Validate())
		assert.True(t, s.Start.Before(s.End), "span %d is empty", i)
		assert.False(t, s.Start.Before(lower), "span %d starts before %s", i, lower)
		assert.False(t, s.End.After(upper), "span %d ends after %s", i, upper)
		if i > 0 {
			assert.True(t, spans[i-1].End.Equal(s.Start), "span %d is not contiguous with its predecessor", i)
		}
	}
}

func TestBuildHealthSpans_EndToEndScenario(t *testing.T) {
	crash := change("p1-crash", at(3), models.EventTypeUpdate, models.HealthUnhealthy)
	crash.Reason = "CrashLoopBackOff"
	events := []models.Event{
		change("p1-add", at(2), models.EventTypeAdd, ""),
		crash,
		change("p1-del", at(4), models.EventTypeDelete, ""),
	}

	tl := BuildHealthSpans(events, at(-1), at(5), nil)

	assert.Equal(t, []models.HealthSpan{
		{Start: at(2), End: at(3), Label: models.LabelHealthy},
		{Start: at(3), End: at(4), Label: models.LabelUnhealthy},
	}, tl.Spans)
	assert.Nil(t, tl.CreatedAt)
	assert.False(t, tl.CreatedBeforeWindow)
}

func TestBuildHealthSpans_OutOfOrderInput(t *testing.T) {
	events := []models.Event{
		change("c", at(30), models.EventTypeUpdate, models.HealthHealthy),
		change("a", at(10), models.EventTypeAdd, models.HealthHealthy),
		change("b", at(20), models.EventTypeUpdate, models.HealthDegraded),
	}

	tl := BuildHealthSpans(events, at(0), at(60), nil)

	assert.Equal(t, []models.HealthSpan{
		{Start: at(10), End: at(20), Label: models.LabelHealthy},
		{Start: at(20), End: at(30), Label: models.LabelDegraded},
		{Start: at(30), End: at(60), Label: models.LabelHealthy},
	}, tl.Spans)
	requireContiguous(t, tl.Spans, at(0), at(60))
}

func TestBuildHealthSpans_ConsecutiveSameStateMerges(t *testing.T) {
	events := []models.Event{
		change("a", at(1), models.EventTypeAdd, models.HealthHealthy),
		change("b", at(2), models.EventTypeUpdate, models.HealthHealthy),
		change("c", at(3), models.EventTypeUpdate, models.HealthHealthy),
	}

	tl := BuildHealthSpans(events, at(0), at(10), nil)

	assert.Equal(t, []models.HealthSpan{{Start: at(1), End: at(10), Label: models.LabelHealthy}}, tl.Spans)
}

func TestBuildHealthSpans_SkipsEventsOutsideWindowAndExistence(t *testing.T) {
	createdAt := at(5)
	events := []models.Event{
		withCreatedAt(change("before-window", at(-10), models.EventTypeAdd, models.HealthUnhealthy), createdAt),
		change("before-creation", at(2), models.EventTypeUpdate, models.HealthDegraded),
		change("visible", at(6), models.EventTypeUpdate, models.HealthHealthy),
		change("deleted", at(8), models.EventTypeDelete, ""),
		change("after-delete", at(9), models.EventTypeUpdate, models.HealthUnhealthy),
	}

	tl := BuildHealthSpans(events, at(0), at(20), nil)

	assert.Equal(t, []models.HealthSpan{{Start: at(6), End: at(8), Label: models.LabelHealthy}}, tl.Spans)
	require.NotNil(t, tl.CreatedAt)
	assert.Equal(t, createdAt, *tl.CreatedAt)
	assert.False(t, tl.CreatedBeforeWindow)
	requireContiguous(t, tl.Spans, createdAt, at(8))
}

func TestBuildHealthSpans_CreatedBeforeWindow(t *testing.T) {
	events := []models.Event{
		withCreatedAt(change("a", at(5), models.EventTypeUpdate, models.HealthDegraded), at(-60)),
	}

	tl := BuildHealthSpans(events, at(0), at(10), nil)

	assert.True(t, tl.CreatedBeforeWindow)
	assert.Equal(t, []models.HealthSpan{{Start: at(5), End: at(10), Label: models.LabelDegraded}}, tl.Spans)
}

func TestBuildHealthSpans_SynthesizesHealthySpan(t *testing.T) {
	t.Run("created inside window", func(t *testing.T) {
		record := models.Event{ID: "r", Kind: "Service", Timestamp: at(3), EventType: models.EventTypeNormal}
		record = withCreatedAt(record, at(3))

		tl := BuildHealthSpans([]models.Event{record}, at(0), at(10), nil)

		assert.Equal(t, []models.HealthSpan{{Start: at(3), End: at(10), Label: models.LabelHealthy}}, tl.Spans)
	})

	t.Run("clamped to window start", func(t *testing.T) {
		tl := BuildHealthSpans(nil, at(0), at(10), []models.Event{
			withCreatedAt(models.Event{ID: "x", EventType: models.EventTypeNormal}, at(-30)),
		})

		assert.Equal(t, []models.HealthSpan{{Start: at(0), End: at(10), Label: models.LabelHealthy}}, tl.Spans)
		assert.True(t, tl.CreatedBeforeWindow)
	})

	t.Run("not when deleted", func(t *testing.T) {
		events := []models.Event{
			withCreatedAt(change("del", at(-5), models.EventTypeDelete, ""), at(-30)),
		}

		tl := BuildHealthSpans(events, at(0), at(10), nil)

		assert.Empty(t, tl.Spans)
	})

	t.Run("not without creation time", func(t *testing.T) {
		tl := BuildHealthSpans(nil, at(0), at(10), nil)

		assert.Empty(t, tl.Spans)
		assert.Nil(t, tl.CreatedAt)
	})
}

func TestBuildHealthSpans_AllEventsSuppliesCreatedAt(t *testing.T) {
	own := []models.Event{change("a", at(4), models.EventTypeUpdate, models.HealthHealthy)}
	all := append([]models.Event{withCreatedAt(models.Event{ID: "rec", EventType: models.EventTypeNormal}, at(2))}, own...)

	tl := BuildHealthSpans(own, at(0), at(10), all)

	require.NotNil(t, tl.CreatedAt)
	assert.Equal(t, at(2), *tl.CreatedAt)
}

func TestBuildHealthSpans_ProblematicWithoutState(t *testing.T) {
	e := change("a", at(1), models.EventTypeUpdate, "")
	e.Reason = "OOMKilled"

	tl := BuildHealthSpans([]models.Event{e}, at(0), at(2), nil)

	require.Len(t, tl.Spans, 1)
	assert.Equal(t, models.LabelUnhealthy, tl.Spans[0].Label)
}

func TestBuildHealthSpans_Rollout(t *testing.T) {
	rolling := models.Event{
		ID: "r", Kind: "Deployment", Timestamp: at(1), EventType: models.EventTypeUpdate,
		HealthState: models.HealthDegraded,
		Diff:        &models.DiffInfo{Summary: "image(nginx:1.0 -> nginx:1.1)"},
	}
	done := models.Event{
		ID: "d", Kind: "Deployment", Timestamp: at(4), EventType: models.EventTypeUpdate,
		HealthState: models.HealthHealthy,
	}

	tl := BuildHealthSpans([]models.Event{rolling, done}, at(0), at(10), nil)

	assert.Equal(t, []models.HealthSpan{
		{Start: at(1), End: at(4), Label: models.LabelRolling},
		{Start: at(4), End: at(10), Label: models.LabelHealthy},
	}, tl.Spans)
}

func TestReconstructor_CustomClassifier(t *testing.T) {
	never := classify.RolloutDetectorFunc(func(*models.Event) bool { return false })
	r := NewReconstructor(classify.NewClassifier(never))

	e := models.Event{
		ID: "r", Kind: "Deployment", Timestamp: at(1), EventType: models.EventTypeUpdate,
		HealthState: models.HealthDegraded,
		Diff:        &models.DiffInfo{Summary: "image(a -> b)"},
	}

	tl := r.Build([]models.Event{e}, at(0), at(2), nil)

	require.Len(t, tl.Spans, 1)
	assert.Equal(t, models.LabelDegraded, tl.Spans[0].Label)
}

func TestReconstructor_ForLane(t *testing.T) {
	lane := &models.ResourceLane{
		Key: models.ResourceKey{Kind: "Pod", Namespace: "ns", Name: "p1"},
		Events: []models.Event{
			withCreatedAt(change("add", at(2), models.EventTypeAdd, models.HealthHealthy), at(2)),
			{ID: "rec", Kind: "Event", Timestamp: at(3), EventType: models.EventTypeWarning, Reason: "BackOff"},
		},
	}

	tl := NewReconstructor(nil).ForLane(lane, Window{Start: at(0), Now: at(5)})

	assert.Equal(t, []models.HealthSpan{{Start: at(2), End: at(5), Label: models.LabelHealthy}}, tl.Spans,
		"activity records do not drive health transitions")
}

func TestReconstructor_ForLaneIgnoresRecordCreation(t *testing.T) {
	record := withCreatedAt(models.Event{
		ID: "rec", Kind: "Event", Namespace: "ns", Name: "p1.17a", Timestamp: at(1),
		EventType: models.EventTypeWarning, Reason: "FailedScheduling",
		Owner: &models.OwnerRef{Kind: "Pod", Name: "p1"},
	}, at(-30))
	lane := &models.ResourceLane{
		Key: models.ResourceKey{Kind: "Pod", Namespace: "ns", Name: "p1"},
		Events: []models.Event{
			record,
			withCreatedAt(change("add", at(2), models.EventTypeAdd, models.HealthHealthy), at(2)),
		},
	}

	tl := NewReconstructor(nil).ForLane(lane, Window{Start: at(0), Now: at(5)})

	require.NotNil(t, tl.CreatedAt)
	assert.Equal(t, at(2), *tl.CreatedAt)
	assert.False(t, tl.CreatedBeforeWindow)
	assert.Equal(t, []models.HealthSpan{{Start: at(2), End: at(5), Label: models.LabelHealthy}}, tl.Spans)

	t.Run("records only", func(t *testing.T) {
		recordsOnly := &models.ResourceLane{Key: lane.Key, Events: []models.Event{record}}

		tl := NewReconstructor(nil).ForLane(recordsOnly, Window{Start: at(0), Now: at(5)})

		assert.Nil(t, tl.CreatedAt)
		assert.False(t, tl.CreatedBeforeWindow)
	})

	t.Run("kind spelled differently", func(t *testing.T) {
		pod := withCreatedAt(change("add", at(2), models.EventTypeAdd, models.HealthHealthy), at(2))
		pod.Kind = "pod"
		lane := &models.ResourceLane{Key: lane.Key, Events: []models.Event{pod}}

		tl := NewReconstructor(nil).ForLane(lane, Window{Start: at(0), Now: at(5)})

		require.NotNil(t, tl.CreatedAt)
		assert.Equal(t, at(2), *tl.CreatedAt)
	})
}

func TestBuildHealthSpans_PropertyContiguous(t *testing.T) {
	states := []models.HealthState{
		models.HealthHealthy, models.HealthDegraded, models.HealthUnhealthy, models.HealthUnknown, "",
	}
	var events []models.Event
	for i := 0; i < 40; i++ {
		// deliberately unsorted, with duplicate timestamps
		minute := (i * 13) % 29
		eventType := models.EventTypeUpdate
		if i == 37 {
			eventType = models.EventTypeDelete
		}
		events = append(events, change("e", at(minute), eventType, states[i%len(states)]))
	}
	events[0] = withCreatedAt(events[0], at(3))

	tl := BuildHealthSpans(events, at(1), at(40), nil)

	var deleteAt time.Time
	for _, e := range changeEvents(events) {
		if e.EventType == models.EventTypeDelete {
			deleteAt = e.Timestamp
			break
		}
	}
	require.NotEmpty(t, tl.Spans)
	requireContiguous(t, tl.Spans, at(3), deleteAt)
}

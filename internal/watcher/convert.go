package watcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moolen/laneview/internal/kinds"
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
	corev1 "k8s.io/api/core/v1"
	eventsv1 "k8s.io/api/events/v1"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

const eventsGroup = "events.k8s.io"

// Converter turns Kubernetes objects into engine events
type Converter struct {
	logger *logging.Logger
	newID  func() string
	now    func() time.Time
}

// NewConverter creates a converter stamping live events with the wall clock
func NewConverter() *Converter {
	return &Converter{
		logger: logging.GetLogger("watcher"),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// IsRecord reports whether obj is an activity record (core or events.k8s.io Event)
func IsRecord(obj runtime.Object) bool {
	kind, _, err := kindOf(obj)
	return err == nil && kinds.Parse(kind) == kinds.KindEvent
}

// Convert builds a live change event for obj. oldObj is only consulted for
// updates, to attach a diff summary. Activity records are converted with FromRecord.
func (c *Converter) Convert(eventType models.EventType, oldObj, obj runtime.Object) (models.Event, error) {
	if IsRecord(obj) {
		return c.FromRecord(obj)
	}

	ev, content, err := c.base(obj)
	if err != nil {
		return models.Event{}, err
	}
	ev.ID = c.newID()
	ev.Timestamp = c.now()
	ev.Source = models.SourceInformer
	ev.EventType = eventType

	if eventType != models.EventTypeDelete {
		ev.HealthState = DeriveHealth(ev.Kind, content)
	}
	if eventType == models.EventTypeUpdate && oldObj != nil {
		if oldContent, err := toUnstructured(oldObj); err == nil {
			ev.Diff = Diff(oldContent, content)
		} else {
			c.logger.Debug("Skipping diff for %s: %v", ev.Key(), err)
		}
	}
	return ev, nil
}

// Historical reconstructs events from an object's current state: a creation
// event at its creation timestamp, an observation carrying its current health
// at the latest condition transition, and a deletion when it is terminating.
// IDs are derived from the object so repeated conversions deduplicate.
func (c *Converter) Historical(obj runtime.Object) ([]models.Event, error) {
	if IsRecord(obj) {
		ev, err := c.FromRecord(obj)
		if err != nil {
			return nil, err
		}
		return []models.Event{ev}, nil
	}

	base, content, err := c.base(obj)
	if err != nil {
		return nil, err
	}
	base.Source = models.SourceHistorical
	base.Historical = true

	var events []models.Event

	if base.CreatedAt != nil {
		created := base
		created.ID = stableID(base, "created")
		created.Timestamp = *base.CreatedAt
		created.EventType = models.EventTypeAdd
		created.Reason = "Created"
		events = append(events, created)
	}

	if health := DeriveHealth(base.Kind, content); health != "" {
		observed := base
		observed.ID = stableID(base, "observed")
		observed.Timestamp = c.observedAt(base, content)
		observed.EventType = models.EventTypeUpdate
		observed.Reason = "Observed"
		observed.HealthState = health
		events = append(events, observed)
	}

	accessor, err := apimeta.Accessor(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to access object metadata: %w", err)
	}
	if ts := accessor.GetDeletionTimestamp(); ts != nil {
		deleted := base
		deleted.ID = stableID(base, "deleted")
		deleted.Timestamp = ts.Time
		deleted.EventType = models.EventTypeDelete
		deleted.Reason = "Terminating"
		events = append(events, deleted)
	}

	return events, nil
}

// FromRecord converts a core/v1 or events.k8s.io/v1 Event into a record event
// attached to its involved object.
func (c *Converter) FromRecord(obj runtime.Object) (models.Event, error) {
	_, group, err := kindOf(obj)
	if err != nil {
		return models.Event{}, err
	}
	if group == eventsGroup {
		return c.fromEventsV1(obj)
	}

	rec := &corev1.Event{}
	switch o := obj.(type) {
	case *corev1.Event:
		rec = o
	case *unstructured.Unstructured:
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(o.Object, rec); err != nil {
			return models.Event{}, fmt.Errorf("failed to decode event record: %w", err)
		}
	default:
		return models.Event{}, fmt.Errorf("unsupported event record type %T", obj)
	}

	ts := firstTime(rec.LastTimestamp.Time, rec.EventTime.Time, rec.FirstTimestamp.Time, rec.CreationTimestamp.Time)
	return c.record(rec.ObjectMeta, rec.InvolvedObject, rec.Type, rec.Reason, rec.Message, rec.Count, ts), nil
}

func (c *Converter) fromEventsV1(obj runtime.Object) (models.Event, error) {
	rec := &eventsv1.Event{}
	switch o := obj.(type) {
	case *eventsv1.Event:
		rec = o
	case *unstructured.Unstructured:
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(o.Object, rec); err != nil {
			return models.Event{}, fmt.Errorf("failed to decode event record: %w", err)
		}
	default:
		return models.Event{}, fmt.Errorf("unsupported event record type %T", obj)
	}

	count := rec.DeprecatedCount
	var lastObserved time.Time
	if rec.Series != nil {
		count = rec.Series.Count
		lastObserved = rec.Series.LastObservedTime.Time
	}
	ts := firstTime(lastObserved, rec.EventTime.Time, rec.DeprecatedLastTimestamp.Time, rec.CreationTimestamp.Time)
	return c.record(rec.ObjectMeta, rec.Regarding, rec.Type, rec.Reason, rec.Note, count, ts), nil
}

func (c *Converter) record(meta metav1.ObjectMeta, involved corev1.ObjectReference, severity, reason, message string, count int32, ts time.Time) models.Event {
	if ts.IsZero() {
		ts = c.now()
	}

	ev := models.Event{
		ID:        string(meta.UID),
		Timestamp: ts,
		Source:    models.SourceK8sEvent,
		Kind:      kinds.KindEvent.String(),
		Namespace: meta.Namespace,
		Name:      meta.Name,
		UID:       string(meta.UID),
		EventType: models.EventTypeNormal,
		Reason:    reason,
		Message:   message,
		Count:     count,
	}
	if ev.ID == "" {
		ev.ID = c.newID()
	}
	if strings.EqualFold(severity, string(models.EventTypeWarning)) {
		ev.EventType = models.EventTypeWarning
	}
	if involved.Kind != "" && involved.Name != "" {
		// the record lives with its object; cluster-scoped objects have no namespace
		target := models.ResourceKey{Kind: involved.Kind, Namespace: involved.Namespace, Name: involved.Name}
		if target.IsClusterScoped() && kinds.Parse(target.Kind).IsNamespaced() {
			// references to namespaced kinds may omit the record's own namespace
			target.Namespace = meta.Namespace
		}
		ev.Namespace = target.Namespace
		ev.Owner = &models.OwnerRef{Kind: target.Kind, Name: target.Name}
	}
	return ev
}

// base fills identity, labels, owner and creation time
func (c *Converter) base(obj runtime.Object) (models.Event, map[string]interface{}, error) {
	accessor, err := apimeta.Accessor(obj)
	if err != nil {
		return models.Event{}, nil, fmt.Errorf("failed to access object metadata: %w", err)
	}
	kind, _, err := kindOf(obj)
	if err != nil {
		return models.Event{}, nil, err
	}
	content, err := toUnstructured(obj)
	if err != nil {
		return models.Event{}, nil, err
	}

	ev := models.Event{
		Kind:      kind,
		Namespace: accessor.GetNamespace(),
		Name:      accessor.GetName(),
		UID:       string(accessor.GetUID()),
		Labels:    accessor.GetLabels(),
	}
	if ct := accessor.GetCreationTimestamp(); !ct.IsZero() {
		created := ct.Time
		ev.CreatedAt = &created
	}
	if ref := ownerOf(accessor); ref != nil {
		ev.Owner = &models.OwnerRef{Kind: ref.Kind, Name: ref.Name}
	}
	return ev, content, nil
}

// observedAt is the latest condition transition not before creation, else now
func (c *Converter) observedAt(ev models.Event, content map[string]interface{}) time.Time {
	var latest time.Time
	conditions, _, _ := unstructured.NestedSlice(content, "status", "conditions")
	for _, cond := range conditions {
		m, ok := cond.(map[string]interface{})
		if !ok {
			continue
		}
		raw, _, _ := unstructured.NestedString(m, "lastTransitionTime")
		t, err := time.Parse(time.RFC3339, raw)
		if err == nil && t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() || (ev.CreatedAt != nil && latest.Before(*ev.CreatedAt)) {
		return c.now()
	}
	return latest
}

// ownerOf prefers the controller reference and falls back to the first owner
func ownerOf(obj metav1.Object) *metav1.OwnerReference {
	if ref := metav1.GetControllerOf(obj); ref != nil {
		return ref
	}
	if refs := obj.GetOwnerReferences(); len(refs) > 0 {
		return &refs[0]
	}
	return nil
}

func stableID(ev models.Event, suffix string) string {
	name := ev.UID
	if name == "" {
		name = ev.Key().String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name+"#"+suffix)).String()
}

func firstTime(candidates ...time.Time) time.Time {
	for _, t := range candidates {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

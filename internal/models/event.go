package models

import (
	"time"
)

// EventType categorizes what happened to a resource
type EventType string

const (
	// EventTypeAdd represents a resource creation
	EventTypeAdd EventType = "add"
	// EventTypeUpdate represents a resource modification
	EventTypeUpdate EventType = "update"
	// EventTypeDelete represents a resource deletion
	EventTypeDelete EventType = "delete"
	// EventTypeNormal is a Normal severity activity record
	EventTypeNormal EventType = "Normal"
	// EventTypeWarning is a Warning severity activity record
	EventTypeWarning EventType = "Warning"
)

// EventSource identifies where an event originated
type EventSource string

const (
	// SourceInformer means the event was observed as a live change
	SourceInformer EventSource = "informer"
	// SourceK8sEvent means the event came from an activity-log record (Kind=Event)
	SourceK8sEvent EventSource = "k8s_event"
	// SourceHistorical means the event was reconstructed from current-state metadata
	SourceHistorical EventSource = "historical"
)

// HealthState is the health a resource reported at the time of an event
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
	HealthUnknown   HealthState = "unknown"
)

// DefaultAppLabelKeys are the label keys consulted for application grouping, in order
var DefaultAppLabelKeys = []string{"app.kubernetes.io/name", "app"}

// OwnerRef points at the controlling resource. The owner lives in the same namespace.
type OwnerRef struct {
	Kind string `json:"kind" yaml:"kind"`
	Name string `json:"name" yaml:"name"`
}

// DiffInfo summarizes what changed in an update
type DiffInfo struct {
	Fields  []FieldChange `json:"fields,omitempty" yaml:"fields,omitempty"`
	Summary string        `json:"summary" yaml:"summary"`
}

// FieldChange represents a single field that changed
type FieldChange struct {
	Path     string `json:"path" yaml:"path"`
	OldValue any    `json:"oldValue,omitempty" yaml:"oldValue,omitempty"`
	NewValue any    `json:"newValue,omitempty" yaml:"newValue,omitempty"`
}

// Event is an observed change or historical fact about one resource.
// Events are immutable once produced; the engine only groups and sorts them.
type Event struct {
	// ID is a unique identifier for the event
	ID string `json:"id" yaml:"id"`

	// Timestamp is when the event was observed
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	Source EventSource `json:"source,omitempty" yaml:"source,omitempty"`

	// Resource identity
	Kind      string `json:"kind" yaml:"kind"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`
	UID       string `json:"uid,omitempty" yaml:"uid,omitempty"`

	// CreatedAt is the resource's creation time from its metadata.
	// This is different from Timestamp, which is when the event was observed.
	CreatedAt *time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`

	EventType EventType `json:"eventType" yaml:"eventType"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message   string    `json:"message,omitempty" yaml:"message,omitempty"`

	Diff        *DiffInfo         `json:"diff,omitempty" yaml:"diff,omitempty"`
	HealthState HealthState       `json:"healthState,omitempty" yaml:"healthState,omitempty"`
	Owner       *OwnerRef         `json:"owner,omitempty" yaml:"owner,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// Count is the repetition count of an activity record
	Count int32 `json:"count,omitempty" yaml:"count,omitempty"`

	// Historical is set when the event was reconstructed rather than observed live
	Historical bool `json:"historical,omitempty" yaml:"historical,omitempty"`
}

// Key returns the identity of the resource this event is about
func (e *Event) Key() ResourceKey {
	return ResourceKey{Kind: e.Kind, Namespace: e.Namespace, Name: e.Name}
}

// OwnerKey returns the identity of the owning resource, if any
func (e *Event) OwnerKey() (ResourceKey, bool) {
	if e.Owner == nil || e.Owner.Kind == "" || e.Owner.Name == "" {
		return ResourceKey{}, false
	}
	return ResourceKey{Kind: e.Owner.Kind, Namespace: e.Namespace, Name: e.Owner.Name}, true
}

// IsChange returns true for add/update/delete events (as opposed to log-style records)
func (e *Event) IsChange() bool {
	switch e.EventType {
	case EventTypeAdd, EventTypeUpdate, EventTypeDelete:
		return true
	}
	return false
}

// AppLabel returns the first non-empty application label among keys.
// With no keys, DefaultAppLabelKeys is used.
func (e *Event) AppLabel(keys ...string) string {
	return AppLabelFrom(e.Labels, keys...)
}

// AppLabelFrom looks up the application label in an arbitrary label map
func AppLabelFrom(labels map[string]string, keys ...string) string {
	if len(labels) == 0 {
		return ""
	}
	if len(keys) == 0 {
		keys = DefaultAppLabelKeys
	}
	for _, k := range keys {
		if v, ok := labels[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// DiffSummary returns the diff summary or "" when the event carries no diff
func (e *Event) DiffSummary() string {
	if e.Diff == nil {
		return ""
	}
	return e.Diff.Summary
}

// Validate checks that the event has all required fields and is well-formed
func (e *Event) Validate() error {
	if e.ID == "" {
		return NewValidationError("id must not be empty")
	}
	if e.Timestamp.IsZero() {
		return NewValidationError("event %s: timestamp must be set", e.ID)
	}
	if e.Kind == "" {
		return NewValidationError("event %s: kind must not be empty", e.ID)
	}
	if e.Name == "" {
		return NewValidationError("event %s: name must not be empty", e.ID)
	}

	switch e.EventType {
	case EventTypeAdd, EventTypeUpdate, EventTypeDelete, EventTypeNormal, EventTypeWarning:
	default:
		return NewValidationError("event %s: eventType must be one of: add, update, delete, Normal, Warning", e.ID)
	}

	switch e.HealthState {
	case "", HealthHealthy, HealthDegraded, HealthUnhealthy, HealthUnknown:
	default:
		return NewValidationError("event %s: unknown healthState %q", e.ID, e.HealthState)
	}

	if e.Owner != nil && (e.Owner.Kind == "" || e.Owner.Name == "") {
		return NewValidationError("event %s: owner must have kind and name", e.ID)
	}

	return nil
}

// IsValid checks if the event is valid
func (e *Event) IsValid() bool {
	return e.Validate() == nil
}

package models

import "time"

// ResourceLane is one tracked resource instance with its attributed events.
// Top-level lanes carry their descendants as a flat Children list.
type ResourceLane struct {
	Key        ResourceKey     `json:"resource"`
	Events     []Event         `json:"events"`
	Children   []*ResourceLane `json:"children,omitempty"`
	IsWorkload bool            `json:"isWorkload"`

	// AllEventsSorted is the deduplicated union of own and descendant events in render order.
	// Only populated on top-level lanes.
	AllEventsSorted []Event `json:"allEventsSorted,omitempty"`
}

// ID returns the kind/namespace/name identity of the lane
func (l *ResourceLane) ID() string {
	return l.Key.String()
}

// LatestEventTime returns the most recent timestamp among the lane's own events
func (l *ResourceLane) LatestEventTime() time.Time {
	var latest time.Time
	for i := range l.Events {
		if l.Events[i].Timestamp.After(latest) {
			latest = l.Events[i].Timestamp
		}
	}
	return latest
}

// Descendants returns the lane's descendant lanes depth-first
func (l *ResourceLane) Descendants() []*ResourceLane {
	var out []*ResourceLane
	for _, c := range l.Children {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// Find returns the lane with the given key within this subtree
func (l *ResourceLane) Find(key ResourceKey) *ResourceLane {
	if l.Key == key {
		return l
	}
	for _, c := range l.Children {
		if found := c.Find(key); found != nil {
			return found
		}
	}
	return nil
}

// EventCount returns the number of events on the lane and its descendants
func (l *ResourceLane) EventCount() int {
	n := len(l.Events)
	for _, c := range l.Children {
		n += c.EventCount()
	}
	return n
}

package classify

import (
	"sort"

	"github.com/moolen/laneview/internal/models"
)

// Render priorities; higher values draw on top of lower ones
const (
	PriorityUpdate      = 0
	PriorityAdd         = 1
	PriorityDelete      = 2
	PriorityProblematic = 3
)

// RenderPriority orders coinciding markers: update < add < delete < problematic.
// Records that are neither changes nor problems rank with updates.
func RenderPriority(e *models.Event) int {
	if IsProblematic(e) {
		return PriorityProblematic
	}
	switch e.EventType {
	case models.EventTypeDelete:
		return PriorityDelete
	case models.EventTypeAdd:
		return PriorityAdd
	}
	return PriorityUpdate
}

// SortForRender orders events by timestamp, then render priority ascending so
// important markers come last and draw on top, then by ID for stability.
func SortForRender(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		pa, pb := RenderPriority(a), RenderPriority(b)
		if pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})
}

package hierarchy

import (
	"sort"

	"github.com/moolen/laneview/internal/classify"
	"github.com/moolen/laneview/internal/kinds"
	"github.com/moolen/laneview/internal/models"
)

// assemble attaches every lane directly under its resolved root and returns
// the top-level lanes in creation order.
func (f *forest) assemble() []*models.ResourceLane {
	roots := make(map[models.ResourceKey]models.ResourceKey, len(f.order))
	for _, key := range f.order {
		root, cyclic := resolveRoot(key, f.parent)
		if cyclic {
			f.logger.Debug("parent cycle truncated at %s while resolving %s", root, key)
		}
		if _, ok := f.lanes[root]; !ok {
			root = key
		}
		roots[key] = root
	}

	var top []*models.ResourceLane
	for _, key := range f.order {
		lane := f.lanes[key]
		lane.Events = sortedEvents(lane.Events)
		if roots[key] == key {
			top = append(top, lane)
		}
	}

	for _, key := range f.order {
		root := roots[key]
		if root == key {
			continue
		}
		rootLane := f.lanes[root]
		rootLane.Children = append(rootLane.Children, f.lanes[key])
	}

	for _, lane := range top {
		sortChildren(lane.Children)
		lane.AllEventsSorted = collectEvents(lane)
	}
	return top
}

// sortChildren orders descendants by kind priority, most recent activity first within a kind
func sortChildren(children []*models.ResourceLane) {
	sort.SliceStable(children, func(i, j int) bool {
		pi := kinds.Parse(children[i].Key.Kind).ChildPriority()
		pj := kinds.Parse(children[j].Key.Kind).ChildPriority()
		if pi != pj {
			return pi < pj
		}
		ti, tj := children[i].LatestEventTime(), children[j].LatestEventTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return children[i].ID() < children[j].ID()
	})
}

// collectEvents returns the lane's and its descendants' events deduplicated
// by ID, in render order. Events without an ID are never merged.
func collectEvents(lane *models.ResourceLane) []models.Event {
	seen := make(map[string]struct{})
	var out []models.Event

	add := func(events []models.Event) {
		for _, e := range events {
			if e.ID != "" {
				if _, dup := seen[e.ID]; dup {
					continue
				}
				seen[e.ID] = struct{}{}
			}
			out = append(out, e)
		}
	}

	add(lane.Events)
	for _, child := range lane.Children {
		add(child.Events)
	}

	classify.SortForRender(out)
	return out
}

// Focus returns the single top-level lane that is, or contains, key. If key is
// nowhere in the forest an empty placeholder lane for key is returned.
func Focus(lanes []*models.ResourceLane, key models.ResourceKey) []*models.ResourceLane {
	key = CanonicalKey(key)
	for _, lane := range lanes {
		if lane.Find(key) != nil {
			return []*models.ResourceLane{lane}
		}
	}
	return []*models.ResourceLane{{
		Key:             key,
		Events:          []models.Event{},
		IsWorkload:      kinds.Parse(key.Kind).IsWorkload(),
		AllEventsSorted: []models.Event{},
	}}
}

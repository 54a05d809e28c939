// Package hierarchy reconstructs the ownership forest of resource lanes from a
// flat event stream, an optional topology snapshot and application labels.
//
// The output is a two-level forest: every top-level lane carries all of its
// descendants as a flat, priority-ordered Children list. Building never fails;
// every missing or malformed signal degrades to "no information from that source".
package hierarchy

import (
	"sort"

	"github.com/moolen/laneview/internal/kinds"
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
)

// Options controls a hierarchy build
type Options struct {
	// GroupByApp enables the label grouping pass
	GroupByApp bool
	// AppLabelKeys are consulted in order to find a lane's application label
	AppLabelKeys []string
}

// DefaultOptions returns label grouping enabled with the standard app label keys
func DefaultOptions() Options {
	return Options{
		GroupByApp:   true,
		AppLabelKeys: models.DefaultAppLabelKeys,
	}
}

// Builder builds lane forests. A Builder holds no per-build state and is safe
// for concurrent use.
type Builder struct {
	opts   Options
	logger *logging.Logger
}

// NewBuilder creates a new Builder
func NewBuilder(opts Options) *Builder {
	if len(opts.AppLabelKeys) == 0 {
		opts.AppLabelKeys = models.DefaultAppLabelKeys
	}
	return &Builder{
		opts:   opts,
		logger: logging.GetLogger("hierarchy"),
	}
}

// Build turns events into a forest of lanes. topology may be nil.
// When root is non-nil the result is exactly one lane: the top-level lane
// containing root, or an empty placeholder lane for root.
func (b *Builder) Build(events []models.Event, topology *models.Topology, root *models.ResourceKey) []*models.ResourceLane {
	f := newForest(b.logger)
	f.addEvents(events)
	f.indexTopology(topology)

	f.apply(ownerClaims(f))
	f.apply(topologyClaims(f, topology))
	if b.opts.GroupByApp {
		f.apply(labelClaims(f, b.opts.AppLabelKeys))
	}

	lanes := f.assemble()
	if root != nil {
		return Focus(lanes, *root)
	}
	return lanes
}

// Build is a convenience wrapper around NewBuilder(opts).Build
func Build(events []models.Event, topology *models.Topology, root *models.ResourceKey, opts Options) []*models.ResourceLane {
	return NewBuilder(opts).Build(events, topology, root)
}

// forest is the mutable state of one build
type forest struct {
	logger *logging.Logger

	lanes map[models.ResourceKey]*models.ResourceLane
	// order is lane creation order, which makes every pass deterministic
	order  []models.ResourceKey
	parent map[models.ResourceKey]models.ResourceKey
	labels map[models.ResourceKey]map[string]string
	nodes  map[string]models.ResourceKey
}

func newForest(logger *logging.Logger) *forest {
	return &forest{
		logger: logger,
		lanes:  make(map[models.ResourceKey]*models.ResourceLane),
		parent: make(map[models.ResourceKey]models.ResourceKey),
		labels: make(map[models.ResourceKey]map[string]string),
		nodes:  make(map[string]models.ResourceKey),
	}
}

// CanonicalKey normalizes the kind of a known resource to its canonical
// spelling. Unknown kinds are kept as given.
func CanonicalKey(k models.ResourceKey) models.ResourceKey {
	if kind := kinds.Parse(k.Kind); kind != kinds.KindGeneric {
		k.Kind = kind.String()
	}
	return k
}

// ensureLane returns the lane for key, creating an empty one if needed
func (f *forest) ensureLane(key models.ResourceKey) (*models.ResourceLane, bool) {
	if lane, ok := f.lanes[key]; ok {
		return lane, false
	}
	lane := &models.ResourceLane{
		Key:        key,
		Events:     []models.Event{},
		IsWorkload: kinds.Parse(key.Kind).IsWorkload(),
	}
	f.lanes[key] = lane
	f.order = append(f.order, key)
	return lane, true
}

// addEvents creates lanes from events. Owned activity records are attached to
// their owner's lane after all other events, synthesizing the owner if needed.
func (f *forest) addEvents(events []models.Event) {
	var records []models.Event

	for _, e := range events {
		if kinds.Parse(e.Kind).IsRecord() {
			if _, ok := e.OwnerKey(); ok {
				records = append(records, e)
				continue
			}
		}
		key := CanonicalKey(e.Key())
		lane, _ := f.ensureLane(key)
		lane.Events = append(lane.Events, e)
		f.mergeLabels(key, e.Labels)
	}

	for _, e := range records {
		owner, _ := e.OwnerKey()
		owner = CanonicalKey(owner)
		lane, created := f.ensureLane(owner)
		if created {
			f.logger.Debug("synthesized lane %s for record %s", owner, e.ID)
		}
		lane.Events = append(lane.Events, e)
	}
}

func (f *forest) mergeLabels(key models.ResourceKey, labels map[string]string) {
	if len(labels) == 0 {
		return
	}
	dst, ok := f.labels[key]
	if !ok {
		dst = make(map[string]string, len(labels))
		f.labels[key] = dst
	}
	for k, v := range labels {
		dst[k] = v
	}
}

// indexTopology resolves node IDs to lane keys and folds node labels into
// label knowledge for lanes that exist.
func (f *forest) indexTopology(topology *models.Topology) {
	if topology.IsEmpty() {
		return
	}
	for id, node := range topology.NodeIndex() {
		key := CanonicalKey(node.Key())
		f.nodes[id] = key
		if _, ok := f.lanes[key]; ok {
			f.mergeLabels(key, node.Labels)
		}
	}
}

// hasEvents reports whether a lane exists for key and has at least one event
func (f *forest) hasEvents(key models.ResourceKey) bool {
	lane, ok := f.lanes[key]
	return ok && len(lane.Events) > 0
}

// apply records each claim whose child has no parent yet. Self claims are dropped.
func (f *forest) apply(claims []claim) {
	for _, c := range claims {
		if c.child == c.parent {
			continue
		}
		if _, claimed := f.parent[c.child]; claimed {
			continue
		}
		if _, ok := f.lanes[c.child]; !ok {
			continue
		}
		if _, ok := f.lanes[c.parent]; !ok {
			if !c.synthesize {
				continue
			}
			f.ensureLane(c.parent)
			f.logger.Debug("synthesized %s parent lane %s", c.source, c.parent)
		}
		f.parent[c.child] = c.parent
	}
}

// sortedEvents returns lane events in timestamp order
func sortedEvents(events []models.Event) []models.Event {
	out := make([]models.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

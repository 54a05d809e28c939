package hierarchy

import (
	"sort"

	"github.com/moolen/laneview/internal/kinds"
	"github.com/moolen/laneview/internal/models"
)

// claim proposes parent for child. Claims are applied in pass order and the
// first claim for a child wins.
type claim struct {
	child  models.ResourceKey
	parent models.ResourceKey
	source string
	// synthesize creates the parent lane when it does not exist
	synthesize bool
}

const (
	sourceOwner    = "owner"
	sourceTopology = "topology"
	sourceLabel    = "label"
)

// ownerClaims proposes each lane's owner reference as its parent. Only events
// about the lane itself count; attached activity records point back at the lane.
func ownerClaims(f *forest) []claim {
	var claims []claim
	for _, key := range f.order {
		if parent, ok := ownerOf(f.lanes[key]); ok {
			claims = append(claims, claim{child: key, parent: parent, source: sourceOwner, synthesize: true})
		}
	}
	return claims
}

// ownerOf returns the first owner reference carried by the lane's own events
func ownerOf(lane *models.ResourceLane) (models.ResourceKey, bool) {
	for i := range lane.Events {
		e := &lane.Events[i]
		if CanonicalKey(e.Key()) != lane.Key {
			continue
		}
		if owner, ok := e.OwnerKey(); ok {
			owner = CanonicalKey(owner)
			if owner != lane.Key {
				return owner, true
			}
		}
	}
	return models.ResourceKey{}, false
}

// topologyClaims converts typed topology edges into parent claims. Edges with
// an unknown endpoint, identical endpoints, or no endpoint lane carrying events
// are dropped.
func topologyClaims(f *forest, topology *models.Topology) []claim {
	if topology == nil {
		return nil
	}

	var claims []claim
	for _, edge := range topology.Edges {
		source, okSource := f.nodes[edge.Source]
		target, okTarget := f.nodes[edge.Target]
		if !okSource || !okTarget {
			f.logger.Debug("dropping dangling edge %s (%s -> %s)", edge.ID, edge.Source, edge.Target)
			continue
		}
		if source == target {
			f.logger.Debug("dropping self-referential edge %s", edge.ID)
			continue
		}
		if !f.hasEvents(source) && !f.hasEvents(target) {
			continue
		}

		parent, child, ok := edgeDirection(edge.Type, source, target)
		if !ok {
			continue
		}
		claims = append(claims, claim{child: child, parent: parent, source: sourceTopology, synthesize: true})
	}
	return claims
}

// edgeDirection decides which endpoint of an edge is the parent
func edgeDirection(edgeType models.EdgeType, source, target models.ResourceKey) (parent, child models.ResourceKey, ok bool) {
	switch edgeType {
	case models.EdgeTypeManages:
		// covered by owner references
		return parent, child, false
	case models.EdgeTypeExposes:
		return source, target, true
	case models.EdgeTypeRoutesTo:
		sourceKind, targetKind := kinds.Parse(source.Kind), kinds.Parse(target.Kind)
		switch {
		case sourceKind == kinds.KindIngress && targetKind == kinds.KindService:
			return target, source, true
		case sourceKind == kinds.KindService && targetKind.IsPodLike():
			return source, target, true
		default:
			return source, target, true
		}
	case models.EdgeTypeConfigures, models.EdgeTypeUses:
		return target, source, true
	default:
		return parent, child, false
	}
}

// labelClaims groups parentless primary-kind lanes sharing an application
// label within a namespace under the group's representative lane.
func labelClaims(f *forest, labelKeys []string) []claim {
	type groupKey struct{ namespace, app string }

	groups := make(map[groupKey][]models.ResourceKey)
	var groupOrder []groupKey
	for _, key := range f.order {
		if !kinds.Parse(key.Kind).IsPrimary() {
			continue
		}
		if _, claimed := f.parent[key]; claimed {
			continue
		}
		app := models.AppLabelFrom(f.labels[key], labelKeys...)
		if app == "" {
			continue
		}
		gk := groupKey{namespace: key.Namespace, app: app}
		if _, seen := groups[gk]; !seen {
			groupOrder = append(groupOrder, gk)
		}
		groups[gk] = append(groups[gk], key)
	}

	var claims []claim
	for _, gk := range groupOrder {
		members := groups[gk]
		if len(members) < 2 {
			continue
		}
		rep := representative(members)
		for _, m := range members {
			if m != rep {
				claims = append(claims, claim{child: m, parent: rep, source: sourceLabel})
			}
		}
	}
	return claims
}

// representative picks the member with the best representative priority;
// ties keep lane creation order.
func representative(members []models.ResourceKey) models.ResourceKey {
	ordered := make([]models.ResourceKey, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		return kinds.Parse(ordered[i].Kind).RepresentativePriority() < kinds.Parse(ordered[j].Kind).RepresentativePriority()
	})
	return ordered[0]
}

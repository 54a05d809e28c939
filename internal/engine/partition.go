package engine

import (
	"github.com/moolen/laneview/internal/models"
)

// SplitByNamespace groups events by namespace, preserving input order within each group.
// Cluster-scoped events are grouped under "".
func SplitByNamespace(events []models.Event) map[string][]models.Event {
	out := make(map[string][]models.Event)
	for _, e := range events {
		out[e.Namespace] = append(out[e.Namespace], e)
	}
	return out
}

// ScopeTopology returns the nodes of namespace ns and the edges whose both
// endpoints are in ns. A nil topology stays nil.
func ScopeTopology(topology *models.Topology, ns string) *models.Topology {
	if topology == nil {
		return nil
	}

	scoped := &models.Topology{}
	inScope := make(map[string]struct{})
	for _, n := range topology.Nodes {
		if n.Namespace != ns {
			continue
		}
		scoped.Nodes = append(scoped.Nodes, n)
		if n.ID != "" {
			inScope[n.ID] = struct{}{}
		}
		inScope[n.Key().String()] = struct{}{}
	}
	for _, edge := range topology.Edges {
		_, okSource := inScope[edge.Source]
		_, okTarget := inScope[edge.Target]
		if okSource && okTarget {
			scoped.Edges = append(scoped.Edges, edge)
		}
	}
	return scoped
}

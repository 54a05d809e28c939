package models

// EdgeType is the relationship a topology edge describes
type EdgeType string

const (
	EdgeTypeManages    EdgeType = "manages"
	EdgeTypeExposes    EdgeType = "exposes"
	EdgeTypeRoutesTo   EdgeType = "routes-to"
	EdgeTypeConfigures EdgeType = "configures"
	EdgeTypeUses       EdgeType = "uses"
)

// TopologyNode is one resource in a current-state topology snapshot
type TopologyNode struct {
	ID        string            `json:"id" yaml:"id"`
	Kind      string            `json:"kind" yaml:"kind"`
	Namespace string            `json:"namespace" yaml:"namespace"`
	Name      string            `json:"name" yaml:"name"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Key returns the resource identity of the node
func (n *TopologyNode) Key() ResourceKey {
	return ResourceKey{Kind: n.Kind, Namespace: n.Namespace, Name: n.Name}
}

// TopologyEdge is a typed relationship between two nodes, by node ID
type TopologyEdge struct {
	ID     string   `json:"id" yaml:"id"`
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Type   EdgeType `json:"type" yaml:"type"`
}

// Topology is an optional snapshot of relationships. It is current-state, not historical,
// and is only ever used as a secondary signal.
type Topology struct {
	Nodes []TopologyNode `json:"nodes" yaml:"nodes"`
	Edges []TopologyEdge `json:"edges" yaml:"edges"`
}

// NodeIndex maps node IDs to nodes. Nodes without an ID are keyed by their
// kind/namespace/name so edges may reference either form.
func (t *Topology) NodeIndex() map[string]*TopologyNode {
	if t == nil {
		return nil
	}
	index := make(map[string]*TopologyNode, len(t.Nodes))
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.ID != "" {
			index[n.ID] = n
		}
		index[n.Key().String()] = n
	}
	return index
}

// IsEmpty reports whether the topology carries no usable information
func (t *Topology) IsEmpty() bool {
	return t == nil || (len(t.Nodes) == 0 && len(t.Edges) == 0)
}

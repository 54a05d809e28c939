package models

import (
	"fmt"
	"strings"
)

// ResourceKey identifies one resource instance as kind/namespace/name
type ResourceKey struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// String returns the kind/namespace/name form used as lane ID
func (k ResourceKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Namespace, k.Name)
}

// IsZero reports whether the key is empty
func (k ResourceKey) IsZero() bool {
	return k.Kind == "" && k.Namespace == "" && k.Name == ""
}

// IsClusterScoped returns true if this is a cluster-scoped resource (no namespace)
func (k ResourceKey) IsClusterScoped() bool {
	return k.Namespace == ""
}

// ParseResourceKey parses "kind/namespace/name". Cluster-scoped resources
// use an empty namespace segment ("Node//worker-1").
func ParseResourceKey(s string) (ResourceKey, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 {
		return ResourceKey{}, NewValidationError("resource key %q must have the form kind/namespace/name", s)
	}
	if parts[0] == "" || parts[2] == "" {
		return ResourceKey{}, NewValidationError("resource key %q: kind and name must not be empty", s)
	}
	return ResourceKey{Kind: parts[0], Namespace: parts[1], Name: parts[2]}, nil
}

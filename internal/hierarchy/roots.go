package hierarchy

import "github.com/moolen/laneview/internal/models"

// resolveRoot follows the parent map up from key. If the walk revisits a
// lane, that lane is returned as its own root, so cycles terminate.
func resolveRoot(key models.ResourceKey, parent map[models.ResourceKey]models.ResourceKey) (root models.ResourceKey, cyclic bool) {
	visited := make(map[models.ResourceKey]struct{})
	current := key
	for {
		if _, seen := visited[current]; seen {
			return current, true
		}
		visited[current] = struct{}{}

		next, ok := parent[current]
		if !ok || next == current {
			return current, false
		}
		current = next
	}
}

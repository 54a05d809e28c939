// Package palette assigns display colors to namespaces.
//
// Registry assigns colors in first-seen order and is owned by the caller.
// HashColor needs no state but may give two namespaces the same color.
package palette

import (
	"hash/fnv"
	"sync"
)

// Color is a display color in #rrggbb form
type Color string

// DefaultColors is the palette used when none is given
var DefaultColors = []Color{
	"#3b82f6", // blue
	"#10b981", // emerald
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#14b8a6", // teal
	"#f97316", // orange
	"#6366f1", // indigo
	"#84cc16", // lime
	"#06b6d4", // cyan
}

// Registry hands out colors to namespaces in first-seen order, cycling through
// the palette once it is exhausted. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	colors   []Color
	assigned map[string]Color
	order    []string
}

// NewRegistry creates a registry over colors, or DefaultColors when empty
func NewRegistry(colors ...Color) *Registry {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	return &Registry{
		colors:   colors,
		assigned: make(map[string]Color),
	}
}

// Color returns the color of namespace, assigning the next one if it is new
func (r *Registry) Color(namespace string) Color {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.assigned[namespace]; ok {
		return c
	}
	c := r.colors[len(r.order)%len(r.colors)]
	r.assigned[namespace] = c
	r.order = append(r.order, namespace)
	return c
}

// Assignment is one namespace and its color
type Assignment struct {
	Namespace string `json:"namespace"`
	Color     Color  `json:"color"`
}

// Assignments returns every assignment in first-seen order
func (r *Registry) Assignments() []Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Assignment, 0, len(r.order))
	for _, ns := range r.order {
		out = append(out, Assignment{Namespace: ns, Color: r.assigned[ns]})
	}
	return out
}

// HashColor picks a color from DefaultColors by FNV-1a hash of namespace
func HashColor(namespace string) Color {
	return HashColorFrom(DefaultColors, namespace)
}

// HashColorFrom picks a color from colors by FNV-1a hash of namespace
func HashColorFrom(colors []Color, namespace string) Color {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(namespace))
	return colors[h.Sum32()%uint32(len(colors))]
}

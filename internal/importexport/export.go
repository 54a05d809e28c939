package importexport

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/moolen/laneview/internal/importexport/fileio"
	"github.com/moolen/laneview/internal/models"
	"gopkg.in/yaml.v3"
)

// Document is the exported view of one engine run
type Document struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	WindowStart time.Time      `json:"windowStart"`
	Now         time.Time      `json:"now"`
	Namespaces  []NamespaceDoc `json:"namespaces"`
}

// NamespaceDoc holds the lanes of one namespace
type NamespaceDoc struct {
	Namespace string    `json:"namespace"`
	Color     string    `json:"color,omitempty"`
	Lanes     []LaneDoc `json:"lanes"`
}

// LaneDoc pairs a top-level lane with the health timelines of it and its children.
// Timelines are keyed by lane ID.
type LaneDoc struct {
	Lane      *models.ResourceLane             `json:"lane"`
	Timelines map[string]models.HealthTimeline `json:"timelines,omitempty"`
}

// WriteDocument writes doc as indented JSON
func WriteDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// WriteBundle writes events and topology in a format Load can read back
func WriteBundle(w io.Writer, bundle *Bundle, format fileio.Format) error {
	switch format {
	case fileio.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(bundle); err != nil {
			return fmt.Errorf("failed to encode bundle: %w", err)
		}
	case fileio.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(bundle); err != nil {
			return fmt.Errorf("failed to encode bundle: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}

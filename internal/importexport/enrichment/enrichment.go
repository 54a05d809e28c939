// Package enrichment provides pluggable strategies for normalizing imported events.
//
// Enrichers run after parsing and before validation. They fill in fields that
// exporters commonly leave out so that hand-written or partially exported event
// files still feed the engine.
package enrichment

import (
	"strings"

	"github.com/google/uuid"
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
)

// Enricher defines the interface for event enrichment strategies
type Enricher interface {
	// Enrich modifies events in-place
	Enrich(events []models.Event, logger *logging.Logger)

	// Name returns the enricher's identifier for logging
	Name() string
}

// Chain applies multiple enrichers in sequence
type Chain struct {
	enrichers []Enricher
}

// NewChain creates a new enrichment chain
func NewChain(enrichers ...Enricher) *Chain {
	return &Chain{enrichers: enrichers}
}

// Enrich applies all enrichers in the chain
func (c *Chain) Enrich(events []models.Event, logger *logging.Logger) {
	for _, enricher := range c.enrichers {
		logger.Debug("Applying enricher: %s", enricher.Name())
		enricher.Enrich(events, logger)
	}
}

// Name returns the chain identifier
func (c *Chain) Name() string {
	return "enrichment-chain"
}

// IDEnricher assigns a random UUID to events without an ID
type IDEnricher struct {
	newID func() string
}

// NewIDEnricher creates an IDEnricher backed by uuid.NewString
func NewIDEnricher() *IDEnricher {
	return &IDEnricher{newID: uuid.NewString}
}

// Name returns the enricher identifier
func (e *IDEnricher) Name() string {
	return "missing-id"
}

// Enrich fills empty IDs
func (e *IDEnricher) Enrich(events []models.Event, logger *logging.Logger) {
	assigned := 0
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = e.newID()
			assigned++
		}
	}
	if assigned > 0 {
		logger.DebugWithFields("Assigned event IDs",
			logging.Field("enricher", e.Name()),
			logging.Field("assigned", assigned))
	}
}

// RecordEnricher normalizes activity records (kind Event): an empty event
// type becomes Normal, and a lowercase severity is canonicalized.
type RecordEnricher struct{}

// NewRecordEnricher creates a RecordEnricher
func NewRecordEnricher() *RecordEnricher {
	return &RecordEnricher{}
}

// Name returns the enricher identifier
func (e *RecordEnricher) Name() string {
	return "record-severity"
}

// Enrich normalizes record severities
func (e *RecordEnricher) Enrich(events []models.Event, _ *logging.Logger) {
	for i := range events {
		ev := &events[i]
		if !strings.EqualFold(ev.Kind, "Event") {
			continue
		}
		switch {
		case ev.EventType == "":
			ev.EventType = models.EventTypeNormal
		case strings.EqualFold(string(ev.EventType), string(models.EventTypeWarning)):
			ev.EventType = models.EventTypeWarning
		case strings.EqualFold(string(ev.EventType), string(models.EventTypeNormal)):
			ev.EventType = models.EventTypeNormal
		}
	}
}

// SourceEnricher infers Source when it is missing
type SourceEnricher struct{}

// NewSourceEnricher creates a SourceEnricher
func NewSourceEnricher() *SourceEnricher {
	return &SourceEnricher{}
}

// Name returns the enricher identifier
func (e *SourceEnricher) Name() string {
	return "source"
}

// Enrich fills empty sources: historical flag, then activity record, then informer
func (e *SourceEnricher) Enrich(events []models.Event, _ *logging.Logger) {
	for i := range events {
		ev := &events[i]
		if ev.Source != "" {
			continue
		}
		switch {
		case ev.Historical:
			ev.Source = models.SourceHistorical
		case strings.EqualFold(ev.Kind, "Event"):
			ev.Source = models.SourceK8sEvent
		default:
			ev.Source = models.SourceInformer
		}
	}
}

// Default returns the standard enrichment chain for imports
func Default() *Chain {
	return NewChain(NewIDEnricher(), NewRecordEnricher(), NewSourceEnricher())
}

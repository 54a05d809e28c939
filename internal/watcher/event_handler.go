package watcher

import (
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
	"k8s.io/apimachinery/pkg/runtime"
)

// EventSink receives converted events
type EventSink interface {
	// WriteEvent persists or forwards one event
	WriteEvent(event *models.Event) error
}

// EventCaptureHandler converts informer callbacks into engine events and routes them to a sink
type EventCaptureHandler struct {
	sink      EventSink
	converter *Converter
	logger    *logging.Logger
}

// NewEventCaptureHandler creates a new event capture handler
func NewEventCaptureHandler(sink EventSink) *EventCaptureHandler {
	return &EventCaptureHandler{
		sink:      sink,
		converter: NewConverter(),
		logger:    logging.GetLogger("event_handler"),
	}
}

// OnAdd handles resource creation events
func (h *EventCaptureHandler) OnAdd(obj runtime.Object) error {
	return h.capture(models.EventTypeAdd, nil, obj)
}

// OnUpdate handles resource update events
func (h *EventCaptureHandler) OnUpdate(oldObj, newObj runtime.Object) error {
	return h.capture(models.EventTypeUpdate, oldObj, newObj)
}

// OnDelete handles resource deletion events. Deleted activity records are
// expiry, not a change of the involved object, and are ignored.
func (h *EventCaptureHandler) OnDelete(obj runtime.Object) error {
	if IsRecord(obj) {
		return nil
	}
	return h.capture(models.EventTypeDelete, nil, obj)
}

func (h *EventCaptureHandler) capture(eventType models.EventType, oldObj, obj runtime.Object) error {
	event, err := h.converter.Convert(eventType, oldObj, obj)
	if err != nil {
		h.logger.Error("Failed to convert object: %v", err)
		return err
	}

	if err := h.sink.WriteEvent(&event); err != nil {
		h.logger.Error("Failed to write %s event for %s: %v", eventType, event.Key(), err)
		return err
	}

	h.logger.Debug("Captured %s event for %s", event.EventType, event.Key())
	return nil
}

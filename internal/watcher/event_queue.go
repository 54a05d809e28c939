package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room
var ErrQueueFull = errors.New("event queue is full")

// EventQueue buffers events between capture and a slower sink
type EventQueue struct {
	queue        chan *models.Event
	logger       *logging.Logger
	wg           sync.WaitGroup
	maxQueueSize int
	processFunc  func(*models.Event) error
	done         <-chan struct{}

	errMu sync.Mutex
	err   error
}

// NewEventQueue creates a new event queue
func NewEventQueue(maxSize int, processFunc func(*models.Event) error) *EventQueue {
	return &EventQueue{
		queue:        make(chan *models.Event, maxSize),
		logger:       logging.GetLogger("event_queue"),
		maxQueueSize: maxSize,
		processFunc:  processFunc,
	}
}

// Enqueue adds an event to the queue, dropping it when the queue is full
func (eq *EventQueue) Enqueue(event *models.Event) error {
	if err := event.Validate(); err != nil {
		eq.logger.Error("Invalid event: %v", err)
		return err
	}

	select {
	case eq.queue <- event:
		return nil
	default:
		eq.logger.Warn("Event queue is full, dropping event for %s", event.Key())
		return ErrQueueFull
	}
}

// WriteEvent adds an event to the queue, waiting for room until the processor stops.
// It makes the queue usable as an EventSink for producers that must not lose events.
func (eq *EventQueue) WriteEvent(event *models.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if eq.done == nil {
		return fmt.Errorf("event queue not started")
	}

	select {
	case eq.queue <- event:
		return nil
	case <-eq.done:
		return fmt.Errorf("event queue stopped")
	}
}

// Start begins processing events from the queue
func (eq *EventQueue) Start(ctx context.Context) {
	eq.logger.Info("Starting event queue processor")
	eq.done = ctx.Done()

	eq.wg.Add(1)
	go func() {
		defer eq.wg.Done()

		for {
			select {
			case event, ok := <-eq.queue:
				if !ok {
					return
				}
				if err := eq.processFunc(event); err != nil {
					eq.logger.Error("Error processing event for %s: %v", event.Key(), err)
					eq.recordErr(fmt.Errorf("processing event for %s: %w", event.Key(), err))
				}

			case <-ctx.Done():
				eq.logger.Info("Event queue processor stopped")
				return
			}
		}
	}()
}

// Stop closes the queue and waits until every buffered event is processed.
// It returns the first error the processor hit, if any.
// Producers must not write after calling Stop.
func (eq *EventQueue) Stop() error {
	eq.logger.Debug("Stopping event queue...")
	close(eq.queue)
	eq.wg.Wait()
	eq.logger.Debug("Event queue stopped")
	return eq.Err()
}

// Err returns the first processing error seen so far
func (eq *EventQueue) Err() error {
	eq.errMu.Lock()
	defer eq.errMu.Unlock()
	return eq.err
}

func (eq *EventQueue) recordErr(err error) {
	eq.errMu.Lock()
	defer eq.errMu.Unlock()
	if eq.err == nil {
		eq.err = err
	}
}

// GetQueueSize returns the current number of events in the queue
func (eq *EventQueue) GetQueueSize() int {
	return len(eq.queue)
}

// GetQueueCapacity returns the maximum queue size
func (eq *EventQueue) GetQueueCapacity() int {
	return eq.maxQueueSize
}

// GetQueueLoad returns the queue load as a percentage
func (eq *EventQueue) GetQueueLoad() float64 {
	if eq.maxQueueSize == 0 {
		return 100.0
	}
	return float64(eq.GetQueueSize()) / float64(eq.maxQueueSize) * 100.0
}

// IsNearCapacity checks if the queue is nearly full (>80%)
func (eq *EventQueue) IsNearCapacity() bool {
	return eq.GetQueueLoad() > 80.0
}

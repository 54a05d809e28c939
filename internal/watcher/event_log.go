package watcher

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
)

// FileEventLog appends events to a JSONL file that the importer can read back
type FileEventLog struct {
	file   *os.File
	writer *bufio.Writer
	mutex  sync.Mutex
	logger *logging.Logger
	count  int
}

// NewFileEventLog opens (or creates) filePath for appending
func NewFileEventLog(filePath string) (*FileEventLog, error) {
	// #nosec G304 -- event log path is intentionally user-provided
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log file: %w", err)
	}

	return &FileEventLog{
		file:   file,
		writer: bufio.NewWriter(file),
		logger: logging.GetLogger("event_log"),
	}, nil
}

// WriteEvent writes an event as one JSON line
func (w *FileEventLog) WriteEvent(event *models.Event) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}
	if _, err := w.writer.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write event to log: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline to log: %w", err)
	}

	w.count++
	return nil
}

// Count returns the number of events written so far
func (w *FileEventLog) Count() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.count
}

// Close flushes pending writes and closes the file
func (w *FileEventLog) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	var errs []error
	if err := w.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush event log: %w", err))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close event log file: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing event log: %v", errs)
	}
	w.logger.Debug("Closed event log after %d events", w.count)
	return nil
}

// Recorder is an in-memory sink
type Recorder struct {
	mu     sync.Mutex
	events []models.Event
}

// WriteEvent stores a copy of event
func (r *Recorder) WriteEvent(event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns the recorded events in arrival order
func (r *Recorder) Events() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Event, len(r.events))
	copy(out, r.events)
	return out
}

package commands

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/moolen/laneview/internal/importexport"
	"github.com/moolen/laneview/internal/importexport/fileio"
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
	"github.com/moolen/laneview/internal/watcher"
	"github.com/spf13/cobra"
)

const defaultQueueSize = 1024

type convertOptions struct {
	manifests   []string
	watchEvents []string
	output      string
	queueSize   int
}

func newConvertCmd(_ *globalOptions) *cobra.Command {
	o := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert Kubernetes objects and watch streams into laneview events",
		Long: `Convert manifests (kubectl get -o yaml/json, including Lists) into historical
events, and replay watch streams (kubectl get -w -o json --output-watch-events)
into change events.

The output format follows the --output extension: .jsonl appends one event per
line, .json and .yaml write an events bundle. Without --output a JSON bundle is
written to stdout.

Examples:
  kubectl get deploy,rs,pods,events -n shop -o yaml > snapshot.yaml
  laneview convert --manifests snapshot.yaml --output events.json

  kubectl get pods -n shop -w -o json --output-watch-events > watch.json
  laneview convert --watch-events watch.json --output capture.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	cmd.Flags().StringSliceVar(&o.manifests, "manifests", nil, "Manifest files to convert into historical events")
	cmd.Flags().StringSliceVar(&o.watchEvents, "watch-events", nil, "Watch event streams to replay")
	cmd.Flags().StringVar(&o.output, "output", "", "Output file (.jsonl, .json or .yaml); stdout when empty")
	cmd.Flags().IntVar(&o.queueSize, "queue-size", defaultQueueSize, "Capacity of the replay event queue")

	return cmd
}

// sink collects converted events and writes them out on close
type sink interface {
	watcher.EventSink
	close() error
}

func (o *convertOptions) run(cmd *cobra.Command) error {
	if len(o.manifests) == 0 && len(o.watchEvents) == 0 {
		return fmt.Errorf("nothing to convert; use --manifests and/or --watch-events")
	}
	if o.queueSize <= 0 {
		return fmt.Errorf("--queue-size must be positive")
	}

	out, err := o.openSink(cmd)
	if err != nil {
		return err
	}

	counter := &countingSink{EventSink: out}
	convertErr := o.convert(cmd.Context(), counter)
	if err := out.close(); err != nil && convertErr == nil {
		convertErr = err
	}
	if convertErr != nil {
		return convertErr
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Converted %d events\n", counter.count())
	return nil
}

func (o *convertOptions) convert(ctx context.Context, out watcher.EventSink) error {
	if ctx == nil {
		ctx = context.Background()
	}
	converter := watcher.NewConverter()

	for _, path := range o.manifests {
		if err := convertManifests(converter, path, out); err != nil {
			return err
		}
	}

	if len(o.watchEvents) == 0 {
		return nil
	}

	// replay goes through a queue so slow sinks do not stall decoding
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := watcher.NewEventQueue(o.queueSize, out.WriteEvent)
	queue.Start(ctx)
	handler := watcher.NewEventCaptureHandler(queue)

	var replayErr error
	for _, path := range o.watchEvents {
		if err := replayFile(ctx, path, handler); err != nil {
			replayErr = err
			break
		}
		if queue.IsNearCapacity() {
			logging.GetLogger("convert").Warn("Replay queue at %.0f%% of %d after %s; consider a larger --queue-size",
				queue.GetQueueLoad(), queue.GetQueueCapacity(), path)
		}
	}
	if err := queue.Stop(); err != nil && replayErr == nil {
		replayErr = fmt.Errorf("failed to write replayed events: %w", err)
	}
	return replayErr
}

func convertManifests(converter *watcher.Converter, path string, out watcher.EventSink) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	objects, err := watcher.LoadObjects(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, obj := range objects {
		events, err := converter.Historical(obj)
		if err != nil {
			return fmt.Errorf("%s: %s %s/%s: %w", path, obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
		}
		for i := range events {
			if err := out.WriteEvent(&events[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func replayFile(ctx context.Context, path string, handler *watcher.EventCaptureHandler) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stats, err := watcher.Replay(ctx, f, handler)
	if err != nil {
		return fmt.Errorf("failed to replay %s: %w", path, err)
	}
	if stats.Skipped > 0 {
		logging.GetLogger("convert").Warn("Skipped %d watch events in %s", stats.Skipped, path)
	}
	return nil
}

func (o *convertOptions) openSink(cmd *cobra.Command) (sink, error) {
	if o.output == "" {
		return &bundleSink{format: fileio.FormatJSON, write: func(b *importexport.Bundle, f fileio.Format) error {
			return importexport.WriteBundle(cmd.OutOrStdout(), b, f)
		}}, nil
	}

	format := fileio.DetectFormat(o.output)
	switch format {
	case fileio.FormatJSONL:
		log, err := watcher.NewFileEventLog(o.output)
		if err != nil {
			return nil, err
		}
		return &logSink{log}, nil
	case fileio.FormatJSON, fileio.FormatYAML:
		path := o.output
		return &bundleSink{format: format, write: func(b *importexport.Bundle, f fileio.Format) error {
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := importexport.WriteBundle(file, b, f); err != nil {
				_ = file.Close()
				return err
			}
			return file.Close()
		}}, nil
	default:
		return nil, fmt.Errorf("unsupported output extension: %s (use .jsonl, .json or .yaml)", o.output)
	}
}

// countingSink counts events accepted by the wrapped sink
type countingSink struct {
	watcher.EventSink
	mu sync.Mutex
	n  int
}

func (s *countingSink) WriteEvent(event *models.Event) error {
	if err := s.EventSink.WriteEvent(event); err != nil {
		return err
	}
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
	return nil
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

type logSink struct {
	*watcher.FileEventLog
}

func (s *logSink) close() error { return s.Close() }

// bundleSink records events and writes them as one bundle
type bundleSink struct {
	watcher.Recorder
	format fileio.Format
	write  func(*importexport.Bundle, fileio.Format) error
}

func (s *bundleSink) close() error {
	events := s.Events()
	if events == nil {
		events = []models.Event{}
	}
	return s.write(&importexport.Bundle{Events: events}, s.format)
}

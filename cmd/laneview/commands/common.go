package commands

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
	"github.com/moolen/laneview/internal/classify"
	"github.com/moolen/laneview/internal/engine"
	"github.com/moolen/laneview/internal/hierarchy"
	"github.com/moolen/laneview/internal/importexport"
	"github.com/moolen/laneview/internal/models"
	"github.com/moolen/laneview/internal/timeline"
	"github.com/spf13/cobra"
)

const tracerName = "github.com/moolen/laneview/cmd/laneview"

// inputOptions are the flags of commands that read an event set
type inputOptions struct {
	eventsPath   string
	topologyPath string
}

func (in *inputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&in.eventsPath, "events", "", "Event file or directory of event files (json, yaml, jsonl)")
	cmd.Flags().StringVar(&in.topologyPath, "topology", "", "Topology snapshot file (optional)")
	_ = cmd.MarkFlagRequired("events")
}

// load reads events and the topology. A --topology file replaces any
// topology found in the event files.
func (in *inputOptions) load(stderr io.Writer) (*importexport.Bundle, error) {
	importer := importexport.NewImporter()

	bundle, report, err := importer.Load(in.eventsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	if report.InvalidEvents > 0 || report.FailedFiles > 0 {
		fmt.Fprint(stderr, importexport.FormatImportReport(report))
	}

	if in.topologyPath != "" {
		topology, err := importer.LoadTopology(in.topologyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load topology: %w", err)
		}
		bundle.Topology = topology
	}
	return bundle, nil
}

// windowOptions are the flags of commands that reconstruct health
type windowOptions struct {
	since string
	now   string
}

func (w *windowOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.since, "since", "now-1h", `Window start ("now-2h", "2 hours ago", RFC3339 or unix seconds)`)
	cmd.Flags().StringVar(&w.now, "now", "now", "Reference time closing open spans (same formats as --since)")
}

func (w *windowOptions) window(wall time.Time) (timeline.Window, error) {
	now, err := parseTime(w.now, wall, "now")
	if err != nil {
		return timeline.Window{}, err
	}
	start, err := parseTime(w.since, now, "since")
	if err != nil {
		return timeline.Window{}, err
	}
	if start.After(now) {
		return timeline.Window{}, fmt.Errorf("--since (%s) is after --now (%s)", start.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	return timeline.Window{Start: start, Now: now}, nil
}

var nowMinusPattern = regexp.MustCompile(`(?i)^\s*now\s*-\s*(\d+)\s*([a-z]+)\s*$`)

// parseTime accepts "now", "now-<n><unit>", unix seconds, RFC3339 and
// human-readable dates, all relative to ref.
func parseTime(s string, ref time.Time, field string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("--%s must not be empty", field)
	}
	if strings.EqualFold(trimmed, "now") {
		return ref, nil
	}

	if unix, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if unix < 0 {
			return time.Time{}, fmt.Errorf("--%s must be non-negative", field)
		}
		return time.Unix(unix, 0).UTC(), nil
	}

	if m := nowMinusPattern.FindStringSubmatch(trimmed); m != nil {
		amount, _ := strconv.Atoi(m[1])
		switch unit := strings.ToLower(m[2]); {
		case unit == "s" || strings.HasPrefix(unit, "sec"):
			return ref.Add(-time.Duration(amount) * time.Second), nil
		case unit == "m" || strings.HasPrefix(unit, "min"):
			return ref.Add(-time.Duration(amount) * time.Minute), nil
		case unit == "h" || strings.HasPrefix(unit, "hr") || strings.HasPrefix(unit, "hour"):
			return ref.Add(-time.Duration(amount) * time.Hour), nil
		case unit == "d" || strings.HasPrefix(unit, "day"):
			return ref.AddDate(0, 0, -amount), nil
		default:
			return time.Time{}, fmt.Errorf("--%s: unsupported duration unit %q (use s, m, h or d)", field, unit)
		}
	}

	if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return t, nil
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{
		CurrentTime:         ref,
		PreferredDateSource: dps.Past,
	}
	parsed, err := parser.Parse(cfg, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a unix timestamp, RFC3339 or human-readable date: %w", field, err)
	}
	if parsed.IsZero() {
		return time.Time{}, fmt.Errorf("--%s could not be parsed as a date: %s", field, s)
	}
	return parsed.Time, nil
}

// newEngine builds an engine from the loaded configuration
func (o *globalOptions) newEngine(groupByApp *bool) (*engine.Engine, error) {
	cfg := o.cfg
	opts := hierarchy.Options{
		GroupByApp:   cfg.Hierarchy.GroupByApp,
		AppLabelKeys: cfg.Hierarchy.AppLabelKeys,
	}
	if groupByApp != nil {
		opts.GroupByApp = *groupByApp
	}

	detector := classify.NewMarkerRolloutDetector(cfg.Rollout.Markers...)
	return engine.New(engine.Config{
		Workers:      cfg.Engine.Workers,
		CacheSize:    cfg.Engine.CacheSize,
		CacheEnabled: cfg.Engine.CacheEnabled,
		Hierarchy:    opts,
	},
		engine.WithClassifier(classify.NewClassifier(detector)),
		engine.WithTracer(o.tracing.Tracer(tracerName)),
	)
}

// sortedKeys returns the keys of m in lexical order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// findLane locates key among top-level lanes and their descendants
func findLane(forests map[string][]*models.ResourceLane, key models.ResourceKey) *models.ResourceLane {
	key = hierarchy.CanonicalKey(key)
	for _, lane := range forests[key.Namespace] {
		if found := lane.Find(key); found != nil {
			return found
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

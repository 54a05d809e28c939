// Package engine runs hierarchy and health timeline builds for a whole event
// set: one hierarchy build per namespace and one timeline build per lane, on a
// bounded worker pool, with memoized results.
//
// Lanes returned by the engine may be shared with its cache and must be
// treated as read-only.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/moolen/laneview/internal/classify"
	"github.com/moolen/laneview/internal/hierarchy"
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
	"github.com/moolen/laneview/internal/timeline"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/moolen/laneview/internal/engine"

// Config holds engine configuration
type Config struct {
	Workers      int // Max concurrent builds (default: GOMAXPROCS)
	CacheSize    int // Max memoized results per stage
	CacheEnabled bool
	Hierarchy    hierarchy.Options
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		Workers:      runtime.GOMAXPROCS(0),
		CacheSize:    256,
		CacheEnabled: true,
		Hierarchy:    hierarchy.DefaultOptions(),
	}
}

// Option customizes an Engine
type Option func(*Engine)

// WithRegisterer registers engine metrics with reg instead of a private registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.registerer = reg }
}

// WithTracer sets the tracer used for engine spans
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithClassifier sets the classifier used for effective health
func WithClassifier(c *classify.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// Engine orchestrates builds. It is safe for concurrent use.
type Engine struct {
	cfg           Config
	builder       *hierarchy.Builder
	reconstructor *timeline.Reconstructor
	classifier    *classify.Classifier

	forests   *lru.Cache[string, []*models.ResourceLane]
	timelines *lru.Cache[string, models.HealthTimeline]

	registerer prometheus.Registerer
	metrics    *Metrics
	tracer     trace.Tracer
	logger     *logging.Logger
}

// New creates a new Engine
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	e := &Engine{
		cfg:    cfg,
		logger: logging.GetLogger("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.registerer == nil {
		e.registerer = prometheus.NewRegistry()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	e.metrics = NewMetrics(e.registerer)
	e.builder = hierarchy.NewBuilder(cfg.Hierarchy)
	e.reconstructor = timeline.NewReconstructor(e.classifier)

	if cfg.CacheEnabled {
		if cfg.CacheSize <= 0 {
			return nil, fmt.Errorf("cache size must be positive, got %d", cfg.CacheSize)
		}
		forests, err := lru.New[string, []*models.ResourceLane](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create hierarchy cache: %w", err)
		}
		timelines, err := lru.New[string, models.HealthTimeline](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create timeline cache: %w", err)
		}
		e.forests, e.timelines = forests, timelines
	}

	e.logger.Debug("Engine initialized: workers=%d, cache=%v(%d)", cfg.Workers, cfg.CacheEnabled, cfg.CacheSize)
	return e, nil
}

// Metrics returns the engine's metrics
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// BuildNamespaces splits events by namespace and builds each namespace's
// forest concurrently. Topology nodes and edges are scoped to the namespace
// of their endpoints.
func (e *Engine) BuildNamespaces(ctx context.Context, events []models.Event, topology *models.Topology) (map[string][]*models.ResourceLane, error) {
	byNamespace := SplitByNamespace(events)

	ctx, span := e.tracer.Start(ctx, "engine.buildNamespaces",
		trace.WithAttributes(
			attribute.Int("input.event_count", len(events)),
			attribute.Int("input.namespace_count", len(byNamespace)),
		),
	)
	defer span.End()

	namespaces := make([]string, 0, len(byNamespace))
	for ns := range byNamespace {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	var mu sync.Mutex
	result := make(map[string][]*models.ResourceLane, len(namespaces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, ns := range namespaces {
		nsEvents := byNamespace[ns]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lanes := e.buildNamespace(ns, nsEvents, ScopeTopology(topology, ns))
			mu.Lock()
			result[ns] = lanes
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hierarchy build cancelled")
		return nil, fmt.Errorf("building namespaces: %w", err)
	}

	laneCount := 0
	for _, lanes := range result {
		laneCount += len(lanes)
	}
	span.SetAttributes(attribute.Int("result.top_level_lanes", laneCount))
	return result, nil
}

// buildNamespace builds one namespace, consulting the cache first
func (e *Engine) buildNamespace(ns string, events []models.Event, topology *models.Topology) []*models.ResourceLane {
	var key string
	if e.forests != nil {
		fp := newFingerprint("hierarchy")
		fp.str(ns)
		fp.options(e.cfg.Hierarchy)
		fp.events(events)
		fp.topology(topology)
		key = fp.sum()

		if lanes, ok := e.forests.Get(key); ok {
			e.metrics.CacheHits.Inc()
			return lanes
		}
		e.metrics.CacheMisses.Inc()
	}

	start := time.Now()
	lanes := e.builder.Build(events, topology, nil)
	e.metrics.BuildDuration.WithLabelValues("hierarchy").Observe(time.Since(start).Seconds())
	e.metrics.HierarchyBuilds.Inc()

	e.logger.DebugWithFields("namespace built",
		logging.Field("namespace", ns),
		logging.Field("events", len(events)),
		logging.Field("lanes", len(lanes)),
	)

	if e.forests != nil {
		e.forests.Add(key, lanes)
	}
	return lanes
}

// Timelines builds the health timeline of every lane and descendant lane,
// keyed by lane ID.
func (e *Engine) Timelines(ctx context.Context, lanes []*models.ResourceLane, window timeline.Window) (map[string]models.HealthTimeline, error) {
	var all []*models.ResourceLane
	for _, lane := range lanes {
		all = append(all, lane)
		all = append(all, lane.Descendants()...)
	}

	ctx, span := e.tracer.Start(ctx, "engine.timelines",
		trace.WithAttributes(
			attribute.Int("input.lane_count", len(all)),
			attribute.String("window.start", window.Start.Format(time.RFC3339)),
			attribute.String("window.now", window.Now.Format(time.RFC3339)),
		),
	)
	defer span.End()

	var mu sync.Mutex
	result := make(map[string]models.HealthTimeline, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, lane := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tl := e.laneTimeline(lane, window)
			mu.Lock()
			result[lane.ID()] = tl
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeline build cancelled")
		return nil, fmt.Errorf("building timelines: %w", err)
	}
	return result, nil
}

// Timeline builds the health timeline of a single lane
func (e *Engine) Timeline(lane *models.ResourceLane, window timeline.Window) models.HealthTimeline {
	return e.laneTimeline(lane, window)
}

func (e *Engine) laneTimeline(lane *models.ResourceLane, window timeline.Window) models.HealthTimeline {
	var key string
	if e.timelines != nil {
		fp := newFingerprint("timeline")
		fp.str(lane.ID())
		fp.time(window.Start)
		fp.time(window.Now)
		fp.events(lane.Events)
		key = fp.sum()

		if tl, ok := e.timelines.Get(key); ok {
			e.metrics.CacheHits.Inc()
			return tl
		}
		e.metrics.CacheMisses.Inc()
	}

	start := time.Now()
	tl := e.reconstructor.ForLane(lane, window)
	e.metrics.BuildDuration.WithLabelValues("timeline").Observe(time.Since(start).Seconds())
	e.metrics.TimelineBuilds.Inc()

	if e.timelines != nil {
		e.timelines.Add(key, tl)
	}
	return tl
}

// Purge drops all memoized results
func (e *Engine) Purge() {
	if e.forests != nil {
		e.forests.Purge()
	}
	if e.timelines != nil {
		e.timelines.Purge()
	}
}

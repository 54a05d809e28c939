package importexport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/moolen/laneview/internal/importexport/enrichment"
	"github.com/moolen/laneview/internal/importexport/fileio"
	"github.com/moolen/laneview/internal/logging"
	"github.com/moolen/laneview/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrEmptyInput is returned when a file contains no document at all
var ErrEmptyInput = errors.New("empty input")

// ProgressCallback is called during import to report progress
type ProgressCallback func(filename string, eventCount int)

// Bundle is the on-disk event file: an events list and an optional topology snapshot.
// A bare events array is accepted as well.
type Bundle struct {
	Events   []models.Event   `json:"events" yaml:"events"`
	Topology *models.Topology `json:"topology,omitempty" yaml:"topology,omitempty"`
}

// ImportReport contains the results of an import operation
type ImportReport struct {
	TotalFiles    int
	ImportedFiles int
	FailedFiles   int
	TotalEvents   int
	InvalidEvents int
	TopologyNodes int
	TopologyEdges int
	Errors        []string
	Duration      time.Duration
}

// Importer loads event bundles from files and directories
type Importer struct {
	logger   *logging.Logger
	reader   *fileio.FileReader
	walker   *fileio.DirectoryWalker
	enricher enrichment.Enricher
	progress ProgressCallback
}

// Option configures an Importer
type Option func(*Importer)

// WithEnricher replaces the default enrichment chain
func WithEnricher(e enrichment.Enricher) Option {
	return func(i *Importer) { i.enricher = e }
}

// WithProgress registers a callback invoked once per loaded file
func WithProgress(cb ProgressCallback) Option {
	return func(i *Importer) { i.progress = cb }
}

// NewImporter creates an importer with the default enrichment chain
func NewImporter(opts ...Option) *Importer {
	logger := logging.GetLogger("importexport")
	i := &Importer{
		logger:   logger,
		reader:   fileio.NewFileReader(logger),
		walker:   fileio.NewDirectoryWalker(logger),
		enricher: enrichment.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Load reads a single event file or every event file below a directory.
// Events failing validation are dropped and listed in the report; a file
// that cannot be parsed fails a single-file load but is only counted when
// loading a directory.
func (i *Importer) Load(path string) (*Bundle, *ImportReport, error) {
	start := time.Now()

	pathType, err := fileio.DetectPathType(path)
	if err != nil {
		return nil, nil, err
	}

	var files []fileio.WalkResult
	if pathType == fileio.PathTypeDirectory {
		files, err = i.walker.Walk(path)
		if err != nil {
			return nil, nil, err
		}
		i.logger.Info("Found %d event files to import", len(files))
	} else {
		format := fileio.DetectFormat(path)
		if format == fileio.FormatUnknown {
			return nil, nil, fmt.Errorf("unsupported file extension: %s", path)
		}
		files = []fileio.WalkResult{{FilePath: path, Format: format}}
	}

	merged := &Bundle{Events: []models.Event{}}
	report := &ImportReport{TotalFiles: len(files), Errors: []string{}}

	for _, f := range files {
		bundle, err := i.loadFile(f)
		if err != nil {
			if pathType == fileio.PathTypeFile {
				return nil, nil, err
			}
			i.logger.Error("Failed to parse %s: %v", f.FilePath, err)
			report.FailedFiles++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", f.FilePath, err))
			continue
		}

		valid := i.prepare(bundle.Events, f.FilePath, report)
		merged.Events = append(merged.Events, valid...)
		if bundle.Topology != nil {
			if merged.Topology == nil {
				merged.Topology = &models.Topology{}
			}
			merged.Topology.Nodes = append(merged.Topology.Nodes, bundle.Topology.Nodes...)
			merged.Topology.Edges = append(merged.Topology.Edges, bundle.Topology.Edges...)
		}
		report.ImportedFiles++

		if i.progress != nil {
			i.progress(f.FilePath, len(valid))
		}
		i.logger.Debug("Loaded %d events from %s", len(valid), f.FilePath)
	}

	if report.ImportedFiles == 0 && report.FailedFiles > 0 {
		return nil, report, fmt.Errorf("all %d event files failed to parse", report.FailedFiles)
	}

	report.TotalEvents = len(merged.Events)
	if merged.Topology != nil {
		report.TopologyNodes = len(merged.Topology.Nodes)
		report.TopologyEdges = len(merged.Topology.Edges)
	}
	report.Duration = time.Since(start)

	i.logger.InfoWithFields("Import completed",
		logging.Field("path", path),
		logging.Field("files", report.ImportedFiles),
		logging.Field("events", report.TotalEvents),
		logging.Field("invalid", report.InvalidEvents))

	return merged, report, nil
}

// LoadTopology reads a topology snapshot from a file. The file may hold a bare
// {nodes, edges} document or a bundle with a topology key.
func (i *Importer) LoadTopology(path string) (*models.Topology, error) {
	format := fileio.DetectFormat(path)
	if format == fileio.FormatUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}

	rc, err := i.reader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	topology, err := ParseTopology(rc, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return topology, nil
}

func (i *Importer) loadFile(f fileio.WalkResult) (*Bundle, error) {
	rc, err := i.reader.ReadFile(f.FilePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return ParseBundle(rc, f.Format)
}

// prepare enriches events and drops those that fail validation
func (i *Importer) prepare(events []models.Event, source string, report *ImportReport) []models.Event {
	if i.enricher != nil {
		i.enricher.Enrich(events, i.logger)
	}

	valid := events[:0]
	for idx := range events {
		if err := events[idx].Validate(); err != nil {
			report.InvalidEvents++
			report.Errors = append(report.Errors, fmt.Sprintf("%s[%d]: %v", source, idx, err))
			continue
		}
		valid = append(valid, events[idx])
	}
	return valid
}

// ParseBundle decodes one event file. It does not enrich or validate.
func ParseBundle(r io.Reader, format fileio.Format) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	switch format {
	case fileio.FormatJSON:
		return parseJSONBundle(data)
	case fileio.FormatYAML:
		return parseYAMLBundle(data)
	case fileio.FormatJSONL:
		return parseJSONLBundle(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func parseJSONBundle(data []byte) (*Bundle, error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		var events []models.Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return &Bundle{Events: events}, nil
	}

	var bundle Bundle
	if err := json.Unmarshal(trimmed, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &bundle, nil
}

// parseJSONLBundle reads a stream of event objects separated by whitespace
func parseJSONLBundle(data []byte) (*Bundle, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	bundle := &Bundle{}
	for line := 1; ; line++ {
		var ev models.Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return bundle, nil
			}
			return nil, fmt.Errorf("failed to parse JSON event %d: %w", line, err)
		}
		bundle.Events = append(bundle.Events, ev)
	}
}

func parseYAMLBundle(data []byte) (*Bundle, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmptyInput
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		var events []models.Event
		if err := root.Decode(&events); err != nil {
			return nil, fmt.Errorf("failed to decode YAML events: %w", err)
		}
		return &Bundle{Events: events}, nil
	}

	var bundle Bundle
	if err := root.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode YAML bundle: %w", err)
	}
	return &bundle, nil
}

// topologyDocument accepts both a bare topology and a bundle carrying one
type topologyDocument struct {
	Nodes    []models.TopologyNode `json:"nodes" yaml:"nodes"`
	Edges    []models.TopologyEdge `json:"edges" yaml:"edges"`
	Topology *models.Topology      `json:"topology" yaml:"topology"`
}

// ParseTopology decodes a topology snapshot
func ParseTopology(r io.Reader, format fileio.Format) (*models.Topology, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	var doc topologyDocument
	switch format {
	case fileio.FormatJSON:
		err = json.Unmarshal(data, &doc)
	case fileio.FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}

	if doc.Topology != nil {
		return doc.Topology, nil
	}
	return &models.Topology{Nodes: doc.Nodes, Edges: doc.Edges}, nil
}

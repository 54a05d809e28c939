package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moolen/laneview/internal/importexport"
	"github.com/moolen/laneview/internal/importexport/fileio"
	"github.com/moolen/laneview/internal/models"
	"github.com/moolen/laneview/internal/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsFixture = `{
  "events": [
    {"id": "e1", "timestamp": "2024-05-01T10:00:00Z", "kind": "Deployment", "namespace": "shop", "name": "web",
     "createdAt": "2024-05-01T10:00:00Z", "eventType": "add", "healthState": "healthy"},
    {"id": "e2", "timestamp": "2024-05-01T10:01:00Z", "kind": "ReplicaSet", "namespace": "shop", "name": "web-abc",
     "createdAt": "2024-05-01T10:01:00Z", "eventType": "add", "owner": {"kind": "Deployment", "name": "web"}},
    {"id": "e3", "timestamp": "2024-05-01T10:05:00Z", "kind": "Pod", "namespace": "shop", "name": "web-abc-1",
     "createdAt": "2024-05-01T10:05:00Z", "eventType": "add", "healthState": "healthy",
     "owner": {"kind": "ReplicaSet", "name": "web-abc"}},
    {"id": "e4", "timestamp": "2024-05-01T10:20:00Z", "kind": "Pod", "namespace": "shop", "name": "web-abc-1",
     "eventType": "update", "reason": "CrashLoopBackOff", "healthState": "unhealthy",
     "owner": {"kind": "ReplicaSet", "name": "web-abc"}},
    {"id": "e5", "timestamp": "2024-05-01T10:40:00Z", "kind": "Pod", "namespace": "shop", "name": "web-abc-1",
     "eventType": "update", "healthState": "healthy", "owner": {"kind": "ReplicaSet", "name": "web-abc"}},
    {"id": "e6", "timestamp": "2024-05-01T10:10:00Z", "kind": "ConfigMap", "namespace": "billing", "name": "settings",
     "eventType": "add"}
  ]
}`

const manifestFixture = `apiVersion: v1
kind: List
items:
- apiVersion: apps/v1
  kind: Deployment
  metadata:
    name: web
    namespace: shop
    uid: dep-uid
    creationTimestamp: "2024-05-01T10:00:00Z"
  spec:
    replicas: 2
  status:
    replicas: 2
    readyReplicas: 2
    updatedReplicas: 2
    conditions:
    - type: Available
      status: "True"
      lastTransitionTime: "2024-05-01T10:02:00Z"
`

const watchFixture = `{"type":"ADDED","object":{"apiVersion":"v1","kind":"Pod","metadata":{"name":"web-1","namespace":"shop","uid":"pod-uid","creationTimestamp":"2024-05-01T10:00:00Z"},"status":{"phase":"Pending"}}}
{"type":"MODIFIED","object":{"apiVersion":"v1","kind":"Pod","metadata":{"name":"web-1","namespace":"shop","uid":"pod-uid","creationTimestamp":"2024-05-01T10:00:00Z"},"status":{"phase":"Running","conditions":[{"type":"Ready","status":"True"}]}}}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLanesTable(t *testing.T) {
	events := writeFile(t, "events.json", eventsFixture)

	out, _, err := execute(t, "lanes", "--events", events)
	require.NoError(t, err)

	assert.Contains(t, out, "NAMESPACE")
	assert.Contains(t, out, "Deployment/shop/web")
	assert.Contains(t, out, "  ReplicaSet/shop/web-abc")
	assert.Contains(t, out, "  Pod/shop/web-abc-1")
	assert.Contains(t, out, "ConfigMap/billing/settings")
	assert.Contains(t, out, "Colors: billing=")

	// namespaces are listed in lexical order
	assert.Less(t, strings.Index(out, "billing"), strings.Index(out, "shop"))

	// TOTAL counts the lane's own events plus those of its descendants
	rows := map[string][]string{}
	for _, line := range strings.Split(out, "\n") {
		if fields := strings.Fields(line); len(fields) >= 4 {
			rows[fields[1]] = fields
		}
	}
	require.Contains(t, rows, "Deployment/shop/web")
	assert.Equal(t, []string{"1", "5"}, rows["Deployment/shop/web"][2:4])
	assert.Equal(t, []string{"1", "1"}, rows["ReplicaSet/shop/web-abc"][2:4])
	assert.Equal(t, []string{"3", "3"}, rows["Pod/shop/web-abc-1"][2:4])
}

func TestLanesJSON(t *testing.T) {
	events := writeFile(t, "events.json", eventsFixture)

	out, _, err := execute(t, "lanes", "--events", events, "-o", "json",
		"--since", "2024-05-01T10:00:00Z", "--now", "2024-05-01T11:00:00Z")
	require.NoError(t, err)

	var doc importexport.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Namespaces, 2)

	shop := doc.Namespaces[1]
	assert.Equal(t, "shop", shop.Namespace)
	assert.NotEmpty(t, shop.Color)
	require.Len(t, shop.Lanes, 1)
	assert.Equal(t, "web", shop.Lanes[0].Lane.Key.Name)
	require.Len(t, shop.Lanes[0].Lane.Children, 2)

	pod := shop.Lanes[0].Timelines["Pod/shop/web-abc-1"]
	require.Len(t, pod.Spans, 3)
	assert.Equal(t, models.LabelHealthy, pod.Spans[0].Label)
	assert.Equal(t, models.LabelUnhealthy, pod.Spans[1].Label)
	assert.Equal(t, models.LabelHealthy, pod.Spans[2].Label)
	assert.Equal(t, "2024-05-01T11:00:00Z", pod.Spans[2].End.UTC().Format("2006-01-02T15:04:05Z"))
}

func TestLanesRootAndNamespace(t *testing.T) {
	events := writeFile(t, "events.json", eventsFixture)

	out, _, err := execute(t, "lanes", "--events", events, "--root", "Pod/shop/web-abc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deployment/shop/web")
	assert.NotContains(t, out, "billing")

	out, _, err = execute(t, "lanes", "--events", events, "--namespace", "billing")
	require.NoError(t, err)
	assert.Contains(t, out, "ConfigMap/billing/settings")
	assert.NotContains(t, out, "Deployment/shop/web")
}

func TestLanesErrors(t *testing.T) {
	events := writeFile(t, "events.json", eventsFixture)

	_, _, err := execute(t, "lanes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"events" not set`)

	_, _, err = execute(t, "lanes", "--events", events, "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")

	_, _, err = execute(t, "lanes", "--events", events, "--root", "web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --root")
}

func TestHealthTable(t *testing.T) {
	events := writeFile(t, "events.json", eventsFixture)

	out, _, err := execute(t, "health", "--events", events, "--resource", "Pod/shop/web-abc-1",
		"--since", "2024-05-01T10:00:00Z", "--now", "2024-05-01T11:00:00Z")
	require.NoError(t, err)

	assert.Contains(t, out, "Pod/shop/web-abc-1")
	assert.Contains(t, out, "(created 2024-05-01T10:05:00Z)")
	assert.Contains(t, out, "START")
	assert.Contains(t, out, "unhealthy")
	assert.Contains(t, out, "20m0s")
}

func TestHealthDescendantsJSON(t *testing.T) {
	events := writeFile(t, "events.json", eventsFixture)

	out, _, err := execute(t, "health", "--events", events, "--resource", "Deployment/shop/web", "--descendants",
		"--since", "2024-05-01T10:00:00Z", "--now", "2024-05-01T11:00:00Z", "-o", "json")
	require.NoError(t, err)

	var results []laneHealth
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "Deployment/shop/web", results[0].Lane)

	lanes := []string{results[1].Lane, results[2].Lane}
	assert.ElementsMatch(t, []string{"ReplicaSet/shop/web-abc", "Pod/shop/web-abc-1"}, lanes)
}

func TestHealthUnknownResource(t *testing.T) {
	events := writeFile(t, "events.json", eventsFixture)

	_, _, err := execute(t, "health", "--events", events, "--resource", "Pod/shop/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pod/shop/missing has no events")
}

func TestPalette(t *testing.T) {
	out, _, err := execute(t, "palette", "shop", "billing", "shop")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "shop")
	assert.Contains(t, lines[1], string(palette.DefaultColors[0]))
	assert.Contains(t, lines[2], "billing")
	assert.Contains(t, lines[2], string(palette.DefaultColors[1]))
}

func TestPaletteHashFromEvents(t *testing.T) {
	events := writeFile(t, "events.json", eventsFixture)

	out, _, err := execute(t, "palette", "--events", events, "--hash")
	require.NoError(t, err)
	assert.Contains(t, out, string(palette.HashColor("shop")))
	assert.Contains(t, out, string(palette.HashColor("billing")))

	_, _, err = execute(t, "palette")
	require.Error(t, err)
}

func TestConvertManifests(t *testing.T) {
	manifests := writeFile(t, "snapshot.yaml", manifestFixture)
	output := filepath.Join(t.TempDir(), "events.json")

	_, stderr, err := execute(t, "convert", "--manifests", manifests, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Converted 2 events")

	bundle, report, err := importexport.NewImporter().Load(output)
	require.NoError(t, err)
	assert.Zero(t, report.InvalidEvents)
	require.Len(t, bundle.Events, 2)
	for _, ev := range bundle.Events {
		assert.Equal(t, models.SourceHistorical, ev.Source)
		assert.Equal(t, "Deployment", ev.Kind)
	}
	assert.Equal(t, models.HealthHealthy, bundle.Events[1].HealthState)
}

func TestConvertWatchEventsToJSONL(t *testing.T) {
	stream := writeFile(t, "watch.json", watchFixture)
	output := filepath.Join(t.TempDir(), "capture.jsonl")

	_, stderr, err := execute(t, "convert", "--watch-events", stream, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Converted 2 events")

	bundle, _, err := importexport.NewImporter().Load(output)
	require.NoError(t, err)
	require.Len(t, bundle.Events, 2)
	assert.Equal(t, models.EventTypeAdd, bundle.Events[0].EventType)
	assert.Equal(t, models.HealthDegraded, bundle.Events[0].HealthState)
	assert.Equal(t, models.EventTypeUpdate, bundle.Events[1].EventType)
	assert.Equal(t, models.HealthHealthy, bundle.Events[1].HealthState)
}

type failingSink struct{}

func (failingSink) WriteEvent(*models.Event) error { return errors.New("disk full") }

func TestConvertWatchEventsSinkFailure(t *testing.T) {
	stream := writeFile(t, "watch.json", watchFixture)
	o := &convertOptions{watchEvents: []string{stream}, queueSize: defaultQueueSize}

	err := o.convert(context.Background(), failingSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write replayed events")
	assert.Contains(t, err.Error(), "disk full")
}

func TestConvertToStdout(t *testing.T) {
	manifests := writeFile(t, "snapshot.yaml", manifestFixture)

	out, _, err := execute(t, "convert", "--manifests", manifests)
	require.NoError(t, err)

	bundle, err := importexport.ParseBundle(strings.NewReader(out), fileio.FormatJSON)
	require.NoError(t, err)
	assert.Len(t, bundle.Events, 2)
}

func TestConvertErrors(t *testing.T) {
	_, _, err := execute(t, "convert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to convert")

	manifests := writeFile(t, "snapshot.yaml", manifestFixture)
	_, _, err = execute(t, "convert", "--manifests", manifests, "--output", "events.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output extension")
}

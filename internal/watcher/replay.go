package watcher

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/moolen/laneview/internal/logging"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/apimachinery/pkg/watch"
)

// ReplayStats counts what a replay processed
type ReplayStats struct {
	Added    int
	Modified int
	Deleted  int
	Skipped  int
}

// Total returns the number of events handed to the handler
func (s ReplayStats) Total() int {
	return s.Added + s.Modified + s.Deleted
}

// Replay feeds a recorded watch stream, as printed by
// `kubectl get -w -o json --output-watch-events`, through the handler.
// The previous version of each object is remembered so updates carry a diff.
func Replay(ctx context.Context, r io.Reader, handler *EventCaptureHandler) (ReplayStats, error) {
	logger := logging.GetLogger("watcher")
	dec := json.NewDecoder(bufio.NewReader(r))
	last := make(map[types.UID]runtime.Object)
	var stats ReplayStats

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var we metav1.WatchEvent
		if err := dec.Decode(&we); err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("failed to decode watch event: %w", err)
		}

		switch watch.EventType(we.Type) {
		case watch.Added, watch.Modified, watch.Deleted:
		default:
			stats.Skipped++
			continue
		}

		obj := &unstructured.Unstructured{}
		if err := obj.UnmarshalJSON(we.Object.Raw); err != nil {
			logger.Warn("Skipping undecodable %s object: %v", we.Type, err)
			stats.Skipped++
			continue
		}
		uid := obj.GetUID()

		var err error
		switch watch.EventType(we.Type) {
		case watch.Added:
			if prev, seen := last[uid]; seen && uid != "" {
				err = handler.OnUpdate(prev, obj)
			} else {
				err = handler.OnAdd(obj)
			}
			stats.Added++
		case watch.Modified:
			if prev, seen := last[uid]; seen && uid != "" {
				err = handler.OnUpdate(prev, obj)
			} else {
				err = handler.OnUpdate(nil, obj)
			}
			stats.Modified++
		case watch.Deleted:
			err = handler.OnDelete(obj)
			delete(last, uid)
			stats.Deleted++
		}
		if err != nil {
			return stats, err
		}

		if watch.EventType(we.Type) != watch.Deleted && uid != "" {
			last[uid] = obj
		}
	}
}

// LoadObjects decodes a YAML or JSON stream of Kubernetes objects, as printed by
// `kubectl get -o yaml`. Documents may be separated by `---`, and List kinds are
// expanded into their items.
func LoadObjects(r io.Reader) ([]*unstructured.Unstructured, error) {
	dec := yaml.NewYAMLOrJSONDecoder(r, 4096)
	var objects []*unstructured.Unstructured

	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return objects, nil
			}
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}

		obj := &unstructured.Unstructured{}
		if err := obj.UnmarshalJSON(trimmed); err != nil {
			return nil, fmt.Errorf("failed to decode object: %w", err)
		}

		if obj.IsList() {
			err := obj.EachListItem(func(item runtime.Object) error {
				u, ok := item.(*unstructured.Unstructured)
				if !ok {
					return fmt.Errorf("unexpected list item type %T", item)
				}
				objects = append(objects, u)
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}
		objects = append(objects, obj)
	}
}

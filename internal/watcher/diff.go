package watcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moolen/laneview/internal/models"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Diff summarizes the rollout-relevant differences between two versions of an object:
// replica counts, container images and pod phase. It returns nil when none changed.
func Diff(oldObj, newObj map[string]interface{}) *models.DiffInfo {
	var changes []models.FieldChange

	oldReplicas, oldOK := nestedInt(oldObj, "spec", "replicas")
	newReplicas, newOK := nestedInt(newObj, "spec", "replicas")
	if oldOK && newOK && oldReplicas != newReplicas {
		changes = append(changes, models.FieldChange{Path: "spec.replicas", OldValue: oldReplicas, NewValue: newReplicas})
	}

	oldUpdated, oldOK := nestedInt(oldObj, "status", "updatedReplicas")
	newUpdated, newOK := nestedInt(newObj, "status", "updatedReplicas")
	if oldOK && newOK && oldUpdated != newUpdated {
		changes = append(changes, models.FieldChange{Path: "status.updatedReplicas", OldValue: oldUpdated, NewValue: newUpdated})
	}

	oldImages := containerImages(oldObj)
	newImages := containerImages(newObj)
	names := make([]string, 0, len(newImages))
	for name := range newImages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		before, ok := oldImages[name]
		if ok && before != newImages[name] {
			changes = append(changes, models.FieldChange{
				Path:     fmt.Sprintf("image(%s)", name),
				OldValue: before,
				NewValue: newImages[name],
			})
		}
	}

	oldPhase, _, _ := unstructured.NestedString(oldObj, "status", "phase")
	newPhase, _, _ := unstructured.NestedString(newObj, "status", "phase")
	if oldPhase != "" && newPhase != "" && oldPhase != newPhase {
		changes = append(changes, models.FieldChange{Path: "status.phase", OldValue: oldPhase, NewValue: newPhase})
	}

	if len(changes) == 0 {
		return nil
	}

	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		label := c.Path
		switch label {
		case "spec.replicas":
			label = "replicas"
		case "status.updatedReplicas":
			label = "updated"
		}
		parts = append(parts, fmt.Sprintf("%s: %v → %v", label, c.OldValue, c.NewValue))
	}
	return &models.DiffInfo{Fields: changes, Summary: strings.Join(parts, ", ")}
}

// containerImages maps container name to image for pods and pod templates
func containerImages(obj map[string]interface{}) map[string]string {
	containers, found, _ := unstructured.NestedSlice(obj, "spec", "template", "spec", "containers")
	if !found {
		containers, _, _ = unstructured.NestedSlice(obj, "spec", "containers")
	}

	images := make(map[string]string, len(containers))
	for _, c := range containers {
		m, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		name, _, _ := unstructured.NestedString(m, "name")
		image, _, _ := unstructured.NestedString(m, "image")
		if name != "" {
			images[name] = image
		}
	}
	return images
}

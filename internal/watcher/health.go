package watcher

import (
	"github.com/moolen/laneview/internal/classify"
	"github.com/moolen/laneview/internal/kinds"
	"github.com/moolen/laneview/internal/models"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// DeriveHealth inspects an object's status and returns the health it reports.
// Objects without a status, and kinds without a known status shape, yield an
// empty state so the event carries no health of its own.
func DeriveHealth(kind string, obj map[string]interface{}) models.HealthState {
	if _, found, _ := unstructured.NestedMap(obj, "status"); !found {
		return ""
	}

	switch kinds.Parse(kind) {
	case kinds.KindPod:
		return podHealth(obj)
	case kinds.KindDeployment:
		return deploymentHealth(obj)
	case kinds.KindStatefulSet, kinds.KindReplicaSet:
		desired := specReplicas(obj)
		ready, _ := nestedInt(obj, "status", "readyReplicas")
		return replicaHealth(desired, ready)
	case kinds.KindDaemonSet:
		desired, _ := nestedInt(obj, "status", "desiredNumberScheduled")
		ready, _ := nestedInt(obj, "status", "numberReady")
		return replicaHealth(desired, ready)
	case kinds.KindJob:
		return jobHealth(obj)
	case kinds.KindNode:
		status, _, found := conditionStatus(obj, "Ready")
		if !found {
			return models.HealthUnknown
		}
		if status != "True" {
			return models.HealthUnhealthy
		}
		return models.HealthHealthy
	}
	return ""
}

func podHealth(obj map[string]interface{}) models.HealthState {
	phase, _, _ := unstructured.NestedString(obj, "status", "phase")
	switch phase {
	case "Failed":
		return models.HealthUnhealthy
	case "Succeeded":
		return models.HealthHealthy
	case "Unknown":
		return models.HealthUnknown
	}

	statuses, _, _ := unstructured.NestedSlice(obj, "status", "containerStatuses")
	for _, s := range statuses {
		m, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		if reason, _, _ := unstructured.NestedString(m, "state", "waiting", "reason"); classify.IsProblematicReason(reason) {
			return models.HealthUnhealthy
		}
		if reason, _, _ := unstructured.NestedString(m, "state", "terminated", "reason"); classify.IsProblematicReason(reason) {
			return models.HealthUnhealthy
		}
	}

	if phase == "Pending" {
		return models.HealthDegraded
	}
	if status, _, found := conditionStatus(obj, "Ready"); found && status != "True" {
		return models.HealthDegraded
	}
	if phase == "" {
		return ""
	}
	return models.HealthHealthy
}

func deploymentHealth(obj map[string]interface{}) models.HealthState {
	if status, reason, found := conditionStatus(obj, "Progressing"); found && status == "False" && reason == "ProgressDeadlineExceeded" {
		return models.HealthUnhealthy
	}

	desired := specReplicas(obj)
	ready, _ := nestedInt(obj, "status", "readyReplicas")
	health := replicaHealth(desired, ready)
	if health != models.HealthHealthy {
		return health
	}

	if updated, ok := nestedInt(obj, "status", "updatedReplicas"); ok && updated < desired {
		return models.HealthDegraded
	}
	if status, _, found := conditionStatus(obj, "Available"); found && status == "False" {
		return models.HealthDegraded
	}
	return models.HealthHealthy
}

func jobHealth(obj map[string]interface{}) models.HealthState {
	if status, _, found := conditionStatus(obj, "Failed"); found && status == "True" {
		return models.HealthUnhealthy
	}
	return models.HealthHealthy
}

// specReplicas returns spec.replicas, which defaults to 1 when unset
func specReplicas(obj map[string]interface{}) int64 {
	if n, ok := nestedInt(obj, "spec", "replicas"); ok {
		return n
	}
	return 1
}

func replicaHealth(desired, ready int64) models.HealthState {
	switch {
	case desired == 0:
		return models.HealthHealthy
	case ready == 0:
		return models.HealthUnhealthy
	case ready < desired:
		return models.HealthDegraded
	}
	return models.HealthHealthy
}

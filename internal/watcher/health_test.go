package watcher

import (
	"testing"

	"github.com/moolen/laneview/internal/models"
	"github.com/stretchr/testify/assert"
)

func obj(status map[string]interface{}, spec map[string]interface{}) map[string]interface{} {
	o := map[string]interface{}{}
	if status != nil {
		o["status"] = status
	}
	if spec != nil {
		o["spec"] = spec
	}
	return o
}

func conditions(pairs ...string) []interface{} {
	var out []interface{}
	for i := 0; i+2 < len(pairs); i += 3 {
		out = append(out, map[string]interface{}{"type": pairs[i], "status": pairs[i+1], "reason": pairs[i+2]})
	}
	return out
}

func TestDeriveHealth(t *testing.T) {
	tests := []struct {
		name string
		kind string
		obj  map[string]interface{}
		want models.HealthState
	}{
		{"no status", "Pod", obj(nil, nil), ""},
		{"unknown kind", "ConfigMap", obj(map[string]interface{}{}, nil), ""},

		{"pod running ready", "Pod", obj(map[string]interface{}{
			"phase":      "Running",
			"conditions": conditions("Ready", "True", ""),
		}, nil), models.HealthHealthy},
		{"pod not ready", "Pod", obj(map[string]interface{}{
			"phase":      "Running",
			"conditions": conditions("Ready", "False", "ContainersNotReady"),
		}, nil), models.HealthDegraded},
		{"pod crashloop", "pod", obj(map[string]interface{}{
			"phase": "Running",
			"containerStatuses": []interface{}{
				map[string]interface{}{"state": map[string]interface{}{"waiting": map[string]interface{}{"reason": "CrashLoopBackOff"}}},
			},
		}, nil), models.HealthUnhealthy},
		{"pod oom killed", "Pod", obj(map[string]interface{}{
			"phase": "Running",
			"containerStatuses": []interface{}{
				map[string]interface{}{"state": map[string]interface{}{"terminated": map[string]interface{}{"reason": "OOMKilled"}}},
			},
		}, nil), models.HealthUnhealthy},
		{"pod pending", "Pod", obj(map[string]interface{}{"phase": "Pending"}, nil), models.HealthDegraded},
		{"pod failed", "Pod", obj(map[string]interface{}{"phase": "Failed"}, nil), models.HealthUnhealthy},
		{"pod succeeded", "Pod", obj(map[string]interface{}{"phase": "Succeeded"}, nil), models.HealthHealthy},
		{"pod unknown", "Pod", obj(map[string]interface{}{"phase": "Unknown"}, nil), models.HealthUnknown},
		{"pod empty status", "Pod", obj(map[string]interface{}{}, nil), ""},

		{"deployment ready", "Deployment", obj(map[string]interface{}{
			"readyReplicas": int64(2), "updatedReplicas": int64(2),
		}, map[string]interface{}{"replicas": int64(2)}), models.HealthHealthy},
		{"deployment partially ready", "Deployment", obj(map[string]interface{}{
			"readyReplicas": int64(1),
		}, map[string]interface{}{"replicas": int64(2)}), models.HealthDegraded},
		{"deployment rolling", "Deployment", obj(map[string]interface{}{
			"readyReplicas": int64(2), "updatedReplicas": int64(1),
		}, map[string]interface{}{"replicas": int64(2)}), models.HealthDegraded},
		{"deployment none ready", "Deployment", obj(map[string]interface{}{}, map[string]interface{}{"replicas": int64(2)}), models.HealthUnhealthy},
		{"deployment scaled to zero", "Deployment", obj(map[string]interface{}{}, map[string]interface{}{"replicas": int64(0)}), models.HealthHealthy},
		{"deployment default replicas", "Deployment", obj(map[string]interface{}{"readyReplicas": int64(1)}, nil), models.HealthHealthy},
		{"deployment deadline exceeded", "Deployment", obj(map[string]interface{}{
			"readyReplicas": int64(2),
			"conditions":    conditions("Progressing", "False", "ProgressDeadlineExceeded"),
		}, map[string]interface{}{"replicas": int64(2)}), models.HealthUnhealthy},
		{"deployment unavailable", "Deployment", obj(map[string]interface{}{
			"readyReplicas": int64(2),
			"conditions":    conditions("Available", "False", "MinimumReplicasUnavailable"),
		}, map[string]interface{}{"replicas": int64(2)}), models.HealthDegraded},

		{"statefulset float counts", "StatefulSet", obj(map[string]interface{}{
			"readyReplicas": float64(1),
		}, map[string]interface{}{"replicas": float64(3)}), models.HealthDegraded},
		{"daemonset ready", "DaemonSet", obj(map[string]interface{}{
			"desiredNumberScheduled": int64(4), "numberReady": int64(4),
		}, nil), models.HealthHealthy},
		{"job failed", "Job", obj(map[string]interface{}{
			"conditions": conditions("Failed", "True", "BackoffLimitExceeded"),
		}, nil), models.HealthUnhealthy},
		{"job running", "Job", obj(map[string]interface{}{"active": int64(1)}, nil), models.HealthHealthy},
		{"node not ready", "Node", obj(map[string]interface{}{
			"conditions": conditions("Ready", "Unknown", "NodeStatusUnknown"),
		}, nil), models.HealthUnhealthy},
		{"node without conditions", "Node", obj(map[string]interface{}{}, nil), models.HealthUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveHealth(tt.kind, tt.obj))
		})
	}
}

func TestDiff(t *testing.T) {
	template := func(replicas int64, updated int64, image string) map[string]interface{} {
		return map[string]interface{}{
			"spec": map[string]interface{}{
				"replicas": replicas,
				"template": map[string]interface{}{"spec": map[string]interface{}{
					"containers": []interface{}{
						map[string]interface{}{"name": "web", "image": image},
						map[string]interface{}{"name": "sidecar", "image": "envoy:1"},
					},
				}},
			},
			"status": map[string]interface{}{"updatedReplicas": updated},
		}
	}

	assert.Nil(t, Diff(template(2, 2, "a"), template(2, 2, "a")))

	d := Diff(template(2, 2, "a"), template(3, 1, "b"))
	if assert.NotNil(t, d) {
		assert.Equal(t, "replicas: 2 → 3, updated: 2 → 1, image(web): a → b", d.Summary)
		assert.Len(t, d.Fields, 3)
	}

	pod := func(phase string) map[string]interface{} {
		return map[string]interface{}{
			"spec":   map[string]interface{}{"containers": []interface{}{map[string]interface{}{"name": "c", "image": "x"}}},
			"status": map[string]interface{}{"phase": phase},
		}
	}
	d = Diff(pod("Pending"), pod("Running"))
	if assert.NotNil(t, d) {
		assert.Equal(t, "status.phase: Pending → Running", d.Summary)
	}

	// a container that is new in the update is not a change of image
	added := template(2, 2, "a")
	assert.Nil(t, Diff(map[string]interface{}{}, added))
}

// Package kinds is the closed set of resource kinds the engine knows about.
//
// Every lookup table (workload classification, revision tracking, grouping
// whitelist, ordering priorities) is a switch over Kind with one case per
// variant, so adding a Kind means visiting each table. Kinds that are not
// known map to KindGeneric; the original kind string is kept by the caller.
package kinds

import "strings"

// Kind is a known resource kind
type Kind int

const (
	KindGeneric Kind = iota
	KindService
	KindIngress
	KindDeployment
	KindRollout
	KindStatefulSet
	KindDaemonSet
	KindReplicaSet
	KindPod
	KindPodGroup
	KindJob
	KindCronJob
	KindWorkflow
	KindCronWorkflow
	KindConfigMap
	KindSecret
	KindPersistentVolumeClaim
	KindHorizontalPodAutoscaler
	KindServiceAccount
	KindNode
	KindEvent
)

// All lists every variant except KindGeneric, in declaration order
var All = []Kind{
	KindService, KindIngress, KindDeployment, KindRollout, KindStatefulSet, KindDaemonSet,
	KindReplicaSet, KindPod, KindPodGroup, KindJob, KindCronJob, KindWorkflow, KindCronWorkflow,
	KindConfigMap, KindSecret, KindPersistentVolumeClaim, KindHorizontalPodAutoscaler,
	KindServiceAccount, KindNode, KindEvent,
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(All))
	for _, k := range All {
		m[strings.ToLower(k.String())] = k
	}
	return m
}()

// Parse maps a kind string to its Kind, case-insensitively. Unknown kinds yield KindGeneric.
func Parse(s string) Kind {
	if k, ok := byName[strings.ToLower(s)]; ok {
		return k
	}
	return KindGeneric
}

// String returns the canonical Kubernetes spelling
func (k Kind) String() string {
	switch k {
	case KindService:
		return "Service"
	case KindIngress:
		return "Ingress"
	case KindDeployment:
		return "Deployment"
	case KindRollout:
		return "Rollout"
	case KindStatefulSet:
		return "StatefulSet"
	case KindDaemonSet:
		return "DaemonSet"
	case KindReplicaSet:
		return "ReplicaSet"
	case KindPod:
		return "Pod"
	case KindPodGroup:
		return "PodGroup"
	case KindJob:
		return "Job"
	case KindCronJob:
		return "CronJob"
	case KindWorkflow:
		return "Workflow"
	case KindCronWorkflow:
		return "CronWorkflow"
	case KindConfigMap:
		return "ConfigMap"
	case KindSecret:
		return "Secret"
	case KindPersistentVolumeClaim:
		return "PersistentVolumeClaim"
	case KindHorizontalPodAutoscaler:
		return "HorizontalPodAutoscaler"
	case KindServiceAccount:
		return "ServiceAccount"
	case KindNode:
		return "Node"
	case KindEvent:
		return "Event"
	case KindGeneric:
		return "Generic"
	}
	return "Generic"
}

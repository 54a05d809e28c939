package kinds

// IsWorkload reports whether the kind is a controller that runs pods on its own behalf
func (k Kind) IsWorkload() bool {
	switch k {
	case KindDeployment, KindStatefulSet, KindDaemonSet, KindJob, KindCronJob, KindRollout:
		return true
	case KindService, KindIngress, KindReplicaSet, KindPod, KindPodGroup, KindWorkflow,
		KindCronWorkflow, KindConfigMap, KindSecret, KindPersistentVolumeClaim,
		KindHorizontalPodAutoscaler, KindServiceAccount, KindNode, KindEvent, KindGeneric:
		return false
	}
	return false
}

// HasRevisions reports whether updates to the kind roll out new revisions
// (and may therefore legitimately look degraded while doing so).
func (k Kind) HasRevisions() bool {
	switch k {
	case KindDeployment, KindStatefulSet, KindDaemonSet, KindRollout:
		return true
	case KindService, KindIngress, KindReplicaSet, KindPod, KindPodGroup, KindJob, KindCronJob,
		KindWorkflow, KindCronWorkflow, KindConfigMap, KindSecret, KindPersistentVolumeClaim,
		KindHorizontalPodAutoscaler, KindServiceAccount, KindNode, KindEvent, KindGeneric:
		return false
	}
	return false
}

// IsRecord reports whether the kind is a transient activity-log record rather
// than a trackable resource. Records with an owner are folded into the owner's lane.
func (k Kind) IsRecord() bool {
	switch k {
	case KindEvent:
		return true
	case KindService, KindIngress, KindDeployment, KindRollout, KindStatefulSet, KindDaemonSet,
		KindReplicaSet, KindPod, KindPodGroup, KindJob, KindCronJob, KindWorkflow, KindCronWorkflow,
		KindConfigMap, KindSecret, KindPersistentVolumeClaim, KindHorizontalPodAutoscaler,
		KindServiceAccount, KindNode, KindGeneric:
		return false
	}
	return false
}

// IsPrimary reports whether the kind takes part in application-label grouping
func (k Kind) IsPrimary() bool {
	switch k {
	case KindService, KindDeployment, KindRollout, KindStatefulSet, KindDaemonSet, KindJob,
		KindCronJob, KindIngress, KindConfigMap, KindSecret, KindWorkflow, KindCronWorkflow:
		return true
	case KindReplicaSet, KindPod, KindPodGroup, KindPersistentVolumeClaim,
		KindHorizontalPodAutoscaler, KindServiceAccount, KindNode, KindEvent, KindGeneric:
		return false
	}
	return false
}

// IsPodLike reports whether the kind is a routing target behind a Service
func (k Kind) IsPodLike() bool {
	switch k {
	case KindPod, KindPodGroup:
		return true
	case KindService, KindIngress, KindDeployment, KindRollout, KindStatefulSet, KindDaemonSet,
		KindReplicaSet, KindJob, KindCronJob, KindWorkflow, KindCronWorkflow, KindConfigMap,
		KindSecret, KindPersistentVolumeClaim, KindHorizontalPodAutoscaler, KindServiceAccount,
		KindNode, KindEvent, KindGeneric:
		return false
	}
	return false
}

// IsNamespaced reports whether objects of the kind always live in a namespace.
// Unknown kinds may be either, so KindGeneric is not namespaced.
func (k Kind) IsNamespaced() bool {
	switch k {
	case KindService, KindIngress, KindDeployment, KindRollout, KindStatefulSet, KindDaemonSet,
		KindReplicaSet, KindPod, KindPodGroup, KindJob, KindCronJob, KindWorkflow, KindCronWorkflow,
		KindConfigMap, KindSecret, KindPersistentVolumeClaim, KindHorizontalPodAutoscaler,
		KindServiceAccount, KindEvent:
		return true
	case KindNode, KindGeneric:
		return false
	}
	return false
}

// RepresentativePriority orders members of a label group when choosing the
// lane that represents the group. Lower wins.
func (k Kind) RepresentativePriority() int {
	switch k {
	case KindService:
		return 0
	case KindIngress:
		return 1
	case KindDeployment, KindRollout, KindStatefulSet, KindDaemonSet:
		return 2
	case KindJob, KindCronJob, KindWorkflow, KindCronWorkflow:
		return 3
	case KindConfigMap, KindSecret:
		return 4
	case KindReplicaSet, KindPod, KindPodGroup:
		return 5
	case KindPersistentVolumeClaim, KindHorizontalPodAutoscaler, KindServiceAccount, KindNode,
		KindEvent, KindGeneric:
		return 6
	}
	return 6
}

// ChildPriority orders descendants under a top-level lane. Lower sorts first.
func (k Kind) ChildPriority() int {
	switch k {
	case KindService:
		return 0
	case KindIngress:
		return 1
	case KindDeployment, KindRollout, KindStatefulSet, KindDaemonSet, KindJob, KindCronJob,
		KindWorkflow, KindCronWorkflow:
		return 2
	case KindReplicaSet:
		return 3
	case KindPod, KindPodGroup:
		return 4
	case KindConfigMap, KindSecret:
		return 5
	case KindPersistentVolumeClaim, KindHorizontalPodAutoscaler, KindServiceAccount, KindNode,
		KindGeneric:
		return 6
	case KindEvent:
		return 7
	}
	return 6
}

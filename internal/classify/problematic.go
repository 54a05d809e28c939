// Package classify holds the event classification rules shared by the
// hierarchy builder and the health timeline reconstructor: which events
// indicate a problem, which degraded updates are really rollouts, the
// effective health of a change event and the order markers are drawn in.
package classify

import "github.com/moolen/laneview/internal/models"

// ProblematicReasons is the curated set of reasons that indicate a failure.
// Matching is exact; free text in messages is never inspected.
var ProblematicReasons = map[string]struct{}{
	// Container and image failures
	"BackOff":          {},
	"CrashLoopBackOff": {},
	"ImagePullBackOff": {},
	"ErrImagePull":     {},
	"InvalidImageName": {},
	"OOMKilled":        {},
	"OOMKilling":       {},
	"Unhealthy":        {},
	"Failed":           {},

	// Scheduling and pod lifecycle
	"FailedScheduling":       {},
	"FailedCreate":           {},
	"FailedCreatePodSandBox": {},
	"FailedKillPod":          {},
	"FailedSync":             {},
	"Evicted":                {},
	"Preempted":              {},

	// Volumes and provisioning
	"FailedMount":        {},
	"FailedAttachVolume": {},
	"ProvisioningFailed": {},
	"FailedBinding":      {},

	// Node and resource pressure
	"NodeNotReady":              {},
	"NetworkNotReady":           {},
	"SystemOOM":                 {},
	"FreeDiskSpaceFailed":       {},
	"EvictionThresholdMet":      {},
	"NodeHasDiskPressure":       {},
	"NodeHasInsufficientMemory": {},
	"NodeHasInsufficientPID":    {},
	"InsufficientMemory":        {},
	"InsufficientCPU":           {},

	// Controller progress
	"ProgressDeadlineExceeded": {},
	"BackoffLimitExceeded":     {},
	"DeadlineExceeded":         {},
}

// IsProblematicReason reports whether reason is in the curated failure set
func IsProblematicReason(reason string) bool {
	_, ok := ProblematicReasons[reason]
	return ok
}

// IsProblematic reports whether the event signals a problem: either a
// Warning-severity record or a reason from the curated failure set.
func IsProblematic(e *models.Event) bool {
	if e.EventType == models.EventTypeWarning {
		return true
	}
	return IsProblematicReason(e.Reason)
}

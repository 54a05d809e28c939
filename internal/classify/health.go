package classify

import "github.com/moolen/laneview/internal/models"

// Classifier computes effective health for change events
type Classifier struct {
	rollout RolloutDetector
}

// NewClassifier creates a Classifier. A nil detector uses the default markers.
func NewClassifier(rollout RolloutDetector) *Classifier {
	if rollout == nil {
		rollout = NewMarkerRolloutDetector()
	}
	return &Classifier{rollout: rollout}
}

var defaultClassifier = NewClassifier(nil)

// Default returns the classifier with the default rollout markers
func Default() *Classifier {
	return defaultClassifier
}

// BaseHealth is the event's own health state when present, else unhealthy
// for problematic events and healthy otherwise.
func BaseHealth(e *models.Event) models.HealthLabel {
	switch e.HealthState {
	case models.HealthHealthy:
		return models.LabelHealthy
	case models.HealthDegraded:
		return models.LabelDegraded
	case models.HealthUnhealthy:
		return models.LabelUnhealthy
	case models.HealthUnknown:
		return models.LabelUnknown
	}
	if IsProblematic(e) {
		return models.LabelUnhealthy
	}
	return models.LabelHealthy
}

// EffectiveHealth returns the label an event contributes to its lane's timeline.
// Degraded events that look like a rollout are reported as rolling.
func (c *Classifier) EffectiveHealth(e *models.Event) models.HealthLabel {
	label := BaseHealth(e)
	if label == models.LabelDegraded && c.rollout.IsRollout(e) {
		return models.LabelRolling
	}
	return label
}

// EffectiveHealth classifies e with the default classifier
func EffectiveHealth(e *models.Event) models.HealthLabel {
	return defaultClassifier.EffectiveHealth(e)
}

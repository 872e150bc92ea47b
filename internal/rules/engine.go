package rules

import "cyberguard/pkg/models"

// Engine tags threats with matched detection rules.
type Engine interface {
	Apply(t *models.Threat) []models.RuleTag
}

// NoopEngine returns no tags.
type NoopEngine struct{}

// Apply returns an empty tag list.
func (n *NoopEngine) Apply(t *models.Threat) []models.RuleTag {
	return nil
}

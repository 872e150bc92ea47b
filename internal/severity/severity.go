// Package severity maps numeric risk scores to classification tiers and owns
// the automated-response policy.
package severity

import "cyberguard/pkg/models"

// boundary is one row of the tier table: scores up to and including Max
// belong to Tier.
type boundary struct {
	Max  int
	Tier models.Severity
}

// boundaries is the single source of tier cut-offs. Every caller that needs
// to reason about tiers goes through Classify so the table is never
// recomputed ad hoc.
var boundaries = [...]boundary{
	{Max: 60, Tier: models.SeverityLow},
	{Max: 80, Tier: models.SeverityMedium},
	{Max: 90, Tier: models.SeverityHigh},
}

// Classify returns the severity tier for a score. It is total: scores above
// the last boundary are CRITICAL, negative scores fall into LOW.
func Classify(score int) models.Severity {
	for _, b := range boundaries {
		if score <= b.Max {
			return b.Tier
		}
	}
	return models.SeverityCritical
}

// MitigationThreshold is the score above which automated responses are
// synthesized. It coincides with the CRITICAL boundary but is a separate
// policy from classification.
const MitigationThreshold = 90

// RequiresMitigation reports whether a score triggers automated responses.
func RequiresMitigation(score int) bool {
	return score > MitigationThreshold
}

var mitigationActions = []string{
	"block-source-ip",
	"revoke-active-sessions",
	"force-credential-reset",
	"isolate-affected-host",
}

// MitigationActions returns the ordered automated-response action tags.
func MitigationActions() []string {
	out := make([]string, len(mitigationActions))
	copy(out, mitigationActions)
	return out
}

package models

import "time"

// Severity is the classification tier of a threat.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordering weight of a severity tier. Unknown tiers rank
// below LOW.
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast reports whether s is min or a more severe tier.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// Threat is a classified security event. Once classified, id, occurred_at,
// score and severity never change.
type Threat struct {
	ID              string         `json:"id" bson:"id"`
	OccurredAt      time.Time      `json:"occurred_at" bson:"occurred_at"`
	Score           int            `json:"score" bson:"score"`
	Severity        Severity       `json:"severity" bson:"severity"`
	Category        string         `json:"category" bson:"category"`
	Description     string         `json:"description" bson:"description"`
	Recommendations []string       `json:"recommendations" bson:"recommendations"`
	Factors         map[string]int `json:"factors" bson:"factors"`
	Confidence      float64        `json:"confidence,omitempty" bson:"confidence,omitempty"`
	RuleTags        []RuleTag      `json:"rule_tags,omitempty" bson:"rule_tags,omitempty"`
	Mitigation      *Mitigation    `json:"mitigation,omitempty" bson:"mitigation,omitempty"`

	// PersistedID is the external-store identifier. Empty when the store was
	// degraded at commit time.
	PersistedID string `json:"persisted_id,omitempty" bson:"-"`
}

// Mitigation is the automated-response record attached to threats whose score
// crosses the mitigation threshold.
type Mitigation struct {
	Status  string   `json:"status" bson:"status"`
	Actions []string `json:"actions" bson:"actions"`
}

// RuleTag labels a threat with a matched detection rule.
type RuleTag struct {
	ID        string `json:"id,omitempty" bson:"id,omitempty"`
	Name      string `json:"name,omitempty" bson:"name,omitempty"`
	Severity  string `json:"severity,omitempty" bson:"severity,omitempty"`
	Tactic    string `json:"tactic,omitempty" bson:"tactic,omitempty"`
	Technique string `json:"technique,omitempty" bson:"technique,omitempty"`
}

// Stats summarizes committed threats.
type Stats struct {
	Total    int64 `json:"total"`
	Critical int64 `json:"critical_count"`
}

// Package source produces simulated threat content. It is a stand-in for a
// real detector: the pipeline treats its output as an opaque signal.
package source

import (
	"math/rand"

	"cyberguard/internal/pipeline"
)

var bruteForceRecommendations = []string{
	"Lock account immediately",
	"Block source IP address",
	"Enable 2FA for user",
	"Review auth logs for other affected accounts",
	"Reset password",
}

var genericRecommendations = []string{
	"Isolate affected host",
	"Analyze packet capture",
	"Scan for malware",
	"Reset user credentials",
	"Update firewall rules",
}

type scenario struct {
	category    string
	description string
}

var scenarios = []scenario{
	{
		category:    "Suspicious Network Activity",
		description: "Anomalous outbound traffic pattern detected matching C2 communication profile.",
	},
	{
		category:    "Malware Signature Detected",
		description: "File system scan identified potential ransomware signature in temp directory.",
	},
	{
		category:    "Phishing Attempt",
		description: "Incoming email contains suspicious links and urgent language characteristic of phishing.",
	},
}

// BruteForce builds the brute-force authentication threat input.
func BruteForce(rng *rand.Rand) pipeline.Input {
	return pipeline.Input{
		Score:           85 + rng.Intn(15), // [85,99]
		Category:        "Brute Force Authentication",
		Description:     "Multiple failed login attempts detected from single IP within short timeframe.",
		Recommendations: append([]string(nil), bruteForceRecommendations...),
		Factors: map[string]int{
			"frequency":  5,
			"behavioral": 5,
			"geographic": 3,
			"temporal":   4,
		},
		Confidence: 98.5,
	}
}

// FromFailedLogins turns a raw failed-login count into a threat input. Fewer
// than three attempts is not a threat.
func FromFailedLogins(rng *rand.Rand, attempts int) (pipeline.Input, bool) {
	if attempts < 3 {
		return pipeline.Input{}, false
	}
	return BruteForce(rng), true
}

// Random builds an arbitrary simulated threat input.
func Random(rng *rand.Rand) pipeline.Input {
	s := scenarios[rng.Intn(len(scenarios))]
	keep := 3 + rng.Intn(3) // between 3 and 5 recommendations

	return pipeline.Input{
		Score:           40 + rng.Intn(56), // [40,95]
		Category:        s.category,
		Description:     s.description,
		Recommendations: append([]string(nil), genericRecommendations[:keep]...),
		Factors: map[string]int{
			"network_anomaly":   1 + rng.Intn(5),
			"malware_signature": rng.Intn(6),
			"heuristic":         2 + rng.Intn(3),
		},
		Confidence: 80 + rng.Float64()*19,
	}
}

package rules

import (
	"os"
	"path/filepath"
	"testing"

	"cyberguard/pkg/models"
)

const bruteForceRule = `title: Brute Force Category
id: 6f2b1c7e-0001-4e3d-9d50-5f6c1a9e0a01
level: high
tags:
  - attack.credential_access
  - attack.t1110
detection:
  selection:
    category: Brute Force Authentication
  condition: selection
`

const aggregationRule = `title: Too Complex
level: low
detection:
  selection:
    category: Anything
  condition: selection | count() > 5
`

func writeRule(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("write rule: %v", err)
	}
}

func TestSigmaEngineTagsMatchingThreats(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "brute.yml", bruteForceRule)

	engine, stats, err := NewSigmaEngine(dir)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if stats.Loaded != 1 {
		t.Fatalf("loaded = %d, want 1", stats.Loaded)
	}

	tags := engine.Apply(&models.Threat{
		Category:    "Brute Force Authentication",
		Description: "Multiple failed logins",
		Score:       95,
		Factors:     map[string]int{"frequency": 5},
	})
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	if tags[0].Name != "Brute Force Category" {
		t.Fatalf("unexpected tag name: %s", tags[0].Name)
	}
	if tags[0].Technique != "T1110" {
		t.Fatalf("unexpected technique: %s", tags[0].Technique)
	}
	if tags[0].Tactic != "credential-access" {
		t.Fatalf("unexpected tactic: %s", tags[0].Tactic)
	}

	if got := engine.Apply(&models.Threat{Category: "Phishing Attempt"}); got != nil {
		t.Fatalf("expected no tags for non-matching threat, got %v", got)
	}
}

func TestSigmaEngineSkipsAggregationRules(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "complex.yml", aggregationRule)

	_, stats, err := NewSigmaEngine(dir)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if stats.Loaded != 0 {
		t.Fatalf("aggregation rule should be skipped, loaded=%d", stats.Loaded)
	}
	if stats.SkippedComplex+stats.SkippedInvalid != 1 {
		t.Fatalf("expected 1 skipped rule, got %+v", stats)
	}
}

func TestNoopEngineReturnsNothing(t *testing.T) {
	var e NoopEngine
	if got := e.Apply(&models.Threat{Category: "x"}); got != nil {
		t.Fatalf("noop engine returned tags: %v", got)
	}
}

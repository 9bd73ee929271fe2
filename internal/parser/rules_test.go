package parser

import (
	"strings"
	"testing"
)

const sampleRulesYAML = `rules:
  - level: Black
    color: "#1a1a1a"
    rank: 0
  - level: Red
    color: "#d32f2f"
    rank: 1
  - level: Yellow
    color: "#fbc02d"
    rank: 2
`

func TestParseTriageRulesFromReader(t *testing.T) {
	rules, err := ParseTriageRulesFromReader(strings.NewReader(sampleRulesYAML))
	if err != nil {
		t.Fatalf("Failed to parse rules: %v", err)
	}

	if len(rules.Rules) != 3 {
		t.Fatalf("Expected 3 rules, got %d", len(rules.Rules))
	}
	if rules.Rules[0].Level != "Black" || rules.Rules[0].Rank != 0 {
		t.Errorf("Unexpected first rule: %+v", rules.Rules[0])
	}

	rule, ok := rules.Lookup("Red")
	if !ok {
		t.Fatal("Expected lookup to find Red")
	}
	if rule.Color != "#d32f2f" {
		t.Errorf("Expected Red color #d32f2f, got %s", rule.Color)
	}

	if _, ok := rules.Lookup("red"); ok {
		t.Error("Lookup must be case-sensitive")
	}
}

func TestParseTriageRulesFromReader_Invalid(t *testing.T) {
	if _, err := ParseTriageRulesFromReader(strings.NewReader("rules: [not: {valid")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestParseTriageRules_MissingFile(t *testing.T) {
	if _, err := ParseTriageRules("/nonexistent/rules.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

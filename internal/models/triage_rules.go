package models

// TriageRule describes how one triage level is rendered on the dashboard.
type TriageRule struct {
	Level string `yaml:"level" json:"level"`
	Color string `yaml:"color" json:"color"` // CSS color for the level chip
	Rank  int    `yaml:"rank" json:"rank"`   // sort position, lower is more severe
}

// TriageRules is the display configuration loaded from a YAML rules file.
// Levels absent from the rules still render; they just get default styling.
type TriageRules struct {
	Rules []TriageRule `yaml:"rules" json:"rules"`
}

// Lookup returns the rule for a level, if configured.
func (r *TriageRules) Lookup(level string) (TriageRule, bool) {
	for _, rule := range r.Rules {
		if rule.Level == level {
			return rule, true
		}
	}
	return TriageRule{}, false
}

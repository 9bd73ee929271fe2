package parser

import (
	"io"
	"os"

	"github.com/snaffler-consolidator/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseTriageRules parses a YAML file of triage display rules.
func ParseTriageRules(filePath string) (*models.TriageRules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseTriageRulesFromReader(file)
}

// ParseTriageRulesFromReader parses rules from an io.Reader.
func ParseTriageRulesFromReader(r io.Reader) (*models.TriageRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rules models.TriageRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}

	return &rules, nil
}

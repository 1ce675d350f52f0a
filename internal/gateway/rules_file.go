package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ledger-reconciliation/internal/domain"
)

type rulesFile struct {
	Rules []domain.CategorizationRule `yaml:"rules"`
}

// LoadRules reads categorization rules from a YAML file of the form
//
//	rules:
//	  - pattern: starbucks
//	    category: Coffee
//	    priority: 10
func LoadRules(path string) ([]domain.CategorizationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read rules file %s: %w", path, err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("could not parse rules file %s: %w", path, err)
	}
	if f.Rules == nil {
		f.Rules = []domain.CategorizationRule{}
	}
	return f.Rules, nil
}

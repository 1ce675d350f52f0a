package usecase

import (
	"sort"
	"strings"

	"ledger-reconciliation/internal/domain"
)

const defaultRulePriority = 5

// Rules suggests a category from a transaction name. Higher priority rules
// are tried first; equal priorities keep their given order.
type Rules struct {
	rules []domain.CategorizationRule
}

// NewRules normalizes and orders rules. Rules with an empty pattern or
// category are dropped.
func NewRules(rules ...domain.CategorizationRule) *Rules {
	r := &Rules{rules: make([]domain.CategorizationRule, 0, len(rules))}
	for _, rule := range rules {
		rule.Pattern = strings.ToLower(strings.TrimSpace(rule.Pattern))
		rule.Category = strings.TrimSpace(rule.Category)
		if rule.Pattern == "" || rule.Category == "" {
			continue
		}
		if rule.Priority == 0 {
			rule.Priority = defaultRulePriority
		}
		r.rules = append(r.rules, rule)
	}
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority > r.rules[j].Priority
	})
	return r
}

// Suggest returns the category of the first rule whose pattern occurs in
// name, ignoring case.
func (r *Rules) Suggest(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	n := strings.ToLower(name)
	for _, rule := range r.rules {
		if strings.Contains(n, rule.Pattern) {
			return rule.Category, true
		}
	}
	return "", false
}

// List returns the rules in evaluation order.
func (r *Rules) List() []domain.CategorizationRule {
	if r == nil {
		return []domain.CategorizationRule{}
	}
	out := make([]domain.CategorizationRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// SuggestCategory applies the configured rules to name.
func (uc *ReconciliationUseCase) SuggestCategory(name string) (string, bool) {
	return uc.rules.Suggest(name)
}

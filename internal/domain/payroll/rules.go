package payroll

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type rawRule struct {
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
	Kind   string      `json:"kind"`
}

// ParseRules decodes an allowance/deduction JSON payload into typed rules.
// The source system tolerated malformed payloads by treating them as empty
// lists; that behavior is kept, but every dropped payload or entry comes
// back as a warning so a silently zeroed pay component stays visible.
func ParseRules(raw []byte) ([]Rule, []string) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var entries []rawRule
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, []string{fmt.Sprintf("payload is not a valid rule list: %v", err)}
	}

	var rules []Rule
	var warnings []string
	for i, entry := range entries {
		kind := strings.ToLower(strings.TrimSpace(entry.Kind))
		if kind != RuleKindFixed && kind != RuleKindPercentage {
			warnings = append(warnings, fmt.Sprintf("entry %d (%q) has unknown kind %q, skipped", i, entry.Name, entry.Kind))
			continue
		}
		amount, err := decimal.NewFromString(entry.Amount.String())
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("entry %d (%q) has invalid amount %q, skipped", i, entry.Name, entry.Amount))
			continue
		}
		rules = append(rules, Rule{Name: entry.Name, Amount: amount, Kind: kind})
	}
	return rules, warnings
}

// sumRules totals a rule list: fixed rules by amount, percentage rules as
// a share of the base salary.
func sumRules(baseSalary decimal.Decimal, rules []Rule) decimal.Decimal {
	total := decimal.Zero
	for _, rule := range rules {
		switch rule.Kind {
		case RuleKindFixed:
			total = total.Add(rule.Amount)
		case RuleKindPercentage:
			total = total.Add(baseSalary.Mul(rule.Amount).Div(hundred))
		}
	}
	return total
}

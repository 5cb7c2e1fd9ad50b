package campaign

import (
	"encoding/json"
	"fmt"
)

// RuleType is the discriminant of the eligibility rule sum type.
type RuleType string

const (
	RuleAll          RuleType = "all"
	RuleInYears      RuleType = "in"
	RuleWithinMonths RuleType = "within_months"
)

// Rule restricts a campaign to recipients by graduation year.
// Exactly one payload field is meaningful, selected by Type.
type Rule struct {
	Type   RuleType
	Years  []int // RuleInYears: allowed graduation years
	Months int   // RuleWithinMonths: horizon in months
}

// ruleJSON is the stored wire form, e.g.
//
//	{"type":"all"}
//	{"type":"in","values":[2026,2027]}
//	{"type":"within_months","months":18}
type ruleJSON struct {
	Type   string `json:"type"`
	Values []int  `json:"values,omitempty"`
	Months int    `json:"months,omitempty"`
}

// ParseRule decodes a stored rule. An empty string means no restriction.
// Unrecognized discriminants are a configuration error and are rejected at
// load time rather than silently treated as a match.
func ParseRule(raw string) (Rule, error) {
	if raw == "" {
		return Rule{Type: RuleAll}, nil
	}
	var rj ruleJSON
	if err := json.Unmarshal([]byte(raw), &rj); err != nil {
		return Rule{}, fmt.Errorf("malformed eligibility rule %q: %w", raw, err)
	}
	switch RuleType(rj.Type) {
	case RuleAll:
		return Rule{Type: RuleAll}, nil
	case RuleInYears:
		if len(rj.Values) == 0 {
			return Rule{}, fmt.Errorf("eligibility rule %q: 'in' requires a non-empty values list", raw)
		}
		return Rule{Type: RuleInYears, Years: rj.Values}, nil
	case RuleWithinMonths:
		if rj.Months <= 0 {
			return Rule{}, fmt.Errorf("eligibility rule %q: 'within_months' requires months > 0", raw)
		}
		return Rule{Type: RuleWithinMonths, Months: rj.Months}, nil
	default:
		return Rule{}, fmt.Errorf("eligibility rule %q: unknown type %q", raw, rj.Type)
	}
}

// Encode serializes the rule back to its stored wire form.
func (r Rule) Encode() (string, error) {
	rj := ruleJSON{Type: string(r.Type), Values: r.Years, Months: r.Months}
	b, err := json.Marshal(rj)
	if err != nil {
		return "", fmt.Errorf("encoding eligibility rule: %w", err)
	}
	return string(b), nil
}

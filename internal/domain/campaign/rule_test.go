package campaign_test

import (
	"testing"

	"student_outreach_engine/internal/domain/campaign"
)

func TestParseRuleVariants(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    campaign.RuleType
		wantErr bool
	}{
		{name: "empty means all", raw: "", want: campaign.RuleAll},
		{name: "explicit all", raw: `{"type":"all"}`, want: campaign.RuleAll},
		{name: "in years", raw: `{"type":"in","values":[2026,2027]}`, want: campaign.RuleInYears},
		{name: "within months", raw: `{"type":"within_months","months":18}`, want: campaign.RuleWithinMonths},
		{name: "unknown type rejected", raw: `{"type":"starsign"}`, wantErr: true},
		{name: "in without values rejected", raw: `{"type":"in"}`, wantErr: true},
		{name: "within_months without months rejected", raw: `{"type":"within_months"}`, wantErr: true},
		{name: "malformed json rejected", raw: `{"type":`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := campaign.ParseRule(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseRule(%q) expected error, got rule %+v", tc.raw, rule)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRule(%q) unexpected error: %v", tc.raw, err)
			}
			if rule.Type != tc.want {
				t.Errorf("ParseRule(%q) type = %q, want %q", tc.raw, rule.Type, tc.want)
			}
		})
	}
}

func TestRuleEncodeRoundTrip(t *testing.T) {
	original := campaign.Rule{Type: campaign.RuleInYears, Years: []int{2026, 2028}}
	raw, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parsed, err := campaign.ParseRule(raw)
	if err != nil {
		t.Fatalf("ParseRule(%q): %v", raw, err)
	}
	if parsed.Type != original.Type || len(parsed.Years) != 2 || parsed.Years[0] != 2026 || parsed.Years[1] != 2028 {
		t.Errorf("round trip produced %+v, want %+v", parsed, original)
	}
}

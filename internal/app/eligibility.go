package app

import (
	"fmt"
	"time"

	"student_outreach_engine/internal/domain/campaign"
	"student_outreach_engine/internal/domain/recipient"
	"student_outreach_engine/internal/domain/template"
)

// Skip reasons retained for diagnostics. Ineligibility is expected and
// silent, never an error.
const (
	ReasonNoConsent           = "consent is false"
	ReasonUnsubscribed        = "recipient is unsubscribed"
	ReasonTemplateNotUsable   = "template not approved"
	ReasonRuleNotMatched      = "graduation year rule not matched"
	ReasonAlreadyDispatched   = "dispatch record already exists for trigger"
	ReasonFrequencyLimited    = "minimum send interval not yet elapsed"
	ReasonNoDestination       = "recipient has no usable destination"
	ReasonTemplateUnavailable = "template not found"
)

// AcademicYear returns the academic year a date belongs to, on the
// April-to-March calendar: from April onward the academic year is the next
// calendar year (a student graduating in March 2026 is in academic year 2026
// all the way from April 2025).
func AcademicYear(d time.Time) int {
	if d.Month() >= time.April {
		return d.Year() + 1
	}
	return d.Year()
}

// academicYearAfterMonths computes the academic year of the month N months
// ahead of d. The date is normalized to the first of the month before the
// walk so the day of month never affects the rollover.
func academicYearAfterMonths(d time.Time, months int) int {
	total := int(d.Month()) + months
	year := d.Year() + (total-1)/12
	month := time.Month((total-1)%12 + 1)
	if month >= time.April {
		return year + 1
	}
	return year
}

// RuleMatches evaluates the graduation-year rule against a recipient for a
// given reference date. Pure; the rule discriminant has been validated at
// parse time, so an impossible variant here is a programming error.
func RuleMatches(rule campaign.Rule, graduationYear int, ref time.Time) bool {
	switch rule.Type {
	case campaign.RuleAll:
		return true
	case campaign.RuleInYears:
		for _, y := range rule.Years {
			if y == graduationYear {
				return true
			}
		}
		return false
	case campaign.RuleWithinMonths:
		current := AcademicYear(ref)
		target := academicYearAfterMonths(ref, rule.Months)
		return graduationYear >= current && graduationYear <= target
	default:
		panic(fmt.Sprintf("unvalidated rule type %q", rule.Type))
	}
}

// Evaluate runs every mandatory eligibility check for one candidate pairing.
// Pure and side-effect free; safe to run for the full candidate set on every
// tick. Returns eligible=false with a reason code when any check fails.
func Evaluate(r *recipient.Recipient, c *campaign.Campaign, t *template.Template, now time.Time) (eligible bool, reason string) {
	if !r.Consent {
		return false, ReasonNoConsent
	}
	if r.Unsubscribed {
		return false, ReasonUnsubscribed
	}
	if t == nil {
		return false, ReasonTemplateUnavailable
	}
	if !t.Usable() {
		return false, ReasonTemplateNotUsable
	}
	if !RuleMatches(c.Rule, r.GraduationYear, now) {
		return false, ReasonRuleNotMatched
	}
	return true, ""
}

package app

import (
	"context"
	"fmt"
	"time"

	"student_outreach_engine/internal/domain/calendar"
	"student_outreach_engine/internal/domain/campaign"
	"student_outreach_engine/internal/domain/dispatch"
	"student_outreach_engine/internal/domain/recipient"
)

// Candidate is one (recipient, campaign, trigger context) tuple produced by
// the matcher. The same pending candidate may legitimately reappear on every
// tick; downstream stages own idempotency.
type Candidate struct {
	Recipient        *recipient.Recipient
	Campaign         *campaign.Campaign
	TriggerContextID int64
	// TriggerAt is the base instant the trigger crossed: recipient creation
	// plus delay, or event date plus signed offset.
	TriggerAt time.Time
}

// Matcher enumerates trigger contexts for every enabled campaign and
// produces the candidate set for one tick.
type Matcher struct {
	recipients recipient.Repository
	campaigns  campaign.Repository
	calendar   calendar.Repository
}

func NewMatcher(rr recipient.Repository, cr campaign.Repository, er calendar.Repository) *Matcher {
	return &Matcher{recipients: rr, campaigns: cr, calendar: er}
}

// Candidates enumerates all due (recipient, campaign, trigger context)
// tuples as of now. Read-only and side-effect free.
func (m *Matcher) Candidates(ctx context.Context, now time.Time) ([]Candidate, error) {
	active, err := m.campaigns.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enabled campaigns: %w", err)
	}

	var out []Candidate
	// Recipients fetched at most once per tick and shared across campaigns.
	var population []*recipient.Recipient
	byID := make(map[int64]*recipient.Recipient)

	for _, c := range active {
		switch c.Trigger {
		case campaign.TriggerRecipientCreation:
			if population == nil {
				population, err = m.recipients.ListAll(ctx)
				if err != nil {
					return nil, fmt.Errorf("listing recipients: %w", err)
				}
			}
			for _, r := range population {
				triggerAt := r.CreatedAt.AddDate(0, 0, c.DelayDays)
				if triggerAt.After(now) {
					continue
				}
				out = append(out, Candidate{
					Recipient:        r,
					Campaign:         c,
					TriggerContextID: dispatch.CreationTriggerContextID,
					TriggerAt:        triggerAt,
				})
			}

		case campaign.TriggerCalendarEvent:
			events, err := m.calendar.ListActiveByType(ctx, c.EventType)
			if err != nil {
				return nil, fmt.Errorf("listing calendar events for type %q: %w", c.EventType, err)
			}
			for _, ev := range events {
				triggerAt := ev.EventDate.AddDate(0, 0, c.DelayDays)
				if triggerAt.After(now) {
					continue
				}
				regs, err := m.calendar.ListRegistrations(ctx, ev.ID)
				if err != nil {
					return nil, fmt.Errorf("listing registrations for event %d: %w", ev.ID, err)
				}
				for _, reg := range regs {
					r, ok := byID[reg.RecipientID]
					if !ok {
						r, err = m.recipients.GetByID(ctx, reg.RecipientID)
						if err == recipient.ErrNotFound {
							continue
						}
						if err != nil {
							return nil, fmt.Errorf("loading recipient %d: %w", reg.RecipientID, err)
						}
						byID[reg.RecipientID] = r
					}
					out = append(out, Candidate{
						Recipient:        r,
						Campaign:         c,
						TriggerContextID: ev.ID,
						TriggerAt:        triggerAt,
					})
				}
			}

		default:
			return nil, fmt.Errorf("campaign %d: unknown trigger base %q", c.ID, c.Trigger)
		}
	}
	return out, nil
}

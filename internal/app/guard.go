package app

import (
	"context"
	"fmt"
	"time"

	"student_outreach_engine/internal/domain/dispatch"
)

// DispatchGuard filters candidates against the durable dispatch ledger:
// hard idempotency on the exact triple plus frequency limiting per
// (recipient, campaign). Rejections are "not yet due", never errors.
type DispatchGuard struct {
	dispatches dispatch.Repository
}

func NewDispatchGuard(dr dispatch.Repository) *DispatchGuard {
	return &DispatchGuard{dispatches: dr}
}

// Admit reports whether the candidate may proceed to scheduling. A non-empty
// reason explains a silent skip.
func (g *DispatchGuard) Admit(ctx context.Context, cand Candidate, now time.Time) (ok bool, reason string, err error) {
	exists, err := g.dispatches.Exists(ctx, cand.Recipient.ID, cand.Campaign.ID, cand.TriggerContextID)
	if err != nil {
		return false, "", fmt.Errorf("checking dispatch existence: %w", err)
	}
	if exists {
		return false, ReasonAlreadyDispatched, nil
	}

	if cand.Campaign.MinIntervalDays > 0 {
		cutoff := now.AddDate(0, 0, -cand.Campaign.MinIntervalDays)
		recent, err := g.dispatches.SentSince(ctx, cand.Recipient.ID, cand.Campaign.ID, cutoff)
		if err != nil {
			return false, "", fmt.Errorf("checking send frequency: %w", err)
		}
		if recent {
			return false, ReasonFrequencyLimited, nil
		}
	}
	return true, "", nil
}

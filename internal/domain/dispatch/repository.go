package dispatch

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("dispatch record not found")
	// ErrDuplicate signals the unique constraint on
	// (recipient_id, campaign_id, trigger_context_id). Expected under
	// concurrent or replayed ticks; callers treat it as "already scheduled".
	ErrDuplicate = errors.New("dispatch record already exists for this trigger")
)

// Repository owns the durable dispatch ledger. Create must enforce the
// triple uniqueness atomically (a second writer fails with ErrDuplicate
// rather than racing).
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id int64) (*Record, error)

	// Exists reports whether any record exists for the exact triple.
	Exists(ctx context.Context, recipientID, campaignID, triggerContextID int64) (bool, error)
	// SentSince reports whether a sent record exists for
	// (recipient, campaign) with sent_at at or after cutoff, regardless of
	// trigger context. Backs the frequency guard.
	SentSince(ctx context.Context, recipientID, campaignID int64, cutoff time.Time) (bool, error)

	// ListDue returns scheduled records with scheduled_for <= now, ordered
	// by scheduled_for ascending then id ascending, capped at limit.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Record, error)
	// CountDue counts scheduled records with scheduled_for <= now.
	CountDue(ctx context.Context, now time.Time) (int, error)
	// ListScheduled returns the next scheduled records in dispatch order,
	// due or not. Operator surface only.
	ListScheduled(ctx context.Context, limit int) ([]*Record, error)

	// CountAttemptedSince counts records whose dispatch was attempted
	// (sent, failed or blocked) at or after the given instant. The rate
	// limiter derives the current unit's budget from this so a process
	// restart mid-unit cannot over-admit.
	CountAttemptedSince(ctx context.Context, since time.Time) (int, error)
	// CountByStatus returns record counts per status for the operator
	// status endpoint.
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

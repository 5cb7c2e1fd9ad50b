package dispatch

import (
	"database/sql"
	"time"
)

// Status is the lifecycle state of a dispatch record.
//
//	scheduled → sent    (terminal, success)
//	scheduled → failed  (terminal, transport failure; no automatic retry)
//	scheduled → blocked (terminal, refused by the environment safety guard)
//
// Records are never deleted; they are the audit trail and the idempotency
// ledger.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusBlocked   Status = "blocked"
)

// Channel is the delivery channel recorded on a dispatch.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
)

// CreationTriggerContextID is the trigger-context id used for
// recipient_creation campaigns: each recipient has exactly one creation
// event, so the (recipient, campaign, 0) triple stays unique. Calendar
// campaigns use the calendar event id instead.
const CreationTriggerContextID int64 = 0

// Record (source term: send log) is the durable record of one attempted or
// completed dispatch, keyed by (recipient, campaign, trigger context). The
// unique constraint on that triple is the core idempotency invariant.
type Record struct {
	ID               int64
	RecipientID      int64
	CampaignID       int64
	TriggerContextID int64
	Channel          Channel
	ScheduledFor     time.Time
	SentAt           sql.NullTime
	Status           Status
	AttemptCount     int
	ErrorMessage     sql.NullString
	// OriginalRecipient keeps the real destination when the safety guard
	// redirected the send to a test destination.
	OriginalRecipient sql.NullString
	ProviderMessageID sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

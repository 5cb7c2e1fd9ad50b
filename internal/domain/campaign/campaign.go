package campaign

import "time"

// TriggerBase identifies what kind of event a campaign fires on.
type TriggerBase string

const (
	TriggerRecipientCreation TriggerBase = "recipient_creation"
	TriggerCalendarEvent     TriggerBase = "calendar_event"
)

// ChannelPreference is the channel a campaign wants to use. The dispatcher
// may fall back to email when a chat identity is missing.
type ChannelPreference string

const (
	PreferEmail ChannelPreference = "email"
	PreferChat  ChannelPreference = "chat"
)

// Campaign (source term: scenario) binds an approved template to an
// eligibility rule and a trigger. Immutable once in use except for
// administrative edits performed outside the engine.
type Campaign struct {
	ID         int64
	Name       string
	TemplateID int64
	Trigger    TriggerBase
	// EventType links calendar_event campaigns to calendar events of the
	// same type (e.g. "open_campus", "briefing"). Empty for
	// recipient_creation campaigns.
	EventType string
	// DelayDays is the delay after recipient creation, or the signed offset
	// relative to the calendar event date (negative = before the event).
	DelayDays int
	// MinIntervalDays is the minimum gap between two sends of this campaign
	// to the same recipient, regardless of trigger context.
	MinIntervalDays int
	Preferred       ChannelPreference
	Rule            Rule
	Enabled         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

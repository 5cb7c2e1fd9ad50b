package calendar

import (
	"database/sql"
	"time"
)

// Event is a date-stamped trigger source: an open campus day, a briefing,
// an interview slot and so on. EventType links it to campaigns configured
// for the same type.
type Event struct {
	ID        int64
	EventType string
	Title     string
	EventDate time.Time
	Location  sql.NullString
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegistrationStatus tracks a participant's standing for an event.
type RegistrationStatus string

const (
	RegistrationScheduled RegistrationStatus = "scheduled"
	RegistrationAttended  RegistrationStatus = "attended"
	RegistrationAbsent    RegistrationStatus = "absent"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Registration links one recipient to one event. Unique per pair.
type Registration struct {
	ID          int64
	RecipientID int64
	EventID     int64
	Status      RegistrationStatus
	CreatedAt   time.Time
}

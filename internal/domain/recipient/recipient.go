package recipient

import (
	"database/sql"
	"time"
)

// Recipient is a prospective or current student the engine may contact.
// The engine reads recipients; the only write it ever performs is flipping
// the unsubscribed flag through a signed unsubscribe link.
type Recipient struct {
	ID             int64
	Email          string
	Name           string
	SchoolName     sql.NullString
	GraduationYear int
	YearEstimated  bool          // graduation year was inferred, not declared
	ChatID         sql.NullInt64 // chat-platform identity, optional
	Consent        bool
	Unsubscribed   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasChatIdentity reports whether the recipient can be reached on the chat channel.
func (r *Recipient) HasChatIdentity() bool {
	return r.ChatID.Valid && r.ChatID.Int64 != 0
}

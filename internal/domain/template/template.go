package template

import (
	"database/sql"
	"time"
)

// Status is the approval workflow state of a template. Only approved
// templates may be sent; the lifecycle itself is managed externally.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Template is a message template with a subject and an HTML body.
type Template struct {
	ID         int64
	Name       string
	Subject    string
	BodyHTML   string
	Status     Status
	ApprovedAt sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Usable reports whether the engine may send this template: it must be in
// the approved state and carry an approval timestamp.
func (t *Template) Usable() bool {
	return t.Status == StatusApproved && t.ApprovedAt.Valid
}

package audit

import (
	"database/sql"
	"time"
)

// SystemActorRole is the role snapshot recorded for engine-initiated actions.
const SystemActorRole = "system"

// Entry is one append-only audit record. ActorRole is a snapshot of the
// actor's role at the time of the action, not a live reference, since roles
// can change later.
type Entry struct {
	ID         int64
	ActorID    sql.NullInt64 // null for the engine itself
	ActorRole  string
	Action     string
	TargetType string
	TargetID   sql.NullInt64
	Meta       map[string]any
	CreatedAt  time.Time
}

// System builds an engine-initiated entry.
func System(action, targetType string, targetID int64, meta map[string]any) *Entry {
	e := &Entry{
		ActorRole:  SystemActorRole,
		Action:     action,
		TargetType: targetType,
		Meta:       meta,
	}
	if targetID != 0 {
		e.TargetID = sql.NullInt64{Int64: targetID, Valid: true}
	}
	return e
}

package calendar

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("calendar event not found")

// Repository defines read access to calendar events and their registrations.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Event, error)
	// ListActiveByType returns active events of the given type.
	ListActiveByType(ctx context.Context, eventType string) ([]*Event, error)
	// ListRegistrations returns non-cancelled registrations for an event.
	ListRegistrations(ctx context.Context, eventID int64) ([]*Registration, error)
}

package recipient

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a recipient lookup matches no row.
var ErrNotFound = errors.New("recipient not found")

// Repository defines read access to the recipient population. Recipient
// management (CRUD, CSV import) is owned by an external collaborator; the
// engine only reads, plus the unsubscribe flag update.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Recipient, error)
	ListAll(ctx context.Context) ([]*Recipient, error)
	MarkUnsubscribed(ctx context.Context, id int64) error
}

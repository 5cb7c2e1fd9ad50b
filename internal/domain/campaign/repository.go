package campaign

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("campaign not found")

// Repository defines read access to campaigns. Campaign administration is
// external; the engine only enumerates enabled campaigns and resolves them
// by id during dispatch.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Campaign, error)
	ListEnabled(ctx context.Context) ([]*Campaign, error)
}

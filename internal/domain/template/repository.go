package template

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("template not found")

// Repository defines read-only access to templates.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Template, error)
}

package audit

import "context"

// Repository appends audit entries. The audit schema and its query surface
// are owned by an external collaborator; the engine only produces rows.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"student_outreach_engine/internal/domain/audit"
)

type PostgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

func (repo *PostgresAuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	var meta sql.NullString
	if entry.Meta != nil {
		b, err := json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("error encoding audit metadata: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	query := `INSERT INTO audit_entries (actor_id, actor_role_snapshot, action, target_type, target_id, meta_json)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		entry.ActorID, entry.ActorRole, entry.Action,
		entry.TargetType, entry.TargetID, meta,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating audit entry: %w", err)
	}
	return nil
}

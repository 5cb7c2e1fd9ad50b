package database

import (
	"context"
	"database/sql"
	"fmt"

	"student_outreach_engine/internal/domain/template"
)

type PostgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

func (repo *PostgresTemplateRepository) GetByID(ctx context.Context, id int64) (*template.Template, error) {
	query := `SELECT id, name, subject, body_html, status, approved_at, created_at, updated_at
               FROM templates WHERE id = $1`
	t := template.Template{}
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Subject, &t.BodyHTML, &t.Status,
		&t.ApprovedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, template.ErrNotFound
		}
		return nil, fmt.Errorf("error getting template by ID: %w", err)
	}
	return &t, nil
}

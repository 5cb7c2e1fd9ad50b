package database

import (
	"context"
	"database/sql"
	"fmt"

	"student_outreach_engine/internal/domain/recipient"
)

type PostgresRecipientRepository struct {
	db *sql.DB
}

func NewPostgresRecipientRepository(db *sql.DB) *PostgresRecipientRepository {
	return &PostgresRecipientRepository{db: db}
}

const recipientColumns = `id, email, name, school_name, graduation_year, year_estimated, chat_id, consent, unsubscribed, created_at, updated_at`

func scanRecipient(row interface{ Scan(...any) error }) (*recipient.Recipient, error) {
	r := recipient.Recipient{}
	err := row.Scan(
		&r.ID, &r.Email, &r.Name, &r.SchoolName, &r.GraduationYear,
		&r.YearEstimated, &r.ChatID, &r.Consent, &r.Unsubscribed,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (repo *PostgresRecipientRepository) GetByID(ctx context.Context, id int64) (*recipient.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE id = $1`
	r, err := scanRecipient(repo.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, recipient.ErrNotFound
		}
		return nil, fmt.Errorf("error getting recipient by ID: %w", err)
	}
	return r, nil
}

func (repo *PostgresRecipientRepository) ListAll(ctx context.Context) ([]*recipient.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM recipients ORDER BY id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing recipients: %w", err)
	}
	defer rows.Close()

	recipients := make([]*recipient.Recipient, 0)
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning recipient row: %w", err)
		}
		recipients = append(recipients, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipient rows: %w", err)
	}
	return recipients, nil
}

func (repo *PostgresRecipientRepository) MarkUnsubscribed(ctx context.Context, id int64) error {
	query := `UPDATE recipients SET unsubscribed = TRUE, updated_at = NOW() WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error marking recipient unsubscribed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking unsubscribe result: %w", err)
	}
	if affected == 0 {
		return recipient.ErrNotFound
	}
	return nil
}

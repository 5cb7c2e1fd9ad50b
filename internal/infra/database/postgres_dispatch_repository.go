package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"student_outreach_engine/internal/domain/dispatch"
)

type PostgresDispatchRepository struct {
	db *sql.DB
}

func NewPostgresDispatchRepository(db *sql.DB) *PostgresDispatchRepository {
	return &PostgresDispatchRepository{db: db}
}

const dispatchColumns = `id, recipient_id, campaign_id, trigger_context_id, channel, scheduled_for, sent_at, status, attempt_count, error_message, original_recipient, provider_message_id, created_at, updated_at`

func scanDispatch(row interface{ Scan(...any) error }) (*dispatch.Record, error) {
	rec := dispatch.Record{}
	err := row.Scan(
		&rec.ID, &rec.RecipientID, &rec.CampaignID, &rec.TriggerContextID,
		&rec.Channel, &rec.ScheduledFor, &rec.SentAt, &rec.Status,
		&rec.AttemptCount, &rec.ErrorMessage, &rec.OriginalRecipient,
		&rec.ProviderMessageID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a new scheduled record. The unique index on
// (recipient_id, campaign_id, trigger_context_id) is the idempotency
// backstop: the losing writer of a race gets ErrDuplicate atomically.
func (repo *PostgresDispatchRepository) Create(ctx context.Context, rec *dispatch.Record) error {
	query := `INSERT INTO dispatch_records
               (recipient_id, campaign_id, trigger_context_id, channel, scheduled_for, status, attempt_count)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id, created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		rec.RecipientID, rec.CampaignID, rec.TriggerContextID,
		rec.Channel, rec.ScheduledFor, rec.Status, rec.AttemptCount,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return dispatch.ErrDuplicate
		}
		return fmt.Errorf("error creating dispatch record: %w", err)
	}
	return nil
}

func (repo *PostgresDispatchRepository) Update(ctx context.Context, rec *dispatch.Record) error {
	query := `UPDATE dispatch_records
               SET channel = $1, status = $2, sent_at = $3, attempt_count = $4,
                   error_message = $5, original_recipient = $6, provider_message_id = $7,
                   updated_at = NOW()
               WHERE id = $8
               RETURNING updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		rec.Channel, rec.Status, rec.SentAt, rec.AttemptCount,
		rec.ErrorMessage, rec.OriginalRecipient, rec.ProviderMessageID, rec.ID,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return dispatch.ErrNotFound
		}
		return fmt.Errorf("error updating dispatch record: %w", err)
	}
	return nil
}

func (repo *PostgresDispatchRepository) GetByID(ctx context.Context, id int64) (*dispatch.Record, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatch_records WHERE id = $1`
	rec, err := scanDispatch(repo.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dispatch.ErrNotFound
		}
		return nil, fmt.Errorf("error getting dispatch record by ID: %w", err)
	}
	return rec, nil
}

func (repo *PostgresDispatchRepository) Exists(ctx context.Context, recipientID, campaignID, triggerContextID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM dispatch_records
               WHERE recipient_id = $1 AND campaign_id = $2 AND trigger_context_id = $3)`
	var exists bool
	err := repo.db.QueryRowContext(ctx, query, recipientID, campaignID, triggerContextID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking dispatch record existence: %w", err)
	}
	return exists, nil
}

func (repo *PostgresDispatchRepository) SentSince(ctx context.Context, recipientID, campaignID int64, cutoff time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM dispatch_records
               WHERE recipient_id = $1 AND campaign_id = $2 AND status = $3 AND sent_at >= $4)`
	var exists bool
	err := repo.db.QueryRowContext(ctx, query, recipientID, campaignID, dispatch.StatusSent, cutoff).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking recent sends: %w", err)
	}
	return exists, nil
}

func (repo *PostgresDispatchRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*dispatch.Record, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatch_records
               WHERE status = $1 AND scheduled_for <= $2
               ORDER BY scheduled_for, id
               LIMIT $3`
	rows, err := repo.db.QueryContext(ctx, query, dispatch.StatusScheduled, now, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing due dispatch records: %w", err)
	}
	defer rows.Close()
	return collectDispatches(rows)
}

func (repo *PostgresDispatchRepository) CountDue(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM dispatch_records WHERE status = $1 AND scheduled_for <= $2`
	var count int
	err := repo.db.QueryRowContext(ctx, query, dispatch.StatusScheduled, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting due dispatch records: %w", err)
	}
	return count, nil
}

func (repo *PostgresDispatchRepository) ListScheduled(ctx context.Context, limit int) ([]*dispatch.Record, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatch_records
               WHERE status = $1
               ORDER BY scheduled_for, id
               LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, dispatch.StatusScheduled, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing scheduled dispatch records: %w", err)
	}
	defer rows.Close()
	return collectDispatches(rows)
}

// CountAttemptedSince counts terminal transitions inside the current rate
// unit: successful sends by sent_at, failures and blocks by their update
// time. This is what the rate limiter reconstructs its budget from.
func (repo *PostgresDispatchRepository) CountAttemptedSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM dispatch_records
               WHERE (status = $1 AND sent_at >= $2)
                  OR (status IN ($3, $4) AND updated_at >= $2)`
	var count int
	err := repo.db.QueryRowContext(ctx, query,
		dispatch.StatusSent, since, dispatch.StatusFailed, dispatch.StatusBlocked,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting attempted dispatches: %w", err)
	}
	return count, nil
}

func (repo *PostgresDispatchRepository) CountByStatus(ctx context.Context) (map[dispatch.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM dispatch_records GROUP BY status`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error counting dispatch records by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[dispatch.Status]int)
	for rows.Next() {
		var status dispatch.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("error scanning status count row: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}
	return counts, nil
}

func collectDispatches(rows *sql.Rows) ([]*dispatch.Record, error) {
	records := make([]*dispatch.Record, 0)
	for rows.Next() {
		rec, err := scanDispatch(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning dispatch record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dispatch record rows: %w", err)
	}
	return records, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"student_outreach_engine/internal/domain/calendar"
)

type PostgresCalendarRepository struct {
	db *sql.DB
}

func NewPostgresCalendarRepository(db *sql.DB) *PostgresCalendarRepository {
	return &PostgresCalendarRepository{db: db}
}

const eventColumns = `id, event_type, title, event_date, location, active, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*calendar.Event, error) {
	e := calendar.Event{}
	err := row.Scan(
		&e.ID, &e.EventType, &e.Title, &e.EventDate, &e.Location,
		&e.Active, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (repo *PostgresCalendarRepository) GetByID(ctx context.Context, id int64) (*calendar.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE id = $1`
	e, err := scanEvent(repo.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, calendar.ErrNotFound
		}
		return nil, fmt.Errorf("error getting calendar event by ID: %w", err)
	}
	return e, nil
}

func (repo *PostgresCalendarRepository) ListActiveByType(ctx context.Context, eventType string) ([]*calendar.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE event_type = $1 AND active = TRUE ORDER BY event_date`
	rows, err := repo.db.QueryContext(ctx, query, eventType)
	if err != nil {
		return nil, fmt.Errorf("error listing calendar events: %w", err)
	}
	defer rows.Close()

	events := make([]*calendar.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning calendar event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar event rows: %w", err)
	}
	return events, nil
}

func (repo *PostgresCalendarRepository) ListRegistrations(ctx context.Context, eventID int64) ([]*calendar.Registration, error) {
	query := `SELECT id, recipient_id, calendar_event_id, status, created_at
               FROM event_registrations
               WHERE calendar_event_id = $1 AND status <> $2
               ORDER BY id`
	rows, err := repo.db.QueryContext(ctx, query, eventID, calendar.RegistrationCancelled)
	if err != nil {
		return nil, fmt.Errorf("error listing event registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]*calendar.Registration, 0)
	for rows.Next() {
		reg := calendar.Registration{}
		if err := rows.Scan(&reg.ID, &reg.RecipientID, &reg.EventID, &reg.Status, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning registration row: %w", err)
		}
		regs = append(regs, &reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return regs, nil
}

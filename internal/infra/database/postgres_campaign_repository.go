package database

import (
	"context"
	"database/sql"
	"fmt"

	"student_outreach_engine/internal/domain/campaign"
)

type PostgresCampaignRepository struct {
	db *sql.DB
}

func NewPostgresCampaignRepository(db *sql.DB) *PostgresCampaignRepository {
	return &PostgresCampaignRepository{db: db}
}

const campaignColumns = `id, name, template_id, trigger_base, event_type, delay_days, min_interval_days, preferred_channel, rule, enabled, created_at, updated_at`

// scanCampaign decodes one row, parsing the stored rule. A malformed or
// unknown rule is a configuration error and surfaces immediately rather
// than being skipped mid-tick.
func scanCampaign(row interface{ Scan(...any) error }) (*campaign.Campaign, error) {
	c := campaign.Campaign{}
	var rawRule sql.NullString
	err := row.Scan(
		&c.ID, &c.Name, &c.TemplateID, &c.Trigger, &c.EventType,
		&c.DelayDays, &c.MinIntervalDays, &c.Preferred, &rawRule,
		&c.Enabled, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Rule, err = campaign.ParseRule(rawRule.String)
	if err != nil {
		return nil, fmt.Errorf("campaign %d: %w", c.ID, err)
	}
	return &c, nil
}

func (repo *PostgresCampaignRepository) GetByID(ctx context.Context, id int64) (*campaign.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(repo.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, campaign.ErrNotFound
		}
		return nil, fmt.Errorf("error getting campaign by ID: %w", err)
	}
	return c, nil
}

func (repo *PostgresCampaignRepository) ListEnabled(ctx context.Context) ([]*campaign.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE enabled = TRUE ORDER BY id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing enabled campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]*campaign.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning campaign row: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign rows: %w", err)
	}
	return campaigns, nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

// HistoryRepositoryInterface is append-only: there is no update or delete.
type HistoryRepositoryInterface interface {
	Append(ctx context.Context, e *model.HistoryEntry) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.HistoryEntry, error)
}

type HistoryRepository struct {
	DB *sql.DB
}

func (r *HistoryRepository) Append(ctx context.Context, e *model.HistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO campaign_history (id, user_id, campaign_id, listing_id, action, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err = conn(ctx, r.DB).ExecContext(ctx, query,
		e.ID, e.UserID, e.CampaignID, e.ListingID, e.Action, string(details), e.CreatedAt)
	return err
}

func (r *HistoryRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.HistoryEntry, error) {
	query := `
        SELECT id, user_id, campaign_id, listing_id, action, details, created_at
        FROM campaign_history WHERE campaign_id=$1 ORDER BY created_at, id
    `
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		var details []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.CampaignID, &e.ListingID, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

var _ HistoryRepositoryInterface = (*HistoryRepository)(nil)

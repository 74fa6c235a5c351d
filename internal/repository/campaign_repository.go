package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/listing-campaigns/internal/errors"
	"github.com/unclebandit/listing-campaigns/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	// TransitionStatus moves a campaign from one status to another and
	// reports false when the campaign was no longer in from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.CampaignStatus) (bool, error)
	SetTotalItems(ctx context.Context, id uuid.UUID, total int) error
	ListCampaigns(ctx context.Context, userID uuid.UUID, filter model.CampaignFilter, offset, limit int) ([]*model.Campaign, int, error)
	// ListOpen returns the user's non-cancelled campaigns for a listing and status.
	ListOpen(ctx context.Context, userID, listingID uuid.UUID, status model.ListingStatus) ([]*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, user_id, listing_id, template_id, trigger_status, previous_status, status, total_items, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	var templateID uuid.NullUUID
	var previous sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &c.ListingID, &templateID, &c.TriggerStatus, &previous, &c.Status, &c.TotalItems, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if templateID.Valid {
		id := templateID.UUID
		c.TemplateID = &id
	}
	if previous.Valid {
		s := model.ListingStatus(previous.String)
		c.PreviousStatus = &s
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = model.CampaignActive
	}
	var previous *string
	if c.PreviousStatus != nil {
		s := string(*c.PreviousStatus)
		previous = &s
	}
	query := `
        INSERT INTO campaigns (id, user_id, listing_id, template_id, trigger_status, previous_status, status, total_items, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		c.ID, c.UserID, c.ListingID, c.TemplateID, c.TriggerStatus, previous, c.Status, c.TotalItems, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.CampaignStatus) (bool, error) {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("update campaign status: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *CampaignRepository) SetTotalItems(ctx context.Context, id uuid.UUID, total int) error {
	query := `UPDATE campaigns SET total_items=$1 WHERE id=$2`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, total, id)
	return err
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, userID uuid.UUID, filter model.CampaignFilter, offset, limit int) ([]*model.Campaign, int, error) {
	where := ` WHERE user_id=$1`
	args := []any{userID}
	argPos := 2

	if filter.ListingID != nil {
		where += fmt.Sprintf(" AND listing_id=$%d", argPos)
		args = append(args, *filter.ListingID)
		argPos++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.TriggerStatus != "" {
		where += fmt.Sprintf(" AND trigger_status=$%d", argPos)
		args = append(args, filter.TriggerStatus)
		argPos++
	}

	db := conn(ctx, r.DB)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

func (r *CampaignRepository) ListOpen(ctx context.Context, userID, listingID uuid.UUID, status model.ListingStatus) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE user_id=$1 AND listing_id=$2 AND trigger_status=$3 AND status <> 'cancelled'
        ORDER BY created_at`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, userID, listingID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

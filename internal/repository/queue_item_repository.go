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

// QueueItemRepositoryInterface defines methods used by the services.
// The conditional transitions (Approve, Skip, ...) only touch rows in a
// legal source state and report how many rows moved.
type QueueItemRepositoryInterface interface {
	CreateBatch(ctx context.Context, items []*model.QueueItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.QueueItem, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.QueueItem, error)
	ListUngenerated(ctx context.Context, campaignID uuid.UUID) ([]*model.QueueItem, error)
	UpdateContent(ctx context.Context, id uuid.UUID, data model.ContentData) error
	Approve(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	ApproveAll(ctx context.Context, campaignID, userID uuid.UUID, at time.Time) (int, error)
	Skip(ctx context.Context, id, userID uuid.UUID) (bool, error)
	SkipOpenByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
	CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[model.ItemStatus]int, error)
}

type QueueItemRepository struct {
	DB *sql.DB
}

const queueItemColumns = `id, campaign_id, user_id, listing_id, content_type, platform, scheduled_for, position,
    content_data, status, requires_approval, approved_at, approved_by, created_at, updated_at`

func scanQueueItem(row interface{ Scan(...any) error }) (*model.QueueItem, error) {
	var it model.QueueItem
	var platform sql.NullString
	var approvedBy uuid.NullUUID
	err := row.Scan(
		&it.ID, &it.CampaignID, &it.UserID, &it.ListingID, &it.ContentType, &platform,
		&it.ScheduledFor, &it.Position, &it.ContentData, &it.Status, &it.RequiresApproval,
		&it.ApprovedAt, &approvedBy, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if platform.Valid {
		p := model.Platform(platform.String)
		it.Platform = &p
	}
	if approvedBy.Valid {
		id := approvedBy.UUID
		it.ApprovedBy = &id
	}
	return &it, nil
}

func (r *QueueItemRepository) listWhere(ctx context.Context, where string, args ...any) ([]*model.QueueItem, error) {
	query := `SELECT ` + queueItemColumns + ` FROM campaign_queue_items WHERE ` + where + ` ORDER BY position`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*model.QueueItem{}
	for rows.Next() {
		it, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateBatch inserts items in slice order. Position is assigned from the
// slice index so listing by position reproduces expansion order.
func (r *QueueItemRepository) CreateBatch(ctx context.Context, items []*model.QueueItem) error {
	query := `
        INSERT INTO campaign_queue_items
        (id, campaign_id, user_id, listing_id, content_type, platform, scheduled_for, position,
         content_data, status, requires_approval, approved_at, approved_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `
	db := conn(ctx, r.DB)
	now := time.Now().UTC()
	for i, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.Position = i
		it.CreatedAt = now
		var platform *string
		if it.Platform != nil {
			p := string(*it.Platform)
			platform = &p
		}
		_, err := db.ExecContext(ctx, query,
			it.ID, it.CampaignID, it.UserID, it.ListingID, it.ContentType, platform, it.ScheduledFor, it.Position,
			it.ContentData, it.Status, it.RequiresApproval, it.ApprovedAt, it.ApprovedBy, it.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert queue item %d: %w", i, err)
		}
	}
	return nil
}

func (r *QueueItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QueueItem, error) {
	query := `SELECT ` + queueItemColumns + ` FROM campaign_queue_items WHERE id=$1`
	it, err := scanQueueItem(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrItemNotFound
		}
		return nil, err
	}
	return it, nil
}

func (r *QueueItemRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.QueueItem, error) {
	return r.listWhere(ctx, `campaign_id=$1`, campaignID)
}

func (r *QueueItemRepository) ListUngenerated(ctx context.Context, campaignID uuid.UUID) ([]*model.QueueItem, error) {
	return r.listWhere(ctx,
		`campaign_id=$1 AND status <> 'skipped' AND COALESCE((content_data->>'generated')::boolean, FALSE) = FALSE`,
		campaignID)
}

// UpdateContent overwrites content_data wholesale.
func (r *QueueItemRepository) UpdateContent(ctx context.Context, id uuid.UUID, data model.ContentData) error {
	query := `UPDATE campaign_queue_items SET content_data=$1, updated_at=NOW() WHERE id=$2`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, data, id)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.ErrItemNotFound
	}
	return nil
}

func (r *QueueItemRepository) Approve(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	query := `
        UPDATE campaign_queue_items
        SET status='approved', approved_at=$1, approved_by=$2, updated_at=NOW()
        WHERE id=$3 AND user_id=$2 AND status='pending'
    `
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, at, userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *QueueItemRepository) ApproveAll(ctx context.Context, campaignID, userID uuid.UUID, at time.Time) (int, error) {
	query := `
        UPDATE campaign_queue_items
        SET status='approved', approved_at=$1, approved_by=$2, updated_at=NOW()
        WHERE campaign_id=$3 AND user_id=$2 AND status='pending'
    `
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, at, userID, campaignID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *QueueItemRepository) Skip(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	query := `
        UPDATE campaign_queue_items SET status='skipped', updated_at=NOW()
        WHERE id=$1 AND user_id=$2 AND status IN ('pending', 'approved')
    `
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *QueueItemRepository) SkipOpenByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	query := `
        UPDATE campaign_queue_items SET status='skipped', updated_at=NOW()
        WHERE campaign_id=$1 AND status IN ('pending', 'approved')
    `
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, campaignID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *QueueItemRepository) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[model.ItemStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM campaign_queue_items WHERE campaign_id=$1 GROUP BY status`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[model.ItemStatus]int{model.ItemPending: 0, model.ItemApproved: 0, model.ItemSkipped: 0}
	for rows.Next() {
		var status model.ItemStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ QueueItemRepositoryInterface = (*QueueItemRepository)(nil)

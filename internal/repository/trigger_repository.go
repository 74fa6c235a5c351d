package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

type TriggerRepositoryInterface interface {
	// GetActive returns nil, nil when the user has no active trigger for status.
	GetActive(ctx context.Context, userID uuid.UUID, status model.ListingStatus) (*model.Trigger, error)
	Upsert(ctx context.Context, t *model.Trigger) error
}

type TriggerRepository struct {
	DB *sql.DB
}

func (r *TriggerRepository) GetActive(ctx context.Context, userID uuid.UUID, status model.ListingStatus) (*model.Trigger, error) {
	query := `
        SELECT id, user_id, trigger_status, is_active, auto_approve, generate_social, generate_email,
               generate_video, update_property_site, platforms, template_id
        FROM campaign_triggers
        WHERE user_id=$1 AND trigger_status=$2 AND is_active
    `
	var t model.Trigger
	var platforms pq.StringArray
	var templateID uuid.NullUUID
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, userID, status).Scan(
		&t.ID, &t.UserID, &t.TriggerStatus, &t.IsActive, &t.AutoApprove, &t.GenerateSocial,
		&t.GenerateEmail, &t.GenerateVideo, &t.UpdatePropertySite, &platforms, &templateID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	for _, p := range platforms {
		t.Platforms = append(t.Platforms, model.Platform(p))
	}
	if templateID.Valid {
		id := templateID.UUID
		t.TemplateID = &id
	}
	return &t, nil
}

// Upsert stores the user's trigger for its status, replacing any previous
// one. The conflict key includes user_id, so a caller only ever rewrites
// its own row; t.ID is set to the stored id.
func (r *TriggerRepository) Upsert(ctx context.Context, t *model.Trigger) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	platforms := make([]string, len(t.Platforms))
	for i, p := range t.Platforms {
		platforms[i] = string(p)
	}
	query := `
        INSERT INTO campaign_triggers (id, user_id, trigger_status, is_active, auto_approve, generate_social,
            generate_email, generate_video, update_property_site, platforms, template_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (user_id, trigger_status) DO UPDATE SET
            is_active=EXCLUDED.is_active, auto_approve=EXCLUDED.auto_approve,
            generate_social=EXCLUDED.generate_social, generate_email=EXCLUDED.generate_email,
            generate_video=EXCLUDED.generate_video, update_property_site=EXCLUDED.update_property_site,
            platforms=EXCLUDED.platforms, template_id=EXCLUDED.template_id
        RETURNING id
    `
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		t.ID, t.UserID, t.TriggerStatus, t.IsActive, t.AutoApprove, t.GenerateSocial,
		t.GenerateEmail, t.GenerateVideo, t.UpdatePropertySite, pq.Array(platforms), t.TemplateID,
	).Scan(&t.ID)
}

var _ TriggerRepositoryInterface = (*TriggerRepository)(nil)

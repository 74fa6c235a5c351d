package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

// TemplateRepositoryInterface is read-only from the engine's side; Upsert
// is only used by the seeder.
type TemplateRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error)
	GetDefault(ctx context.Context, status model.ListingStatus) (*model.Template, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

const templateColumns = `id, trigger_status, name, is_default, social_schedule, email_subject_template, email_template_style, created_at`

func scanTemplate(row interface{ Scan(...any) error }) (*model.Template, error) {
	var t model.Template
	var schedule []byte
	if err := row.Scan(&t.ID, &t.TriggerStatus, &t.Name, &t.IsDefault, &schedule, &t.EmailSubject, &t.EmailTemplateStyle, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(schedule, &t.SocialSchedule); err != nil {
		return nil, fmt.Errorf("decode schedule of template %s: %w", t.ID, err)
	}
	return &t, nil
}

// GetByID returns nil, nil when the template does not exist.
func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM campaign_templates WHERE id=$1`
	t, err := scanTemplate(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// GetDefault returns nil, nil when no default exists for status.
func (r *TemplateRepository) GetDefault(ctx context.Context, status model.ListingStatus) (*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM campaign_templates WHERE trigger_status=$1 AND is_default LIMIT 1`
	t, err := scanTemplate(conn(ctx, r.DB).QueryRowContext(ctx, query, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// Upsert inserts or replaces a template by id. Running campaigns are
// unaffected because their items were expanded at creation time.
func (r *TemplateRepository) Upsert(ctx context.Context, t *model.Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	schedule, err := json.Marshal(t.SocialSchedule)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO campaign_templates (id, trigger_status, name, is_default, social_schedule, email_subject_template, email_template_style, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET
            trigger_status=EXCLUDED.trigger_status, name=EXCLUDED.name, is_default=EXCLUDED.is_default,
            social_schedule=EXCLUDED.social_schedule, email_subject_template=EXCLUDED.email_subject_template,
            email_template_style=EXCLUDED.email_template_style
    `
	_, err = conn(ctx, r.DB).ExecContext(ctx, query,
		t.ID, t.TriggerStatus, t.Name, t.IsDefault, string(schedule), t.EmailSubject, t.EmailTemplateStyle, t.CreatedAt)
	return err
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)

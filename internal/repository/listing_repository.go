package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/listing-campaigns/internal/errors"
	"github.com/unclebandit/listing-campaigns/internal/model"
)

// ListingProvider is the read side of listing data used by the engine.
type ListingProvider interface {
	GetListing(ctx context.Context, id uuid.UUID) (*model.Listing, error)
}

// ListingStore adds the status write performed by the status-change entrypoint.
type ListingStore interface {
	ListingProvider
	UpdateStatus(ctx context.Context, id, userID uuid.UUID, status model.ListingStatus) error
}

type ListingRepository struct {
	DB *sql.DB
}

// GetListing returns ErrListingNotFound for missing or deleted listings.
func (r *ListingRepository) GetListing(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	query := `
        SELECT id, user_id, address, city, state, zip, price, bedrooms, bathrooms, sqft,
               description, features, photos, status
        FROM listings
        WHERE id=$1 AND deleted_at IS NULL
    `
	var l model.Listing
	var features pq.StringArray
	var photos []byte
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.UserID, &l.Address, &l.City, &l.State, &l.Zip, &l.Price, &l.Bedrooms, &l.Bathrooms, &l.Sqft,
		&l.Description, &features, &photos, &l.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", appErrors.ErrListingNotFound, id)
		}
		return nil, err
	}
	l.Features = features
	if err := json.Unmarshal(photos, &l.Photos); err != nil {
		return nil, fmt.Errorf("decode photos of listing %s: %w", id, err)
	}
	return &l, nil
}

// UpdateStatus writes the listing's status. A listing owned by another user
// reports ErrForbidden.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status model.ListingStatus) error {
	db := conn(ctx, r.DB)

	var owner uuid.UUID
	err := db.QueryRowContext(ctx, `SELECT user_id FROM listings WHERE id=$1 AND deleted_at IS NULL`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", appErrors.ErrListingNotFound, id)
		}
		return err
	}
	if owner != userID {
		return appErrors.ErrForbidden
	}

	_, err = db.ExecContext(ctx, `UPDATE listings SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

var _ ListingStore = (*ListingRepository)(nil)

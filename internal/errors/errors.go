// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotConfigured means no trigger or default template exists for a
	// status. Callers treat it as "no campaign", not as a failure.
	ErrNotConfigured     = errors.New("no trigger or default template configured")
	ErrListingNotFound   = errors.New("listing not found")
	ErrForbidden         = errors.New("resource belongs to another user")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrItemNotFound      = errors.New("queue item not found")
	ErrTemplateNotFound  = errors.New("template not found")
)

// ErrCampaignNotFound is returned when a campaign id does not resolve.
type ErrCampaignNotFound struct {
	CampaignID uuid.UUID
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id uuid.UUID) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// IsCampaignNotFound reports whether err wraps an ErrCampaignNotFound.
func IsCampaignNotFound(err error) bool {
	var nf *ErrCampaignNotFound
	return errors.As(err, &nf)
}

// TransitionError describes a refused state change.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func NewTransitionError(entity, from, to string) error {
	return &TransitionError{Entity: entity, From: from, To: to}
}

package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appErrors "github.com/unclebandit/listing-campaigns/internal/errors"
)

// UserHeader carries the authenticated user id, set by the gateway.
const UserHeader = "X-User-ID"

type ctxKey string

const userKey ctxKey = "user_id"

// RequireUser rejects requests without a valid X-User-ID header.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(UserHeader))
		if err != nil {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + UserHeader})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, id)))
	})
}

// UserID returns the user stored by RequireUser.
func UserID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(userKey).(uuid.UUID)
	return id
}

// URLID parses the {name} route parameter as a UUID.
func URLID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps engine errors onto HTTP status codes.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, appErrors.ErrListingNotFound),
		errors.Is(err, appErrors.ErrItemNotFound),
		errors.Is(err, appErrors.ErrTemplateNotFound),
		appErrors.IsCampaignNotFound(err):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, appErrors.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, appErrors.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, appErrors.ErrInvalidStatus):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	}

	WriteJSON(w, status, map[string]string{"error": msg})
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/animal-store/internal/auth"
	"github.com/example/animal-store/internal/catalog"
	"github.com/example/animal-store/internal/order"
	"github.com/example/animal-store/internal/user"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	respondError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, order.ErrNotOrderOwner):
		return http.StatusForbidden

	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, catalog.ErrDuplicateReview),
		errors.Is(err, user.ErrUserExists),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrOrderNotEditable),
		errors.Is(err, order.ErrNotCancellable):
		return http.StatusConflict

	case errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, catalog.ErrInvalidRating),
		errors.Is(err, catalog.ErrProductInactive),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidLineItem),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, user.ErrMissingFields),
		errors.Is(err, auth.ErrPasswordTooShort):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

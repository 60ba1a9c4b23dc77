package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrIncorrectPassword, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrAccountPending, http.StatusForbidden},
		{ErrAccountInactive, http.StatusForbidden},
		{ErrNotParticipant, http.StatusForbidden},
		{ErrConflict, http.StatusConflict},
		{ErrDuplicateAccount, http.StatusConflict},
		{ErrSelfConversation, http.StatusConflict},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInvalidResetToken, http.StatusBadRequest},
		{ErrEmailDomainNotAllowed, http.StatusBadRequest},
		{ErrRateLimitExceeded, http.StatusTooManyRequests},
		{errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := MapErrorToStatus(tc.err); got != tc.want {
			t.Errorf("MapErrorToStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMapErrorToStatusWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("list conversations: %w", ErrNotParticipant)
	if got := MapErrorToStatus(wrapped); got != http.StatusForbidden {
		t.Fatalf("wrapped sentinel: got %d, want %d", got, http.StatusForbidden)
	}
}

func TestMapErrorToStatusAppError(t *testing.T) {
	explicit := New(http.StatusTeapot, "short and stout", nil)
	if got := MapErrorToStatus(explicit); got != http.StatusTeapot {
		t.Fatalf("explicit code: got %d, want %d", got, http.StatusTeapot)
	}

	// A zero code falls through to the wrapped sentinel.
	sentinel := New(0, "event is at capacity", ErrConflict)
	if got := MapErrorToStatus(sentinel); got != http.StatusConflict {
		t.Fatalf("zero-code AppError: got %d, want %d", got, http.StatusConflict)
	}

	if sentinel.Error() != ErrConflict.Error() {
		t.Fatalf("AppError must surface the wrapped message, got %q", sentinel.Error())
	}
	if !errors.Is(sentinel, ErrConflict) {
		t.Fatal("AppError must unwrap to its sentinel")
	}
}

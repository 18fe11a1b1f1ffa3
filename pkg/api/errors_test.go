package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/observability"
	"github.com/platinummonkey/gvserver/pkg/storage"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		outcome string
	}{
		{"validation", auth.NewValidationError("email is required"), http.StatusBadRequest, observability.OutcomeValidation},
		{"invalid credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, observability.OutcomeInvalidCredentials},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized, observability.OutcomeInvalidToken},
		{"denied", auth.ErrAuthorizationDenied, http.StatusUnauthorized, observability.OutcomeDenied},
		{"duplicate", fmt.Errorf("create user: %w", storage.ErrAlreadyExists), http.StatusBadRequest, observability.OutcomeValidation},
		{"not found", storage.ErrNotFound, http.StatusNotFound, observability.OutcomeError},
		{"acquire timeout", storage.ErrAcquireTimeout, http.StatusInternalServerError, observability.OutcomeError},
		{"unexpected", auth.Unexpected("hash", errors.New("boom")), http.StatusInternalServerError, observability.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, message)
			assert.Equal(t, tt.outcome, outcomeFor(tt.err))
		})
	}

	_, message := statusFor(auth.NewValidationError("latitude must be between -90 and 90"))
	assert.Equal(t, "latitude must be between -90 and 90", message)

	_, message = statusFor(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", message)
}

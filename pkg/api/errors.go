package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/httputil"
	"github.com/platinummonkey/gvserver/pkg/observability"
	"github.com/platinummonkey/gvserver/pkg/storage"
)

// statusFor maps an error onto a status code and a client-safe message.
// Authorization failures are 401 like every other auth failure.
func statusFor(err error) (int, string) {
	var ve *auth.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, auth.ErrAuthorizationDenied):
		return http.StatusUnauthorized, "not allowed to act on behalf of this user"
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusBadRequest, "username or email already in use"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// outcomeFor labels err for the auth attempts metric
func outcomeFor(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case auth.IsValidationError(err), errors.Is(err, storage.ErrAlreadyExists):
		return observability.OutcomeValidation
	case errors.Is(err, auth.ErrInvalidCredentials):
		return observability.OutcomeInvalidCredentials
	case errors.Is(err, auth.ErrInvalidToken):
		return observability.OutcomeInvalidToken
	case errors.Is(err, auth.ErrAuthorizationDenied):
		return observability.OutcomeDenied
	default:
		return observability.OutcomeError
	}
}

// writeError writes the response for err. Server errors are logged with
// their cause; the client only sees a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		observability.FromContext(r.Context()).
			WithError(err).
			WithField("path", r.URL.Path).
			Error("request failed")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteErrorMessage(w, status, message)
}

package middleware

import (
	"net/http"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/contextkeys"
	"github.com/platinummonkey/gvserver/pkg/httputil"
	"github.com/platinummonkey/gvserver/pkg/observability"
)

// TokenValidator turns a bearer token into permissions
type TokenValidator interface {
	Validate(token string) (*auth.Permissions, error)
}

// AuthMiddleware rejects requests without a valid bearer token and attaches
// the resulting permissions to the request context.
type AuthMiddleware struct {
	tokens  TokenValidator
	metrics *observability.Metrics
}

// NewAuthMiddleware creates a new authentication middleware. metrics may be nil.
func NewAuthMiddleware(tokens TokenValidator, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:  tokens,
		metrics: metrics,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := auth.ExtractAuthParameters(r.Header)

		perms, err := m.tokens.Validate(params.Token)
		if err != nil {
			m.metrics.RecordAuth("token", observability.OutcomeInvalidToken)
			observability.FromContext(r.Context()).
				WithField("token_present", !params.Empty()).
				Debug("bearer token rejected")
			httputil.WriteUnauthorized(w, "invalid token")
			return
		}

		m.metrics.RecordAuth("token", observability.OutcomeSuccess)
		ctx := contextkeys.WithAuth(r.Context(), perms)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPermissions extracts the permissions attached by AuthMiddleware, or nil
func GetPermissions(r *http.Request) *auth.Permissions {
	perms, ok := r.Context().Value(contextkeys.AuthKey).(*auth.Permissions)
	if !ok {
		return nil
	}
	return perms
}

package api

import (
	"net/http"
	"net/mail"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/httputil"
	"github.com/platinummonkey/gvserver/pkg/observability"
	"github.com/platinummonkey/gvserver/pkg/storage"
)

// signup handles POST /users
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := auth.ParseBasicAuth(r.Header)
	if err == nil {
		err = creds.Validate()
	}
	if err != nil {
		s.failAuth(w, r, "signup", err)
		return
	}

	var req SignupRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		s.metrics.RecordAuth("signup", observability.OutcomeValidation)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		s.failAuth(w, r, "signup", err)
		return
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		s.failAuth(w, r, "signup", auth.Unexpected("generate salt", err))
		return
	}
	hash, err := s.hashPool.Hash(ctx, creds.Password, salt)
	if err != nil {
		s.failAuth(w, r, "signup", auth.Unexpected("hash password", err))
		return
	}

	userID, err := s.store.CreateUser(ctx, storage.NewUser{
		Email:               req.Email,
		Username:            creds.Username,
		PasswordHash:        hash,
		Salt:                salt,
		ContentsDescription: req.ContentsDescription,
		ContentsAttachment:  req.ContentsAttachment,
	})
	if err != nil {
		s.failAuth(w, r, "signup", err)
		return
	}

	token, err := s.tokens.Issue(creds.Username)
	if err != nil {
		s.failAuth(w, r, "signup", auth.Unexpected("issue token", err))
		return
	}

	s.metrics.RecordAuth("signup", observability.OutcomeSuccess)
	observability.FromContext(ctx).
		WithField("user_id", userID.String()).
		WithField("username", creds.Username).
		Info("user signed up")
	httputil.WriteSuccess(w, TokenResponse{JWT: token})
}

// login handles POST /login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := auth.ParseBasicAuth(r.Header)
	if err == nil {
		err = creds.Validate()
	}
	if err != nil {
		s.failAuth(w, r, "login", err)
		return
	}

	userID, err := s.validator.Validate(ctx, creds)
	if err != nil {
		s.failAuth(w, r, "login", err)
		return
	}

	token, err := s.tokens.Issue(creds.Username)
	if err != nil {
		s.failAuth(w, r, "login", auth.Unexpected("issue token", err))
		return
	}

	s.metrics.RecordAuth("login", observability.OutcomeSuccess)
	observability.FromContext(ctx).WithField("user_id", userID.String()).Debug("login succeeded")
	httputil.WriteSuccess(w, TokenResponse{JWT: token})
}

func (s *Server) failAuth(w http.ResponseWriter, r *http.Request, operation string, err error) {
	s.metrics.RecordAuth(operation, outcomeFor(err))
	writeError(w, r, err)
}

// validateEmail accepts a bare RFC 5322 address
func validateEmail(email string) error {
	if email == "" {
		return auth.NewValidationError("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return auth.NewValidationError("email is not a valid address")
	}
	return nil
}

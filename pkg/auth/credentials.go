package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// dummyHash is verified when a username is unknown so that a lookup miss costs
// the same KDF run as a wrong password.
const dummyHash = "$argon2id$v=19$m=15000,t=2,p=1$gZiV/M1gPc22ElAH/Jh1Hw$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"

const tracerName = "github.com/platinummonkey/gvserver/pkg/auth"

// Credentials are a username/password pair taken from a request.
// They are consumed once and never persisted.
type Credentials struct {
	Username string
	Password string
	// Salt is only set when re-validating against a known stored salt
	Salt string
}

// String never includes the password
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %q}", c.Username)
}

// Validate checks that both username and password are present
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return NewValidationError("username is required")
	}
	if c.Password == "" {
		return NewValidationError("password is required")
	}
	return nil
}

// ParseBasicAuth extracts credentials from an "Authorization: Basic ..." header.
// Every malformation is reported as a ValidationError.
func ParseBasicAuth(header http.Header) (Credentials, error) {
	value := header.Get("Authorization")
	if value == "" {
		return Credentials{}, NewValidationError("the 'Authorization' header is missing")
	}
	if !utf8.ValidString(value) {
		return Credentials{}, NewValidationError("the 'Authorization' header is not a valid UTF-8 string")
	}

	encoded, ok := strings.CutPrefix(value, "Basic ")
	if !ok {
		return Credentials{}, NewValidationError("the authorization scheme is not 'Basic'")
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return Credentials{}, NewValidationError("failed to base64-decode 'Basic' credentials")
	}
	if !utf8.Valid(decoded) {
		return Credentials{}, NewValidationError("the decoded credential string is not valid UTF-8")
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return Credentials{}, NewValidationError("a password must be provided in 'Basic' auth")
	}

	return Credentials{Username: username, Password: password}, nil
}

// StoredCredentials is the persisted credential material for one user
type StoredCredentials struct {
	UserID       uuid.UUID
	Username     string
	PasswordHash string
	Salt         string
}

// CredentialStore looks up stored credentials by username.
// A nil record with a nil error means the username is unknown.
type CredentialStore interface {
	LookupCredentials(ctx context.Context, username string) (*StoredCredentials, error)
}

// CredentialValidator checks candidate credentials against the store
type CredentialValidator struct {
	store CredentialStore
	pool  *HashPool
}

// NewCredentialValidator creates a validator that runs every KDF on pool
func NewCredentialValidator(store CredentialStore, pool *HashPool) *CredentialValidator {
	return &CredentialValidator{
		store: store,
		pool:  pool,
	}
}

// Validate returns the stored user id when creds match.
//
// Unknown usernames and wrong passwords both return ErrInvalidCredentials, and
// both run a full Argon2id verification before returning. Storage and pool
// failures are returned as *UnexpectedError.
func (v *CredentialValidator) Validate(ctx context.Context, creds Credentials) (uuid.UUID, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "auth.ValidateCredentials")
	defer span.End()

	stored, err := v.store.LookupCredentials(ctx, creds.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "credential lookup failed")
		return uuid.Nil, Unexpected("lookup credentials", err)
	}

	expected := dummyHash
	if stored != nil {
		expected = stored.PasswordHash
	}

	ok, err := v.pool.Verify(ctx, creds.Password, expected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password verification failed")
		return uuid.Nil, Unexpected("verify password", err)
	}

	if stored == nil || !ok || (creds.Salt != "" && creds.Salt != stored.Salt) {
		span.SetAttributes(attribute.String("auth.outcome", "invalid_credentials"))
		return uuid.Nil, ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("auth.outcome", "success"))
	return stored.UserID, nil
}

// Package auth implements credential storage, bearer tokens and per-request
// permissions for the gvserver API.
//
// # Passwords
//
// Passwords are hashed with Argon2id (m=15000 KiB, t=2, p=1) and stored as PHC
// strings. Verification always uses the parameters embedded in the stored
// string, so hashes written under older defaults keep verifying.
//
//	salt, _ := auth.GenerateSalt()
//	hash, _ := auth.HashPassword(password, salt)
//	ok := auth.VerifyPassword(password, hash)
//
// The KDF is slow on purpose. Request paths run it through a HashPool, which
// bounds concurrency and keeps it off the request goroutine:
//
//	pool := auth.NewHashPool(cfg.Hashing.Workers, metrics.ObserveHash)
//	validator := auth.NewCredentialValidator(store, pool)
//	userID, err := validator.Validate(ctx, creds)
//
// An unknown username is verified against a fixed dummy hash, so both failure
// paths cost one full KDF run and both return ErrInvalidCredentials.
//
// # Tokens
//
// TokenService issues HS256 JWTs carrying only "sub" (username) and "exp"
// (now + 7 days). Validation failures of any kind collapse to ErrInvalidToken.
//
//	tokens, _ := auth.NewTokenService([]byte(cfg.Application.JWTSecret))
//	jwt, _ := tokens.Issue("alice")
//	perms, err := tokens.Validate(jwt)
//	perms, err = tokens.ValidateForUser(jwt, "alice")
//
// # Errors
//
//	*ValidationError        400, message is client-safe
//	ErrInvalidCredentials   401
//	ErrInvalidToken         401
//	ErrAuthorizationDenied  401
//	*UnexpectedError        500, cause logged server-side only
package auth

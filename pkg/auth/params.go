package auth

import (
	"net/http"
	"strings"
)

// AuthParameters holds the raw bearer token of one request
type AuthParameters struct {
	Token string
}

// Empty reports whether no token was presented
func (p AuthParameters) Empty() bool {
	return p.Token == ""
}

// ExtractAuthParameters reads the Authorization header. An optional Bearer
// scheme, matched case-insensitively, is stripped and the rest is trimmed.
// It never fails: a missing header gives an empty token and validation is
// left to the TokenService.
func ExtractAuthParameters(header http.Header) AuthParameters {
	value := strings.TrimSpace(header.Get("Authorization"))
	scheme, rest, found := strings.Cut(value, " ")
	if strings.EqualFold(scheme, bearerScheme) {
		if !found {
			return AuthParameters{}
		}
		value = rest
	}
	return AuthParameters{Token: strings.TrimSpace(value)}
}

const bearerScheme = "Bearer"

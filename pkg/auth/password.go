package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// HashParams are the Argon2id cost parameters used for new hashes.
type HashParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
}

// DefaultHashParams is used for every new password hash.
// Existing hashes are always verified with the parameters embedded in them.
var DefaultHashParams = HashParams{
	Memory:      15000,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   32,
}

const (
	saltLength = 16
	hashPrefix = "$argon2id$"
)

// errMalformedHash is never returned to callers of VerifyPassword; it only
// flows out of parseHash.
var errMalformedHash = errors.New("malformed argon2id hash")

// b64 is the unpadded standard alphabet used by the PHC string format
var b64 = base64.RawStdEncoding

// GenerateSalt returns a fresh random salt encoded as unpadded base64
func GenerateSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return b64.EncodeToString(buf), nil
}

// HashPassword derives an Argon2id hash of password with the given salt and
// returns it in PHC string format:
//
//	$argon2id$v=19$m=15000,t=2,p=1$<salt>$<digest>
func HashPassword(password, salt string) (string, error) {
	return hashWithParams(password, salt, DefaultHashParams)
}

func hashWithParams(password, salt string, p HashParams) (string, error) {
	rawSalt, err := b64.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("invalid salt encoding: %w", err)
	}
	if len(rawSalt) < 8 {
		return "", fmt.Errorf("salt too short: %d bytes", len(rawSalt))
	}
	if p.Iterations == 0 || p.Parallelism == 0 || p.KeyLength == 0 || p.Memory < 8*uint32(p.Parallelism) {
		return "", fmt.Errorf("invalid argon2 parameters: %+v", p)
	}

	key := argon2.IDKey([]byte(password), rawSalt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		hashPrefix, argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		b64.EncodeToString(rawSalt), b64.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches storedHash. A stored hash
// that cannot be parsed never matches.
func VerifyPassword(password, storedHash string) bool {
	p, salt, digest, err := parseHash(storedHash)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(candidate, digest) == 1
}

// parseHash splits a PHC string into its parameters, salt and digest.
func parseHash(encoded string) (HashParams, []byte, []byte, error) {
	var p HashParams
	if !strings.HasPrefix(encoded, hashPrefix) {
		return p, nil, nil, errMalformedHash
	}

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, digest
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return p, nil, nil, errMalformedHash
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return p, nil, nil, errMalformedHash
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return p, nil, nil, errMalformedHash
	}

	for _, kv := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return p, nil, nil, errMalformedHash
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return p, nil, nil, errMalformedHash
		}
		switch key {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return p, nil, nil, errMalformedHash
			}
			p.Parallelism = uint8(n)
		default:
			return p, nil, nil, errMalformedHash
		}
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 || p.Memory < 8*uint32(p.Parallelism) {
		return p, nil, nil, errMalformedHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformedHash
	}
	digest, err := b64.DecodeString(parts[5])
	if err != nil || len(digest) == 0 {
		return p, nil, nil, errMalformedHash
	}
	p.KeyLength = uint32(len(digest))

	return p, salt, digest, nil
}

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		salt, err := GenerateSalt()
		require.NoError(t, err)
		raw, err := b64.DecodeString(salt)
		require.NoError(t, err)
		assert.Len(t, raw, saltLength)
		assert.False(t, seen[salt], "duplicate salt %s", salt)
		seen[salt] = true
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	passwords := []string{"Sup3rSecret!", "", "pässwörd", strings.Repeat("x", 200)}

	for _, password := range passwords {
		salt, err := GenerateSalt()
		require.NoError(t, err)

		hash, err := HashPassword(password, salt)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=15000,t=2,p=1$"+salt+"$"), hash)
		assert.True(t, VerifyPassword(password, hash))
	}
}

func TestHashPassword_Rejection(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	hash, err := HashPassword("correct horse", salt)
	require.NoError(t, err)

	assert.False(t, VerifyPassword("correct horsE", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestHashPassword_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	first, err := HashPassword("alice", salt)
	require.NoError(t, err)
	second, err := HashPassword("alice", salt)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashPassword_InvalidSalt(t *testing.T) {
	_, err := HashPassword("pw", "not base64 !!")
	assert.Error(t, err)

	_, err = HashPassword("pw", "c2hvcnQ") // 5 bytes
	assert.Error(t, err)
}

func TestVerifyPassword_UsesEmbeddedParams(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	legacy := HashParams{Memory: 4096, Iterations: 1, Parallelism: 2, KeyLength: 16}
	hash, err := hashWithParams("legacy-password", salt, legacy)
	require.NoError(t, err)
	assert.Contains(t, hash, "$m=4096,t=1,p=2$")

	assert.True(t, VerifyPassword("legacy-password", hash))
	assert.False(t, VerifyPassword("other", hash))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"bcrypt", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{"argon2i", "$argon2i$v=19$m=15000,t=2,p=1$gZiV/M1gPc22ElAH/Jh1Hw$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"},
		{"missing segments", "$argon2id$v=19$m=15000,t=2,p=1$gZiV/M1gPc22ElAH/Jh1Hw"},
		{"bad version", "$argon2id$v=16$m=15000,t=2,p=1$gZiV/M1gPc22ElAH/Jh1Hw$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"},
		{"unknown param", "$argon2id$v=19$m=15000,t=2,x=1$gZiV/M1gPc22ElAH/Jh1Hw$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"},
		{"zero iterations", "$argon2id$v=19$m=15000,t=0,p=1$gZiV/M1gPc22ElAH/Jh1Hw$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"},
		{"bad salt", "$argon2id$v=19$m=15000,t=2,p=1$!!!$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"},
		{"empty digest", "$argon2id$v=19$m=15000,t=2,p=1$gZiV/M1gPc22ElAH/Jh1Hw$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyPassword("anything", tt.hash))
		})
	}
}

func TestDummyHash_IsWellFormed(t *testing.T) {
	p, salt, digest, err := parseHash(dummyHash)
	require.NoError(t, err)

	assert.Equal(t, DefaultHashParams.Memory, p.Memory)
	assert.Equal(t, DefaultHashParams.Iterations, p.Iterations)
	assert.Equal(t, DefaultHashParams.Parallelism, p.Parallelism)
	assert.Len(t, salt, 16)
	assert.Len(t, digest, 32)

	assert.False(t, VerifyPassword("definitely-not-the-password", dummyHash))
}

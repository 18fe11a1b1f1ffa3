package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestUserUpdate_Empty(t *testing.T) {
	assert.True(t, UserUpdate{}.Empty())
	assert.False(t, UserUpdate{Username: strPtr("bob")}.Empty())
	assert.False(t, UserUpdate{PasswordHash: strPtr("h"), Salt: strPtr("s")}.Empty())
	assert.False(t, UserUpdate{ContentsAttachment: []byte{}}.Empty())
}

func TestHasContents(t *testing.T) {
	assert.False(t, NewUser{Username: "a"}.HasContents())
	assert.True(t, NewUser{ContentsDescription: strPtr("")}.HasContents())
	assert.True(t, UserUpdate{ContentsAttachment: []byte{1}}.HasContents())
	assert.False(t, UserUpdate{Email: strPtr("a@b.c")}.HasContents())
}

func TestUserFilter_Empty(t *testing.T) {
	id := uuid.New()
	assert.True(t, UserFilter{}.Empty())
	assert.False(t, UserFilter{ID: &id}.Empty())
	assert.False(t, UserFilter{Email: "a@example.com"}.Empty())
}

package storage

import (
	"time"

	"github.com/google/uuid"
)

// Role ids seeded by the initial migration. Every signup gets RoleUser.
const (
	RoleAdmin = 1
	RoleUser  = 2
)

// User is a stored account joined with its role and optional contents
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	Salt         string
	RoleID       int
	RoleTitle    string

	ContentsDescription *string
	ContentsAttachment  []byte
}

// NewUser is the input to CreateUser. PasswordHash and Salt must already be computed.
type NewUser struct {
	Email        string
	Username     string
	PasswordHash string
	Salt         string

	ContentsDescription *string
	ContentsAttachment  []byte
}

// HasContents reports whether a contents row should be created
func (u NewUser) HasContents() bool {
	return u.ContentsDescription != nil || u.ContentsAttachment != nil
}

// UserUpdate holds optional changes; nil fields are left untouched.
// PasswordHash and Salt change together.
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Salt         *string

	ContentsDescription *string
	ContentsAttachment  []byte
}

// Empty reports whether the update changes nothing
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil &&
		u.ContentsDescription == nil && u.ContentsAttachment == nil
}

// HasContents reports whether the update touches the contents row
func (u UserUpdate) HasContents() bool {
	return u.ContentsDescription != nil || u.ContentsAttachment != nil
}

// UserFilter selects one user. The first non-empty field wins, in the order
// ID, Username, Email.
type UserFilter struct {
	ID       *uuid.UUID
	Username string
	Email    string
}

// Empty reports whether no lookup key is set
func (f UserFilter) Empty() bool {
	return f.ID == nil && f.Username == "" && f.Email == ""
}

// Pinpoint is a stored location with its contents and owner
type Pinpoint struct {
	ID          uuid.UUID
	Latitude    *float64
	Longitude   *float64
	AddedAt     time.Time
	ContentsID  uuid.UUID
	Description *string
	Attachment  []byte
	UserID      uuid.UUID
	Username    string
}

// NewPinpoint is the input to CreatePinpoint
type NewPinpoint struct {
	Latitude    float64
	Longitude   float64
	Description string
	Attachment  []byte
}

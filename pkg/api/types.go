package api

import (
	"github.com/google/uuid"

	"github.com/platinummonkey/gvserver/pkg/storage"
)

// SignupRequest is the body of POST /users. Username and password travel in
// the Basic Authorization header.
type SignupRequest struct {
	Email               string  `json:"email"`
	ContentsDescription *string `json:"contents_description"`
	ContentsAttachment  []byte  `json:"contents_attachment"`
}

// TokenResponse carries a freshly issued JWT
type TokenResponse struct {
	JWT string `json:"jwt"`
}

// StatusResponse acknowledges a write with no other result
type StatusResponse struct {
	Status string `json:"status"`
}

// UpdateUserRequest is the body of PUT /users/{user_id}; absent fields are unchanged
type UpdateUserRequest struct {
	Username            *string `json:"username"`
	Email               *string `json:"email"`
	Password            *string `json:"password"`
	ContentsDescription *string `json:"contents_description"`
	ContentsAttachment  []byte  `json:"contents_attachment"`
}

func (r UpdateUserRequest) empty() bool {
	return r.Username == nil && r.Email == nil && r.Password == nil &&
		r.ContentsDescription == nil && r.ContentsAttachment == nil
}

// DeleteUserRequest is the body of DELETE /users
type DeleteUserRequest struct {
	Username string `json:"username"`
}

// UserResponse is a user record. Fields the caller may not see are null.
type UserResponse struct {
	UniqueID            *uuid.UUID `json:"unique_id"`
	Email               *string    `json:"email"`
	Username            *string    `json:"username"`
	RoleID              *int       `json:"role_id"`
	RoleTitle           *string    `json:"role_title"`
	ContentsDescription *string    `json:"contents_description"`
	ContentsAttachment  []byte     `json:"contents_attachment"`
}

// CreatePinpointRequest is the body of POST /pinpoints
type CreatePinpointRequest struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Description string   `json:"description"`
	Attachment  []byte   `json:"attachment"`
	Username    string   `json:"username"`
}

// CreatePinpointResponse returns the new pinpoint's id
type CreatePinpointResponse struct {
	PinpointID uuid.UUID `json:"pinpoint_id"`
}

// PinpointResponse is one entry of GET /pinpoints. Entries owned by someone
// else have PinpointID, UserID, Username and Attachment set to null.
type PinpointResponse struct {
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Description *string    `json:"description"`
	AddedAt     int64      `json:"added_at"`
	Attachment  []byte     `json:"attachment"`
	PinpointID  *uuid.UUID `json:"pinpoint_id"`
	UserID      *uuid.UUID `json:"user_id"`
	Username    *string    `json:"username"`
}

// DeletePinpointsRequest is the body of DELETE /pinpoints; a nil PinpointID
// deletes all of the user's pinpoints
type DeletePinpointsRequest struct {
	Username   string     `json:"username"`
	PinpointID *uuid.UUID `json:"pinpoint_id"`
}

// DeletePinpointsResponse reports how many pinpoints were removed
type DeletePinpointsResponse struct {
	Deleted int64 `json:"deleted"`
}

// fullUser is the projection a user sees of their own record
func fullUser(u *storage.User) UserResponse {
	id := u.ID
	email := u.Email
	username := u.Username
	roleID := u.RoleID
	roleTitle := u.RoleTitle
	return UserResponse{
		UniqueID:            &id,
		Email:               &email,
		Username:            &username,
		RoleID:              &roleID,
		RoleTitle:           &roleTitle,
		ContentsDescription: u.ContentsDescription,
		ContentsAttachment:  u.ContentsAttachment,
	}
}

// redactedUser keeps only the key the caller looked the user up by
func redactedUser(u *storage.User, byEmail bool) UserResponse {
	if byEmail {
		email := u.Email
		return UserResponse{Email: &email}
	}
	username := u.Username
	return UserResponse{Username: &username}
}

// pinpointView projects p for a caller; censored drops everything that
// identifies the owner or the entry, and the attachment.
func pinpointView(p storage.Pinpoint, censored bool) PinpointResponse {
	view := PinpointResponse{
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Description: p.Description,
		AddedAt:     p.AddedAt.Unix(),
	}
	if censored {
		return view
	}

	id := p.ID
	userID := p.UserID
	username := p.Username
	view.Attachment = p.Attachment
	view.PinpointID = &id
	view.UserID = &userID
	view.Username = &username
	return view
}

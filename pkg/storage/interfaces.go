package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/platinummonkey/gvserver/pkg/auth"
)

// UserReader provides read operations for users
type UserReader interface {
	GetUser(ctx context.Context, filter UserFilter) (*User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// UserWriter provides write operations for users
type UserWriter interface {
	CreateUser(ctx context.Context, user NewUser) (uuid.UUID, error)
	UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate) error
	DeleteUser(ctx context.Context, username string) error
}

// PinpointReader provides read operations for pinpoints
type PinpointReader interface {
	ListPinpoints(ctx context.Context, username string) ([]Pinpoint, error)
}

// PinpointWriter provides write operations for pinpoints
type PinpointWriter interface {
	CreatePinpoint(ctx context.Context, username string, pinpoint NewPinpoint) (uuid.UUID, error)
	DeletePinpoints(ctx context.Context, username string, id *uuid.UUID) (int64, error)
}

// Storage is everything the API needs from a backend
type Storage interface {
	auth.CredentialStore
	UserReader
	UserWriter
	PinpointReader
	PinpointWriter
}

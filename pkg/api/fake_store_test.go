package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/storage"
)

// fakeStore is an in-memory storage.Storage
type fakeStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*storage.User
	pinpoints map[uuid.UUID]storage.Pinpoint
	failWith  error
}

var _ storage.Storage = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[uuid.UUID]*storage.User),
		pinpoints: make(map[uuid.UUID]storage.Pinpoint),
	}
}

func (f *fakeStore) byUsername(username string) *storage.User {
	for _, u := range f.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (f *fakeStore) LookupCredentials(ctx context.Context, username string) (*auth.StoredCredentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u := f.byUsername(username)
	if u == nil {
		return nil, nil
	}
	return &auth.StoredCredentials{UserID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, Salt: u.Salt}, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, nu storage.NewUser) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return uuid.Nil, f.failWith
	}
	for _, u := range f.users {
		if u.Username == nu.Username || u.Email == nu.Email {
			return uuid.Nil, storage.ErrAlreadyExists
		}
	}
	id := uuid.New()
	f.users[id] = &storage.User{
		ID: id, Email: nu.Email, Username: nu.Username,
		PasswordHash: nu.PasswordHash, Salt: nu.Salt,
		RoleID: storage.RoleUser, RoleTitle: "user",
		ContentsDescription: nu.ContentsDescription, ContentsAttachment: nu.ContentsAttachment,
	}
	return id, nil
}

func (f *fakeStore) GetUser(ctx context.Context, filter storage.UserFilter) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		switch {
		case filter.ID != nil && u.ID == *filter.ID,
			filter.ID == nil && filter.Username != "" && u.Username == filter.Username,
			filter.ID == nil && filter.Username == "" && filter.Email != "" && u.Email == filter.Email:
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byUsername(username) != nil, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, id uuid.UUID, update storage.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if update.Email != nil {
		for _, other := range f.users {
			if other.ID != id && other.Email == *update.Email {
				return storage.ErrAlreadyExists
			}
		}
		u.Email = *update.Email
	}
	if update.Username != nil {
		old := u.Username
		u.Username = *update.Username
		for pid, p := range f.pinpoints {
			if p.Username == old {
				p.Username = u.Username
				f.pinpoints[pid] = p
			}
		}
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
		u.Salt = *update.Salt
	}
	if update.ContentsDescription != nil {
		u.ContentsDescription = update.ContentsDescription
	}
	if update.ContentsAttachment != nil {
		u.ContentsAttachment = update.ContentsAttachment
	}
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byUsername(username)
	if u == nil {
		return storage.ErrNotFound
	}
	for id, p := range f.pinpoints {
		if p.UserID == u.ID {
			delete(f.pinpoints, id)
		}
	}
	delete(f.users, u.ID)
	return nil
}

func (f *fakeStore) CreatePinpoint(ctx context.Context, username string, np storage.NewPinpoint) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byUsername(username)
	if u == nil {
		return uuid.Nil, storage.ErrNotFound
	}
	lat, lng, desc := np.Latitude, np.Longitude, np.Description
	id := uuid.New()
	f.pinpoints[id] = storage.Pinpoint{
		ID: id, Latitude: &lat, Longitude: &lng, AddedAt: time.Now(),
		ContentsID: uuid.New(), Description: &desc, Attachment: np.Attachment,
		UserID: u.ID, Username: u.Username,
	}
	return id, nil
}

func (f *fakeStore) ListPinpoints(ctx context.Context, username string) ([]storage.Pinpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []storage.Pinpoint
	for _, p := range f.pinpoints {
		if username == "" || p.Username == username {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

func (f *fakeStore) DeletePinpoints(ctx context.Context, username string, id *uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for pid, p := range f.pinpoints {
		if p.Username == username && (id == nil || pid == *id) {
			delete(f.pinpoints, pid)
			n++
		}
	}
	return n, nil
}

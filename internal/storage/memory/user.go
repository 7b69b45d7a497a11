package memory

import (
	"context"
	"strings"

	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
)

func (s *Store) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u *model.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userTakenLocked("", u.Username, u.Email) {
		return "", storage.ErrConflict
	}

	stored := cloneUser(u)
	stored.ID = s.ids.NewID()
	s.users[stored.ID] = stored
	return stored.ID, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, patch model.UserPatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	next := cloneUser(u)
	if patch.Username != nil {
		next.Username = *patch.Username
	}
	if patch.Email != nil {
		next.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		next.PasswordHash = *patch.PasswordHash
	}
	if s.userTakenLocked(id, next.Username, next.Email) {
		return nil, storage.ErrConflict
	}

	s.users[id] = next
	return cloneUser(next), nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// userTakenLocked reports whether another user already has the username or
// email. Caller holds s.mu.
func (s *Store) userTakenLocked(selfID, username, email string) bool {
	for id, other := range s.users {
		if id == selfID {
			continue
		}
		if other.Username == username || strings.EqualFold(other.Email, email) {
			return true
		}
	}
	return false
}

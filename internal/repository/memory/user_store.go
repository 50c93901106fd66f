// Package memory provides in-memory repository implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"composekit/internal/repository"
)

// UserStore is an in-memory implementation of repository.UserRepository.
// Safe for concurrent use.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]repository.UserRecord
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[string]repository.UserRecord),
	}
}

// Insert saves a new user record.
func (s *UserStore) Insert(ctx context.Context, record repository.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[record.ID]; exists {
		return repository.ErrAlreadyExists
	}
	s.users[record.ID] = record
	return nil
}

// FindByID retrieves a user record by ID.
func (s *UserStore) FindByID(ctx context.Context, id string) (repository.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.users[id]
	if !exists {
		return repository.UserRecord{}, repository.ErrNotFound
	}
	return record, nil
}

// FindByEmail retrieves a user record by email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (repository.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.users {
		if record.Email == email {
			return record, nil
		}
	}
	return repository.UserRecord{}, repository.ErrNotFound
}

// Delete removes a user record.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// List returns all user records ordered by creation time, then ID for
// records created in the same instant.
func (s *UserStore) List(ctx context.Context) ([]repository.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]repository.UserRecord, 0, len(s.users))
	for _, record := range s.users {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

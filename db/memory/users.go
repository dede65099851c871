package memory

import (
	"context"
	"fmt"
	"strings"

	"procurement/db"
	"procurement/models"
)

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: users_email_key", db.ErrDuplicate)
		}
	}
	u.ID = s.nextID()
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range sortedValues(s.users) {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpdateUserProfile(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[u.ID]
	if !ok {
		return db.ErrNotFound
	}
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.Company = u.Company
	stored.Phone = u.Phone
	stored.UpdatedAt = s.now()
	s.users[u.ID] = stored
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	stored.PasswordHash = hash
	stored.UpdatedAt = s.now()
	s.users[id] = stored
	return nil
}

// publicUser returns a copy without the password hash.
func (s *Store) publicUser(id int64) *models.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.PasswordHash = ""
	return &u
}

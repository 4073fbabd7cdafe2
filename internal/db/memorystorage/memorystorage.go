// Package memorystorage is a process-local storage backend. Records live
// in an ordered slice guarded by a mutex and are lost on restart.
package memorystorage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/models"
)

// MemoryStorage keeps users in ascending id order. The next-id counter is
// monotonic for the lifetime of the instance, so ids are never reused
// after a delete.
type MemoryStorage struct {
	mu         sync.RWMutex
	users      []models.User
	nextUserID int
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users:      []models.User{},
		nextUserID: 1,
	}, nil
}

// CreateUser appends a new record with the next free id. Email uniqueness
// is enforced under the write lock, so two concurrent creates with the
// same email cannot both succeed.
func (s *MemoryStorage) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEmailLocked(email) != nil {
		return nil, storage.ErrUniqueViolation
	}

	usr := models.User{
		ID:        s.nextUserID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	s.nextUserID++
	s.users = append(s.users, usr)

	return &usr, nil
}

// FindAllUsers returns a copy of the records. Insertion order is id order
// because ids grow monotonically and updates happen in place.
func (s *MemoryStorage) FindAllUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.User, len(s.users))
	copy(result, s.users)

	return result, nil
}

func (s *MemoryStorage) FindUserByID(ctx context.Context, id int) (*models.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.findIndexLocked(id)
	if index == -1 {
		return nil, false, nil
	}

	usr := s.users[index]

	return &usr, true, nil
}

func (s *MemoryStorage) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.findByEmailLocked(email)
	if found == nil {
		return nil, false, nil
	}

	usr := *found

	return &usr, true, nil
}

func (s *MemoryStorage) UpdateUser(ctx context.Context, id int, name, email string) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.findIndexLocked(id)
	if index == -1 {
		return nil, false, nil
	}

	if holder := s.findByEmailLocked(email); holder != nil && holder.ID != id {
		return nil, false, storage.ErrUniqueViolation
	}

	s.users[index].Name = name
	s.users[index].Email = email

	usr := s.users[index]

	return &usr, true, nil
}

func (s *MemoryStorage) DeleteUser(ctx context.Context, id int) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.findIndexLocked(id)
	if index == -1 {
		return nil, false, nil
	}

	usr := s.users[index]
	s.users = append(s.users[:index], s.users[index+1:]...)

	return &usr, true, nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) findIndexLocked(id int) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}

	return -1
}

func (s *MemoryStorage) findByEmailLocked(email string) *models.User {
	found := funk.Find(s.users, func(usr models.User) bool {
		return strings.EqualFold(usr.Email, email)
	})
	if found == nil {
		return nil
	}

	usr := found.(models.User)

	return &usr
}

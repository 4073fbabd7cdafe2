// Package service holds the backend-agnostic user business logic:
// the duplicate-email rule and not-found shaping. It owns no state beyond
// the storage handle it is constructed with.
package service

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/models"
)

// ErrEmailAlreadyExists is returned when another user already holds the
// requested email, as judged by the active backend's comparison rule.
var ErrEmailAlreadyExists = errors.New("email already exists")

// ErrUserNotFound is returned when the referenced user id does not exist.
var ErrUserNotFound = errors.New("user not found")

type userKeeper interface {
	CreateUser(ctx context.Context, name, email string) (*models.User, error)

	FindAllUsers(ctx context.Context) ([]models.User, error)

	FindUserByID(ctx context.Context, id int) (*models.User, bool, error)

	FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error)

	UpdateUser(ctx context.Context, id int, name, email string) (*models.User, bool, error)

	DeleteUser(ctx context.Context, id int) (*models.User, bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type userStorage interface {
	userKeeper
	pinger
}

// Service implements user operations on top of any storage backend.
type Service struct {
	db userStorage
}

func New(db userStorage) *Service {
	return &Service{db: db}
}

// CreateUser rejects the request when the email is already taken, then
// delegates to the backend. The check-then-create pair is not atomic, so a
// racing create that slips past the check is still stopped by the
// backend's uniqueness backstop and reported the same way.
func (s *Service) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	_, found, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, ErrEmailAlreadyExists
	}

	usr, err := s.db.CreateUser(ctx, name, email)
	if err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	return usr, nil
}

func (s *Service) GetUser(ctx context.Context, id int) (*models.User, error) {
	usr, found, err := s.db.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	return usr, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.db.FindAllUsers(ctx)
}

// UpdateUser replaces name and email of an existing user. A user keeping
// its own email is not a duplicate against itself; only a different holder
// of the email fails the check.
func (s *Service) UpdateUser(ctx context.Context, id int, name, email string) (*models.User, error) {
	holder, found, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if found && holder.ID != id {
		return nil, ErrEmailAlreadyExists
	}

	usr, found, err := s.db.UpdateUser(ctx, id, name, email)
	if err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	return usr, nil
}

// DeleteUser removes the user and returns the pre-delete snapshot.
func (s *Service) DeleteUser(ctx context.Context, id int) (*models.User, error) {
	usr, found, err := s.db.DeleteUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	return usr, nil
}

// Ping checks the health of the storage backend.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

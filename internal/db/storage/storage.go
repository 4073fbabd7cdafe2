// Package storage declares the contract every persistence backend of the
// user service must satisfy, together with the sentinel errors backends
// report. Lookups signal absence with a found flag rather than an error.
package storage

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/usersvc/internal/models"
)

// ErrUniqueViolation is returned by CreateUser and UpdateUser when the
// backend's email uniqueness backstop rejects the write.
var ErrUniqueViolation = errors.New("email unique constraint violation")

// ErrUnavailable is returned when the underlying storage cannot be reached.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is the persistence backend contract for user records.
//
// Both implementations assign ids monotonically and never reuse them,
// list users in ascending id order, and compare emails
// case-insensitively.
type Storage interface {
	CreateUser(ctx context.Context, name, email string) (*models.User, error)

	FindAllUsers(ctx context.Context) ([]models.User, error)

	FindUserByID(ctx context.Context, id int) (*models.User, bool, error)

	FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error)

	// UpdateUser replaces name and email of the user with the given id,
	// preserving id and created_at. The flag is false when no such user exists.
	UpdateUser(ctx context.Context, id int, name, email string) (*models.User, bool, error)

	// DeleteUser removes the user and returns the record as it existed
	// immediately before removal.
	DeleteUser(ctx context.Context, id int) (*models.User, bool, error)

	Ping(ctx context.Context) error

	Close() error
}

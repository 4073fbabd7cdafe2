package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/usersvc/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/mockstorage"
)

func newServiceOverMemory(t *testing.T) *Service {
	t.Helper()
	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	return New(theStorage)
}

func TestCreateUser(t *testing.T) {
	theService := newServiceOverMemory(t)

	ann, err := theService.CreateUser(context.Background(), "Ann", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, ann.ID)

	bob, err := theService.CreateUser(context.Background(), "Bob", "bob@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, ann.ID, bob.ID, "every created user should get a distinct id")

	_, err = theService.CreateUser(context.Background(), "Another Ann", "ann@x.com")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	users, err := theService.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2, "a rejected duplicate should not add a record")
}

func TestGetUser(t *testing.T) {
	theService := newServiceOverMemory(t)

	created, err := theService.CreateUser(context.Background(), "Ann", "ann@x.com")
	require.NoError(t, err)

	fetched, err := theService.GetUser(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	_, err = theService.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	theService := newServiceOverMemory(t)

	ann, err := theService.CreateUser(context.Background(), "Ann", "ann@x.com")
	require.NoError(t, err)
	bob, err := theService.CreateUser(context.Background(), "Bob", "bob@x.com")
	require.NoError(t, err)

	updated, err := theService.UpdateUser(context.Background(), ann.ID, "Anna", "anna@x.com")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, updated.ID)
	assert.Equal(t, "Anna", updated.Name)
	assert.Equal(t, "anna@x.com", updated.Email)
	assert.Equal(t, ann.CreatedAt, updated.CreatedAt)

	// updating without changing the email is not a duplicate against itself
	_, err = theService.UpdateUser(context.Background(), ann.ID, "Anna Maria", "anna@x.com")
	require.NoError(t, err)

	_, err = theService.UpdateUser(context.Background(), bob.ID, "Bob", "anna@x.com")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	unchanged, err := theService.GetUser(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", unchanged.Email, "a failed update should leave the user unmodified")

	_, err = theService.UpdateUser(context.Background(), 42, "Nobody", "nobody@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	theService := newServiceOverMemory(t)

	ann, err := theService.CreateUser(context.Background(), "Ann", "ann@x.com")
	require.NoError(t, err)

	removed, err := theService.DeleteUser(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann, removed, "delete should return the pre-delete snapshot")

	_, err = theService.GetUser(context.Background(), ann.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	users, err := theService.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = theService.DeleteUser(context.Background(), ann.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateUserMapsBackstopViolation(t *testing.T) {
	// a racing create slips past the pre-check; the backend backstop still
	// rejects it and the caller sees the duplicate-email error
	theStorage := &mockstorage.StorageMock{}
	theStorage.On("FindUserByEmail", mock.Anything, "ann@x.com").Return(nil, false, nil)
	theStorage.On("CreateUser", mock.Anything, "Ann", "ann@x.com").
		Return(nil, storage.ErrUniqueViolation)

	theService := New(theStorage)

	_, err := theService.CreateUser(context.Background(), "Ann", "ann@x.com")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	theStorage.AssertExpectations(t)
}

func TestUpdateUserMapsBackstopViolation(t *testing.T) {
	theStorage := &mockstorage.StorageMock{}
	theStorage.On("FindUserByEmail", mock.Anything, "ann@x.com").Return(nil, false, nil)
	theStorage.On("UpdateUser", mock.Anything, 2, "Bob", "ann@x.com").
		Return(nil, false, storage.ErrUniqueViolation)

	theService := New(theStorage)

	_, err := theService.UpdateUser(context.Background(), 2, "Bob", "ann@x.com")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestStorageErrorsPropagate(t *testing.T) {
	theStorage := &mockstorage.StorageMock{}
	theStorage.On("FindUserByEmail", mock.Anything, "ann@x.com").
		Return(nil, false, storage.ErrUnavailable)
	theStorage.On("FindAllUsers", mock.Anything).
		Return(nil, storage.ErrUnavailable)

	theService := New(theStorage)

	_, err := theService.CreateUser(context.Background(), "Ann", "ann@x.com")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.False(t, errors.Is(err, ErrEmailAlreadyExists))

	_, err = theService.ListUsers(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestPing(t *testing.T) {
	theStorage := &mockstorage.StorageMock{}
	theStorage.On("Ping", mock.Anything).Return(nil)

	require.NoError(t, New(theStorage).Ping(context.Background()))
}

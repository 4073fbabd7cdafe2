// Package mockstorage provides a testify-based mock of the user storage
// contract. It is used to simulate backend failures in service and router
// tests.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/usersvc/internal/models"
)

// StorageMock implements the full storage contract via testify's mock.
type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) CreateUser(ctx context.Context, name, email string) (*models.User, error) {
	args := m.Called(ctx, name, email)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Error(1)
}

func (m *StorageMock) FindAllUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *StorageMock) FindUserByID(ctx context.Context, id int) (*models.User, bool, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) UpdateUser(ctx context.Context, id int, name, email string) (*models.User, bool, error) {
	args := m.Called(ctx, id, name, email)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) DeleteUser(ctx context.Context, id int) (*models.User, bool, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
)

func Test(t *testing.T) {
	t.Run("The base memorystorage package test", func(t *testing.T) {
		theStorage, err := New()
		require.NoError(t, err)
		require.NotNil(t, theStorage)
		defer func() {
			err := theStorage.Close()
			require.NoError(t, err)
		}()

		ann, err := theStorage.CreateUser(context.Background(), "Ann", "ann@x.com")
		require.NoError(t, err)
		assert.Equal(t, 1, ann.ID, "the first user should get id 1")
		assert.Equal(t, "Ann", ann.Name)
		assert.Equal(t, "ann@x.com", ann.Email)
		assert.False(t, ann.CreatedAt.IsZero(), "created_at should be set on creation")

		bob, err := theStorage.CreateUser(context.Background(), "Bob", "bob@x.com")
		require.NoError(t, err)
		assert.Equal(t, 2, bob.ID, "ids should be assigned monotonically")

		_, err = theStorage.CreateUser(context.Background(), "Ann again", "ANN@X.COM")
		assert.ErrorIs(
			t,
			err,
			storage.ErrUniqueViolation,
			"emails should be compared case-insensitively",
		)

		found, exists, err := theStorage.FindUserByEmail(context.Background(), "Ann@X.com")
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, ann.ID, found.ID)

		_, exists, err = theStorage.FindUserByEmail(context.Background(), "nobody@x.com")
		require.NoError(t, err)
		assert.False(t, exists)

		found, exists, err = theStorage.FindUserByID(context.Background(), ann.ID)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, ann, found)

		_, exists, err = theStorage.FindUserByID(context.Background(), 10)
		require.NoError(t, err)
		assert.False(t, exists)

		err = theStorage.Ping(context.Background())
		assert.NoError(t, err, "the memorystorage Ping() should not return error")
	})

	t.Run("Update preserves id and created_at", func(t *testing.T) {
		theStorage, err := New()
		require.NoError(t, err)

		ann, err := theStorage.CreateUser(context.Background(), "Ann", "ann@x.com")
		require.NoError(t, err)

		updated, exists, err := theStorage.UpdateUser(context.Background(), ann.ID, "Anna", "anna@x.com")
		require.NoError(t, err)
		require.True(t, exists)
		assert.Equal(t, ann.ID, updated.ID)
		assert.Equal(t, "Anna", updated.Name)
		assert.Equal(t, "anna@x.com", updated.Email)
		assert.Equal(t, ann.CreatedAt, updated.CreatedAt)

		// keeping the own email is not a collision
		_, exists, err = theStorage.UpdateUser(context.Background(), ann.ID, "Anna", "ANNA@x.com")
		require.NoError(t, err)
		assert.True(t, exists)

		bob, err := theStorage.CreateUser(context.Background(), "Bob", "bob@x.com")
		require.NoError(t, err)

		_, _, err = theStorage.UpdateUser(context.Background(), bob.ID, "Bob", "anna@x.com")
		assert.ErrorIs(t, err, storage.ErrUniqueViolation)

		_, exists, err = theStorage.UpdateUser(context.Background(), 42, "Nobody", "nobody@x.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Delete returns the pre-delete snapshot and never reuses ids", func(t *testing.T) {
		theStorage, err := New()
		require.NoError(t, err)

		ann, err := theStorage.CreateUser(context.Background(), "Ann", "ann@x.com")
		require.NoError(t, err)

		removed, exists, err := theStorage.DeleteUser(context.Background(), ann.ID)
		require.NoError(t, err)
		require.True(t, exists)
		assert.Equal(t, ann, removed)

		_, exists, err = theStorage.FindUserByID(context.Background(), ann.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		users, err := theStorage.FindAllUsers(context.Background())
		require.NoError(t, err)
		assert.Empty(t, users)

		_, exists, err = theStorage.DeleteUser(context.Background(), ann.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		next, err := theStorage.CreateUser(context.Background(), "Bob", "bob@x.com")
		require.NoError(t, err)
		assert.Equal(t, 2, next.ID, "a deleted id should not be reassigned")
	})

	t.Run("FindAllUsers keeps ascending id order", func(t *testing.T) {
		theStorage, err := New()
		require.NoError(t, err)

		for _, usr := range []struct{ name, email string }{
			{"Ann", "ann@x.com"},
			{"Bob", "bob@x.com"},
			{"Cid", "cid@x.com"},
		} {
			_, err := theStorage.CreateUser(context.Background(), usr.name, usr.email)
			require.NoError(t, err)
		}

		_, exists, err := theStorage.UpdateUser(context.Background(), 1, "Anna", "anna@x.com")
		require.NoError(t, err)
		require.True(t, exists)

		users, err := theStorage.FindAllUsers(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 3)
		for i, usr := range users {
			assert.Equal(t, i+1, usr.ID, "users should be ordered by ascending id")
		}
	})
}

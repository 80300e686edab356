package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/storage"
	"github.com/hongminglow/squeak-be/internal/storage/storagetest"
)

func seedUser(t *testing.T, s *Store, username, email string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{
		Name: username, Username: username, Email: email, Password: "hash",
	})
	require.NoError(t, err)
	return u
}

func TestStore_UserUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	first := seedUser(t, s, "jondoe1", "jon@some.where")

	_, err := s.CreateUser(ctx, models.User{Username: "jondoe1", Email: "x@some.where"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	_, err = s.CreateUser(ctx, models.User{Username: "x", Email: "jon@some.where"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	second := seedUser(t, s, "janedoe", "jane@some.where")
	_, err = s.UpdateUser(ctx, second.ID, models.UserUpdate{Username: &first.Username})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	// Updating to your own current values is not a conflict.
	same := "janedoe"
	_, err = s.UpdateUser(ctx, second.ID, models.UserUpdate{Username: &same})
	assert.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestStore_NotFound(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.FindUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindUserByID(ctx, "0b9f3f6e-8d5a-4a55-9f59-3a4ad8f0c6a1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindUserByEmail(ctx, "nobody@some.where")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindPostByID(ctx, "1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, "missing"), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeletePost(ctx, "missing"), storage.ErrNotFound)
	_, err = s.UpdateUser(ctx, "missing", models.UserUpdate{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_PostCascadeAndRename(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, owner := range []string{"jondoe1", "janedoe", "jondoe1"} {
		_, err := s.CreatePost(ctx, models.Post{Description: "hi", Username: owner})
		require.NoError(t, err)
	}

	n, err := s.RenamePostsOwner(ctx, "janedoe", "jane")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeletePostsByUsername(ctx, "jondoe1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := s.CountPostsByUsername(ctx, "jondoe1")
	require.NoError(t, err)
	assert.Zero(t, count)

	left, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "jane", left[0].Username)

	empty, err := s.ListPostsByUsername(ctx, "jondoe1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, NewStore())
}

// Package storagetest holds the behavioural contract every storage.Store
// backend must satisfy. Backend test files call Run against a live store.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/storage"
)

// Run exercises store. Records are namespaced by a per-run prefix and removed
// afterwards, so it is safe against a shared database.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	prefix := fmt.Sprintf("st%d", time.Now().UnixNano())

	t.Run("users", func(t *testing.T) { testUsers(t, store, prefix) })
	t.Run("posts", func(t *testing.T) { testPosts(t, store, prefix) })
}

func testUsers(t *testing.T, store storage.Store, prefix string) {
	ctx := context.Background()
	username := prefix + "_jon"
	email := prefix + "_jon@some.where"

	created, err := store.CreateUser(ctx, models.User{
		Name:     "Jon Doe",
		Username: username,
		Email:    email,
		Password: "hashed",
		Phone:    "713",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteUser(context.Background(), created.ID) })

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = store.CreateUser(ctx, models.User{Name: "x", Username: username, Email: prefix + "_other@some.where", Password: "h"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists, "duplicate username")
	_, err = store.CreateUser(ctx, models.User{Name: "x", Username: prefix + "_other", Email: email, Password: "h"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists, "duplicate email")

	byID, err := store.FindUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, username, byID.Username)
	assert.Equal(t, "hashed", byID.Password)

	byName, err := store.FindUserByUsername(ctx, username)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := store.FindUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	all, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Contains(t, userIDs(all), created.ID)

	phone := "555"
	updated, err := store.UpdateUser(ctx, created.ID, models.UserUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555", updated.Phone)
	assert.Equal(t, "Jon Doe", updated.Name, "absent fields are kept")
	assert.Equal(t, email, updated.Email)

	other, err := store.CreateUser(ctx, models.User{Name: "Jane", Username: prefix + "_jane", Email: prefix + "_jane@some.where", Password: "h"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteUser(context.Background(), other.ID) })
	_, err = store.UpdateUser(ctx, other.ID, models.UserUpdate{Username: &username})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	for _, id := range []string{"", "not-an-id", "123abc"} {
		_, err = store.FindUserByID(ctx, id)
		assert.ErrorIs(t, err, storage.ErrNotFound, "id %q", id)
	}
	_, err = store.FindUserByEmail(ctx, prefix+"_nobody@some.where")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.DeleteUser(ctx, created.ID))
	_, err = store.FindUserByID(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.DeleteUser(ctx, created.ID), storage.ErrNotFound)
}

func testPosts(t *testing.T, store storage.Store, prefix string) {
	ctx := context.Background()
	owner := prefix + "_poster"
	t.Cleanup(func() {
		_, _ = store.DeletePostsByUsername(context.Background(), owner)
		_, _ = store.DeletePostsByUsername(context.Background(), owner+"_renamed")
		_, _ = store.DeletePostsByUsername(context.Background(), prefix+"_bystander")
	})

	first, err := store.CreatePost(ctx, models.Post{Title: "t", Description: "first", Username: owner})
	require.NoError(t, err)
	_, err = store.CreatePost(ctx, models.Post{Description: "second", Username: owner})
	require.NoError(t, err)
	bystander, err := store.CreatePost(ctx, models.Post{Description: "not yours", Username: prefix + "_bystander"})
	require.NoError(t, err)

	got, err := store.FindPostByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "first", got.Description)
	assert.Equal(t, owner, got.Username)

	mine, err := store.ListPostsByUsername(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "first", mine[0].Description)
	assert.Equal(t, "second", mine[1].Description)

	none, err := store.ListPostsByUsername(ctx, prefix+"_nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	n, err := store.RenamePostsOwner(ctx, owner, owner+"_renamed")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	count, err := store.CountPostsByUsername(ctx, owner+"_renamed")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	n, err = store.DeletePostsByUsername(ctx, owner+"_renamed")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	count, err = store.CountPostsByUsername(ctx, owner+"_renamed")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = store.FindPostByID(ctx, bystander.ID)
	assert.NoError(t, err, "cascade only touches the named user")

	require.NoError(t, store.DeletePost(ctx, bystander.ID))
	assert.ErrorIs(t, store.DeletePost(ctx, bystander.ID), storage.ErrNotFound)
	_, err = store.FindPostByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func userIDs(users []models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/squeak-be/internal/models"
)

// ErrNotFound indicates a record does not exist. Ids that are malformed for
// the backend also report ErrNotFound.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations for accounts. Username and email
// are unique; the store is the only arbiter of that.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// PostStore captures persistence operations for posts.
type PostStore interface {
	CreatePost(ctx context.Context, post models.Post) (models.Post, error)
	FindPostByID(ctx context.Context, id string) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByUsername(ctx context.Context, username string) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error
	DeletePostsByUsername(ctx context.Context, username string) (int64, error)
	CountPostsByUsername(ctx context.Context, username string) (int64, error)
	RenamePostsOwner(ctx context.Context, from, to string) (int64, error)
}

// Store is a backend that persists both users and posts.
type Store interface {
	UserStore
	PostStore
	Close(ctx context.Context) error
}

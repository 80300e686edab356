// Package memory is an in-process storage backend used for local runs and
// tests. It enforces the same uniqueness and not-found contract as the
// database backends.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and posts in maps guarded by one RWMutex.
type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	userOrder []string
	posts     map[string]models.Post
	postOrder []string
	now       func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]models.User),
		posts: make(map[string]models.Post),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// CreateUser assigns a UUID and timestamps; a taken username or email is ErrAlreadyExists.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taken("", user.Username, user.Email) {
		return models.User{}, storage.ErrAlreadyExists
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = user
	s.userOrder = append(s.userOrder, user.ID)
	return user, nil
}

// FindUserByID treats a non-UUID id as ErrNotFound.
func (s *Store) FindUserByID(_ context.Context, id string) (models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, storage.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// FindUserByUsername returns the user with username or ErrNotFound.
func (s *Store) FindUserByUsername(_ context.Context, username string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

// FindUserByEmail returns the user with email or ErrNotFound.
func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

// ListUsers returns users in creation order.
func (s *Store) ListUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return out, nil
}

// UpdateUser applies the non-nil fields of update.
func (s *Store) UpdateUser(_ context.Context, id string, update models.UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	username, email := user.Username, user.Email
	if update.Username != nil {
		username = *update.Username
	}
	if update.Email != nil {
		email = *update.Email
	}
	if s.taken(id, username, email) {
		return models.User{}, storage.ErrAlreadyExists
	}

	apply(&user.Name, update.Name)
	apply(&user.Username, update.Username)
	apply(&user.Email, update.Email)
	apply(&user.Password, update.Password)
	apply(&user.Phone, update.Phone)
	apply(&user.ProfilePic, update.ProfilePic)
	user.UpdatedAt = s.now()
	s.users[id] = user
	return user, nil
}

// DeleteUser removes the user or returns ErrNotFound.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	s.userOrder = without(s.userOrder, id)
	return nil
}

// CreatePost assigns a UUID and timestamps.
func (s *Store) CreatePost(_ context.Context, post models.Post) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	post.ID = uuid.NewString()
	post.CreatedAt = now
	post.UpdatedAt = now
	s.posts[post.ID] = post
	s.postOrder = append(s.postOrder, post.ID)
	return post, nil
}

// FindPostByID treats a non-UUID id as ErrNotFound.
func (s *Store) FindPostByID(_ context.Context, id string) (models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Post{}, storage.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, storage.ErrNotFound
	}
	return post, nil
}

// ListPosts returns posts in creation order.
func (s *Store) ListPosts(context.Context) ([]models.Post, error) {
	return s.filterPosts(func(models.Post) bool { return true }), nil
}

// ListPostsByUsername returns an empty slice when nothing matches.
func (s *Store) ListPostsByUsername(_ context.Context, username string) ([]models.Post, error) {
	return s.filterPosts(func(p models.Post) bool { return p.Username == username }), nil
}

// DeletePost removes the post or returns ErrNotFound.
func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.posts, id)
	s.postOrder = without(s.postOrder, id)
	return nil
}

// DeletePostsByUsername removes every post by username and returns the count.
func (s *Store) DeletePostsByUsername(_ context.Context, username string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	kept := s.postOrder[:0]
	for _, id := range s.postOrder {
		if s.posts[id].Username == username {
			delete(s.posts, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	s.postOrder = kept
	return n, nil
}

// CountPostsByUsername counts posts by username.
func (s *Store) CountPostsByUsername(_ context.Context, username string) (int64, error) {
	return int64(len(s.filterPosts(func(p models.Post) bool { return p.Username == username }))), nil
}

// RenamePostsOwner moves posts from one username to another.
func (s *Store) RenamePostsOwner(_ context.Context, from, to string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := s.now()
	for id, post := range s.posts {
		if post.Username == from {
			post.Username = to
			post.UpdatedAt = now
			s.posts[id] = post
			n++
		}
	}
	return n, nil
}

// taken reports whether another user (not skipID) holds username or email.
// Callers hold the lock.
func (s *Store) taken(skipID, username, email string) bool {
	for id, u := range s.users {
		if id == skipID {
			continue
		}
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) findUser(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.userOrder {
		if u := s.users[id]; match(u) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) filterPosts(match func(models.Post) bool) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Post{}
	for _, id := range s.postOrder {
		if p := s.posts[id]; match(p) {
			out = append(out, p)
		}
	}
	return out
}

func apply(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/squeak-be/internal/auth"
	"github.com/hongminglow/squeak-be/internal/cache"
	"github.com/hongminglow/squeak-be/internal/metrics"
	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/storage"
)

// maxCascadeAttempts bounds how many times DeleteUser re-runs the post
// cascade before giving up on a user whose posts keep reappearing.
const maxCascadeAttempts = 3

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
}

// Tokens issues and verifies session tokens.
type Tokens interface {
	Generate(user models.User) (string, time.Time, error)
	Parse(token string) (*auth.Claims, error)
}

// AccountService orchestrates registration, login, and self-service user
// mutation, including the post cascade on delete.
type AccountService struct {
	users  storage.UserStore
	posts  storage.PostStore
	hasher Hasher
	tokens Tokens
	cache  cache.UserCache
	log    logrus.FieldLogger
}

// NewAccountService wires the service. A nil userCache disables caching.
func NewAccountService(users storage.UserStore, posts storage.PostStore, hasher Hasher, tokens Tokens, userCache cache.UserCache, log logrus.FieldLogger) *AccountService {
	if users == nil || posts == nil {
		panic("AccountService requires user and post stores")
	}
	if userCache == nil {
		userCache = cache.Nop{}
	}
	return &AccountService{
		users:  users,
		posts:  posts,
		hasher: hasher,
		tokens: tokens,
		cache:  userCache,
		log:    log,
	}
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Phone    string
}

// LoginResult is the session artifact returned by Login.
type LoginResult struct {
	User      models.PublicUser
	Token     string
	ExpiresAt time.Time
}

// DeleteResult reports what a user deletion removed.
type DeleteResult struct {
	PostsDeleted int64
}

// Register hashes the password and creates the account. A duplicate
// username or email is a conflict and is not retried.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (user models.PublicUser, err error) {
	defer func() { metrics.RecordEvent(metrics.EventRegister, err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	logCtx := s.log.WithFields(logrus.Fields{"username": in.Username, "email": in.Email})

	if in.Name == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return models.PublicUser{}, newError(KindInvalid, "name, username, email, and password are required", nil)
	}

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return models.PublicUser{}, err
	}

	created, err := s.users.CreateUser(ctx, models.User{
		Name:     in.Name,
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		Phone:    in.Phone,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			logCtx.Warn("registration rejected: username or email already exists")
			return models.PublicUser{}, newError(KindConflict, "user already exists", err)
		}
		logCtx.WithError(err).Error("database error during user creation")
		return models.PublicUser{}, newError(KindInternal, ErrInternal.Message, err)
	}

	logCtx.WithField("user_id", created.ID).Info("user registered")
	return created.Public(), nil
}

// Login authenticates by email, the canonical login key.
func (s *AccountService) Login(ctx context.Context, email, password string) (result LoginResult, err error) {
	defer func() { metrics.RecordEvent(metrics.EventLogin, err) }()

	email = strings.TrimSpace(email)
	logCtx := s.log.WithField("email", email)
	if email == "" || password == "" {
		return LoginResult{}, newError(KindInvalid, "email and password are required", nil)
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logCtx.Info("login rejected: email not registered")
			return LoginResult{}, newError(KindUnauthorized, MsgEmailNotRegistered, err)
		}
		logCtx.WithError(err).Error("login failed: error fetching user")
		return LoginResult{}, newError(KindInternal, ErrInternal.Message, err)
	}

	if !s.hasher.Verify(password, user.Password) {
		logCtx.Info("login rejected: incorrect password")
		return LoginResult{}, newError(KindUnauthorized, MsgIncorrectPassword, nil)
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		logCtx.WithError(err).Error("failed to sign session token")
		return LoginResult{}, newError(KindInternal, ErrInternal.Message, err)
	}
	return LoginResult{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

// ResolvePrincipal verifies a bearer token and loads the current identity
// of its subject, so renamed or deleted accounts are reflected immediately.
func (s *AccountService) ResolvePrincipal(ctx context.Context, token string) (auth.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Principal{}, newError(KindUnauthorized, "invalid or expired token", err)
	}
	user, err := s.users.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return auth.Principal{}, newError(KindUnauthorized, "account no longer exists", err)
		}
		return auth.Principal{}, newError(KindInternal, ErrInternal.Message, err)
	}
	return auth.Principal{UserID: user.ID, Username: user.Username}, nil
}

// GetUser returns the public view of one user.
func (s *AccountService) GetUser(ctx context.Context, id string) (models.PublicUser, error) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		return cached, nil
	}
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, mapStoreError(err, "user not found")
	}
	view := user.Public()
	s.cache.Set(ctx, view)
	return view, nil
}

// ListUsers returns the public view of every user.
func (s *AccountService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to list users")
		return nil, mapStoreError(err, "user not found")
	}
	return models.PublicUsers(users), nil
}

// FindUsersByUsername returns zero or one users matching username.
func (s *AccountService) FindUsersByUsername(ctx context.Context, username string) ([]models.PublicUser, error) {
	user, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.PublicUser{}, nil
	}
	if err != nil {
		s.log.WithError(err).WithField("username", username).Error("failed to find user by username")
		return nil, mapStoreError(err, "user not found")
	}
	return []models.PublicUser{user.Public()}, nil
}

// UpdateUser applies a self-service update. update.Password is plaintext
// here and is hashed before it reaches the store. A username change re-points
// the user's posts; if that fails the rename is rolled back.
func (s *AccountService) UpdateUser(ctx context.Context, principal auth.Principal, targetID string, update models.UserUpdate) (user models.PublicUser, err error) {
	defer func() { metrics.RecordEvent(metrics.EventUpdateUser, err) }()

	if principal.IsZero() {
		return models.PublicUser{}, ErrUnauthorized
	}
	if !auth.OwnsResource(principal.UserID, targetID) {
		s.log.WithFields(logrus.Fields{"actor": principal.UserID, "target": targetID}).Warn("update rejected: not the account owner")
		return models.PublicUser{}, newError(KindForbidden, "you can only update your account", nil)
	}
	if err := validateUpdate(update); err != nil {
		return models.PublicUser{}, err
	}

	before, err := s.users.FindUserByID(ctx, targetID)
	if err != nil {
		return models.PublicUser{}, mapStoreError(err, "user not found")
	}
	if update.Empty() {
		return before.Public(), nil
	}

	if update.Password != nil {
		hashed, err := s.hashPassword(*update.Password)
		if err != nil {
			return models.PublicUser{}, err
		}
		update.Password = &hashed
	}

	updated, err := s.users.UpdateUser(ctx, targetID, update)
	if err != nil {
		return models.PublicUser{}, mapStoreError(err, "user not found")
	}
	s.cache.Invalidate(ctx, targetID)

	if updated.Username != before.Username {
		logCtx := s.log.WithFields(logrus.Fields{"user_id": targetID, "from": before.Username, "to": updated.Username})
		if _, err := s.posts.RenamePostsOwner(ctx, before.Username, updated.Username); err != nil {
			logCtx.WithError(err).Error("failed to re-point posts after rename; restoring username")
			if _, rbErr := s.users.UpdateUser(ctx, targetID, models.UserUpdate{Username: &before.Username}); rbErr != nil {
				logCtx.WithError(rbErr).Error("failed to restore username after post rename failure")
			}
			return models.PublicUser{}, newError(KindInternal, ErrInternal.Message, err)
		}
		logCtx.Info("username changed")
	}
	return updated.Public(), nil
}

// DeleteUser removes the account after removing its posts. Posts go first
// and must be confirmed gone; on any cascade failure the user is left intact.
func (s *AccountService) DeleteUser(ctx context.Context, principal auth.Principal, targetID string) (result DeleteResult, err error) {
	defer func() { metrics.RecordEvent(metrics.EventDeleteUser, err) }()

	if principal.IsZero() {
		return DeleteResult{}, ErrUnauthorized
	}
	if !auth.OwnsResource(principal.UserID, targetID) {
		s.log.WithFields(logrus.Fields{"actor": principal.UserID, "target": targetID}).Warn("delete rejected: not the account owner")
		return DeleteResult{}, newError(KindForbidden, "you can delete only your account", nil)
	}

	user, err := s.users.FindUserByID(ctx, targetID)
	if err != nil {
		return DeleteResult{}, mapStoreError(err, "user not found")
	}
	logCtx := s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username})

	var deleted int64
	for attempt := 1; ; attempt++ {
		n, err := s.posts.DeletePostsByUsername(ctx, user.Username)
		if err != nil {
			logCtx.WithError(err).Error("post cascade failed; user not deleted")
			return DeleteResult{}, newError(KindInternal, ErrInternal.Message, err)
		}
		deleted += n

		remaining, err := s.posts.CountPostsByUsername(ctx, user.Username)
		if err != nil {
			logCtx.WithError(err).Error("post cascade could not be confirmed; user not deleted")
			return DeleteResult{}, newError(KindInternal, ErrInternal.Message, err)
		}
		if remaining == 0 {
			break
		}
		if attempt == maxCascadeAttempts {
			logCtx.WithField("remaining", remaining).Error("posts still present after cascade; user not deleted")
			return DeleteResult{}, newError(KindInternal, ErrInternal.Message, nil)
		}
	}

	if err := s.users.DeleteUser(ctx, targetID); err != nil {
		return DeleteResult{}, mapStoreError(err, "user not found")
	}
	s.cache.Invalidate(ctx, targetID)

	logCtx.WithField("posts_deleted", deleted).Info("user deleted")
	return DeleteResult{PostsDeleted: deleted}, nil
}

// hashPassword reports an over-long password as Invalid; any other hashing
// failure is Internal.
func (s *AccountService) hashPassword(plaintext string) (string, error) {
	hashed, err := s.hasher.Hash(plaintext)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", newError(KindInvalid, MsgPasswordTooLong, err)
	}
	if err != nil {
		s.log.WithError(err).Error("failed to hash password")
		return "", newError(KindInternal, ErrInternal.Message, err)
	}
	return hashed, nil
}

func validateUpdate(update models.UserUpdate) error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", update.Name},
		{"username", update.Username},
		{"email", update.Email},
		{"password", update.Password},
	} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return newError(KindInvalid, f.name+" cannot be empty", nil)
		}
	}
	return nil
}

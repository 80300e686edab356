package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/squeak-be/internal/auth"
	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/service"
	"github.com/hongminglow/squeak-be/internal/storage"
	"github.com/hongminglow/squeak-be/internal/storage/memory"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", "squeak-test", time.Hour)
}

func newAccounts(users storage.UserStore, posts storage.PostStore) *service.AccountService {
	return service.NewAccountService(users, posts, auth.NewPasswordHasher(bcrypt.MinCost), testTokens(), nil, quietLogger())
}

func newMemoryServices() (*memory.Store, *service.AccountService, *service.PostService) {
	store := memory.NewStore()
	return store, newAccounts(store, store), service.NewPostService(store, quietLogger())
}

func registerUser(t *testing.T, svc *service.AccountService, username, email, password string) models.PublicUser {
	t.Helper()
	user, err := svc.Register(context.Background(), service.RegisterInput{
		Name:     "Test " + username,
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func principalOf(u models.PublicUser) auth.Principal {
	return auth.Principal{UserID: u.ID, Username: u.Username}
}

func ptr(s string) *string { return &s }

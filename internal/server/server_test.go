package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/squeak-be/internal/auth"
	"github.com/hongminglow/squeak-be/internal/config"
	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/service"
	"github.com/hongminglow/squeak-be/internal/storage/memory"
)

type testAPI struct {
	t  *testing.T
	ts *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := memory.NewStore()
	accounts := service.NewAccountService(store, store,
		auth.NewPasswordHasher(bcrypt.MinCost),
		auth.NewTokenManager("test-secret", "squeak-test", time.Hour),
		nil, log)
	posts := service.NewPostService(store, log)

	cfg := config.Config{StorageDriver: config.DriverMemory, CORSOrigins: []string{"*"}}
	ts := httptest.NewServer(NewRouter(cfg, accounts, posts, log))
	t.Cleanup(ts.Close)
	return &testAPI{t: t, ts: ts}
}

// do sends a JSON request and returns the status and raw body.
func (a *testAPI) do(method, path, token string, body any) (int, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, a.ts.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, raw
}

func (a *testAPI) register(username, email, password string) models.PublicUser {
	a.t.Helper()
	status, raw := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Test " + username, "username": username, "email": email, "password": password, "phone": "713",
	})
	require.Equal(a.t, http.StatusOK, status, string(raw))
	var user models.PublicUser
	require.NoError(a.t, json.Unmarshal(raw, &user))
	return user
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()
	status, raw := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, status, string(raw))
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(raw, &res))
	return res.Token
}

func (a *testAPI) createPost(token, desc string) models.Post {
	a.t.Helper()
	status, raw := a.do(http.MethodPost, "/api/posts", token, map[string]string{"title": "t", "desc": desc})
	require.Equal(a.t, http.StatusOK, status, string(raw))
	var post models.Post
	require.NoError(a.t, json.Unmarshal(raw, &post))
	return post
}

func envelope(t *testing.T, raw []byte) (int, string) {
	t.Helper()
	var env struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return env.Code, env.Message
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	status, raw := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"status":"ok"`)
	assert.Contains(t, string(raw), `"storage":"memory"`)

	status, raw = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "squeak_http_requests_total")
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)
	user := api.register("jondoe1", "jon.doe@some.where", "secret")
	assert.Equal(t, "jondoe1", user.Username)

	status, raw := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "x", "username": "jondoe1", "email": "other@some.where", "password": "p",
	})
	assert.Equal(t, http.StatusInternalServerError, status)
	_, msg := envelope(t, raw)
	assert.Equal(t, "user already exists", msg)

	status, raw = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "x", "username": "longpass", "email": "long@some.where", "password": strings.Repeat("p", 80),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	_, msg = envelope(t, raw)
	assert.Equal(t, "password must be at most 72 bytes", msg)

	status, raw = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "nameless"})
	assert.Equal(t, http.StatusBadRequest, status, string(raw))

	status, raw = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not@existing.com", "password": "secret"})
	assert.Equal(t, http.StatusBadRequest, status)
	_, msg = envelope(t, raw)
	assert.Equal(t, "email not registered", msg)

	status, raw = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jon.doe@some.where", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	_, msg = envelope(t, raw)
	assert.Equal(t, "incorrect password", msg)

	status, raw = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jon.doe@some.where", "password": "secret"})
	require.Equal(t, http.StatusOK, status)
	var res map[string]any
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, true, res["loggedIn"])
	assert.Equal(t, float64(200), res["status"])
	assert.Equal(t, "logged in", res["message"])
	assert.NotEmpty(t, res["token"])
	assert.NotContains(t, res["user"], "password")
}

func TestUserReadsNeverExposePassword(t *testing.T) {
	api := newTestAPI(t)
	user := api.register("jondoe1", "jon.doe@some.where", "secret")

	for _, path := range []string{"/api/users", "/api/users?user=jondoe1", "/api/users/" + user.ID} {
		status, raw := api.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, status, path)
		assert.NotContains(t, string(raw), `"password"`, path)
		assert.Contains(t, string(raw), `"_id"`, path)
	}

	status, raw := api.do(http.MethodGet, "/api/users?user=nobody", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))

	status, _ = api.do(http.MethodGet, "/api/users/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMutationsRequireToken(t *testing.T) {
	api := newTestAPI(t)
	user := api.register("jondoe1", "jon.doe@some.where", "secret")

	for _, tc := range []struct{ method, path string }{
		{http.MethodPut, "/api/users/" + user.ID},
		{http.MethodDelete, "/api/users/" + user.ID},
		{http.MethodPost, "/api/posts"},
		{http.MethodDelete, "/api/posts/anything"},
	} {
		status, _ := api.do(tc.method, tc.path, "", map[string]string{"desc": "x"})
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", tc.method, tc.path)
	}

	status, _ := api.do(http.MethodPost, "/api/posts", "not-a-jwt", map[string]string{"desc": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUpdateUser(t *testing.T) {
	api := newTestAPI(t)
	victim := api.register("jondoe1", "jon.doe@some.where", "secret")
	attacker := api.register("mallory", "mallory@some.where", "secret")
	attackerToken := api.login("mallory@some.where", "secret")
	victimToken := api.login("jon.doe@some.where", "secret")

	// A body claiming the victim's id does not help the attacker.
	status, _ := api.do(http.MethodPut, "/api/users/"+victim.ID, attackerToken, map[string]string{"userId": victim.ID, "name": "pwned"})
	assert.Equal(t, http.StatusUnauthorized, status)
	// Nor does naming their own id while targeting the victim.
	status, _ = api.do(http.MethodPut, "/api/users/"+victim.ID, attackerToken, map[string]string{"userId": attacker.ID, "name": "pwned"})
	assert.Equal(t, http.StatusUnauthorized, status)

	_, raw := api.do(http.MethodGet, "/api/users/"+victim.ID, "", nil)
	var unchanged models.PublicUser
	require.NoError(t, json.Unmarshal(raw, &unchanged))
	assert.Equal(t, "Test jondoe1", unchanged.Name)

	status, raw = api.do(http.MethodPut, "/api/users/"+victim.ID, victimToken, map[string]string{"name": "Jon", "password": "new-secret"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.NotContains(t, string(raw), "password")
	api.login("jon.doe@some.where", "new-secret")

	status, _ = api.do(http.MethodPut, "/api/users/"+victim.ID, victimToken, map[string]string{"username": "mallory"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestRenameKeepsPostsAndToken(t *testing.T) {
	api := newTestAPI(t)
	user := api.register("jondoe1", "jon.doe@some.where", "secret")
	token := api.login("jon.doe@some.where", "secret")
	post := api.createPost(token, "before rename")

	status, raw := api.do(http.MethodPut, "/api/users/"+user.ID, token, map[string]string{"username": "jondoe2"})
	require.Equal(t, http.StatusOK, status, string(raw))

	_, raw = api.do(http.MethodGet, "/api/posts?user=jondoe2", "", nil)
	var moved []models.Post
	require.NoError(t, json.Unmarshal(raw, &moved))
	require.Len(t, moved, 1)
	assert.Equal(t, post.ID, moved[0].ID)

	// The same token now acts as the renamed user.
	status, _ = api.do(http.MethodDelete, "/api/posts/"+post.ID, token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestPosts(t *testing.T) {
	api := newTestAPI(t)
	api.register("jondoe1", "jon.doe@some.where", "secret")
	api.register("janedoe", "jane.doe@some.where", "secret")
	jonToken := api.login("jon.doe@some.where", "secret")
	janeToken := api.login("jane.doe@some.where", "secret")

	post := api.createPost(jonToken, "hello squeak")
	assert.Equal(t, "jondoe1", post.Username)

	status, _ := api.do(http.MethodPost, "/api/posts", jonToken, map[string]string{"desc": "spoof", "username": "janedoe"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = api.do(http.MethodPost, "/api/posts", jonToken, map[string]string{"title": "no desc"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := api.do(http.MethodGet, "/api/posts/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"desc":"hello squeak"`)

	status, raw = api.do(http.MethodGet, "/api/posts?user=nobody", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))

	status, raw = api.do(http.MethodDelete, "/api/posts/"+post.ID, janeToken, map[string]string{"username": "jondoe1"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, raw = api.do(http.MethodDelete, "/api/posts/"+post.ID, janeToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	_, msg := envelope(t, raw)
	assert.Equal(t, "you can delete only your post", msg)

	status, _ = api.do(http.MethodGet, "/api/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusOK, status, "post survives a rejected delete")

	status, raw = api.do(http.MethodDelete, "/api/posts/"+post.ID, jonToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"post has been deleted"}`, string(raw))

	status, _ = api.do(http.MethodDelete, "/api/posts/"+post.ID, jonToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Missing posts are 404 even when the body names someone else.
	status, _ = api.do(http.MethodDelete, "/api/posts/"+post.ID, janeToken, map[string]string{"username": "jondoe1"})
	assert.Equal(t, http.StatusNotFound, status)
}

// A user with three posts deletes their account; the posts go with them and
// the old token stops working.
func TestDeleteUserCascade(t *testing.T) {
	api := newTestAPI(t)
	user := api.register("jondoe1", "jon.doe@some.where", "secret")
	other := api.register("janedoe", "jane.doe@some.where", "secret")
	token := api.login("jon.doe@some.where", "secret")
	otherToken := api.login("jane.doe@some.where", "secret")
	for _, desc := range []string{"one", "two", "three"} {
		api.createPost(token, desc)
	}
	kept := api.createPost(otherToken, "still here")

	status, _ := api.do(http.MethodDelete, "/api/users/"+other.ID, token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := api.do(http.MethodDelete, "/api/users/"+user.ID, token, map[string]string{"userId": user.ID})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.JSONEq(t, `{"message":"user has been deleted","postsDeleted":3}`, string(raw))

	status, _ = api.do(http.MethodGet, "/api/users/"+user.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	_, raw = api.do(http.MethodGet, "/api/posts?user=jondoe1", "", nil)
	assert.JSONEq(t, `[]`, string(raw))
	status, _ = api.do(http.MethodGet, "/api/posts/"+kept.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodPost, "/api/posts", token, map[string]string{"desc": "ghost"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	status, raw := api.do(http.MethodGet, "/api/comments", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	code, _ := envelope(t, raw)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestJonDoeScenario(t *testing.T) {
	api := newTestAPI(t)
	status, raw := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Jon Doe", "username": "jondoe1", "email": "jon.doe@some.where", "password": "secret",
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jon.doe@some.where", "password": "secret"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"loggedIn":true`)

	status, _ = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jon.doe@some.where", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, status)
}

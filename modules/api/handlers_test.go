package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/example/forum28/config"
	"github.com/example/forum28/database"
	forumdomain "github.com/example/forum28/domain/forum"
	domain "github.com/example/forum28/domain/user"
	"github.com/example/forum28/logging"
	"github.com/example/forum28/modules/auth"
	"github.com/example/forum28/modules/forum"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
	testIssuer        = "test-issuer"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

// newTestServer wires the real auth and forum services over one in-memory
// sqlite database, bypassing the mono transport.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Token{},
		&forumdomain.Tag{}, &forumdomain.Post{}, &forumdomain.Comment{},
	))

	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{
		AccessSecret:         testAccessSecret,
		RefreshSecret:        testRefreshSecret,
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               testIssuer,
	})
	require.NoError(t, err)

	hasher := auth.NewPasswordHasherWithParams(auth.Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	authService := auth.NewAuthService(
		auth.NewUserRepository(db, time.Second),
		auth.NewRefreshTokenRepository(db, time.Second),
		hasher,
		jwtManager,
	)
	authPort := auth.NewServicePort(authService)

	forumService := forum.NewForumService(
		forum.NewPostRepository(db, time.Second),
		forum.NewCommentRepository(db, time.Second),
		authPort,
	)

	log := logging.ForModule(logging.Discard(), "api")
	return &testServer{
		app: NewApp(authPort, forumService, log, io.Discard),
		db:  db,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func (s *testServer) register(t *testing.T, userName string) {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/users", "", RegisterRequest{
		Email:    userName + "@example.com",
		Name:     userName,
		UserName: userName,
		Password: userName + "-pw",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
}

func (s *testServer) login(t *testing.T, userName string) LoginResponse {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/login", "", LoginRequest{
		UserName: userName,
		Password: userName + "-pw",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	return decode[LoginResponse](t, body)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/users", "", RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		UserName: "alice",
		Password: "s3cret",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "alice", raw["userName"])
	assert.Equal(t, "alice@example.com", raw["email"])
	assert.NotContains(t, raw, "password")
	assert.NotContains(t, raw, "passwordHash")
	assert.NotContains(t, string(body), "argon2id")

	t.Run("duplicate username", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/users", "", RegisterRequest{
			Email:    "other@example.com",
			Name:     "Other",
			UserName: "alice",
			Password: "pw",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, auth.ErrUserExists.Message, decode[ErrorResponse](t, body).Error)
	})

	t.Run("missing fields", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/users", "", RegisterRequest{UserName: "bob"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "validation", decode[ErrorResponse](t, body).Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")

	t.Run("wrong password", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/login", "", LoginRequest{UserName: "alice", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Incorrect username or password.", decode[ErrorResponse](t, body).Error)
	})

	t.Run("unknown user", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/login", "", LoginRequest{UserName: "ghost", Password: "pw"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("success persists refresh token", func(t *testing.T) {
		before := time.Now()
		resp := s.login(t, "alice")

		assert.Equal(t, msgLoginSuccess, resp.Message)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		require.NotNil(t, resp.User)
		assert.Equal(t, "alice", resp.User.UserName)

		var row domain.Token
		require.NoError(t, s.db.Where("token = ?", resp.RefreshToken).Take(&row).Error)
		assert.Equal(t, domain.TokenTypeRefresh, row.Type)
		assert.Equal(t, resp.User.ID, row.UserID)
		assert.WithinDuration(t, before.Add(7*24*time.Hour), row.ExpiresAt, time.Minute)
	})
}

func TestHomepage(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	session := s.login(t, "alice")

	t.Run("no token", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/homepage", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, errNotLoggedIn.Message, decode[ErrorResponse](t, body).Error)
	})

	t.Run("expired token", func(t *testing.T) {
		now := time.Now()
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"id":  session.User.ID,
			"iss": testIssuer,
			"iat": now.Add(-time.Hour).Unix(),
			"exp": now.Add(-time.Minute).Unix(),
		}).SignedString([]byte(testAccessSecret))
		require.NoError(t, err)

		status, body := s.do(t, http.MethodGet, "/homepage", expired, nil)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, auth.ErrTokenExpired.Message, decode[ErrorResponse](t, body).Error)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		status, _ := s.do(t, http.MethodGet, "/homepage", session.RefreshToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("valid token", func(t *testing.T) {
		status, body := s.do(t, http.MethodGet, "/homepage", session.AccessToken, nil)
		require.Equal(t, http.StatusOK, status, string(body))

		resp := decode[HomepageResponse](t, body)
		assert.Equal(t, msgHomepage, resp.Message)
		assert.Equal(t, session.User.ID, resp.UserID)
		ts, err := time.Parse(isoMillis, resp.Timestamp)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), ts, time.Minute)
	})
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	session := s.login(t, "alice")

	status, body := s.do(t, http.MethodPost, "/logout", session.AccessToken, RefreshTokenRequest{RefreshToken: session.RefreshToken})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, msgLogoutSuccess, decode[MessageResponse](t, body).Message)

	var count int64
	require.NoError(t, s.db.Model(&domain.Token{}).Where("token = ?", session.RefreshToken).Count(&count).Error)
	assert.Zero(t, count)

	status, body = s.do(t, http.MethodPost, "/logout", session.AccessToken, RefreshTokenRequest{RefreshToken: session.RefreshToken})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, auth.ErrSessionNotFound.Message, decode[ErrorResponse](t, body).Error)

	t.Run("missing refresh token", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/logout", session.AccessToken, RefreshTokenRequest{})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, auth.ErrRefreshTokenRequired.Message, decode[ErrorResponse](t, body).Error)
	})

	t.Run("requires access token", func(t *testing.T) {
		status, _ := s.do(t, http.MethodPost, "/logout", "", RefreshTokenRequest{RefreshToken: "x"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	session := s.login(t, "alice")

	status, body := s.do(t, http.MethodPost, "/refresh", "", RefreshTokenRequest{RefreshToken: session.RefreshToken})
	require.Equal(t, http.StatusOK, status, string(body))
	rotated := decode[RefreshResponse](t, body)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	status, _ = s.do(t, http.MethodGet, "/homepage", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/refresh", "", RefreshTokenRequest{RefreshToken: session.RefreshToken})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, auth.ErrRefreshTokenRevoked.Message, decode[ErrorResponse](t, body).Error)

	status, _ = s.do(t, http.MethodPost, "/refresh", "", RefreshTokenRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPostsAndComments(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice")
	s.register(t, "bob")
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")

	status, body := s.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, _ = s.do(t, http.MethodPost, "/posts", "", CreatePostRequest{Title: "t", Content: "c", Category: "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/posts", alice.AccessToken, CreatePostRequest{
		Title:    "Hello",
		Content:  "First post",
		Category: "general",
		Tags:     []string{"Go", " go ", "News"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode[PostCreatedResponse](t, body)
	require.NotNil(t, created.Post)
	assert.Equal(t, msgPostCreated, created.Message)
	assert.ElementsMatch(t, []string{"go", "news"}, created.Post.Tags)
	require.NotNil(t, created.Post.Author)
	assert.Equal(t, "alice", created.Post.Author.UserName)
	postPath := "/posts/" + itoa(created.Post.ID)

	status, body = s.do(t, http.MethodPost, "/posts", alice.AccessToken, CreatePostRequest{Title: "only title"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, forum.ErrPostFieldsRequired.Message, decode[ErrorResponse](t, body).Error)

	status, body = s.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, status)
	posts := decode[[]forum.PostView](t, body)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0].Title)

	// comments
	status, body = s.do(t, http.MethodPost, postPath+"/comments", bob.AccessToken, CreateCommentRequest{Content: "Nice"})
	require.Equal(t, http.StatusCreated, status, string(body))
	comment := decode[CommentCreatedResponse](t, body).Comment
	require.NotNil(t, comment)
	assert.Equal(t, "bob", comment.Author.UserName)

	status, _ = s.do(t, http.MethodPost, postPath+"/comments", bob.AccessToken, CreateCommentRequest{Content: "  "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/posts/999/comments", bob.AccessToken, CreateCommentRequest{Content: "lost"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodGet, postPath+"/comments", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]forum.CommentView](t, body), 1)

	commentPath := "/comments/" + itoa(comment.ID)
	status, _ = s.do(t, http.MethodDelete, commentPath, alice.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodDelete, "/comments/0", bob.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errInvalidCommentID.Message, decode[ErrorResponse](t, body).Error)

	status, body = s.do(t, http.MethodDelete, commentPath, bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, msgCommentGone, decode[MessageResponse](t, body).Message)

	// post deletion
	status, body = s.do(t, http.MethodDelete, "/posts/abc", alice.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errInvalidPostID.Message, decode[ErrorResponse](t, body).Error)

	status, body = s.do(t, http.MethodDelete, postPath, bob.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, forum.ErrPostForbidden.Message, decode[ErrorResponse](t, body).Error)

	status, body = s.do(t, http.MethodDelete, postPath, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, msgPostDeleted, decode[MessageResponse](t, body).Message)

	status, _ = s.do(t, http.MethodDelete, postPath, alice.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, body).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"healthy","module":"api"}`, string(body))

	status, body = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "forum_http_requests_total")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

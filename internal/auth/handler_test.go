package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storyweave/storyweave/internal/auth"
	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
	_ "github.com/storyweave/storyweave/testing"
)

type stubRepo struct {
	user            *auth.User
	sessionsCreated int
	sessionsDeleted int
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessionsCreated++
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.sessionsDeleted++
	return nil
}

type authFixture struct {
	router   chi.Router
	sessions *shared.SessionManager
	repo     *stubRepo
}

func newAuthFixture(t *testing.T, user *auth.User) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")

	repo := &stubRepo{user: user}
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager, csrfManager)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessionManager.Load(r.Context(), r)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(r.Context(), sess)
			// Commit once up front so the cookie lands before the handler
			// writes, and again afterwards to persist handler mutations.
			require.NoError(t, sessionManager.Commit(ctx, w, r, sess))
			next.ServeHTTP(w, r.WithContext(ctx))
			require.NoError(t, sessionManager.Commit(ctx, w, r, sess))
		})
	})
	router.Route("/auth", handler.MountRoutes)

	return &authFixture{router: router, sessions: sessionManager, repo: repo}
}

func testUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	community := int64(7)
	return &auth.User{
		ID:           42,
		CommunityID:  &community,
		Email:        "storykeeper@riverbend.local",
		DisplayName:  "Story Keeper",
		PasswordHash: string(hash),
		Role:         policy.RoleEditor,
		IsActive:     true,
	}
}

func TestLoginIssuesSessionAndCSRFToken(t *testing.T) {
	fx := newAuthFixture(t, testUser(t, "correct-horse"))

	body := `{"email":"storykeeper@riverbend.local","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		UserID      int64  `json:"user_id"`
		Role        string `json:"role"`
		CommunityID *int64 `json:"community_id"`
		CSRFToken   string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Equal(t, int64(42), payload.UserID)
	require.Equal(t, "editor", payload.Role)
	require.NotNil(t, payload.CommunityID)
	require.Equal(t, int64(7), *payload.CommunityID)
	require.NotEmpty(t, payload.CSRFToken)
	require.Equal(t, 1, fx.repo.sessionsCreated)

	cookies := res.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == fx.sessions.CookieName() && c.Value != "" {
			found = true
		}
	}
	require.True(t, found, "expected session cookie on login response")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	fx := newAuthFixture(t, testUser(t, "correct-horse"))

	body := `{"email":"storykeeper@riverbend.local","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Zero(t, fx.repo.sessionsCreated)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	user := testUser(t, "correct-horse")
	user.IsActive = false
	fx := newAuthFixture(t, user)

	body := `{"email":"storykeeper@riverbend.local","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestSessionRequiresAuthentication(t *testing.T) {
	fx := newAuthFixture(t, testUser(t, "correct-horse"))

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogoutRemovesSession(t *testing.T) {
	fx := newAuthFixture(t, testUser(t, "correct-horse"))

	login := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"storykeeper@riverbend.local","password":"correct-horse"}`))
	login.Header.Set("Content-Type", "application/json")
	loginRes := httptest.NewRecorder()
	fx.router.ServeHTTP(loginRes, login)
	require.Equal(t, http.StatusOK, loginRes.Code)

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	for _, c := range loginRes.Result().Cookies() {
		logout.AddCookie(c)
	}
	logoutRes := httptest.NewRecorder()
	fx.router.ServeHTTP(logoutRes, logout)

	require.Equal(t, http.StatusNoContent, logoutRes.Code)
	require.Equal(t, 1, fx.repo.sessionsDeleted)
}

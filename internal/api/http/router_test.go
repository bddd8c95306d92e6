package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/forum-service/internal/api/http/handlers"
	"github.com/spec-kit/forum-service/internal/auth"
	"github.com/spec-kit/forum-service/internal/config"
	"github.com/spec-kit/forum-service/internal/domain"
	"github.com/spec-kit/forum-service/internal/events"
	"github.com/spec-kit/forum-service/internal/observability"
	"github.com/spec-kit/forum-service/internal/service"
)

const (
	roleUser      int64 = 1
	roleAdmin     int64 = 2
	roleModerator int64 = 3
)

var roleCatalog = map[int64]string{roleUser: "user", roleAdmin: "admin", roleModerator: "moderator"}

type memoryUsers struct {
	byID   map[domain.UserID]*domain.User
	nextID domain.UserID
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.byID[user.ID] = &stored
	return nil
}

func (m *memoryUsers) ByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memoryUsers) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	for id, user := range m.byID {
		if user.Email == email {
			return m.ByID(ctx, id)
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.ByEmail(ctx, email)
	return err == nil, nil
}

func (m *memoryUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, user := range m.byID {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type memoryRoles struct {
	grants map[domain.RoleAssignment]struct{}
}

func (m *memoryRoles) RolesOf(_ context.Context, userID domain.UserID) (domain.RoleSet, error) {
	set := domain.NewRoleSet()
	for grant := range m.grants {
		if grant.UserID == userID {
			set[roleCatalog[grant.RoleID]] = struct{}{}
		}
	}
	return set, nil
}

func (m *memoryRoles) Assign(_ context.Context, a domain.RoleAssignment) error {
	m.grants[a] = struct{}{}
	return nil
}

func (m *memoryRoles) Revoke(_ context.Context, a domain.RoleAssignment) error {
	if _, ok := m.grants[a]; !ok {
		return domain.ErrNotFound
	}
	delete(m.grants, a)
	return nil
}

func (m *memoryRoles) IsAssigned(_ context.Context, a domain.RoleAssignment) (bool, error) {
	_, ok := m.grants[a]
	return ok, nil
}

type routerFixture struct {
	app      *fiber.App
	users    *memoryUsers
	roles    *memoryRoles
	authSvc  *service.AuthService
	registry *prometheus.Registry
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		users:    &memoryUsers{byID: map[domain.UserID]*domain.User{}},
		roles:    &memoryRoles{grants: map[domain.RoleAssignment]struct{}{}},
		registry: prometheus.NewRegistry(),
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics(f.registry)
	dispatcher := events.NewInMemoryDispatcher()

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:   "router-secret",
		TokenTTL:    "1d",
		RememberTTL: "30d",
		BcryptCost:  bcrypt.MinCost,
	}}
	authSvc, err := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   f.users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	require.NoError(t, err)
	f.authSvc = authSvc
	roleSvc := service.NewRoleService(f.roles, nil, dispatcher, logger)

	pipeline := auth.NewPipeline(authSvc.TokenCodec(), f.users, f.roles, auth.WithLogger(logger))
	mw := auth.NewAuthMiddleware(pipeline, logger, metrics, dispatcher)

	f.app = fiber.New()
	RegisterMiddlewares(f.app, logger, metrics, 5*time.Second)
	RegisterRoutes(f.app, RouteConfig{
		Users:          handlers.NewUsersHandler(authSvc, roleSvc),
		Roles:          handlers.NewRolesHandler(roleSvc),
		AuthMiddleware: mw,
		Gatherer:       f.registry,
	})
	return f
}

func (f *routerFixture) seed(t *testing.T, username string, roleIDs ...int64) (domain.UserID, string) {
	t.Helper()
	user := &domain.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, f.users.Create(context.Background(), user))
	for _, roleID := range roleIDs {
		f.roles.grants[domain.RoleAssignment{UserID: user.ID, RoleID: roleID}] = struct{}{}
	}
	token, _, err := f.authSvc.TokenCodec().Issue(user.ID, 0)
	require.NoError(t, err)
	return user.ID, token
}

func (f *routerFixture) call(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

var denied = map[string]any{"code": float64(403), "description": "You can't do that"}

func TestRouter_RegisterLoginAndMe(t *testing.T) {
	f := newRouterFixture(t)

	status, body := f.call(t, http.MethodPost, "/user/register", "", map[string]any{
		"username": "ada", "email": "ada@example.com", "password": "hunter2",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["expiresAt"])

	status, body = f.call(t, http.MethodPost, "/user/login", "", map[string]any{
		"email": "ada@example.com", "password": "hunter2", "rememberMe": true,
	})
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	expiresAt, err := time.Parse(time.RFC3339, body["expiresAt"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), expiresAt, time.Minute)

	status, body = f.call(t, http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me, ok := body["user"].(map[string]any)
	require.True(t, ok, body)
	assert.Equal(t, "ada", me["username"])
	assert.NotContains(t, me, "password")

	status, body = f.call(t, http.MethodGet, "/user/me", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"user": nil}, body)

	status, body = f.call(t, http.MethodPost, "/user/login", "", map[string]any{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"code": float64(400), "description": "Invalid credentials"}, body)
}

func TestRouter_LoginRequiredRoutes(t *testing.T) {
	f := newRouterFixture(t)
	memberID, token := f.seed(t, "grace", roleUser)

	status, body := f.call(t, http.MethodGet, "/user/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"code": float64(401), "description": "You can't do that"}, body)

	status, body = f.call(t, http.MethodGet, "/user/1", token, nil)
	require.Equal(t, http.StatusOK, status)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(memberID), user["id"])

	status, body = f.call(t, http.MethodGet, "/user/999", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"user": nil}, body)

	status, _ = f.call(t, http.MethodGet, "/user/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_RoleManagement(t *testing.T) {
	f := newRouterFixture(t)
	memberID, memberToken := f.seed(t, "grace", roleUser)
	_, adminToken := f.seed(t, "root", roleUser, roleAdmin)
	rolesPath := "/user/1/roles"
	grant := map[string]any{"userId": memberID, "roleId": roleModerator}

	status, body := f.call(t, http.MethodGet, rolesPath, memberToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, denied, body)

	status, body = f.call(t, http.MethodPost, "/user-roles/assigned", memberToken, grant)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, denied, body)

	status, body = f.call(t, http.MethodPost, "/user-roles/assigned", adminToken, grant)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])

	status, body = f.call(t, http.MethodPost, "/user-roles/assigned", adminToken, grant)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Role is already assigned", body["description"])

	status, body = f.call(t, http.MethodGet, rolesPath, memberToken, nil)
	require.Equal(t, http.StatusOK, status, "moderators may list roles")
	assert.Equal(t, []any{"moderator", "user"}, body["roles"])

	status, _ = f.call(t, http.MethodDelete, "/user-roles/assigned", adminToken, grant)
	require.Equal(t, http.StatusOK, status)

	status, _ = f.call(t, http.MethodGet, rolesPath, memberToken, nil)
	assert.Equal(t, http.StatusForbidden, status, "revocation takes effect on the next request")
}

func TestRouter_BanAppliesToEveryForumRoute(t *testing.T) {
	f := newRouterFixture(t)
	memberID, token := f.seed(t, "mallory", roleUser)
	until := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	f.users.byID[memberID].BannedUntil = &until

	for _, path := range []string{"/user/me", "/user/1"} {
		status, body := f.call(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, status, path)
		assert.Equal(t, float64(403), body["code"])
		assert.True(t, strings.HasPrefix(body["description"].(string), "Banned until "), body["description"])
		assert.Contains(t, body["description"], until.Format(time.RFC3339))
	}

	status, _ := f.call(t, http.MethodGet, "/user/me", "", nil)
	assert.Equal(t, http.StatusOK, status, "anonymous callers are not ban-checked")
}

func TestRouter_UnknownRouteUsesDenialShape(t *testing.T) {
	f := newRouterFixture(t)

	status, body := f.call(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, float64(404), body["code"])
	assert.NotEmpty(t, body["description"])
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.call(t, http.MethodGet, "/user/1", "", nil)

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "forum_auth_gate_decisions_total")
	assert.Contains(t, string(raw), "forum_http_requests_total")
}

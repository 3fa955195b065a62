package auth_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmitrymomot/soon/internal/auth"
	"github.com/dmitrymomot/soon/internal/models"
	"github.com/dmitrymomot/soon/internal/web"
	"github.com/dmitrymomot/soon/pkg/cookie"
	"github.com/dmitrymomot/soon/pkg/render"
	"github.com/dmitrymomot/soon/pkg/session"
)

type harness struct {
	db  *gorm.DB
	mux *web.Mux
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(gdb))

	store := session.NewGormStore(gdb)
	require.NoError(t, store.Migrate())

	cookies := cookie.New(cookie.WithSecret("0123456789abcdef0123456789abcdef"))
	sessions, err := session.NewManager(store, cookies)
	require.NoError(t, err)

	renderer, err := render.New(fstest.MapFS{
		"layouts/base.html": {Data: []byte(
			`{{define "layout"}}{{block "content" .}}{{end}}{{end}}`,
		)},
		"auth/login.html": {Data: []byte(`{{define "content"}}` +
			`login;email={{.form.Email}};` +
			`{{if .errors}}{{.errors.First "password"}}{{end}}` +
			`{{end}}`,
		)},
	})
	require.NoError(t, err)

	mux := web.NewMux(&web.Deps{
		Cookies:  cookies,
		Sessions: sessions,
		Renderer: renderer,
	}, func(c web.Context, err error) {
		code := http.StatusInternalServerError
		if httpErr := web.AsHTTPError(err); httpErr != nil {
			code = httpErr.Code
		}
		http.Error(c.Response(), err.Error(), code)
	})

	h := auth.NewHandler(gdb, sessions, "/admin")
	mux.Router().Route("/auth", h.Routes)

	// probe route reporting the signed-in user id
	mux.Router().GET("/whoami", func(c web.Context) error {
		_, err := c.Response().Write([]byte(strings.Repeat("u", int(c.UserID()))))
		return err
	})

	return &harness{db: gdb, mux: mux}
}

func (h *harness) createUser(t *testing.T, email, password string, active bool) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{Email: email, Password: hash, Active: active}
	require.NoError(t, h.db.Create(user).Error)
	return user
}

func (h *harness) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	values := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func TestShowLogin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "login;email=;")
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t, "gopher@example.com", "correct-horse", true)

	rec := h.login(t, "gopher@example.com", "wrong")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password combination.")
	assert.Contains(t, rec.Body.String(), "email=gopher@example.com")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_UnknownEmailSameMessage(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	rec := h.login(t, "nobody@example.com", "whatever")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password combination.")
}

func TestLogin_InactiveAccount(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t, "gopher@example.com", "correct-horse", false)

	rec := h.login(t, "gopher@example.com", "correct-horse")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not active")
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user := h.createUser(t, "gopher@example.com", "correct-horse", true)

	rec := h.login(t, "gopher@example.com", "correct-horse")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	// exactly one session cookie; a second one would shadow the live
	// token on the client
	var sessionCookies []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			sessionCookies = append(sessionCookies, c)
		}
	}
	require.Len(t, sessionCookies, 1)

	// tracking columns updated
	var got models.User
	require.NoError(t, h.db.First(&got, user.ID).Error)
	require.NotNil(t, got.CurrentLoginAt)
	assert.NotEmpty(t, got.CurrentLoginIP)
	assert.Equal(t, 1, got.LoginCount)

	// the session cookie authenticates subsequent requests
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	who := httptest.NewRecorder()
	h.mux.ServeHTTP(who, req)
	assert.Len(t, who.Body.String(), int(user.ID))
}

func TestLogin_ExistingSessionRotatesToken(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t, "gopher@example.com", "correct-horse", true)

	first := h.login(t, "gopher@example.com", "correct-horse")
	require.Equal(t, http.StatusSeeOther, first.Code)

	// logging in again with the live session cookie re-issues the token
	values := url.Values{"email": {"gopher@example.com"}, "password": {"correct-horse"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range first.Result().Cookies() {
		req.AddCookie(c)
	}
	second := httptest.NewRecorder()
	h.mux.ServeHTTP(second, req)
	require.Equal(t, http.StatusSeeOther, second.Code)
	require.Len(t, second.Result().Cookies(), 1)
	assert.NotEqual(t, first.Result().Cookies()[0].Value, second.Result().Cookies()[0].Value)

	// the stale cookie no longer authenticates
	stale := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range first.Result().Cookies() {
		stale.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, stale)
	assert.Empty(t, rec.Body.String())
}

func TestLogin_SecondLoginShiftsTracking(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	user := h.createUser(t, "gopher@example.com", "correct-horse", true)

	h.login(t, "gopher@example.com", "correct-horse")
	h.login(t, "gopher@example.com", "correct-horse")

	var got models.User
	require.NoError(t, h.db.First(&got, user.ID).Error)
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, 2, got.LoginCount)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.createUser(t, "gopher@example.com", "correct-horse", true)

	login := h.login(t, "gopher@example.com", "correct-horse")

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// the old cookie no longer authenticates
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	who := httptest.NewRecorder()
	h.mux.ServeHTTP(who, req)
	assert.Empty(t, who.Body.String())
}

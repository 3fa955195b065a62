package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soon/pkg/cookie"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// roundTrip copies the recorder's cookies onto a fresh request, the way
// a browser would on the next visit.
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestPlainCookieRoundTrip(t *testing.T) {
	t.Parallel()

	m := cookie.New()
	rec := httptest.NewRecorder()
	m.Set(rec, "theme", "dark", 3600)

	got, err := m.Get(roundTrip(rec), "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
}

func TestGet_Missing(t *testing.T) {
	t.Parallel()

	m := cookie.New()
	_, err := m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "theme")
	assert.ErrorIs(t, err, cookie.ErrNotFound)
}

func TestSignedCookieRoundTrip(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))
	rec := httptest.NewRecorder()
	require.NoError(t, m.SetSigned(rec, "session", "token-1", 3600))

	got, err := m.GetSigned(roundTrip(rec), "session")
	require.NoError(t, err)
	assert.Equal(t, "token-1", got)
}

func TestSignedCookie_TamperedValueRejected(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))
	rec := httptest.NewRecorder()
	require.NoError(t, m.SetSigned(rec, "session", "token-1", 3600))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		c.Value = "x" + c.Value[1:]
		req.AddCookie(c)
	}
	_, err := m.GetSigned(req, "session")
	assert.ErrorIs(t, err, cookie.ErrBadSig)
}

func TestSignedCookie_WrongSecretRejected(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))
	rec := httptest.NewRecorder()
	require.NoError(t, m.SetSigned(rec, "session", "token-1", 3600))

	other := cookie.New(cookie.WithSecret("fedcba9876543210fedcba9876543210"))
	_, err := other.GetSigned(roundTrip(rec), "session")
	assert.ErrorIs(t, err, cookie.ErrBadSig)
}

func TestSigned_RequiresSecret(t *testing.T) {
	t.Parallel()

	m := cookie.New()
	assert.ErrorIs(t, m.SetSigned(httptest.NewRecorder(), "session", "v", 0), cookie.ErrNoSecret)

	// a secret below the minimum length leaves plain-cookie mode
	short := cookie.New(cookie.WithSecret("too-short"))
	assert.ErrorIs(t, short.SetSigned(httptest.NewRecorder(), "session", "v", 0), cookie.ErrNoSecret)
}

func TestFlash_DeletedOnRead(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))
	rec := httptest.NewRecorder()
	require.NoError(t, m.SetFlash(rec, "success", "Record created."))

	next := httptest.NewRecorder()
	var msg string
	require.NoError(t, m.Flash(next, roundTrip(rec), "success", &msg))
	assert.Equal(t, "Record created.", msg)

	// the read response expires the cookie
	var expired bool
	for _, c := range next.Result().Cookies() {
		if c.Name == "flash_success" && c.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired)
}

func TestFlash_MissingKey(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))
	err := m.Flash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "success", new(string))
	assert.ErrorIs(t, err, cookie.ErrNotFound)
}

func TestDelete_ExpiresCookie(t *testing.T) {
	t.Parallel()

	m := cookie.New()
	rec := httptest.NewRecorder()
	m.Delete(rec, "theme")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "theme", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

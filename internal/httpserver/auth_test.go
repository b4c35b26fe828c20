package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ecom_proj/internal/auth"
	"github.com/Skotchmaster/ecom_proj/internal/transport"
)

func (env *testEnv) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return env.do(req)
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.postJSON("/api/auth/register", `{"username":"alice","password":"secret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret-pass")
	assert.Contains(t, rec.Body.String(), `"role":"user"`)

	rec = env.postJSON("/api/auth/register", `{"username":"alice","password":"other-pass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.postJSON("/api/auth/register", `{"username":"bob","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.postJSON("/api/auth/login", `{"username":"alice","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.postJSON("/api/auth/login", `{"username":"alice","password":"secret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[transport.TokenResponse](t, rec)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Positive(t, tok.ExpiresIn)

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.AccessCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie, "login sets the access cookie")
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alice"`)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.AccessToken)
	assert.Equal(t, http.StatusOK, env.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)

	assert.Equal(t, http.StatusUnauthorized, env.get("/api/auth/me").Code)
}

func TestLogoutExpiresCookie(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out", decode[apiMessage](t, rec).Message)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.AccessCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/farmstead/storefront/internal/models"
	"github.com/farmstead/storefront/internal/session"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]string{
		"email":    "grower@example.com",
		"password": "password123",
		"name":     "Grower",
	}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", payload)
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "grower@example.com").First(&user).Error)
	require.Equal(t, "Grower", user.Name)
	require.False(t, user.IsAdmin)
	require.NotEqual(t, "password123", user.PasswordHash)

	// same email again
	_, c2 := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", payload)
	err := env.Auth.Register(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]string{
		"email":    "grower@example.com",
		"password": "short",
		"name":     "Grower",
	}

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/register", payload)
	err := env.Auth.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "grower@example.com", false)

	payload := map[string]string{"email": "grower@example.com", "password": "password123"}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", payload)
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)

	sess, err := env.Sessions.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.Equal(t, "grower@example.com", sess.Email)

	// wrong password: same generic message as unknown email
	_, cBad := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "grower@example.com", "password": "wrong-password"})
	err = env.Auth.Login(cBad)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
	require.Equal(t, "invalid credentials", he.Message)

	_, cUnknown := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "nobody@example.com", "password": "password123"})
	err = env.Auth.Login(cUnknown)
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
	require.Equal(t, "invalid credentials", he.Message)
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "grower@example.com", false)
	cookie := env.loginAs(t, user)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	require.NoError(t, env.Mw.RequireSession(env.Auth.Logout)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := env.Sessions.Get(context.Background(), cookie.Value)
	require.ErrorIs(t, err, session.ErrNoSession)

	// second call with the dead cookie is rejected by the middleware
	_, c2 := env.doJSONRequest(http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	err = env.Mw.RequireSession(env.Auth.Logout)(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestMeReadsFreshUserRow(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "grower@example.com", false)
	cookie := env.loginAs(t, user)

	// profile changed behind the session's back
	require.NoError(t, env.DB.Model(user).Update("name", "Renamed Grower").Error)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/auth/me", nil, cookie)
	require.NoError(t, env.Mw.RequireSession(env.Auth.Me)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got session.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Renamed Grower", got.Name)
	require.Equal(t, "grower@example.com", got.Email)
}

func TestUpdateAccountRewritesSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "grower@example.com", false)
	cookie := env.loginAs(t, user)

	payload := map[string]string{
		"name":   "Grower Jones",
		"street": "12 Orchard Ln",
		"city":   "Olympia",
		"state":  "WA",
		"zip":    "98501",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/auth/account", payload, cookie)
	require.NoError(t, env.Mw.RequireSession(env.Auth.UpdateAccount)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var fresh models.User
	require.NoError(t, env.DB.First(&fresh, user.ID).Error)
	require.Equal(t, "Grower Jones", fresh.Name)
	require.Equal(t, "Olympia", fresh.City)

	sess, err := env.Sessions.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.Equal(t, "Grower Jones", sess.Name)
	require.Equal(t, "12 Orchard Ln", sess.Street)
	require.Equal(t, "98501", sess.Zip)
}

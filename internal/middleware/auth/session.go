package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmstead/storefront/internal/session"
)

const contextKey = "session"

// Middleware resolves the session cookie against the store and hangs the
// session record on the echo context.
type Middleware struct {
	Store *session.Store
}

// Load attaches the session when the cookie is valid and continues anonymous
// otherwise. Handlers that allow guest access (checkout, contact) use this.
func (m *Middleware) Load(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if sess, id, err := m.resolve(c); err == nil {
			c.Set(contextKey, sess)
			c.Set(contextKey+"_id", id)
		}
		return next(c)
	}
}

// RequireSession rejects the request when no valid session cookie is present.
func (m *Middleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, id, err := m.resolve(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		}
		c.Set(contextKey, sess)
		c.Set(contextKey+"_id", id)
		return next(c)
	}
}

// RequireAdmin additionally checks the admin flag.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireSession(func(c echo.Context) error {
		if sess := FromContext(c); sess == nil || !sess.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		}
		return next(c)
	})
}

func (m *Middleware) resolve(c echo.Context) (*session.Session, string, error) {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, "", session.ErrNoSession
	}
	sess, err := m.Store.Get(c.Request().Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			c.Logger().Errorf("session lookup error: %v", err)
		}
		return nil, "", session.ErrNoSession
	}
	return sess, cookie.Value, nil
}

// FromContext returns the session attached by the middleware, or nil.
func FromContext(c echo.Context) *session.Session {
	if v, ok := c.Get(contextKey).(*session.Session); ok {
		return v
	}
	return nil
}

// IDFromContext returns the session id attached by the middleware.
func IDFromContext(c echo.Context) string {
	if v, ok := c.Get(contextKey + "_id").(string); ok {
		return v
	}
	return ""
}

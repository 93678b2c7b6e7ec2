package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/farmstead/storefront/internal/events"
	"github.com/farmstead/storefront/internal/hash"
	"github.com/farmstead/storefront/internal/logging"
	authmw "github.com/farmstead/storefront/internal/middleware/auth"
	"github.com/farmstead/storefront/internal/models"
	"github.com/farmstead/storefront/internal/session"
)

type AuthHandler struct {
	DB       *gorm.DB
	Sessions *session.Store
	Producer *events.Producer
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicUsers, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func sessionFromUser(u *models.User) *session.Session {
	return &session.Session{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.IsAdmin,
		Street:  u.Street,
		City:    u.City,
		State:   u.State,
		Zip:     u.Zip,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Email    string `json:"email"    validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Name     string `json:"name"     validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and name are required")
	}

	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		l.Warn("register_failed", "status", 409, "reason", "email_exists")
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: pwHash,
		CreatedAt:    time.Now(),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{"type": "user_registered", "userID": user.ID, "email": user.Email})

	l.Info("register_success", "status", 201, "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{"message": "Registration successful"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	sess := sessionFromUser(&user)
	id, err := h.Sessions.Create(ctx, sess)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "session_store", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	c.SetCookie(session.Cookie(id, time.Now().Add(h.Sessions.TTL)))

	h.publish(c, map[string]any{"type": "user_logged_in", "userID": user.ID})

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "user": sess})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if id := authmw.IDFromContext(c); id != "" {
		if err := h.Sessions.Destroy(c.Request().Context(), id); err != nil {
			c.Logger().Errorf("session destroy error: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}
	c.SetCookie(session.Cookie("", time.Now().Add(-time.Hour)))
	return c.NoContent(http.StatusOK)
}

// Me re-reads the user row rather than echoing the session record, so a stale
// session never reports stale profile data.
func (h *AuthHandler) Me(c echo.Context) error {
	sess := authmw.FromContext(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}

	var user models.User
	if err := h.DB.First(&user, sess.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, sessionFromUser(&user))
}

// UpdateAccount writes the users row and immediately rewrites the stored
// session so the change shows up on the next read.
func (h *AuthHandler) UpdateAccount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_account_update")

	sess := authmw.FromContext(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}

	var req struct {
		Name   string `json:"name" validate:"required"`
		Street string `json:"street"`
		City   string `json:"city"`
		State  string `json:"state"`
		Zip    string `json:"zip"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	updates := map[string]any{
		"name": req.Name, "street": req.Street,
		"city": req.City, "state": req.State, "zip": req.Zip,
	}
	if err := h.DB.Model(&models.User{}).Where("id = ?", sess.UserID).Updates(updates).Error; err != nil {
		l.Error("account_update_failed", "user_id", sess.UserID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	sess.Name = req.Name
	sess.Street = req.Street
	sess.City = req.City
	sess.State = req.State
	sess.Zip = req.Zip
	if err := h.Sessions.Update(ctx, authmw.IDFromContext(c), sess); err != nil {
		l.Error("session_update_failed", "user_id", sess.UserID, "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Account updated successfully"})
}

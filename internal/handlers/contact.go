package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmstead/storefront/internal/logging"
	"github.com/farmstead/storefront/internal/mail"
)

type ContactHandler struct {
	Mailer mail.Sender
	Inbox  string
}

// Relay forwards a contact-form submission to the business inbox. This is the
// one mail path whose failure the caller does see: there is no committed
// state to protect, so a lost message should not pretend to have been sent.
func (h *ContactHandler) Relay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact")

	var req struct {
		Name    string `json:"name"    validate:"required"`
		Email   string `json:"email"   validate:"required,email"`
		Message string `json:"message" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "All fields are required.")
	}

	msg, err := mail.ContactRelay(req.Name, req.Email, req.Message, h.Inbox)
	if err == nil {
		err = h.Mailer.Send(ctx, msg)
	}
	if err != nil {
		l.Error("contact_relay_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send message.")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

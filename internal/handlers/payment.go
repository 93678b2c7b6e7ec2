package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmstead/storefront/internal/logging"
	"github.com/farmstead/storefront/internal/payment"
	"github.com/farmstead/storefront/internal/service/checkout"
)

type PaymentHandler struct {
	Client *payment.Client
}

// CreateIntent authorizes a capture and returns the client secret. The
// storefront may send a precomputed amount in cents, or the cart plus
// shipping cost for the server to price itself.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment_intent")

	var req struct {
		Amount       int64               `json:"amount"`
		CartItems    []checkout.CartLine `json:"cartItems"`
		ShippingCost float64             `json:"shippingCost"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	amount := req.Amount
	if amount == 0 && len(req.CartItems) > 0 {
		amount = checkout.OrderTotalCents(req.CartItems, req.ShippingCost)
	}
	if amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Amount must be a number in cents.")
	}

	secret, err := h.Client.CreateIntent(ctx, amount)
	if err != nil {
		l.Error("payment_intent_failed", "amount_cents", amount, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"clientSecret": secret})
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/farmstead/storefront/internal/middleware/auth"
	"github.com/farmstead/storefront/internal/service/checkout"
)

type CheckoutHandler struct {
	Checkout *checkout.Service
}

// PlaceOrder runs the checkout orchestration. Payment was already confirmed
// by the storefront against the intent's client secret before this call.
func (h *CheckoutHandler) PlaceOrder(c echo.Context) error {
	var req checkout.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.CartItems) == 0 || req.ShippingInfo.Street == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing shipping info or cart items.")
	}

	if sess := authmw.FromContext(c); sess != nil {
		req.SessionEmail = sess.Email
	}

	order, err := h.Checkout.PlaceOrder(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

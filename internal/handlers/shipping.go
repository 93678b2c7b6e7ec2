package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmstead/storefront/internal/logging"
	"github.com/farmstead/storefront/internal/shipping"
)

type ShippingHandler struct {
	Client *shipping.Client
}

// ValidateAddress proxies the verification result back to the storefront.
// Upstream trouble is a 500 with a generic message, full detail in the log.
func (h *ShippingHandler) ValidateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "validate_address")

	var addr shipping.Address
	if err := c.Bind(&addr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Client.VerifyAddress(ctx, addr)
	if err != nil {
		l.Error("address_validation_failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"valid":   false,
			"message": "Server error validating address",
		})
	}
	if !res.Valid {
		return c.JSON(http.StatusBadRequest, res)
	}
	return c.JSON(http.StatusOK, res)
}

// Rates quotes carrier options for the cart. A failed quote returns an empty
// list so the storefront can fall back to local pickup instead of blocking
// checkout.
func (h *ShippingHandler) Rates(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shipping_rates")

	var req struct {
		shipping.Address
		CartItems []shipping.CartItem `json:"cartItems"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Street == "" || req.City == "" || req.State == "" || req.Zip == "" || len(req.CartItems) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing address or cart items")
	}

	rates, err := h.Client.GetRates(ctx, req.Address, req.CartItems)
	if err != nil {
		l.Error("rate_quote_failed", "error", err)
		return c.JSON(http.StatusOK, []shipping.Rate{})
	}
	return c.JSON(http.StatusOK, rates)
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/farmstead/storefront/internal/events"
	authmw "github.com/farmstead/storefront/internal/middleware/auth"
	"github.com/farmstead/storefront/internal/models"
	"github.com/farmstead/storefront/internal/service/orders"
)

type OrderHandler struct {
	Orders   *orders.Service
	Producer *events.Producer
}

// ListAll serves the admin order dashboard.
func (h *OrderHandler) ListAll(c echo.Context) error {
	list, err := h.Orders.ListAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateStatus sets status and tracking; the first move into Shipped triggers
// the one-time shipment notice inside the ledger service.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		OrderStatus    string `json:"orderStatus"`
		TrackingNumber string `json:"trackingNumber"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	status, err := models.ParseStatus(req.OrderStatus)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Orders.UpdateStatus(c.Request().Context(), uint(id), status, req.TrackingNumber)
	if err != nil {
		return httpError(err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	event := map[string]any{"type": "order_status_updated", "orderID": order.ID, "status": order.Status}
	if err := h.Producer.PublishEvent(ctx, events.TopicOrders, fmt.Sprint(order.ID), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}

	return c.JSON(http.StatusOK, order)
}

// ListMine returns the signed-in customer's orders, matched by the session
// email.
func (h *OrderHandler) ListMine(c echo.Context) error {
	sess := authmw.FromContext(c)
	if sess == nil || sess.Email == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}

	list, err := h.Orders.ListByEmail(c.Request().Context(), sess.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// Latest returns the customer's most recent order, for the confirmation page.
func (h *OrderHandler) Latest(c echo.Context) error {
	sess := authmw.FromContext(c)
	if sess == nil || sess.Email == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}

	order, err := h.Orders.Latest(c.Request().Context(), sess.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/farmstead/storefront/internal/models"
)

func seedOrder(t *testing.T, env *testEnv, email string) *models.Order {
	t.Helper()
	prod := models.Product{Name: "Honey", Price: 12.50, StockQty: 10}
	require.NoError(t, env.DB.Create(&prod).Error)

	detail := models.ShippingDetail{
		FullName: "Pat Shopper", Street: "12 Orchard Ln",
		City: "Olympia", State: "WA", Zip: "98501", Email: email,
	}
	require.NoError(t, env.DB.Create(&detail).Error)

	order := models.Order{
		ShippingID:   detail.ID,
		Status:       models.StatusPending,
		ShippingCost: 7.48,
		Lines:        []models.OrderLine{{ProductID: prod.ID, Quantity: 2, UnitPrice: 12.50}},
	}
	require.NoError(t, env.DB.Create(&order).Error)
	return &order
}

func TestUpdateStatusHandler(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(t, env, "shopper@example.com")

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/orders/1",
		map[string]string{"orderStatus": "Shipped", "trackingNumber": "TRACK-123"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Orders.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, models.StatusShipped, got.Status)
	require.Equal(t, "TRACK-123", got.TrackingNumber)
	require.NotNil(t, got.ShippedAt)

	// shipment notice went out to the shipping email
	require.Len(t, env.Sender.sent, 1)
	require.Equal(t, "shopper@example.com", env.Sender.sent[0].To)
}

func TestUpdateStatusHandlerRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(t, env, "shopper@example.com")

	_, c := env.doJSONRequest(http.MethodPut, "/api/v1/admin/orders/1",
		map[string]string{"orderStatus": "Teleported"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := env.Orders.UpdateStatus(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestListMineScopedToSessionEmail(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(t, env, "mine@example.com")
	seedOrder(t, env, "theirs@example.com")

	user := env.createUser(t, "mine@example.com", false)
	cookie := env.loginAs(t, user)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil, cookie)
	require.NoError(t, env.Mw.RequireSession(env.Orders.ListMine)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "mine@example.com", list[0].Shipping.Email)
}

func TestLatestOrderNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "mine@example.com", false)
	cookie := env.loginAs(t, user)

	_, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders/last", nil, cookie)
	err := env.Mw.RequireSession(env.Orders.Latest)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/farmstead/storefront/internal/models"
)

func checkoutPayload() map[string]any {
	return map[string]any{
		"shippingInfo": map[string]string{
			"fullName": "Pat Shopper",
			"street":   "12 Orchard Ln",
			"city":     "Olympia",
			"state":    "WA",
			"zip":      "98501",
			"email":    "guest@example.com",
		},
		"shippingMethod": "USPS GroundAdvantage",
		"shippingCost":   7.48,
		"cartItems": []map[string]any{
			{"productId": 1, "quantity": 2, "price": 12.50},
		},
	}
}

func TestPlaceOrderHandler(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.DB.Create(&models.Product{Name: "Honey", Price: 12.50, StockQty: 10, WeightOz: 18}).Error)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", checkoutPayload())
	require.NoError(t, env.Mw.Load(env.Checkout.PlaceOrder)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.NotZero(t, order.ID)
	require.Equal(t, models.StatusPending, order.Status)
	require.Len(t, order.Lines, 1)

	var fresh models.Product
	require.NoError(t, env.DB.First(&fresh, 1).Error)
	require.Equal(t, 8, fresh.StockQty)

	// guest checkout: confirmation goes to the shipping email
	require.Len(t, env.Sender.sent, 1)
	require.Equal(t, "guest@example.com", env.Sender.sent[0].To)
}

func TestPlaceOrderHandlerPrefersSessionEmail(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.DB.Create(&models.Product{Name: "Honey", Price: 12.50, StockQty: 10}).Error)
	user := env.createUser(t, "account@example.com", false)
	cookie := env.loginAs(t, user)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", checkoutPayload(), cookie)
	require.NoError(t, env.Mw.Load(env.Checkout.PlaceOrder)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.Sender.sent, 1)
	require.Equal(t, "account@example.com", env.Sender.sent[0].To)
}

func TestPlaceOrderHandlerRejectsEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	payload := checkoutPayload()
	payload["cartItems"] = []map[string]any{}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", payload)
	err := env.Mw.Load(env.Checkout.PlaceOrder)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
	require.Equal(t, "Missing shipping info or cart items.", he.Message)
}

func TestPlaceOrderHandlerInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.DB.Create(&models.Product{Name: "Honey", Price: 12.50, StockQty: 1}).Error)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", checkoutPayload())
	err := env.Mw.Load(env.Checkout.PlaceOrder)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, he.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "2498", r.PostForm.Get("amount"))
		require.Equal(t, "usd", r.PostForm.Get("currency"))

		json.NewEncoder(w).Encode(map[string]any{"client_secret": "pi_1_secret_abc"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_123")
	secret, err := c.CreateIntent(context.Background(), 2498)
	require.NoError(t, err)
	require.Equal(t, "pi_1_secret_abc", secret)
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	c := NewClient("http://unused", "sk_test_123")

	_, err := c.CreateIntent(context.Background(), 0)
	require.Error(t, err)
	_, err = c.CreateIntent(context.Background(), -100)
	require.Error(t, err)
}

func TestCreateIntentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Your card was declined"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_123")
	_, err := c.CreateIntent(context.Background(), 500)
	require.Error(t, err)
	require.Contains(t, err.Error(), "declined")
}

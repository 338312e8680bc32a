package payment

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hersa37/kuenyawz-api/internal/app"
)

func paymentRequest() app.PaymentRequest {
	return app.PaymentRequest{
		OrderID:     "12345",
		GrossAmount: decimal.NewFromInt(825000),
		Items: []app.PaymentItemDetail{
			{ID: "11", Name: "Lapis Legit", Price: decimal.NewFromInt(350000), Quantity: 2},
			{ID: "service_fee", Name: "Service Fee", Price: decimal.NewFromInt(5000), Quantity: 1},
		},
		Customer: app.PaymentCustomer{Name: "Account 7", Phone: "81234567890"},
		Expiry:   24 * time.Hour,
	}
}

func TestClientCreateTransaction(t *testing.T) {
	t.Parallel()

	var captured snapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/snap/v1/transactions", r.URL.Path)

		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("server-key:"))
		require.Equal(t, wantAuth, r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapResponse{
			Token:         "snap-token",
			RedirectURL:   "https://pay.example/redirect/snap-token",
			TransactionID: "MT-0001",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "server-key", zap.NewNop())

	resp, err := client.CreateTransaction(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, "snap-token", resp.Token)
	assert.Equal(t, "https://pay.example/redirect/snap-token", resp.RedirectURL)
	assert.Equal(t, "MT-0001", resp.TransactionID)

	assert.Equal(t, "12345", captured.TransactionDetails.OrderID)
	assert.Equal(t, "825000", captured.TransactionDetails.GrossAmount)
	assert.Len(t, captured.ItemDetails, 2)
	assert.Equal(t, "minutes", captured.Expiry.Unit)
	assert.Equal(t, 24*60, captured.Expiry.Duration)
}

func TestClientFallsBackToToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(snapResponse{Token: "only-token"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "server-key", zap.NewNop())

	resp, err := client.CreateTransaction(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, "only-token", resp.TransactionID)
}

func TestClientGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(snapResponse{ErrorMessages: []string{"access denied"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong-key", zap.NewNop())

	_, err := client.CreateTransaction(context.Background(), paymentRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestClientBreakerOpens(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "server-key", zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := client.CreateTransaction(context.Background(), paymentRequest())
		require.Error(t, err)
	}

	// The breaker is open now; the request never reaches the server.
	srv.Close()
	_, err := client.CreateTransaction(context.Background(), paymentRequest())
	require.Error(t, err)
}

func TestValidSignature(t *testing.T) {
	t.Parallel()

	sum := sha512.Sum512([]byte("12345" + "200" + "825000.00" + "server-key"))
	signature := hex.EncodeToString(sum[:])

	assert.True(t, ValidSignature(signature, "12345", "200", "825000.00", "server-key"))
	assert.False(t, ValidSignature(signature, "12345", "200", "825000.00", "other-key"))
	assert.False(t, ValidSignature("bogus", "12345", "200", "825000.00", "server-key"))
}

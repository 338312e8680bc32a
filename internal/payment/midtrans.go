package payment

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/hersa37/kuenyawz-api/internal/app"
)

// Client talks to a Midtrans-style Snap API: an itemized request buys
// a redirect URL the customer completes payment on.
type Client struct {
	baseURL   string
	serverKey string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

const defaultTimeout = 10 * time.Second

func NewClient(baseURL, serverKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		serverKey: serverKey,
		http:      &http.Client{Timeout: defaultTimeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "payment-gateway",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
	}
}

type snapRequest struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	ItemDetails        []itemDetail       `json:"item_details"`
	CustomerDetails    customerDetails    `json:"customer_details"`
	Expiry             expiry             `json:"expiry"`
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount string `json:"gross_amount"`
}

type itemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

type customerDetails struct {
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
}

type expiry struct {
	Unit     string `json:"unit"`
	Duration int    `json:"duration"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	TransactionID string   `json:"transaction_id"`
	ErrorMessages []string `json:"error_messages"`
}

// CreateTransaction submits the request and returns the payment
// redirect. Consecutive failures open the breaker so a dead gateway
// fails fast instead of tying up request handlers.
func (c *Client) CreateTransaction(ctx context.Context, req app.PaymentRequest) (app.PaymentResponse, error) {
	body := snapRequest{
		TransactionDetails: transactionDetails{
			OrderID:     req.OrderID,
			GrossAmount: req.GrossAmount.String(),
		},
		CustomerDetails: customerDetails{
			FirstName: req.Customer.Name,
			Phone:     req.Customer.Phone,
		},
		Expiry: expiry{
			Unit:     "minutes",
			Duration: int(req.Expiry.Minutes()),
		},
	}
	for _, item := range req.Items {
		body.ItemDetails = append(body.ItemDetails, itemDetail{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price.String(),
			Quantity: item.Quantity,
		})
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		c.logger.Warn("payment gateway call failed", zap.String("order_id", req.OrderID), zap.Error(err))
		return app.PaymentResponse{}, err
	}

	resp := result.(snapResponse)
	referenceID := resp.TransactionID
	if referenceID == "" {
		referenceID = resp.Token
	}
	return app.PaymentResponse{
		Token:         resp.Token,
		RedirectURL:   resp.RedirectURL,
		TransactionID: referenceID,
	}, nil
}

func (c *Client) post(ctx context.Context, body snapRequest) (snapResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return snapResponse{}, fmt.Errorf("marshal snap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/snap/v1/transactions", bytes.NewReader(payload))
	if err != nil {
		return snapResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+basicAuth(c.serverKey))

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return snapResponse{}, fmt.Errorf("gateway request: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return snapResponse{}, fmt.Errorf("read gateway response: %w", err)
	}

	var resp snapResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return snapResponse{}, fmt.Errorf("decode gateway response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		if len(resp.ErrorMessages) > 0 {
			return snapResponse{}, fmt.Errorf("gateway status %d: %s", httpResp.StatusCode, resp.ErrorMessages[0])
		}
		return snapResponse{}, fmt.Errorf("gateway status %d", httpResp.StatusCode)
	}
	return resp, nil
}

// basicAuth encodes the server key the way the gateway expects:
// "key:" base64-encoded, with an empty password.
func basicAuth(serverKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(serverKey + ":"))
}

// ValidSignature checks a webhook notification signature:
// sha512(orderID + statusCode + grossAmount + serverKey).
func ValidSignature(signature, orderID, statusCode, grossAmount, serverKey string) bool {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:]) == signature
}

package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client posts messages to a WhatsApp-gateway HTTP API. Delivery is
// best-effort by contract: callers log the returned error and move on.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

const defaultTimeout = 10 * time.Second

func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// Send delivers message to phone, normalized to countryCode.
func (c *Client) Send(ctx context.Context, phone, message, countryCode string) error {
	payload, err := json.Marshal(sendRequest{
		Recipient: normalizePhone(phone, countryCode),
		Message:   message,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("message gateway status %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("recipient", normalizePhone(phone, countryCode)))
	return nil
}

// normalizePhone prefixes the country dialing code, dropping a leading
// zero from local formats.
func normalizePhone(phone, countryCode string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone[1:]
	}
	if strings.HasPrefix(phone, countryCode) {
		return phone
	}
	return countryCode + strings.TrimPrefix(phone, "0")
}

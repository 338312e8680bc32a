package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hersa37/kuenyawz-api/internal/domain"
	"github.com/hersa37/kuenyawz-api/internal/payment"
)

// PaymentUpdater applies a gateway-reported transaction status.
type PaymentUpdater interface {
	HandlePaymentUpdate(ctx context.Context, transactionID int64, status domain.TransactionStatus) error
}

type paymentNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
}

// HandlePaymentNotification returns the webhook handler the gateway
// calls with payment status changes. The signature is checked against
// the configured server key before anything is applied.
func HandlePaymentNotification(svc PaymentUpdater, serverKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var notif paymentNotification
		if err := json.NewDecoder(r.Body).Decode(&notif); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		if !payment.ValidSignature(notif.SignatureKey, notif.OrderID, notif.StatusCode, notif.GrossAmount, serverKey) {
			writeServiceError(w, domain.ErrInvalidSignature)
			return
		}

		transactionID, err := strconv.ParseInt(notif.OrderID, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid order id")
			return
		}

		status, ok := gatewayStatus(notif.TransactionStatus)
		if !ok {
			writeError(w, http.StatusBadRequest, codeBadRequest, "unknown transaction status")
			return
		}

		if err := svc.HandlePaymentUpdate(r.Context(), transactionID, status); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// gatewayStatus maps the gateway's status vocabulary onto ours.
func gatewayStatus(s string) (domain.TransactionStatus, bool) {
	switch s {
	case "capture":
		return domain.TransactionStatusCapture, true
	case "settlement":
		return domain.TransactionStatusSettlement, true
	case "pending":
		return domain.TransactionStatusPending, true
	case "deny":
		return domain.TransactionStatusDeny, true
	case "cancel":
		return domain.TransactionStatusCancelled, true
	case "expire":
		return domain.TransactionStatusExpired, true
	case "failure":
		return domain.TransactionStatusFailed, true
	default:
		return "", false
	}
}

package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

// Statuses follow the payment gateway's vocabulary. Capture and
// settlement both count as paid.
const (
	TransactionStatusCreated    TransactionStatus = "created"
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusCapture    TransactionStatus = "capture"
	TransactionStatusSettlement TransactionStatus = "settlement"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
	TransactionStatusDeny       TransactionStatus = "deny"
	TransactionStatusExpired    TransactionStatus = "expired"
	TransactionStatusFailed     TransactionStatus = "failed"
)

var validTransactionStatuses = map[TransactionStatus]struct{}{
	TransactionStatusCreated:    {},
	TransactionStatusPending:    {},
	TransactionStatusCapture:    {},
	TransactionStatusSettlement: {},
	TransactionStatusCancelled:  {},
	TransactionStatusDeny:       {},
	TransactionStatusExpired:    {},
	TransactionStatusFailed:     {},
}

func ToTransactionStatus(s string) (TransactionStatus, error) {
	status := TransactionStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validTransactionStatuses[status]; ok {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// IsActive reports whether the transaction blocks the account from
// opening another purchase.
func (s TransactionStatus) IsActive() bool {
	return s == TransactionStatusCreated || s == TransactionStatusPending
}

func (s TransactionStatus) IsPaid() bool {
	return s == TransactionStatusCapture || s == TransactionStatusSettlement
}

// Transaction records one payment attempt against a purchase.
type Transaction struct {
	ID          int64
	PurchaseID  int64
	AccountID   int64
	Status      TransactionStatus
	Amount      decimal.Decimal
	ReferenceID string // the gateway's own id for this transaction
	PaymentURL  string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseStatusCreated   PurchaseStatus = "created"
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusConfirmed PurchaseStatus = "confirmed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
	PurchaseStatusDelivered PurchaseStatus = "delivered"
)

// rank orders the forward path of the state machine. Cancelled sits
// outside the path and is handled explicitly.
var purchaseStatusRank = map[PurchaseStatus]int{
	PurchaseStatusCreated:   0,
	PurchaseStatusPending:   1,
	PurchaseStatusConfirmed: 2,
	PurchaseStatusDelivered: 3,
}

var purchaseStatusDescriptions = map[PurchaseStatus]string{
	PurchaseStatusCreated:   "Purchase created, awaiting payment",
	PurchaseStatusPending:   "Payment received, awaiting confirmation",
	PurchaseStatusConfirmed: "Confirmed, scheduled for preparation",
	PurchaseStatusCancelled: "Cancelled",
	PurchaseStatusDelivered: "Delivered",
}

func ToPurchaseStatus(s string) (PurchaseStatus, error) {
	status := PurchaseStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := purchaseStatusDescriptions[status]; ok {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// CanTransitionTo reports whether the state machine allows moving to
// target. Transitions only go forward; cancelled is reachable from
// created, pending and confirmed; delivered and cancelled are terminal.
func (s PurchaseStatus) CanTransitionTo(target PurchaseStatus) bool {
	if s == PurchaseStatusCancelled || s == PurchaseStatusDelivered {
		return false
	}
	if target == PurchaseStatusCancelled {
		return true
	}
	from, ok := purchaseStatusRank[s]
	if !ok {
		return false
	}
	to, ok := purchaseStatusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// Next returns the next status on the forward path.
func (s PurchaseStatus) Next() (PurchaseStatus, error) {
	switch s {
	case PurchaseStatusCreated:
		return PurchaseStatusPending, nil
	case PurchaseStatusPending:
		return PurchaseStatusConfirmed, nil
	case PurchaseStatusConfirmed:
		return PurchaseStatusDelivered, nil
	default:
		return "", ErrIllegalTransition
	}
}

// AvailableTransitions returns the statuses reachable from s, keyed by
// status name, with a human-readable description as the value.
func (s PurchaseStatus) AvailableTransitions() map[string]string {
	out := make(map[string]string)
	for status, desc := range purchaseStatusDescriptions {
		if s.CanTransitionTo(status) {
			out[string(status)] = desc
		}
	}
	return out
}

// Purchase is the order aggregate: line items, the event date the
// order is scheduled for and the lifecycle status. Transactions are
// tracked separately by the ledger.
type Purchase struct {
	ID              int64
	AccountID       int64
	EventDate       time.Time // date only, UTC midnight
	Phone           string    // delivery contact, snapshotted at order time
	DeliveryAddress string
	DeliveryFee     *decimal.Decimal
	Items           []PurchaseItem
	Status          PurchaseStatus
	CreatedAt       time.Time
}

// PurchaseItem snapshots a product variant at order time.
type PurchaseItem struct {
	VariantID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Note        string
}

// Total sums item subtotals plus the delivery fee when present.
func (p Purchase) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if p.DeliveryFee != nil {
		total = total.Add(*p.DeliveryFee)
	}
	return total
}

// DateOnly truncates t to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hersa37/kuenyawz-api/internal/auth"
	"github.com/hersa37/kuenyawz-api/internal/clock"
	"github.com/hersa37/kuenyawz-api/internal/domain"
	"github.com/hersa37/kuenyawz-api/internal/ids"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// PurchaseStore persists purchase aggregates.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, purchase domain.Purchase) error
	GetPurchase(ctx context.Context, id int64) (domain.Purchase, error)
	GetPurchaseForUpdate(ctx context.Context, id int64) (domain.Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, id int64, status domain.PurchaseStatus) error
	ListPurchasesByAccount(ctx context.Context, accountID int64) ([]domain.Purchase, error)
	ListAllPurchases(ctx context.Context) ([]domain.Purchase, error)
}

// TransactionLedger records payment attempts and answers ownership and
// ongoing-transaction queries.
type TransactionLedger interface {
	CreateTransaction(ctx context.Context, trans domain.Transaction) error
	FindTransactionsByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	FindTransactionsByPurchase(ctx context.Context, purchaseID int64) ([]domain.Transaction, error)
	CancelTransactionsOfPurchase(ctx context.Context, purchaseID int64) error
	IsTransactionOwner(ctx context.Context, purchaseID, accountID int64) (bool, error)
	UpdateTransactionStatus(ctx context.Context, transactionID int64, status domain.TransactionStatus) (domain.Transaction, error)
}

// ClosedDateCalendar tracks dates blocked for new bookings.
type ClosedDateCalendar interface {
	ClosedDatesBetween(ctx context.Context, start, end time.Time) ([]domain.ClosedDate, error)
	SaveClosedDates(ctx context.Context, batch []domain.ClosedDate) error
	DeleteClosedDatesBetween(ctx context.Context, start, end time.Time) error
}

// CartStore holds staged items per account.
type CartStore interface {
	CartItemsOf(ctx context.Context, accountID int64) ([]domain.CartItem, error)
	UpsertCartItem(ctx context.Context, item domain.CartItem) error
	RemoveCartItem(ctx context.Context, accountID, variantID int64) error
	ClearCart(ctx context.Context, accountID int64) error
}

// TxRunner executes fn inside one database transaction; the stores
// participate through the transaction carried in ctx.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentItemDetail is one billed line in a gateway request.
type PaymentItemDetail struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

type PaymentCustomer struct {
	Name  string
	Phone string
}

type PaymentRequest struct {
	OrderID     string
	GrossAmount decimal.Decimal
	Items       []PaymentItemDetail
	Customer    PaymentCustomer
	Expiry      time.Duration
}

type PaymentResponse struct {
	Token       string
	RedirectURL string
	// TransactionID is the gateway's reference for this payment.
	TransactionID string
}

// PaymentGateway creates a payment session for an itemized request.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req PaymentRequest) (PaymentResponse, error)
}

// Notifier delivers an outbound message. Callers treat delivery as
// best-effort and only log failures.
type Notifier interface {
	Send(ctx context.Context, phone, message, countryCode string) error
}

// OrderingService orchestrates the order lifecycle: it validates
// against the ledger and the calendar, creates the purchase and its
// payment transaction, and keeps both in step with the gateway.
type OrderingService struct {
	purchases PurchaseStore
	ledger    TransactionLedger
	calendar  ClosedDateCalendar
	cart      CartStore
	tx        TxRunner
	gateway   PaymentGateway
	notifier  Notifier
	ids       ids.Generator
	clock     clock.Clock
	logger    *zap.Logger

	serviceFee    decimal.Decimal
	paymentExpiry time.Duration
	countryCode   string
	frontendURL   string
}

const (
	defaultPaymentExpiry = 24 * time.Hour
	defaultCountryCode   = "62"
)

type OrderingServiceOption func(*OrderingService)

// WithServiceFee sets the fixed fee line added to every payment request.
func WithServiceFee(fee decimal.Decimal) OrderingServiceOption {
	return func(s *OrderingService) {
		s.serviceFee = fee
	}
}

// WithPaymentExpiry overrides how long a payment link stays valid.
func WithPaymentExpiry(d time.Duration) OrderingServiceOption {
	return func(s *OrderingService) {
		if d > 0 {
			s.paymentExpiry = d
		}
	}
}

// WithCountryCode sets the dialing code used for notifications.
func WithCountryCode(code string) OrderingServiceOption {
	return func(s *OrderingService) {
		if code != "" {
			s.countryCode = code
		}
	}
}

// WithFrontendURL sets the link included in status notifications.
func WithFrontendURL(u string) OrderingServiceOption {
	return func(s *OrderingService) {
		s.frontendURL = u
	}
}

func NewOrderingService(
	purchases PurchaseStore,
	ledger TransactionLedger,
	calendar ClosedDateCalendar,
	cart CartStore,
	tx TxRunner,
	gateway PaymentGateway,
	notifier Notifier,
	gen ids.Generator,
	clk clock.Clock,
	logger *zap.Logger,
	opts ...OrderingServiceOption,
) *OrderingService {
	svc := &OrderingService{
		purchases:     purchases,
		ledger:        ledger,
		calendar:      calendar,
		cart:          cart,
		tx:            tx,
		gateway:       gateway,
		notifier:      notifier,
		ids:           gen,
		clock:         clk,
		logger:        logger,
		serviceFee:    decimal.Zero,
		paymentExpiry: defaultPaymentExpiry,
		countryCode:   defaultCountryCode,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type OrderItemInput struct {
	VariantID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Note        string
}

type ProcessOrderInput struct {
	EventDate       time.Time
	DeliveryAddress string
	DeliveryFee     *decimal.Decimal
	Items           []OrderItemInput
}

// PurchaseResult is a persisted purchase together with its transaction.
type PurchaseResult struct {
	Purchase    domain.Purchase
	Transaction domain.Transaction
}

// ProcessOrder turns the caller's cart submission into a purchase with
// a pending payment. The whole operation runs in one transaction: a
// gateway failure leaves nothing persisted.
func (s *OrderingService) ProcessOrder(ctx context.Context, in ProcessOrderInput) (PurchaseResult, error) {
	account, err := auth.CurrentAccount(ctx)
	if err != nil {
		return PurchaseResult{}, err
	}
	if len(in.Items) == 0 {
		return PurchaseResult{}, domain.ErrEmptyOrder
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return PurchaseResult{}, domain.ErrInvalidQuantity
		}
	}

	eventDate := domain.DateOnly(in.EventDate)
	prepStart := eventDate.AddDate(0, 0, -2)
	today := clock.Today(s.clock)

	var result PurchaseResult
	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.ledger.FindTransactionsByAccount(txCtx, account.AccountID)
		if err != nil {
			return err
		}
		if lo.SomeBy(existing, func(t domain.Transaction) bool { return t.Status.IsActive() }) {
			return domain.ErrOngoingTransaction
		}

		// Orders close three days ahead of the event: the two prep
		// days plus one lead day.
		if !today.Before(prepStart.AddDate(0, 0, -1)) {
			return domain.ErrTooCloseToEventDate
		}

		closed, err := s.calendar.ClosedDatesBetween(txCtx, prepStart, eventDate)
		if err != nil {
			return err
		}
		if len(closed) > 0 {
			return domain.ClosedDateConflict(prepStart.Format(DateLayout), eventDate.Format(DateLayout))
		}

		now := s.clock.Now()
		purchase := domain.Purchase{
			ID:              s.ids.Next(),
			AccountID:       account.AccountID,
			EventDate:       eventDate,
			Phone:           account.Phone,
			DeliveryAddress: in.DeliveryAddress,
			DeliveryFee:     in.DeliveryFee,
			Status:          domain.PurchaseStatusCreated,
			CreatedAt:       now,
			Items: lo.Map(in.Items, func(item OrderItemInput, _ int) domain.PurchaseItem {
				return domain.PurchaseItem{
					VariantID:   item.VariantID,
					ProductName: item.ProductName,
					Quantity:    item.Quantity,
					UnitPrice:   item.UnitPrice,
					Note:        item.Note,
				}
			}),
		}

		trans := domain.Transaction{
			ID:         s.ids.Next(),
			PurchaseID: purchase.ID,
			AccountID:  account.AccountID,
			Status:     domain.TransactionStatusCreated,
			Amount:     purchase.Total().Add(s.serviceFee),
			ExpiresAt:  now.Add(s.paymentExpiry),
			CreatedAt:  now,
		}

		if err := s.purchases.CreatePurchase(txCtx, purchase); err != nil {
			return err
		}

		resp, err := s.gateway.CreateTransaction(ctx, s.buildPaymentRequest(purchase, trans, account))
		if err != nil {
			return domain.Dependencyf(err, "payment gateway rejected transaction")
		}
		trans.PaymentURL = resp.RedirectURL
		trans.ReferenceID = resp.TransactionID

		if err := s.ledger.CreateTransaction(txCtx, trans); err != nil {
			return err
		}
		if err := s.calendar.SaveClosedDates(txCtx, domain.ClosedDatesFor(eventDate)); err != nil {
			return err
		}
		if err := s.cart.ClearCart(txCtx, account.AccountID); err != nil {
			return err
		}

		result = PurchaseResult{Purchase: purchase, Transaction: trans}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	s.notify(ctx, account.Phone, fmt.Sprintf(
		"Order %d has been created. Complete your payment to confirm the %s schedule: %s",
		result.Purchase.ID, eventDate.Format(DateLayout), result.Transaction.PaymentURL,
	))

	return result, nil
}

// CancelOrder cancels a purchase and releases its claimed dates. The
// owner may cancel up to the preparation window; admins may cancel any
// time before the event has passed.
func (s *OrderingService) CancelOrder(ctx context.Context, purchaseID int64) (domain.Purchase, error) {
	account, err := auth.CurrentAccount(ctx)
	if err != nil {
		return domain.Purchase{}, err
	}
	admin := auth.IsAdmin(ctx)

	var cancelled domain.Purchase
	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		purchase, err := s.purchases.GetPurchaseForUpdate(txCtx, purchaseID)
		if err != nil {
			return err
		}

		switch purchase.Status {
		case domain.PurchaseStatusCancelled:
			return domain.ErrAlreadyCancelled
		case domain.PurchaseStatusDelivered:
			return domain.ErrAlreadyDelivered
		}

		if !admin {
			owner, err := s.ledger.IsTransactionOwner(txCtx, purchaseID, account.AccountID)
			if err != nil {
				return err
			}
			if !owner {
				return domain.ErrUnauthorized
			}
		}

		today := clock.Today(s.clock)
		if today.After(purchase.EventDate) {
			return domain.ErrCancelAfterEvent
		}
		if today.After(purchase.EventDate.AddDate(0, 0, -2)) && !admin {
			return domain.ErrCancelDuringPrep
		}

		if err := s.ledger.CancelTransactionsOfPurchase(txCtx, purchaseID); err != nil {
			return err
		}
		if err := s.purchases.UpdatePurchaseStatus(txCtx, purchaseID, domain.PurchaseStatusCancelled); err != nil {
			return err
		}
		if err := s.calendar.DeleteClosedDatesBetween(txCtx,
			purchase.EventDate.AddDate(0, 0, -2), purchase.EventDate); err != nil {
			return err
		}

		purchase.Status = domain.PurchaseStatusCancelled
		cancelled = purchase
		return nil
	})
	if err != nil {
		return domain.Purchase{}, err
	}

	// Only tell the customer when someone else cancelled on their behalf.
	if admin && cancelled.AccountID != account.AccountID {
		s.notify(ctx, cancelled.Phone, fmt.Sprintf(
			"Order %d has been cancelled by the seller. See details at %s",
			cancelled.ID, s.frontendURL,
		))
	}

	return cancelled, nil
}

// ConfirmOrder marks a paid purchase as confirmed. Admin only.
func (s *OrderingService) ConfirmOrder(ctx context.Context, purchaseID int64) (domain.Purchase, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return domain.Purchase{}, err
	}

	var confirmed domain.Purchase
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		purchase, err := s.purchases.GetPurchaseForUpdate(txCtx, purchaseID)
		if err != nil {
			return err
		}

		switch purchase.Status {
		case domain.PurchaseStatusDelivered:
			return domain.ErrAlreadyDelivered
		case domain.PurchaseStatusCancelled:
			return domain.ErrConfirmCancelled
		case domain.PurchaseStatusConfirmed:
			return domain.ErrAlreadyConfirmed
		}

		transactions, err := s.ledger.FindTransactionsByPurchase(txCtx, purchaseID)
		if err != nil {
			return err
		}
		if !lo.SomeBy(transactions, func(t domain.Transaction) bool { return t.Status.IsPaid() }) {
			return domain.ErrNotPaid
		}

		if err := s.purchases.UpdatePurchaseStatus(txCtx, purchaseID, domain.PurchaseStatusConfirmed); err != nil {
			return err
		}

		purchase.Status = domain.PurchaseStatusConfirmed
		confirmed = purchase
		return nil
	})
	if err != nil {
		return domain.Purchase{}, err
	}

	s.notify(ctx, confirmed.Phone, fmt.Sprintf(
		"Order %d has been confirmed by the seller. See details at %s",
		confirmed.ID, s.frontendURL,
	))

	return confirmed, nil
}

// ChangeStatus forces a purchase to a named status, subject to the
// state machine. Admin only.
func (s *OrderingService) ChangeStatus(ctx context.Context, purchaseID int64, statusName string) (domain.Purchase, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return domain.Purchase{}, err
	}

	target, err := domain.ToPurchaseStatus(statusName)
	if err != nil {
		return domain.Purchase{}, err
	}

	return s.transition(ctx, purchaseID, func(current domain.PurchaseStatus) (domain.PurchaseStatus, error) {
		if !current.CanTransitionTo(target) {
			return "", domain.ErrIllegalTransition
		}
		return target, nil
	})
}

// UpgradeStatus advances a purchase to its next logical status. Admin only.
func (s *OrderingService) UpgradeStatus(ctx context.Context, purchaseID int64) (domain.Purchase, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return domain.Purchase{}, err
	}

	return s.transition(ctx, purchaseID, func(current domain.PurchaseStatus) (domain.PurchaseStatus, error) {
		return current.Next()
	})
}

func (s *OrderingService) transition(
	ctx context.Context,
	purchaseID int64,
	pick func(current domain.PurchaseStatus) (domain.PurchaseStatus, error),
) (domain.Purchase, error) {
	var updated domain.Purchase
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		purchase, err := s.purchases.GetPurchaseForUpdate(txCtx, purchaseID)
		if err != nil {
			return err
		}

		target, err := pick(purchase.Status)
		if err != nil {
			return err
		}

		if err := s.purchases.UpdatePurchaseStatus(txCtx, purchaseID, target); err != nil {
			return err
		}

		purchase.Status = target
		updated = purchase
		return nil
	})
	if err != nil {
		return domain.Purchase{}, err
	}
	return updated, nil
}

// AvailableStatuses lists the statuses reachable from the purchase's
// current status, keyed by status name.
func (s *OrderingService) AvailableStatuses(ctx context.Context, purchaseID int64) (map[string]string, error) {
	if err := s.authorizeView(ctx, purchaseID); err != nil {
		return nil, err
	}

	purchase, err := s.purchases.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	return purchase.Status.AvailableTransitions(), nil
}

// FindPurchase returns a purchase to its owner or an admin.
func (s *OrderingService) FindPurchase(ctx context.Context, purchaseID int64) (domain.Purchase, error) {
	if err := s.authorizeView(ctx, purchaseID); err != nil {
		return domain.Purchase{}, err
	}
	return s.purchases.GetPurchase(ctx, purchaseID)
}

// FindTransactionOfPurchase returns the purchase's first transaction.
// A purchase without any transaction is a business-rule rejection, not
// a missing resource.
func (s *OrderingService) FindTransactionOfPurchase(ctx context.Context, purchaseID int64) (domain.Transaction, error) {
	if err := s.authorizeView(ctx, purchaseID); err != nil {
		return domain.Transaction{}, err
	}

	transactions, err := s.ledger.FindTransactionsByPurchase(ctx, purchaseID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if len(transactions) == 0 {
		return domain.Transaction{}, domain.ErrNoTransaction
	}
	return transactions[0], nil
}

// ListPurchases returns every purchase for admins, or the caller's own.
func (s *OrderingService) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	account, err := auth.CurrentAccount(ctx)
	if err != nil {
		return nil, err
	}
	if account.Admin {
		return s.purchases.ListAllPurchases(ctx)
	}
	return s.purchases.ListPurchasesByAccount(ctx, account.AccountID)
}

// HandlePaymentUpdate records a gateway-reported status for a
// transaction. A paid status moves a freshly created purchase to
// pending so it shows up for confirmation.
func (s *OrderingService) HandlePaymentUpdate(ctx context.Context, transactionID int64, status domain.TransactionStatus) error {
	return s.tx.WithTx(ctx, func(txCtx context.Context) error {
		trans, err := s.ledger.UpdateTransactionStatus(txCtx, transactionID, status)
		if err != nil {
			return err
		}

		if !status.IsPaid() {
			return nil
		}

		purchase, err := s.purchases.GetPurchaseForUpdate(txCtx, trans.PurchaseID)
		if err != nil {
			return err
		}
		if purchase.Status != domain.PurchaseStatusCreated {
			return nil
		}
		return s.purchases.UpdatePurchaseStatus(txCtx, trans.PurchaseID, domain.PurchaseStatusPending)
	})
}

func (s *OrderingService) authorizeView(ctx context.Context, purchaseID int64) error {
	account, err := auth.CurrentAccount(ctx)
	if err != nil {
		return err
	}
	if account.Admin {
		return nil
	}

	owner, err := s.ledger.IsTransactionOwner(ctx, purchaseID, account.AccountID)
	if err != nil {
		return err
	}
	if !owner {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *OrderingService) buildPaymentRequest(purchase domain.Purchase, trans domain.Transaction, account auth.Identity) PaymentRequest {
	items := lo.Map(purchase.Items, func(item domain.PurchaseItem, _ int) PaymentItemDetail {
		return PaymentItemDetail{
			ID:       fmt.Sprintf("%d", item.VariantID),
			Name:     item.ProductName,
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
		}
	})
	if purchase.DeliveryFee != nil {
		items = append(items, PaymentItemDetail{
			ID:       "delivery_fee",
			Name:     "Delivery Fee",
			Price:    *purchase.DeliveryFee,
			Quantity: 1,
		})
	}
	items = append(items, PaymentItemDetail{
		ID:       "service_fee",
		Name:     "Service Fee",
		Price:    s.serviceFee,
		Quantity: 1,
	})

	return PaymentRequest{
		OrderID:     fmt.Sprintf("%d", trans.ID),
		GrossAmount: trans.Amount,
		Items:       items,
		Customer: PaymentCustomer{
			Name:  fmt.Sprintf("Account %d", account.AccountID),
			Phone: account.Phone,
		},
		Expiry: s.paymentExpiry,
	}
}

// notify dispatches a best-effort message on a detached goroutine; the
// outcome never reaches the caller.
func (s *OrderingService) notify(ctx context.Context, phone, message string) {
	if phone == "" {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := s.notifier.Send(detached, phone, message, s.countryCode); err != nil {
			s.logger.Warn("notification delivery failed",
				zap.String("phone", phone),
				zap.Error(err),
			)
		}
	}()
}


package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hersa37/kuenyawz-api/internal/domain"
)

// fakeStore backs all four store interfaces in memory and rolls its
// state back when a WithTx callback fails, so the service tests can
// assert that a failed operation persisted nothing.
type fakeStore struct {
	purchases    map[int64]domain.Purchase
	transactions []domain.Transaction
	closedDates  map[string]domain.ClosedDate
	cartItems    []domain.CartItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		purchases:   make(map[int64]domain.Purchase),
		closedDates: make(map[string]domain.ClosedDate),
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := f.copy()
	if err := fn(ctx); err != nil {
		*f = *snapshot
		return err
	}
	return nil
}

func (f *fakeStore) copy() *fakeStore {
	cp := newFakeStore()
	for id, p := range f.purchases {
		cp.purchases[id] = p
	}
	cp.transactions = append([]domain.Transaction(nil), f.transactions...)
	for k, v := range f.closedDates {
		cp.closedDates[k] = v
	}
	cp.cartItems = append([]domain.CartItem(nil), f.cartItems...)
	return cp
}

func (f *fakeStore) CreatePurchase(_ context.Context, purchase domain.Purchase) error {
	f.purchases[purchase.ID] = purchase
	return nil
}

func (f *fakeStore) GetPurchase(_ context.Context, id int64) (domain.Purchase, error) {
	p, ok := f.purchases[id]
	if !ok {
		return domain.Purchase{}, domain.ErrPurchaseNotFound
	}
	return p, nil
}

func (f *fakeStore) GetPurchaseForUpdate(ctx context.Context, id int64) (domain.Purchase, error) {
	return f.GetPurchase(ctx, id)
}

func (f *fakeStore) UpdatePurchaseStatus(_ context.Context, id int64, status domain.PurchaseStatus) error {
	p, ok := f.purchases[id]
	if !ok {
		return domain.ErrPurchaseNotFound
	}
	p.Status = status
	f.purchases[id] = p
	return nil
}

func (f *fakeStore) ListPurchasesByAccount(_ context.Context, accountID int64) ([]domain.Purchase, error) {
	var out []domain.Purchase
	for _, p := range f.purchases {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListAllPurchases(_ context.Context) ([]domain.Purchase, error) {
	var out []domain.Purchase
	for _, p := range f.purchases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, trans domain.Transaction) error {
	if trans.Status.IsActive() {
		for _, t := range f.transactions {
			if t.AccountID == trans.AccountID && t.Status.IsActive() {
				return domain.ErrOngoingTransaction
			}
		}
	}
	f.transactions = append(f.transactions, trans)
	return nil
}

func (f *fakeStore) FindTransactionsByAccount(_ context.Context, accountID int64) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range f.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) FindTransactionsByPurchase(_ context.Context, purchaseID int64) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range f.transactions {
		if t.PurchaseID == purchaseID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) CancelTransactionsOfPurchase(_ context.Context, purchaseID int64) error {
	for i, t := range f.transactions {
		if t.PurchaseID == purchaseID && t.Status != domain.TransactionStatusCancelled {
			f.transactions[i].Status = domain.TransactionStatusCancelled
		}
	}
	return nil
}

func (f *fakeStore) IsTransactionOwner(_ context.Context, purchaseID, accountID int64) (bool, error) {
	for _, t := range f.transactions {
		if t.PurchaseID == purchaseID && t.AccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateTransactionStatus(_ context.Context, transactionID int64, status domain.TransactionStatus) (domain.Transaction, error) {
	for i, t := range f.transactions {
		if t.ID == transactionID {
			f.transactions[i].Status = status
			return f.transactions[i], nil
		}
	}
	return domain.Transaction{}, domain.ErrTransactionNotFound
}

func (f *fakeStore) ClosedDatesBetween(_ context.Context, start, end time.Time) ([]domain.ClosedDate, error) {
	var out []domain.ClosedDate
	for _, cd := range f.closedDates {
		if !cd.Date.Before(start) && !cd.Date.After(end) {
			out = append(out, cd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeStore) SaveClosedDates(_ context.Context, batch []domain.ClosedDate) error {
	for _, cd := range batch {
		key := cd.Date.Format(DateLayout)
		if _, exists := f.closedDates[key]; exists {
			return domain.ClosedDateConflict(key, key)
		}
		f.closedDates[key] = cd
	}
	return nil
}

func (f *fakeStore) DeleteClosedDatesBetween(_ context.Context, start, end time.Time) error {
	for key, cd := range f.closedDates {
		if !cd.Date.Before(start) && !cd.Date.After(end) {
			delete(f.closedDates, key)
		}
	}
	return nil
}

func (f *fakeStore) CartItemsOf(_ context.Context, accountID int64) ([]domain.CartItem, error) {
	var out []domain.CartItem
	for _, item := range f.cartItems {
		if item.AccountID == accountID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertCartItem(_ context.Context, item domain.CartItem) error {
	for i, existing := range f.cartItems {
		if existing.AccountID == item.AccountID && existing.VariantID == item.VariantID {
			f.cartItems[i] = item
			return nil
		}
	}
	f.cartItems = append(f.cartItems, item)
	return nil
}

func (f *fakeStore) RemoveCartItem(_ context.Context, accountID, variantID int64) error {
	for i, item := range f.cartItems {
		if item.AccountID == accountID && item.VariantID == variantID {
			f.cartItems = append(f.cartItems[:i], f.cartItems[i+1:]...)
			return nil
		}
	}
	return domain.ErrCartItemNotFound
}

func (f *fakeStore) ClearCart(_ context.Context, accountID int64) error {
	kept := f.cartItems[:0]
	for _, item := range f.cartItems {
		if item.AccountID != accountID {
			kept = append(kept, item)
		}
	}
	f.cartItems = kept
	return nil
}

type fakeGateway struct {
	resp    PaymentResponse
	err     error
	lastReq PaymentRequest
	calls   int
}

func (g *fakeGateway) CreateTransaction(_ context.Context, req PaymentRequest) (PaymentResponse, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return PaymentResponse{}, g.err
	}
	return g.resp, nil
}

type sentMessage struct {
	phone   string
	message string
}

// fakeNotifier records sends on a channel because the service
// dispatches notifications on a detached goroutine.
type fakeNotifier struct {
	sent chan sentMessage
	err  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan sentMessage, 8)}
}

func (n *fakeNotifier) Send(_ context.Context, phone, message, _ string) error {
	n.sent <- sentMessage{phone: phone, message: message}
	return n.err
}

// seqIDs hands out sequential ids starting at 1.
type seqIDs struct {
	mu   sync.Mutex
	next int64
}

func (g *seqIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}

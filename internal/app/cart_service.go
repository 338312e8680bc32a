package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hersa37/kuenyawz-api/internal/auth"
	"github.com/hersa37/kuenyawz-api/internal/domain"
)

// CartService manages the items an account stages before ordering.
type CartService struct {
	cart CartStore
}

func NewCartService(cart CartStore) *CartService {
	return &CartService{cart: cart}
}

type CartItemInput struct {
	VariantID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Note        string
}

func (s *CartService) Items(ctx context.Context) ([]domain.CartItem, error) {
	account, err := auth.CurrentAccount(ctx)
	if err != nil {
		return nil, err
	}
	return s.cart.CartItemsOf(ctx, account.AccountID)
}

func (s *CartService) Upsert(ctx context.Context, in CartItemInput) (domain.CartItem, error) {
	account, err := auth.CurrentAccount(ctx)
	if err != nil {
		return domain.CartItem{}, err
	}
	if in.VariantID <= 0 {
		return domain.CartItem{}, domain.ErrInvalidID
	}
	if in.Quantity <= 0 {
		return domain.CartItem{}, domain.ErrInvalidQuantity
	}

	item := domain.CartItem{
		AccountID:   account.AccountID,
		VariantID:   in.VariantID,
		ProductName: in.ProductName,
		UnitPrice:   in.UnitPrice,
		Quantity:    in.Quantity,
		Note:        in.Note,
	}
	if err := s.cart.UpsertCartItem(ctx, item); err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, variantID int64) error {
	account, err := auth.CurrentAccount(ctx)
	if err != nil {
		return err
	}
	return s.cart.RemoveCartItem(ctx, account.AccountID, variantID)
}

func (s *CartService) Clear(ctx context.Context) error {
	account, err := auth.CurrentAccount(ctx)
	if err != nil {
		return err
	}
	return s.cart.ClearCart(ctx, account.AccountID)
}

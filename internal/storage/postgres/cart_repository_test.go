package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hersa37/kuenyawz-api/internal/domain"
	"github.com/hersa37/kuenyawz-api/internal/testutil"
)

func TestCartRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewCartRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	item := domain.CartItem{
		AccountID:   7,
		VariantID:   11,
		ProductName: "Lapis Legit",
		UnitPrice:   decimal.NewFromInt(350000),
		Quantity:    2,
	}

	t.Run("upsert inserts then replaces", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if err := repo.UpsertCartItem(ctx, item); err != nil {
			t.Fatalf("insert: %v", err)
		}

		updated := item
		updated.Quantity = 5
		updated.Note = "extra packaging"
		if err := repo.UpsertCartItem(ctx, updated); err != nil {
			t.Fatalf("update: %v", err)
		}

		items, err := repo.CartItemsOf(ctx, 7)
		if err != nil {
			t.Fatalf("items: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		if items[0].Quantity != 5 || items[0].Note != "extra packaging" {
			t.Fatalf("unexpected item %+v", items[0])
		}
		if !items[0].UnitPrice.Equal(item.UnitPrice) {
			t.Fatalf("expected price %s, got %s", item.UnitPrice, items[0].UnitPrice)
		}
	})

	t.Run("items are scoped per account", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		other := item
		other.AccountID = 8
		if err := repo.UpsertCartItem(ctx, item); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := repo.UpsertCartItem(ctx, other); err != nil {
			t.Fatalf("insert: %v", err)
		}

		items, err := repo.CartItemsOf(ctx, 7)
		if err != nil {
			t.Fatalf("items: %v", err)
		}
		if len(items) != 1 || items[0].AccountID != 7 {
			t.Fatalf("unexpected items %+v", items)
		}
	})

	t.Run("remove", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		if err := repo.UpsertCartItem(ctx, item); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := repo.RemoveCartItem(ctx, 7, 11); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if err := repo.RemoveCartItem(ctx, 7, 11); !errors.Is(err, domain.ErrCartItemNotFound) {
			t.Fatalf("expected ErrCartItemNotFound, got %v", err)
		}
	})

	t.Run("clear empties only the caller's cart", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		other := item
		other.AccountID = 8
		if err := repo.UpsertCartItem(ctx, item); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := repo.UpsertCartItem(ctx, other); err != nil {
			t.Fatalf("insert: %v", err)
		}

		if err := repo.ClearCart(ctx, 7); err != nil {
			t.Fatalf("clear: %v", err)
		}

		mine, err := repo.CartItemsOf(ctx, 7)
		if err != nil {
			t.Fatalf("items: %v", err)
		}
		if len(mine) != 0 {
			t.Fatalf("expected empty cart, got %+v", mine)
		}
		theirs, err := repo.CartItemsOf(ctx, 8)
		if err != nil {
			t.Fatalf("items: %v", err)
		}
		if len(theirs) != 1 {
			t.Fatalf("expected other cart intact, got %+v", theirs)
		}
	})
}

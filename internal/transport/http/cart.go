package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/hersa37/kuenyawz-api/internal/app"
	"github.com/hersa37/kuenyawz-api/internal/domain"
)

// CartAPI is the surface the cart handlers need.
type CartAPI interface {
	Items(ctx context.Context) ([]domain.CartItem, error)
	Upsert(ctx context.Context, in app.CartItemInput) (domain.CartItem, error)
	Remove(ctx context.Context, variantID int64) error
	Clear(ctx context.Context) error
}

type cartItemRequest struct {
	VariantID   int64           `json:"variant_id" validate:"required,gt=0"`
	ProductName string          `json:"product_name" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	Note        string          `json:"note"`
}

type cartItemResponse struct {
	VariantID   int64           `json:"variant_id,string"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Note        string          `json:"note,omitempty"`
}

// HandleListCart returns the handler listing the caller's cart.
func HandleListCart(svc CartAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Items(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]cartItemResponse, 0, len(items))
		for _, item := range items {
			resp = append(resp, toCartItemResponse(item))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleUpsertCartItem returns the handler adding or replacing a cart
// item.
func HandleUpsertCartItem(svc CartAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartItemRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}

		item, err := svc.Upsert(r.Context(), app.CartItemInput{
			VariantID:   req.VariantID,
			ProductName: req.ProductName,
			UnitPrice:   req.UnitPrice,
			Quantity:    req.Quantity,
			Note:        req.Note,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartItemResponse(item))
	}
}

// HandleRemoveCartItem returns the handler removing one cart item.
func HandleRemoveCartItem(svc CartAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := strconv.ParseInt(mux.Vars(r)["variantId"], 10, 64)
		if err != nil || variantID <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid variant id")
			return
		}
		if err := svc.Remove(r.Context(), variantID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleClearCart returns the handler emptying the caller's cart.
func HandleClearCart(svc CartAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toCartItemResponse(item domain.CartItem) cartItemResponse {
	return cartItemResponse{
		VariantID:   item.VariantID,
		ProductName: item.ProductName,
		UnitPrice:   item.UnitPrice,
		Quantity:    item.Quantity,
		Note:        item.Note,
	}
}

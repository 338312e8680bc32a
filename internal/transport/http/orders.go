package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/hersa37/kuenyawz-api/internal/app"
	"github.com/hersa37/kuenyawz-api/internal/domain"
)

var validate = validator.New()

// OrderingAPI is the surface the order handlers need from the
// orchestrator.
type OrderingAPI interface {
	ProcessOrder(ctx context.Context, in app.ProcessOrderInput) (app.PurchaseResult, error)
	CancelOrder(ctx context.Context, purchaseID int64) (domain.Purchase, error)
	ConfirmOrder(ctx context.Context, purchaseID int64) (domain.Purchase, error)
	ChangeStatus(ctx context.Context, purchaseID int64, statusName string) (domain.Purchase, error)
	UpgradeStatus(ctx context.Context, purchaseID int64) (domain.Purchase, error)
	AvailableStatuses(ctx context.Context, purchaseID int64) (map[string]string, error)
	FindPurchase(ctx context.Context, purchaseID int64) (domain.Purchase, error)
	FindTransactionOfPurchase(ctx context.Context, purchaseID int64) (domain.Transaction, error)
	ListPurchases(ctx context.Context) ([]domain.Purchase, error)
}

type orderItemRequest struct {
	VariantID   int64           `json:"variant_id" validate:"required,gt=0"`
	ProductName string          `json:"product_name" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Note        string          `json:"note"`
}

type createOrderRequest struct {
	EventDate       string             `json:"event_date" validate:"required,datetime=2006-01-02"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryFee     *decimal.Decimal   `json:"delivery_fee"`
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// HandleCreateOrder returns the handler for submitting an order.
func HandleCreateOrder(svc OrderingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
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

		eventDate, err := time.Parse(app.DateLayout, req.EventDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid event_date")
			return
		}

		items := make([]app.OrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, app.OrderItemInput{
				VariantID:   item.VariantID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Note:        item.Note,
			})
		}

		result, err := svc.ProcessOrder(r.Context(), app.ProcessOrderInput{
			EventDate:       eventDate,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryFee:     req.DeliveryFee,
			Items:           items,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, purchaseResultResponse{
			Purchase:    toPurchaseResponse(result.Purchase),
			Transaction: toTransactionResponse(result.Transaction),
		})
	}
}

// HandleCancelOrder returns the handler for cancelling a purchase.
func HandleCancelOrder(svc OrderingAPI) http.HandlerFunc {
	return withPurchaseID(func(w http.ResponseWriter, r *http.Request, id int64) {
		purchase, err := svc.CancelOrder(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
	})
}

// HandleConfirmOrder returns the handler for the admin confirmation.
func HandleConfirmOrder(svc OrderingAPI) http.HandlerFunc {
	return withPurchaseID(func(w http.ResponseWriter, r *http.Request, id int64) {
		purchase, err := svc.ConfirmOrder(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
	})
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleChangeStatus returns the handler for the admin status override.
func HandleChangeStatus(svc OrderingAPI) http.HandlerFunc {
	return withPurchaseID(func(w http.ResponseWriter, r *http.Request, id int64) {
		var req changeStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}

		purchase, err := svc.ChangeStatus(r.Context(), id, req.Status)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
	})
}

// HandleUpgradeStatus returns the handler advancing a purchase to its
// next status.
func HandleUpgradeStatus(svc OrderingAPI) http.HandlerFunc {
	return withPurchaseID(func(w http.ResponseWriter, r *http.Request, id int64) {
		purchase, err := svc.UpgradeStatus(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
	})
}

// HandleAvailableStatuses returns the handler listing reachable statuses.
func HandleAvailableStatuses(svc OrderingAPI) http.HandlerFunc {
	return withPurchaseID(func(w http.ResponseWriter, r *http.Request, id int64) {
		statuses, err := svc.AvailableStatuses(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statuses)
	})
}

// HandleGetOrder returns the handler fetching one purchase.
func HandleGetOrder(svc OrderingAPI) http.HandlerFunc {
	return withPurchaseID(func(w http.ResponseWriter, r *http.Request, id int64) {
		purchase, err := svc.FindPurchase(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
	})
}

// HandleGetOrderTransaction returns the handler fetching the
// purchase's transaction.
func HandleGetOrderTransaction(svc OrderingAPI) http.HandlerFunc {
	return withPurchaseID(func(w http.ResponseWriter, r *http.Request, id int64) {
		trans, err := svc.FindTransactionOfPurchase(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(trans))
	})
}

// HandleListOrders returns the handler listing purchases visible to
// the caller.
func HandleListOrders(svc OrderingAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		purchases, err := svc.ListPurchases(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]purchaseResponse, 0, len(purchases))
		for _, p := range purchases {
			resp = append(resp, toPurchaseResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func withPurchaseID(fn func(w http.ResponseWriter, r *http.Request, id int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid purchase id")
			return
		}
		fn(w, r, id)
	}
}

type purchaseItemResponse struct {
	VariantID   int64           `json:"variant_id,string"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Note        string          `json:"note,omitempty"`
}

type purchaseResponse struct {
	ID              int64                  `json:"id,string"`
	EventDate       string                 `json:"event_date"`
	DeliveryAddress string                 `json:"delivery_address,omitempty"`
	DeliveryFee     *decimal.Decimal       `json:"delivery_fee,omitempty"`
	Status          string                 `json:"status"`
	Items           []purchaseItemResponse `json:"items"`
	CreatedAt       time.Time              `json:"created_at"`
}

type transactionResponse struct {
	ID          int64           `json:"id,string"`
	PurchaseID  int64           `json:"purchase_id,string"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty"`
	PaymentURL  string          `json:"payment_url,omitempty"`
	ExpiresAt   time.Time       `json:"expires_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

type purchaseResultResponse struct {
	Purchase    purchaseResponse    `json:"purchase"`
	Transaction transactionResponse `json:"transaction"`
}

func toPurchaseResponse(p domain.Purchase) purchaseResponse {
	items := make([]purchaseItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, purchaseItemResponse{
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Note:        item.Note,
		})
	}
	return purchaseResponse{
		ID:              p.ID,
		EventDate:       p.EventDate.Format(app.DateLayout),
		DeliveryAddress: p.DeliveryAddress,
		DeliveryFee:     p.DeliveryFee,
		Status:          string(p.Status),
		Items:           items,
		CreatedAt:       p.CreatedAt,
	}
}

func toTransactionResponse(t domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		PurchaseID:  t.PurchaseID,
		Status:      string(t.Status),
		Amount:      t.Amount,
		ReferenceID: t.ReferenceID,
		PaymentURL:  t.PaymentURL,
		ExpiresAt:   t.ExpiresAt,
		CreatedAt:   t.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

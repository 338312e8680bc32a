package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RouterConfig carries the dependencies for the HTTP surface.
type RouterConfig struct {
	Ordering         OrderingAPI
	Cart             CartAPI
	Payments         PaymentUpdater
	Verifier         TokenVerifier
	PaymentServerKey string
	AllowedOrigins   []string
	Logger           *zap.Logger
}

// NewRouter builds the full route table with the middleware chain
// applied around it.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = NotFoundHandler()
	r.MethodNotAllowedHandler = NotFoundHandler()

	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	r.Handle("/orders", HandleCreateOrder(cfg.Ordering)).Methods(http.MethodPost)
	r.Handle("/orders", HandleListOrders(cfg.Ordering)).Methods(http.MethodGet)
	r.Handle("/orders/{id}", HandleGetOrder(cfg.Ordering)).Methods(http.MethodGet)
	r.Handle("/orders/{id}/cancel", HandleCancelOrder(cfg.Ordering)).Methods(http.MethodPost)
	r.Handle("/orders/{id}/confirm", HandleConfirmOrder(cfg.Ordering)).Methods(http.MethodPost)
	r.Handle("/orders/{id}/status", HandleChangeStatus(cfg.Ordering)).Methods(http.MethodPatch)
	r.Handle("/orders/{id}/status/next", HandleUpgradeStatus(cfg.Ordering)).Methods(http.MethodPost)
	r.Handle("/orders/{id}/statuses", HandleAvailableStatuses(cfg.Ordering)).Methods(http.MethodGet)
	r.Handle("/orders/{id}/transaction", HandleGetOrderTransaction(cfg.Ordering)).Methods(http.MethodGet)

	r.Handle("/cart", HandleListCart(cfg.Cart)).Methods(http.MethodGet)
	r.Handle("/cart", HandleUpsertCartItem(cfg.Cart)).Methods(http.MethodPut)
	r.Handle("/cart", HandleClearCart(cfg.Cart)).Methods(http.MethodDelete)
	r.Handle("/cart/{variantId}", HandleRemoveCartItem(cfg.Cart)).Methods(http.MethodDelete)

	r.Handle("/payments/notify", HandlePaymentNotification(cfg.Payments, cfg.PaymentServerKey)).Methods(http.MethodPost)

	var handler http.Handler = r
	handler = Authenticate(cfg.Verifier, handler)
	handler = CORS(cfg.AllowedOrigins, handler)
	handler = RequestLogger(handler, cfg.Logger)
	return handler
}

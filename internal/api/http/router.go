package http

import (
	"net/http"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services bundles the business services the API exposes.
type Services struct {
	Availability service.AvailabilityService
	Products     service.ProductService
	Quotations   service.QuotationService
	Orders       service.OrderService
	Invoices     service.InvoiceService
}

type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// NewRouter registers every API route. Route names are the keys of
// config.EndpointSecurityConfig.
func NewRouter(h *Handler, tm security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoveryMiddleware, loggingMiddleware, NewAuthMiddleware(tm).Middleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, H{"error": "route not found", "kind": "NOT_FOUND"})
	})

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet).Name("health")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet).Name("products.list")
	api.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost).Name("products.create")
	api.HandleFunc("/products/mine", h.ListMyProducts).Methods(http.MethodGet).Name("products.mine")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods(http.MethodGet).Name("products.get")
	api.HandleFunc("/products/{id}", h.UpdateProduct).Methods(http.MethodPatch).Name("products.update")
	api.HandleFunc("/products/{id}/published", h.SetPublished).Methods(http.MethodPut).Name("products.publish")
	api.HandleFunc("/products/{id}/availability", h.CheckAvailability).Methods(http.MethodGet).Name("products.availability")
	api.HandleFunc("/products/{id}/quote", h.QuoteRental).Methods(http.MethodGet).Name("products.quote")
	api.HandleFunc("/products/{id}/reservations", h.ListReservations).Methods(http.MethodGet).Name("products.reservations")

	api.HandleFunc("/quotations", h.ListQuotations).Methods(http.MethodGet).Name("quotations.list")
	api.HandleFunc("/quotations", h.CreateQuotation).Methods(http.MethodPost).Name("quotations.create")
	api.HandleFunc("/quotations/pending", h.ListPendingQuotations).Methods(http.MethodGet).Name("quotations.pending")
	api.HandleFunc("/quotations/{id}", h.GetQuotation).Methods(http.MethodGet).Name("quotations.get")
	api.HandleFunc("/quotations/{id}", h.DeleteQuotation).Methods(http.MethodDelete).Name("quotations.delete")
	api.HandleFunc("/quotations/{id}/lines", h.AddLine).Methods(http.MethodPost).Name("quotations.addLine")
	api.HandleFunc("/quotations/{id}/lines/{lineId}", h.UpdateLine).Methods(http.MethodPatch).Name("quotations.updateLine")
	api.HandleFunc("/quotations/{id}/lines/{lineId}", h.RemoveLine).Methods(http.MethodDelete).Name("quotations.removeLine")
	api.HandleFunc("/quotations/{id}/submit", h.SubmitQuotation).Methods(http.MethodPost).Name("quotations.submit")
	api.HandleFunc("/quotations/{id}/cancel", h.CancelQuotation).Methods(http.MethodPost).Name("quotations.cancel")
	api.HandleFunc("/quotations/{id}/approve", h.ApproveQuotation).Methods(http.MethodPost).Name("quotations.approve")
	api.HandleFunc("/quotations/{id}/reject", h.RejectQuotation).Methods(http.MethodPost).Name("quotations.reject")

	api.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet).Name("orders.list")
	api.HandleFunc("/orders/{id}", h.GetOrder).Methods(http.MethodGet).Name("orders.get")
	api.HandleFunc("/orders/{id}/cancel", h.CancelOrder).Methods(http.MethodPost).Name("orders.cancel")
	api.HandleFunc("/orders/{id}/pickup", h.MarkPickedUp).Methods(http.MethodPost).Name("orders.pickup")
	api.HandleFunc("/orders/{id}/complete", h.CompleteOrder).Methods(http.MethodPost).Name("orders.complete")
	api.HandleFunc("/orders/{id}/invoice", h.GetOrderInvoice).Methods(http.MethodGet).Name("orders.invoice")

	api.HandleFunc("/invoices", h.ListInvoices).Methods(http.MethodGet).Name("invoices.list")
	api.HandleFunc("/invoices/{id}", h.GetInvoice).Methods(http.MethodGet).Name("invoices.get")
	api.HandleFunc("/invoices/{id}/send", h.SendInvoice).Methods(http.MethodPost).Name("invoices.send")
	api.HandleFunc("/invoices/{id}/late-fee", h.AddLateFee).Methods(http.MethodPost).Name("invoices.lateFee")
	api.HandleFunc("/invoices/{id}/payments", h.ListPayments).Methods(http.MethodGet).Name("invoices.payments.list")
	api.HandleFunc("/invoices/{id}/payments", h.RecordPayment).Methods(http.MethodPost).Name("invoices.payments.add")

	return router
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, H{"status": "ok"})
}

// requireActor returns the caller set by the auth middleware, writing a 401
// when the route was reached without one.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := security.ActorFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "authentication required")
	}
	return a, ok
}

package http

import (
	"net/http"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type paymentRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"payment_method"`
	TransactionID *string          `json:"transaction_id"`
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	invoices, err := h.svc.Invoices.ListInvoices(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"invoices": invoices})
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Invoices.GetInvoice(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) SendInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Invoices.SendInvoice(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) AddLateFee(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in struct {
		Amount *decimal.Decimal `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.Amount == nil {
		writeError(w, domain.InvalidInput("amount is required"))
		return
	}
	inv, err := h.svc.Invoices.AddLateFee(r.Context(), actor, mux.Vars(r)["id"], *in.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.Invoices.ListPayments(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"payments": payments})
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in paymentRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.Amount == nil {
		writeError(w, domain.InvalidInput("amount is required"))
		return
	}
	inv, p, err := h.svc.Invoices.RecordPayment(r.Context(), actor, mux.Vars(r)["id"], service.PaymentRequest{
		Amount:        *in.Amount,
		PaymentMethod: in.PaymentMethod,
		TransactionID: in.TransactionID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, H{"invoice": inv, "payment": p})
}

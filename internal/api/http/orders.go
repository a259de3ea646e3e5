package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ListOrders(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"orders": orders})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Orders.GetOrder(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Orders.CancelOrder(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) MarkPickedUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Orders.MarkPickedUp(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// CompleteOrder records the return. returned_at is optional and defaults to now.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in struct {
		ReturnedAt string `json:"returned_at"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	var returnedAt time.Time
	if in.ReturnedAt != "" {
		t, err := parseTime("returned_at", in.ReturnedAt)
		if err != nil {
			writeError(w, err)
			return
		}
		returnedAt = t
	}
	o, inv, err := h.svc.Orders.CompleteOrder(r.Context(), actor, mux.Vars(r)["id"], returnedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"order": o, "invoice": inv})
}

func (h *Handler) GetOrderInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Invoices.GetInvoiceByOrder(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

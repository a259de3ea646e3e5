package http

import (
	"net/http"

	"rentdesk-backend/internal/domain"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type addLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

type approveRequest struct {
	VendorID        string           `json:"vendor_id"`
	DeliveryAddress string           `json:"delivery_address"`
	SecurityDeposit *decimal.Decimal `json:"security_deposit"`
}

func (h *Handler) ListQuotations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quotations, err := h.svc.Quotations.ListQuotations(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"quotations": quotations})
}

func (h *Handler) ListPendingQuotations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	quotations, err := h.svc.Quotations.ListPendingForVendor(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"quotations": quotations})
}

func (h *Handler) CreateQuotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Quotations.CreateQuotation(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) GetQuotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Quotations.GetQuotation(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) DeleteQuotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.svc.Quotations.DeleteQuotation(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in addLineRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.ProductID == "" {
		writeError(w, domain.InvalidInput("product_id is required"))
		return
	}
	start, err := parseTime("start", in.Start)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseTime("end", in.End)
	if err != nil {
		writeError(w, err)
		return
	}
	iv, err := domain.NewInterval(start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := h.svc.Quotations.AddLine(r.Context(), actor, mux.Vars(r)["id"], in.ProductID, in.Quantity, iv)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	q, err := h.svc.Quotations.UpdateLineQuantity(r.Context(), actor, vars["id"], vars["lineId"], in.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	q, err := h.svc.Quotations.RemoveLine(r.Context(), actor, vars["id"], vars["lineId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) SubmitQuotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in struct {
		DeliveryAddress string `json:"delivery_address"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	q, err := h.svc.Quotations.Submit(r.Context(), actor, mux.Vars(r)["id"], in.DeliveryAddress)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) CancelQuotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Quotations.Cancel(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// ApproveQuotation confirms the caller's lines and returns the new order with its draft invoice.
func (h *Handler) ApproveQuotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in approveRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	deposit := decimal.Zero
	if in.SecurityDeposit != nil {
		deposit = *in.SecurityDeposit
	}
	order, invoice, err := h.svc.Orders.Approve(r.Context(), actor, mux.Vars(r)["id"], in.VendorID, in.DeliveryAddress, deposit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, H{"order": order, "invoice": invoice})
}

func (h *Handler) RejectQuotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in struct {
		VendorID string `json:"vendor_id"`
		Reason   string `json:"reason"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	q, err := h.svc.Quotations.Reject(r.Context(), actor, mux.Vars(r)["id"], in.VendorID, in.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

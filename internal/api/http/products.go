package http

import (
	"net/http"
	"strconv"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	VendorID       string           `json:"vendor_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	QuantityOnHand int              `json:"quantity_on_hand"`
	PricePerHour   *decimal.Decimal `json:"price_per_hour"`
	PricePerDay    *decimal.Decimal `json:"price_per_day"`
	PricePerWeek   *decimal.Decimal `json:"price_per_week"`
	IsPublished    bool             `json:"is_published"`
}

type productUpdateRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	QuantityOnHand *int             `json:"quantity_on_hand"`
	PricePerHour   *decimal.Decimal `json:"price_per_hour"`
	PricePerDay    *decimal.Decimal `json:"price_per_day"`
	PricePerWeek   *decimal.Decimal `json:"price_per_week"`
}

// intervalQuery reads start, end and quantity from the query string.
func intervalQuery(r *http.Request) (domain.Interval, int, error) {
	q := r.URL.Query()
	start, err := parseTime("start", q.Get("start"))
	if err != nil {
		return domain.Interval{}, 0, err
	}
	end, err := parseTime("end", q.Get("end"))
	if err != nil {
		return domain.Interval{}, 0, err
	}
	iv, err := domain.NewInterval(start, end)
	if err != nil {
		return domain.Interval{}, 0, err
	}
	qty := 1
	if raw := q.Get("quantity"); raw != "" {
		qty, err = strconv.Atoi(raw)
		if err != nil {
			return domain.Interval{}, 0, domain.InvalidInput("quantity must be an integer")
		}
	}
	return iv, qty, nil
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"products": products})
}

func (h *Handler) ListMyProducts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	products, err := h.svc.Products.ListMyProducts(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"products": products})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in productRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p := &domain.Product{
		VendorID:       in.VendorID,
		Name:           in.Name,
		Description:    in.Description,
		QuantityOnHand: in.QuantityOnHand,
		PricePerHour:   in.PricePerHour,
		PricePerDay:    in.PricePerDay,
		PricePerWeek:   in.PricePerWeek,
		IsPublished:    in.IsPublished,
	}
	if err := h.svc.Products.CreateProduct(r.Context(), actor, p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Products.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in productUpdateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.svc.Products.UpdateProduct(r.Context(), actor, mux.Vars(r)["id"], service.ProductUpdate(in))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) SetPublished(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in struct {
		Published *bool `json:"published"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.Published == nil {
		writeError(w, domain.InvalidInput("published is required"))
		return
	}
	p, err := h.svc.Products.SetPublished(r.Context(), actor, mux.Vars(r)["id"], *in.Published)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	iv, qty, err := intervalQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	avail, err := h.svc.Availability.CheckAvailability(r.Context(), mux.Vars(r)["id"], iv, qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

func (h *Handler) QuoteRental(w http.ResponseWriter, r *http.Request) {
	iv, qty, err := intervalQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	quote, err := h.svc.Availability.QuoteRental(r.Context(), mux.Vars(r)["id"], iv, qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.svc.Availability.ListReservations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, H{"reservations": reservations})
}

package memory

import (
	"context"
	"sort"

	"rentdesk-backend/internal/domain"
)

type orderRepository struct {
	access accessor
}

func (r *orderRepository) Create(ctx context.Context, o *domain.RentalOrder) error {
	return r.access(func(s *state) error {
		if _, ok := s.orders[o.ID]; ok {
			return domain.AlreadyExists("order", o.ID, "order already exists")
		}
		for _, existing := range s.orders {
			if existing.QuotationID == o.QuotationID && existing.VendorID == o.VendorID {
				return domain.AlreadyExists("quotation", o.QuotationID, "an order already exists for this vendor")
			}
		}
		s.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.RentalOrder, error) {
	var out domain.RentalOrder
	err := r.access(func(s *state) error {
		o, ok := s.orders[id]
		if !ok {
			return domain.NotFound("order", id)
		}
		out = copyOrder(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.RentalOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepository) GetByQuotationAndVendor(ctx context.Context, quotationID, vendorID string) (*domain.RentalOrder, error) {
	var out *domain.RentalOrder
	err := r.access(func(s *state) error {
		for _, o := range s.orders {
			if o.QuotationID == quotationID && o.VendorID == vendorID {
				c := copyOrder(o)
				out = &c
				return nil
			}
		}
		return domain.NotFound("order", quotationID+"/"+vendorID)
	})
	return out, err
}

// Update writes status and pickup/return times. Lines are immutable.
func (r *orderRepository) Update(ctx context.Context, o *domain.RentalOrder) error {
	return r.access(func(s *state) error {
		stored, ok := s.orders[o.ID]
		if !ok {
			return domain.NotFound("order", o.ID)
		}
		stored.Status = o.Status
		stored.PickedUpAt = o.PickedUpAt
		stored.ReturnedAt = o.ReturnedAt
		stored.UpdatedAt = o.UpdatedAt
		s.orders[o.ID] = stored
		return nil
	})
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.RentalOrder, error) {
	return r.list(func(o domain.RentalOrder) bool { return o.CustomerID == customerID })
}

func (r *orderRepository) ListByVendor(ctx context.Context, vendorID string) ([]domain.RentalOrder, error) {
	return r.list(func(o domain.RentalOrder) bool { return o.VendorID == vendorID })
}

func (r *orderRepository) list(keep func(domain.RentalOrder) bool) ([]domain.RentalOrder, error) {
	var out []domain.RentalOrder
	err := r.access(func(s *state) error {
		for _, o := range s.orders {
			if keep(o) {
				out = append(out, copyOrder(o))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

package memory

import (
	"context"
	"sort"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	access accessor
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	return r.access(func(s *state) error {
		if _, ok := s.invoices[inv.ID]; ok {
			return domain.AlreadyExists("invoice", inv.ID, "invoice already exists")
		}
		for _, existing := range s.invoices {
			if existing.OrderID == inv.OrderID {
				return domain.AlreadyExists("order", inv.OrderID, "order already has an invoice")
			}
			if existing.InvoiceNumber == inv.InvoiceNumber {
				return domain.AlreadyExists("invoice", inv.InvoiceNumber, "invoice number already used")
			}
		}
		s.invoices[inv.ID] = *inv
		return nil
	})
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	var out domain.Invoice
	err := r.access(func(s *state) error {
		inv, ok := s.invoices[id]
		if !ok {
			return domain.NotFound("invoice", id)
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *invoiceRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *invoiceRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Invoice, error) {
	var out *domain.Invoice
	err := r.access(func(s *state) error {
		for _, inv := range s.invoices {
			if inv.OrderID == orderID {
				c := inv
				out = &c
				return nil
			}
		}
		return domain.NotFound("invoice", "order "+orderID)
	})
	return out, err
}

func (r *invoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	return r.access(func(s *state) error {
		stored, ok := s.invoices[inv.ID]
		if !ok {
			return domain.NotFound("invoice", inv.ID)
		}
		if stored.Version != inv.Version {
			return domain.StoreFailure("update invoice "+inv.ID, repository.ErrStaleVersion)
		}
		inv.Version++
		s.invoices[inv.ID] = *inv
		return nil
	})
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Invoice, error) {
	return r.list(func(inv domain.Invoice) bool { return inv.CustomerID == customerID })
}

func (r *invoiceRepository) ListByVendor(ctx context.Context, vendorID string) ([]domain.Invoice, error) {
	return r.list(func(inv domain.Invoice) bool { return inv.VendorID == vendorID })
}

func (r *invoiceRepository) ListAll(ctx context.Context) ([]domain.Invoice, error) {
	return r.list(func(domain.Invoice) bool { return true })
}

func (r *invoiceRepository) ListOpen(ctx context.Context) ([]domain.Invoice, error) {
	return r.list(func(inv domain.Invoice) bool {
		return inv.Status == domain.InvoiceStatusSent || inv.Status == domain.InvoiceStatusPartial
	})
}

func (r *invoiceRepository) list(keep func(domain.Invoice) bool) ([]domain.Invoice, error) {
	var out []domain.Invoice
	err := r.access(func(s *state) error {
		for _, inv := range s.invoices {
			if keep(inv) {
				out = append(out, inv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber > out[j].InvoiceNumber })
	return out, err
}

func (r *invoiceRepository) NextSequence(ctx context.Context, year int) (int64, error) {
	var next int64
	err := r.access(func(s *state) error {
		s.sequences[year]++
		next = s.sequences[year]
		return nil
	})
	return next, err
}

func (r *invoiceRepository) AppendPayment(ctx context.Context, p *domain.Payment) error {
	return r.access(func(s *state) error {
		if _, ok := s.invoices[p.InvoiceID]; !ok {
			return domain.NotFound("invoice", p.InvoiceID)
		}
		s.payments[p.InvoiceID] = append(s.payments[p.InvoiceID], *p)
		return nil
	})
}

func (r *invoiceRepository) SumPayments(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.access(func(s *state) error {
		for _, p := range s.payments[invoiceID] {
			sum = sum.Add(p.Amount)
		}
		return nil
	})
	return sum, err
}

func (r *invoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.access(func(s *state) error {
		ps := s.payments[invoiceID]
		for i := len(ps) - 1; i >= 0; i-- {
			out = append(out, ps[i])
		}
		return nil
	})
	return out, err
}

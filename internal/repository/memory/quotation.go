package memory

import (
	"context"
	"sort"

	"rentdesk-backend/internal/domain"
)

type quotationRepository struct {
	access accessor
}

// load attaches the quotation's lines in insertion order.
func (s *state) loadQuotation(id string) (*domain.Quotation, error) {
	q, ok := s.quotations[id]
	if !ok {
		return nil, domain.NotFound("quotation", id)
	}
	var stored []storedLine
	for _, sl := range s.lines {
		if sl.line.QuotationID == id {
			stored = append(stored, sl)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })
	q.Lines = make([]domain.QuotationLine, 0, len(stored))
	for _, sl := range stored {
		q.Lines = append(q.Lines, sl.line)
	}
	return &q, nil
}

func (r *quotationRepository) Create(ctx context.Context, q *domain.Quotation) error {
	return r.access(func(s *state) error {
		if _, ok := s.quotations[q.ID]; ok {
			return domain.AlreadyExists("quotation", q.ID, "quotation already exists")
		}
		header := *q
		header.Lines = nil
		s.quotations[q.ID] = header
		for i := range q.Lines {
			s.lines[q.Lines[i].ID] = storedLine{line: q.Lines[i], seq: s.nextSeq()}
		}
		return nil
	})
}

func (r *quotationRepository) GetByID(ctx context.Context, id string) (*domain.Quotation, error) {
	var out *domain.Quotation
	err := r.access(func(s *state) error {
		q, err := s.loadQuotation(id)
		out = q
		return err
	})
	return out, err
}

func (r *quotationRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Quotation, error) {
	return r.GetByID(ctx, id)
}

// Update writes the header only; lines have their own operations.
func (r *quotationRepository) Update(ctx context.Context, q *domain.Quotation) error {
	return r.access(func(s *state) error {
		if _, ok := s.quotations[q.ID]; !ok {
			return domain.NotFound("quotation", q.ID)
		}
		header := *q
		header.Lines = nil
		s.quotations[q.ID] = header
		return nil
	})
}

func (r *quotationRepository) Delete(ctx context.Context, id string) error {
	return r.access(func(s *state) error {
		if _, ok := s.quotations[id]; !ok {
			return domain.NotFound("quotation", id)
		}
		delete(s.quotations, id)
		for lineID, sl := range s.lines {
			if sl.line.QuotationID == id {
				delete(s.lines, lineID)
			}
		}
		return nil
	})
}

func (r *quotationRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Quotation, error) {
	return r.list(func(s *state, q *domain.Quotation) bool { return q.CustomerID == customerID })
}

func (r *quotationRepository) ListPendingForVendor(ctx context.Context, vendorID string) ([]domain.Quotation, error) {
	return r.list(func(s *state, q *domain.Quotation) bool {
		if q.Status != domain.QuotationStatusSent && q.Status != domain.QuotationStatusConfirmed {
			return false
		}
		return len(q.PendingLinesFor(vendorID)) > 0
	})
}

func (r *quotationRepository) list(keep func(*state, *domain.Quotation) bool) ([]domain.Quotation, error) {
	var out []domain.Quotation
	err := r.access(func(s *state) error {
		for id := range s.quotations {
			q, err := s.loadQuotation(id)
			if err != nil {
				return err
			}
			if keep(s, q) {
				out = append(out, *q)
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

func (r *quotationRepository) CreateLine(ctx context.Context, l *domain.QuotationLine) error {
	return r.access(func(s *state) error {
		if _, ok := s.quotations[l.QuotationID]; !ok {
			return domain.NotFound("quotation", l.QuotationID)
		}
		if _, ok := s.lines[l.ID]; ok {
			return domain.AlreadyExists("quotation line", l.ID, "line already exists")
		}
		s.lines[l.ID] = storedLine{line: *l, seq: s.nextSeq()}
		return nil
	})
}

func (r *quotationRepository) UpdateLine(ctx context.Context, l *domain.QuotationLine) error {
	return r.access(func(s *state) error {
		sl, ok := s.lines[l.ID]
		if !ok {
			return domain.NotFound("quotation line", l.ID)
		}
		sl.line = *l
		s.lines[l.ID] = sl
		return nil
	})
}

func (r *quotationRepository) DeleteLine(ctx context.Context, lineID string) error {
	return r.access(func(s *state) error {
		if _, ok := s.lines[lineID]; !ok {
			return domain.NotFound("quotation line", lineID)
		}
		delete(s.lines, lineID)
		return nil
	})
}

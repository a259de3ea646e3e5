package service

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type quotationService struct {
	store repository.Store
	now   clock
}

func NewQuotationService(store repository.Store) QuotationService {
	return &quotationService{store: store, now: utcNow}
}

func (s *quotationService) CreateQuotation(ctx context.Context, actor domain.Actor) (*domain.Quotation, error) {
	logger.EnterMethod("quotationService.CreateQuotation", "userID", actor.UserID)

	if err := requireRole(actor, "quotation", "", domain.RoleCustomer); err != nil {
		logger.ExitMethodWithError("quotationService.CreateQuotation", err, "userID", actor.UserID)
		return nil, err
	}
	now := s.now()
	q := &domain.Quotation{
		ID:          uuid.NewString(),
		CustomerID:  actor.UserID,
		Status:      domain.QuotationStatusDraft,
		Subtotal:    decimal.Zero,
		TaxAmount:   decimal.Zero,
		TotalAmount: decimal.Zero,
		Lines:       []domain.QuotationLine{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Repos().Quotations.Create(ctx, q); err != nil {
		logger.ExitMethodWithError("quotationService.CreateQuotation", err, "userID", actor.UserID)
		return nil, err
	}

	logger.ExitMethod("quotationService.CreateQuotation", "quotationID", q.ID)
	return q, nil
}

// mutate loads the quotation under lock, checks the caller owns it and runs
// fn. The header is written back if fn succeeds.
func (s *quotationService) mutate(ctx context.Context, method string, actor domain.Actor, quotationID string,
	fn func(ctx context.Context, repos repository.Repositories, q *domain.Quotation) error) (*domain.Quotation, error) {
	logger.EnterMethod(method, "userID", actor.UserID, "quotationID", quotationID)

	var result *domain.Quotation
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		q, err := repos.Quotations.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := ownsQuotation(actor, q); err != nil {
			return err
		}
		if err := fn(ctx, repos, q); err != nil {
			return err
		}
		q.UpdatedAt = s.now()
		if err := repos.Quotations.Update(ctx, q); err != nil {
			return err
		}
		result = q
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "quotationID", quotationID)
		return nil, err
	}

	logger.ExitMethod(method, "quotationID", quotationID, "status", result.Status, "total", result.TotalAmount)
	return result, nil
}

func (s *quotationService) AddLine(ctx context.Context, actor domain.Actor, quotationID, productID string, qty int, iv domain.Interval) (*domain.Quotation, error) {
	return s.mutate(ctx, "quotationService.AddLine", actor, quotationID,
		func(ctx context.Context, repos repository.Repositories, q *domain.Quotation) error {
			if err := q.EnsureDraft(); err != nil {
				return err
			}
			product, err := repos.Products.GetByID(ctx, productID)
			if err != nil {
				return err
			}
			if !product.IsPublished {
				return domain.Unavailable("product", productID, "product is not available for rent")
			}
			avail, err := CheckAvailabilityTx(ctx, repos, product, iv, qty)
			if err != nil {
				return err
			}
			if !avail.IsAvailable {
				return unavailable(avail)
			}
			cost, err := utils.CalculateRentalCost(product.RateCard(), iv)
			if err != nil {
				return err
			}

			now := s.now()
			line := domain.QuotationLine{
				ID:             uuid.NewString(),
				QuotationID:    q.ID,
				ProductID:      product.ID,
				VendorID:       product.VendorID,
				Interval:       iv,
				UnitPrice:      cost.Amount,
				PricingType:    string(cost.PricingType),
				ApprovalStatus: domain.LineApprovalPending,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := line.SetQuantity(qty); err != nil {
				return err
			}
			if err := repos.Quotations.CreateLine(ctx, &line); err != nil {
				return err
			}
			q.Lines = append(q.Lines, line)
			q.Recalculate()
			return nil
		})
}

func (s *quotationService) UpdateLineQuantity(ctx context.Context, actor domain.Actor, quotationID, lineID string, qty int) (*domain.Quotation, error) {
	return s.mutate(ctx, "quotationService.UpdateLineQuantity", actor, quotationID,
		func(ctx context.Context, repos repository.Repositories, q *domain.Quotation) error {
			if err := q.EnsureDraft(); err != nil {
				return err
			}
			line, err := q.Line(lineID)
			if err != nil {
				return err
			}
			product, err := repos.Products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			avail, err := CheckAvailabilityTx(ctx, repos, product, line.Interval, qty)
			if err != nil {
				return err
			}
			if !avail.IsAvailable {
				return unavailable(avail)
			}
			if err := line.SetQuantity(qty); err != nil {
				return err
			}
			line.UpdatedAt = s.now()
			if err := repos.Quotations.UpdateLine(ctx, line); err != nil {
				return err
			}
			q.Recalculate()
			return nil
		})
}

func (s *quotationService) RemoveLine(ctx context.Context, actor domain.Actor, quotationID, lineID string) (*domain.Quotation, error) {
	return s.mutate(ctx, "quotationService.RemoveLine", actor, quotationID,
		func(ctx context.Context, repos repository.Repositories, q *domain.Quotation) error {
			if err := q.EnsureDraft(); err != nil {
				return err
			}
			if err := q.RemoveLine(lineID); err != nil {
				return err
			}
			if err := repos.Quotations.DeleteLine(ctx, lineID); err != nil {
				return err
			}
			q.Recalculate()
			return nil
		})
}

func (s *quotationService) Submit(ctx context.Context, actor domain.Actor, quotationID, deliveryAddress string) (*domain.Quotation, error) {
	return s.mutate(ctx, "quotationService.Submit", actor, quotationID,
		func(ctx context.Context, repos repository.Repositories, q *domain.Quotation) error {
			return q.Submit(deliveryAddress, s.now())
		})
}

func (s *quotationService) Cancel(ctx context.Context, actor domain.Actor, quotationID string) (*domain.Quotation, error) {
	return s.mutate(ctx, "quotationService.Cancel", actor, quotationID,
		func(ctx context.Context, repos repository.Repositories, q *domain.Quotation) error {
			return q.Cancel()
		})
}

func (s *quotationService) Reject(ctx context.Context, actor domain.Actor, quotationID, vendorID, reason string) (*domain.Quotation, error) {
	logger.EnterMethod("quotationService.Reject", "userID", actor.UserID, "quotationID", quotationID)

	vendorID, err := vendorOrAdmin(actor, "quotation", quotationID, vendorID)
	if err != nil {
		logger.ExitMethodWithError("quotationService.Reject", err, "quotationID", quotationID)
		return nil, err
	}

	var result *domain.Quotation
	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		q, err := repos.Quotations.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		pending := q.PendingLinesFor(vendorID)
		if err := q.Reject(vendorID, reason); err != nil {
			return err
		}
		now := s.now()
		for _, l := range pending {
			l.UpdatedAt = now
			if err := repos.Quotations.UpdateLine(ctx, l); err != nil {
				return err
			}
		}
		q.UpdatedAt = now
		if err := repos.Quotations.Update(ctx, q); err != nil {
			return err
		}
		result = q
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("quotationService.Reject", err, "quotationID", quotationID)
		return nil, err
	}

	logger.ExitMethod("quotationService.Reject", "quotationID", quotationID, "vendorID", vendorID)
	return result, nil
}

func (s *quotationService) DeleteQuotation(ctx context.Context, actor domain.Actor, quotationID string) error {
	logger.EnterMethod("quotationService.DeleteQuotation", "userID", actor.UserID, "quotationID", quotationID)

	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		q, err := repos.Quotations.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := ownsQuotation(actor, q); err != nil {
			return err
		}
		if err := q.EnsureDraft(); err != nil {
			return err
		}
		return repos.Quotations.Delete(ctx, quotationID)
	})
	if err != nil {
		logger.ExitMethodWithError("quotationService.DeleteQuotation", err, "quotationID", quotationID)
		return err
	}

	logger.ExitMethod("quotationService.DeleteQuotation", "quotationID", quotationID)
	return nil
}

func (s *quotationService) GetQuotation(ctx context.Context, actor domain.Actor, quotationID string) (*domain.Quotation, error) {
	q, err := s.store.Repos().Quotations.GetByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if !canViewQuotation(actor, q) {
		return nil, domain.Forbidden("quotation", quotationID, "access denied")
	}
	return q, nil
}

// ListQuotations returns the caller's own quotations for customers and the
// quotations awaiting their decision for vendors.
func (s *quotationService) ListQuotations(ctx context.Context, actor domain.Actor) ([]domain.Quotation, error) {
	if actor.Role == domain.RoleVendor {
		return s.ListPendingForVendor(ctx, actor)
	}
	return s.store.Repos().Quotations.ListByCustomer(ctx, actor.UserID)
}

func (s *quotationService) ListPendingForVendor(ctx context.Context, actor domain.Actor) ([]domain.Quotation, error) {
	if err := requireRole(actor, "quotation", "", domain.RoleVendor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.Repos().Quotations.ListPendingForVendor(ctx, actor.UserID)
}

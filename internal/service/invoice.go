package service

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type invoiceService struct {
	store   repository.Store
	billing BillingPolicy
	now     clock
}

func NewInvoiceService(store repository.Store, billing BillingPolicy) InvoiceService {
	return &invoiceService{store: store, billing: billing, now: utcNow}
}

// lockInvoice loads the invoice under its row lock and refreshes AmountPaid
// from the payment ledger.
func lockInvoice(ctx context.Context, repos repository.Repositories, invoiceID string) (*domain.Invoice, error) {
	inv, err := repos.Invoices.GetByIDForUpdate(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	paid, err := repos.Invoices.SumPayments(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.AmountPaid = domain.Round2(paid)
	return inv, nil
}

func issuesInvoice(actor domain.Actor, inv *domain.Invoice) error {
	if actor.IsAdmin() || inv.VendorID == actor.UserID {
		return nil
	}
	return domain.Forbidden("invoice", inv.ID, "only the issuing vendor or an admin can do this")
}

func (s *invoiceService) SendInvoice(ctx context.Context, actor domain.Actor, invoiceID string) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.SendInvoice", "userID", actor.UserID, "invoiceID", invoiceID)

	var result *domain.Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		inv, err := repos.Invoices.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := issuesInvoice(actor, inv); err != nil {
			return err
		}
		now := s.now()
		if err := inv.Send(now, s.billing.PaymentTerms); err != nil {
			return err
		}
		inv.UpdatedAt = now
		if err := repos.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.SendInvoice", err, "invoiceID", invoiceID)
		return nil, err
	}

	logger.ExitMethod("invoiceService.SendInvoice", "invoiceID", invoiceID, "dueAt", result.DueAt)
	return result, nil
}

// RecordPayment appends a payment and re-derives the invoice status from the
// payment ledger. Concurrent payments on one invoice queue on its row lock.
func (s *invoiceService) RecordPayment(ctx context.Context, actor domain.Actor, invoiceID string, req PaymentRequest) (*domain.Invoice, *domain.Payment, error) {
	logger.EnterMethod("invoiceService.RecordPayment", "userID", actor.UserID, "invoiceID", invoiceID, "amount", req.Amount.String())

	var (
		result  *domain.Invoice
		payment *domain.Payment
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		inv, err := lockInvoice(ctx, repos, invoiceID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && inv.CustomerID != actor.UserID {
			return domain.Forbidden("invoice", invoiceID, "only the invoiced customer can pay")
		}
		if req.PaymentMethod == "" {
			return domain.InvalidInput("payment method is required")
		}
		amount := domain.Round2(req.Amount)
		if err := inv.CheckPayment(amount); err != nil {
			return err
		}

		now := s.now()
		p := &domain.Payment{
			ID:            uuid.NewString(),
			InvoiceID:     inv.ID,
			Amount:        amount,
			PaymentMethod: req.PaymentMethod,
			TransactionID: req.TransactionID,
			Status:        domain.PaymentStatusCompleted,
			PaidAt:        now,
		}
		if err := repos.Invoices.AppendPayment(ctx, p); err != nil {
			return err
		}
		total, err := repos.Invoices.SumPayments(ctx, inv.ID)
		if err != nil {
			return err
		}
		if err := inv.SettlePayments(total); err != nil {
			return err
		}
		inv.UpdatedAt = now
		if err := repos.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		result, payment = inv, p
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.RecordPayment", err, "invoiceID", invoiceID)
		return nil, nil, err
	}

	logger.ExitMethod("invoiceService.RecordPayment", "invoiceID", invoiceID, "status", result.Status, "balance", result.Balance().StringFixed(2))
	return result, payment, nil
}

func (s *invoiceService) AddLateFee(ctx context.Context, actor domain.Actor, invoiceID string, amount decimal.Decimal) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.AddLateFee", "userID", actor.UserID, "invoiceID", invoiceID, "amount", amount.String())

	var result *domain.Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		inv, err := lockInvoice(ctx, repos, invoiceID)
		if err != nil {
			return err
		}
		if err := issuesInvoice(actor, inv); err != nil {
			return err
		}
		if err := inv.AddLateFee(domain.Round2(amount)); err != nil {
			return err
		}
		inv.UpdatedAt = s.now()
		if err := repos.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.AddLateFee", err, "invoiceID", invoiceID)
		return nil, err
	}

	logger.ExitMethod("invoiceService.AddLateFee", "invoiceID", invoiceID, "status", result.Status)
	return result, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, actor domain.Actor, invoiceID string) (*domain.Invoice, error) {
	inv, err := s.store.Repos().Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !canViewInvoice(actor, inv) {
		return nil, domain.Forbidden("invoice", invoiceID, "access denied")
	}
	return inv, nil
}

func (s *invoiceService) GetInvoiceByOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Invoice, error) {
	inv, err := s.store.Repos().Invoices.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canViewInvoice(actor, inv) {
		return nil, domain.Forbidden("invoice", inv.ID, "access denied")
	}
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, actor domain.Actor) ([]domain.Invoice, error) {
	repos := s.store.Repos()
	switch actor.Role {
	case domain.RoleAdmin:
		return repos.Invoices.ListAll(ctx)
	case domain.RoleVendor:
		return repos.Invoices.ListByVendor(ctx, actor.UserID)
	default:
		return repos.Invoices.ListByCustomer(ctx, actor.UserID)
	}
}

func (s *invoiceService) ListPayments(ctx context.Context, actor domain.Actor, invoiceID string) ([]domain.Payment, error) {
	if _, err := s.GetInvoice(ctx, actor, invoiceID); err != nil {
		return nil, err
	}
	return s.store.Repos().Invoices.ListPayments(ctx, invoiceID)
}

func (s *invoiceService) ListOverdue(ctx context.Context) ([]domain.Invoice, error) {
	logger.EnterMethod("invoiceService.ListOverdue")

	open, err := s.store.Repos().Invoices.ListOpen(ctx)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.ListOverdue", err)
		return nil, err
	}
	now := s.now()
	var overdue []domain.Invoice
	for _, inv := range open {
		if inv.DisplayStatus(now) == domain.InvoiceStatusOverdue {
			overdue = append(overdue, inv)
		}
	}

	logger.ExitMethod("invoiceService.ListOverdue", "open", len(open), "overdue", len(overdue))
	return overdue, nil
}

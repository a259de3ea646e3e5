package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"rentdesk-backend/internal/cache"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type orderService struct {
	store    repository.Store
	calendar cache.CalendarCache
	billing  BillingPolicy
	now      clock
}

func NewOrderService(store repository.Store, calendar cache.CalendarCache, billing BillingPolicy) OrderService {
	if calendar == nil {
		calendar = cache.Noop{}
	}
	return &orderService{store: store, calendar: calendar, billing: billing, now: utcNow}
}

// lockProducts takes row locks on every product in lines, in ID order so two
// approvals touching the same products cannot deadlock.
func lockProducts(ctx context.Context, repos repository.Repositories, lines []*domain.QuotationLine) (map[string]*domain.Product, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool)
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	sort.Strings(ids)

	products := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		p, err := repos.Products.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		products[id] = p
	}
	return products, nil
}

func (s *orderService) Approve(ctx context.Context, actor domain.Actor, quotationID, vendorID, deliveryAddress string, securityDeposit decimal.Decimal) (*domain.RentalOrder, *domain.Invoice, error) {
	logger.EnterMethod("orderService.Approve", "userID", actor.UserID, "quotationID", quotationID, "vendorID", vendorID)

	vendorID, err := vendorOrAdmin(actor, "quotation", quotationID, vendorID)
	if err != nil {
		logger.ExitMethodWithError("orderService.Approve", err, "quotationID", quotationID)
		return nil, nil, err
	}
	if securityDeposit.IsNegative() {
		err := domain.InvalidAmount("quotation", quotationID, "security deposit cannot be negative")
		logger.ExitMethodWithError("orderService.Approve", err, "quotationID", quotationID)
		return nil, nil, err
	}

	var (
		order   *domain.RentalOrder
		invoice *domain.Invoice
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		q, err := repos.Quotations.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := q.CheckApprovable(vendorID); err != nil {
			return err
		}
		if _, err := repos.Orders.GetByQuotationAndVendor(ctx, q.ID, vendorID); err == nil {
			return domain.AlreadyExists("quotation", q.ID, "an order already exists for this vendor")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		lines := q.PendingLinesFor(vendorID)
		products, err := lockProducts(ctx, repos, lines)
		if err != nil {
			return err
		}

		now := s.now()
		if deliveryAddress == "" {
			deliveryAddress = q.DeliveryAddress
		}
		order = &domain.RentalOrder{
			ID:              uuid.NewString(),
			QuotationID:     q.ID,
			CustomerID:      q.CustomerID,
			VendorID:        vendorID,
			Status:          domain.OrderStatusConfirmed,
			DeliveryAddress: deliveryAddress,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		for _, l := range lines {
			order.Lines = append(order.Lines, domain.OrderLine{
				ID:        uuid.NewString(),
				OrderID:   order.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				Interval:  l.Interval,
				UnitPrice: l.UnitPrice,
				Subtotal:  l.Subtotal,
			})
		}
		gst := utils.CalculateGST(order.Subtotal())
		order.TotalAmount = gst.Total
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}

		// Each line is checked after the previous line's reservation exists,
		// so two lines for the same product cannot oversell between them.
		for _, l := range order.Lines {
			avail, err := CheckAvailabilityTx(ctx, repos, products[l.ProductID], l.Interval, l.Quantity)
			if err != nil {
				return err
			}
			if !avail.IsAvailable {
				return unavailable(avail)
			}
			res := domain.Reservation{
				ID:        uuid.NewString(),
				ProductID: l.ProductID,
				OrderID:   order.ID,
				Quantity:  l.Quantity,
				Interval:  l.Interval,
				Status:    domain.ReservationStatusReserved,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := repos.Reservations.Create(ctx, &res); err != nil {
				return err
			}
			order.Reservations = append(order.Reservations, res)
		}

		seq, err := repos.Invoices.NextSequence(ctx, now.Year())
		if err != nil {
			return err
		}
		invoice = &domain.Invoice{
			ID:              uuid.NewString(),
			OrderID:         order.ID,
			CustomerID:      order.CustomerID,
			VendorID:        vendorID,
			InvoiceNumber:   utils.FormatInvoiceNumber(now.Year(), seq),
			Status:          domain.InvoiceStatusDraft,
			Subtotal:        gst.Subtotal,
			SecurityDeposit: domain.Round2(securityDeposit),
			LateFee:         decimal.Zero,
			AmountPaid:      decimal.Zero,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		invoice.ComputeTotals()
		if err := repos.Invoices.Create(ctx, invoice); err != nil {
			return err
		}

		if err := q.MarkApproved(vendorID, order.ID); err != nil {
			return err
		}
		for i := range q.Lines {
			if l := &q.Lines[i]; l.OrderID != nil && *l.OrderID == order.ID {
				l.UpdatedAt = now
				if err := repos.Quotations.UpdateLine(ctx, l); err != nil {
					return err
				}
			}
		}
		q.UpdatedAt = now
		return repos.Quotations.Update(ctx, q)
	})
	if err != nil {
		logger.ExitMethodWithError("orderService.Approve", err, "quotationID", quotationID, "vendorID", vendorID)
		return nil, nil, err
	}
	invalidateCalendars(ctx, s.calendar, order.ProductIDs())

	logger.ExitMethod("orderService.Approve", "orderID", order.ID, "invoiceNumber", invoice.InvoiceNumber)
	return order, invoice, nil
}

// moveReservations transitions every reservation of the order that is not
// already in the target status. Released reservations are left alone.
func moveReservations(ctx context.Context, repos repository.Repositories, o *domain.RentalOrder, to domain.ReservationStatus, now time.Time) error {
	reservations, err := repos.Reservations.ListByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	for i := range reservations {
		r := &reservations[i]
		if r.Status == to || r.Status == domain.ReservationStatusReleased {
			continue
		}
		if err := r.TransitionTo(to); err != nil {
			return err
		}
		if err := repos.Reservations.UpdateStatus(ctx, r.ID, to); err != nil {
			return err
		}
		r.Status = to
		r.UpdatedAt = now
	}
	o.Reservations = reservations
	return nil
}

func (s *orderService) CancelOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error) {
	logger.EnterMethod("orderService.CancelOrder", "userID", actor.UserID, "orderID", orderID)

	var order *domain.RentalOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		o, err := repos.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.CustomerID != actor.UserID {
			return domain.Forbidden("order", orderID, "only the customer can cancel this order")
		}
		if o.PickedUpAt != nil {
			return domain.InvalidState("order", orderID, "picked up orders cannot be cancelled")
		}
		if err := o.TransitionTo(domain.OrderStatusCancelled); err != nil {
			return err
		}
		now := s.now()
		o.UpdatedAt = now
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		if err := moveReservations(ctx, repos, o, domain.ReservationStatusReleased, now); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("orderService.CancelOrder", err, "orderID", orderID)
		return nil, err
	}
	invalidateCalendars(ctx, s.calendar, order.ProductIDs())

	logger.ExitMethod("orderService.CancelOrder", "orderID", orderID)
	return order, nil
}

func (s *orderService) MarkPickedUp(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error) {
	logger.EnterMethod("orderService.MarkPickedUp", "userID", actor.UserID, "orderID", orderID)

	var order *domain.RentalOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		o, err := repos.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := managesOrder(actor, o); err != nil {
			return err
		}
		if o.Status != domain.OrderStatusConfirmed {
			return domain.InvalidState("order", orderID, "only CONFIRMED orders can be picked up")
		}
		if o.PickedUpAt != nil {
			return domain.InvalidState("order", orderID, "order was already picked up")
		}
		now := s.now()
		o.PickedUpAt = &now
		o.UpdatedAt = now
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		if err := moveReservations(ctx, repos, o, domain.ReservationStatusActive, now); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("orderService.MarkPickedUp", err, "orderID", orderID)
		return nil, err
	}
	invalidateCalendars(ctx, s.calendar, order.ProductIDs())

	logger.ExitMethod("orderService.MarkPickedUp", "orderID", orderID)
	return order, nil
}

// CompleteOrder records the return, releases the stock and charges a late fee
// when the goods come back after the last rental period ended.
func (s *orderService) CompleteOrder(ctx context.Context, actor domain.Actor, orderID string, returnedAt time.Time) (*domain.RentalOrder, *domain.Invoice, error) {
	logger.EnterMethod("orderService.CompleteOrder", "userID", actor.UserID, "orderID", orderID, "returnedAt", returnedAt)

	if returnedAt.IsZero() {
		returnedAt = s.now()
	}
	returnedAt = returnedAt.UTC()

	var (
		order   *domain.RentalOrder
		invoice *domain.Invoice
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		o, err := repos.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := managesOrder(actor, o); err != nil {
			return err
		}
		if err := o.TransitionTo(domain.OrderStatusCompleted); err != nil {
			return err
		}
		now := s.now()
		o.ReturnedAt = &returnedAt
		o.UpdatedAt = now
		if err := repos.Orders.Update(ctx, o); err != nil {
			return err
		}
		if err := moveReservations(ctx, repos, o, domain.ReservationStatusReleased, now); err != nil {
			return err
		}

		inv, err := repos.Invoices.GetByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		inv, err = repos.Invoices.GetByIDForUpdate(ctx, inv.ID)
		if err != nil {
			return err
		}
		fee, err := s.lateFee(ctx, repos, o, returnedAt)
		if err != nil {
			return err
		}
		if fee.IsPositive() {
			paid, err := repos.Invoices.SumPayments(ctx, inv.ID)
			if err != nil {
				return err
			}
			inv.AmountPaid = domain.Round2(paid)
			if err := inv.AddLateFee(fee); err != nil {
				return err
			}
			inv.UpdatedAt = now
			if err := repos.Invoices.Update(ctx, inv); err != nil {
				return err
			}
			logger.Info("Late fee charged", "orderID", o.ID, "invoiceID", inv.ID, "fee", fee.StringFixed(2))
		}
		order, invoice = o, inv
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("orderService.CompleteOrder", err, "orderID", orderID)
		return nil, nil, err
	}
	invalidateCalendars(ctx, s.calendar, order.ProductIDs())

	logger.ExitMethod("orderService.CompleteOrder", "orderID", orderID, "lateFee", invoice.LateFee.StringFixed(2))
	return order, invoice, nil
}

// lateFee charges every line for the days past the order's expected return,
// at the line's daily rate times its quantity.
func (s *orderService) lateFee(ctx context.Context, repos repository.Repositories, o *domain.RentalOrder, returnedAt time.Time) (decimal.Decimal, error) {
	expected := o.LatestEnd()
	if !returnedAt.After(expected) {
		return decimal.Zero, nil
	}
	fee := decimal.Zero
	for _, l := range o.Lines {
		p, err := repos.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		daily := utils.EffectiveDailyRate(p.RateCard()).Mul(decimalInt(l.Quantity))
		fee = fee.Add(utils.CalculateLateFee(expected, returnedAt, daily, s.billing.LateFeeRate))
	}
	return domain.Round2(fee), nil
}

func (s *orderService) GetOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.RentalOrder, error) {
	repos := s.store.Repos()
	o, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canViewOrder(actor, o) {
		return nil, domain.Forbidden("order", orderID, "access denied")
	}
	if o.Reservations, err = repos.Reservations.ListByOrder(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns the vendor's orders for vendors and the customer's own
// orders for everyone else.
func (s *orderService) ListOrders(ctx context.Context, actor domain.Actor) ([]domain.RentalOrder, error) {
	repos := s.store.Repos()
	var (
		orders []domain.RentalOrder
		err    error
	)
	if actor.Role == domain.RoleVendor {
		orders, err = repos.Orders.ListByVendor(ctx, actor.UserID)
	} else {
		orders, err = repos.Orders.ListByCustomer(ctx, actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Reservations, err = repos.Reservations.ListByOrder(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

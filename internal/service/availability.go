package service

import (
	"context"
	"sort"
	"strconv"

	"rentdesk-backend/internal/cache"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"
)

type availabilityService struct {
	store    repository.Store
	calendar cache.CalendarCache
}

func NewAvailabilityService(store repository.Store, calendar cache.CalendarCache) AvailabilityService {
	if calendar == nil {
		calendar = cache.Noop{}
	}
	return &availabilityService{store: store, calendar: calendar}
}

func (s *availabilityService) CheckAvailability(ctx context.Context, productID string, iv domain.Interval, qty int) (*domain.Availability, error) {
	logger.EnterMethod("availabilityService.CheckAvailability", "productID", productID, "start", iv.Start, "end", iv.End, "qty", qty)

	repos := s.store.Repos()
	product, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		logger.ExitMethodWithError("availabilityService.CheckAvailability", err, "productID", productID)
		return nil, err
	}
	avail, err := CheckAvailabilityTx(ctx, repos, product, iv, qty)
	if err != nil {
		logger.ExitMethodWithError("availabilityService.CheckAvailability", err, "productID", productID)
		return nil, err
	}

	logger.ExitMethod("availabilityService.CheckAvailability", "productID", productID, "available", avail.AvailableQuantity)
	return avail, nil
}

// CheckAvailabilityTx computes availability of product through repos. Callers
// that go on to reserve stock must run it inside the same transaction, after
// locking the product row.
func CheckAvailabilityTx(ctx context.Context, repos repository.Repositories, product *domain.Product, iv domain.Interval, qty int) (*domain.Availability, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, domain.InvalidInput("quantity must be positive")
	}

	overlapping, err := repos.Reservations.FindOverlapping(ctx, product.ID, iv, domain.HoldingStatuses)
	if err != nil {
		return nil, err
	}
	reserved := 0
	for _, r := range overlapping {
		reserved += r.Quantity
	}

	available := product.QuantityOnHand - reserved
	if available < 0 {
		logger.Error("Reserved quantity exceeds stock on hand",
			"productID", product.ID, "onHand", product.QuantityOnHand, "reserved", reserved)
		available = 0
	}

	return &domain.Availability{
		ProductID:         product.ID,
		IsAvailable:       available >= qty,
		AvailableQuantity: available,
		ReservedQuantity:  reserved,
		TotalQuantity:     product.QuantityOnHand,
		RequestedQuantity: qty,
	}, nil
}

func unavailable(avail *domain.Availability) error {
	return domain.Unavailable("product", avail.ProductID,
		"requested "+strconv.Itoa(avail.RequestedQuantity)+" but only "+strconv.Itoa(avail.AvailableQuantity)+" available")
}

// PeakReservedQuantity is the largest quantity held at any single instant by
// reservations. Boundaries are inclusive, so a reservation starting exactly
// when another ends counts as concurrent with it.
func PeakReservedQuantity(reservations []domain.Reservation) int {
	type event struct {
		at    int64
		delta int
	}
	events := make([]event, 0, 2*len(reservations))
	for _, r := range reservations {
		events = append(events,
			event{at: r.Interval.Start.UnixNano(), delta: r.Quantity},
			event{at: r.Interval.End.UnixNano(), delta: -r.Quantity})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].delta > events[j].delta
	})

	peak, current := 0, 0
	for _, e := range events {
		current += e.delta
		if current > peak {
			peak = current
		}
	}
	return peak
}

func (s *availabilityService) QuoteRental(ctx context.Context, productID string, iv domain.Interval, qty int) (*RentalQuote, error) {
	logger.EnterMethod("availabilityService.QuoteRental", "productID", productID, "qty", qty)

	repos := s.store.Repos()
	product, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		logger.ExitMethodWithError("availabilityService.QuoteRental", err, "productID", productID)
		return nil, err
	}
	avail, err := CheckAvailabilityTx(ctx, repos, product, iv, qty)
	if err != nil {
		logger.ExitMethodWithError("availabilityService.QuoteRental", err, "productID", productID)
		return nil, err
	}
	cost, err := utils.CalculateRentalCost(product.RateCard(), iv)
	if err != nil {
		logger.ExitMethodWithError("availabilityService.QuoteRental", err, "productID", productID)
		return nil, err
	}
	subtotal := domain.Round2(cost.Amount.Mul(decimalInt(qty)))

	logger.ExitMethod("availabilityService.QuoteRental", "productID", productID, "pricingType", cost.PricingType)
	return &RentalQuote{
		Availability: avail,
		Pricing:      cost,
		UnitPrice:    cost.Amount,
		GST:          utils.CalculateGST(subtotal),
	}, nil
}

// ListReservations serves the product's holding reservations, from the
// calendar cache when it has them. Cache failures fall back to the store.
func (s *availabilityService) ListReservations(ctx context.Context, productID string) ([]domain.Reservation, error) {
	logger.EnterMethod("availabilityService.ListReservations", "productID", productID)

	lookup, cacheErr := s.calendar.Get(ctx, productID)
	if cacheErr != nil {
		logger.Warn("Calendar cache read failed", "productID", productID, "error", cacheErr)
	}
	if lookup.Found {
		logger.ExitMethod("availabilityService.ListReservations", "productID", productID, "cached", true, "count", len(lookup.Reservations))
		return lookup.Reservations, nil
	}

	repos := s.store.Repos()
	if _, err := repos.Products.GetByID(ctx, productID); err != nil {
		logger.ExitMethodWithError("availabilityService.ListReservations", err, "productID", productID)
		return nil, err
	}
	reservations, err := repos.Reservations.ListActiveByProduct(ctx, productID)
	if err != nil {
		logger.ExitMethodWithError("availabilityService.ListReservations", err, "productID", productID)
		return nil, err
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	// Without a generation from Get the write could outlive an invalidation.
	if cacheErr == nil {
		if err := s.calendar.Set(ctx, productID, lookup.Generation, reservations); err != nil {
			logger.Warn("Calendar cache write failed", "productID", productID, "error", err)
		}
	}

	logger.ExitMethod("availabilityService.ListReservations", "productID", productID, "cached", false, "count", len(reservations))
	return reservations, nil
}

// invalidateCalendars drops cached calendars after a commit changed them.
func invalidateCalendars(ctx context.Context, calendar cache.CalendarCache, productIDs []string) {
	if err := calendar.Invalidate(ctx, productIDs...); err != nil {
		logger.Warn("Calendar cache invalidation failed", "products", productIDs, "error", err)
	}
}

package service

import (
	"context"
	"testing"

	"rentdesk-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("Free stock and price", func(t *testing.T) {
		f := newFixture(t)
		p := f.publishedProduct(t, vendorA, 5, "100")

		avail, err := f.availability.CheckAvailability(ctx, p.ID, janInterval(t, 1, 3), 5)
		require.NoError(t, err)
		assert.True(t, avail.IsAvailable)
		assert.Equal(t, 5, avail.AvailableQuantity)
		assert.Equal(t, 0, avail.ReservedQuantity)
		assert.Equal(t, 5, avail.TotalQuantity)

		quote, err := f.availability.QuoteRental(ctx, p.ID, janInterval(t, 1, 3), 5)
		require.NoError(t, err)
		assert.Equal(t, "200.00", quote.UnitPrice.StringFixed(2))
		assert.Equal(t, "1000.00", quote.GST.Subtotal.StringFixed(2))
		assert.Equal(t, "180.00", quote.GST.Tax.StringFixed(2))
		assert.Equal(t, "1180.00", quote.GST.Total.StringFixed(2))
	})

	t.Run("Overlapping reservation consumes stock", func(t *testing.T) {
		f := newFixture(t)
		p := f.publishedProduct(t, vendorA, 5, "100")
		f.approvedOrder(t, p, 5, 1, 3)

		avail, err := f.availability.CheckAvailability(ctx, p.ID, janInterval(t, 2, 4), 1)
		require.NoError(t, err)
		assert.False(t, avail.IsAvailable)
		assert.Equal(t, 0, avail.AvailableQuantity)
		assert.Equal(t, 5, avail.ReservedQuantity)
	})

	t.Run("Touching intervals overlap", func(t *testing.T) {
		f := newFixture(t)
		p := f.publishedProduct(t, vendorA, 2, "100")
		f.approvedOrder(t, p, 2, 1, 3)

		avail, err := f.availability.CheckAvailability(ctx, p.ID, janInterval(t, 3, 5), 1)
		require.NoError(t, err)
		assert.False(t, avail.IsAvailable)

		avail, err = f.availability.CheckAvailability(ctx, p.ID, janInterval(t, 4, 5), 1)
		require.NoError(t, err)
		assert.True(t, avail.IsAvailable)
	})

	t.Run("Unknown product", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.availability.CheckAvailability(ctx, "missing", janInterval(t, 1, 3), 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Bad input", func(t *testing.T) {
		f := newFixture(t)
		p := f.publishedProduct(t, vendorA, 5, "100")

		_, err := f.availability.CheckAvailability(ctx, p.ID, janInterval(t, 1, 3), 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = f.availability.CheckAvailability(ctx, p.ID, domain.Interval{Start: jan(3), End: jan(1)}, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Oversold stock reports zero", func(t *testing.T) {
		f := newFixture(t)
		p := f.publishedProduct(t, vendorA, 5, "100")
		f.approvedOrder(t, p, 5, 1, 3)

		// Shrink stock underneath the reservation, bypassing the service guard.
		stored, err := f.store.Repos().Products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		stored.QuantityOnHand = 2
		require.NoError(t, f.store.Repos().Products.Update(ctx, stored))

		avail, err := f.availability.CheckAvailability(ctx, p.ID, janInterval(t, 1, 3), 1)
		require.NoError(t, err)
		assert.False(t, avail.IsAvailable)
		assert.Equal(t, 0, avail.AvailableQuantity)
		assert.Equal(t, 5, avail.ReservedQuantity)
	})
}

func TestQuoteRental_NoApplicableRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := &domain.Product{Name: "Tent", QuantityOnHand: 1, PricePerWeek: decPtr("700")}
	require.NoError(t, f.products.CreateProduct(ctx, vendorA, p))

	_, err := f.availability.QuoteRental(ctx, p.ID, janInterval(t, 1, 3), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPeakReservedQuantity(t *testing.T) {
	res := func(from, to, qty int) domain.Reservation {
		return domain.Reservation{Quantity: qty, Interval: domain.Interval{Start: jan(from), End: jan(to)}}
	}

	tests := []struct {
		name string
		in   []domain.Reservation
		want int
	}{
		{"empty", nil, 0},
		{"single", []domain.Reservation{res(1, 3, 2)}, 2},
		{"disjoint", []domain.Reservation{res(1, 3, 2), res(5, 7, 3)}, 3},
		{"nested", []domain.Reservation{res(1, 10, 2), res(3, 5, 3), res(4, 6, 1)}, 6},
		{"touching counts", []domain.Reservation{res(1, 3, 2), res(3, 5, 2)}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeakReservedQuantity(tt.in))
		})
	}
}

func TestListReservations_Cache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.publishedProduct(t, vendorA, 5, "100")
	order, _ := f.approvedOrder(t, p, 2, 1, 3)
	assert.Contains(t, f.calendar.invalidated, p.ID)

	first, err := f.availability.ListReservations(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, order.ID, first[0].OrderID)
	assert.Equal(t, 0, f.calendar.hits)

	second, err := f.availability.ListReservations(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.calendar.hits)

	// Cancelling drops the cached calendar; the next read sees the release.
	_, err = f.orders.CancelOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	third, err := f.availability.ListReservations(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, third)
	assert.Equal(t, 1, f.calendar.hits)

	_, err = f.availability.ListReservations(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListReservations_StaleWriteAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.publishedProduct(t, vendorA, 5, "100")
	order, _ := f.approvedOrder(t, p, 2, 1, 3)

	// The order is cancelled after the calendar was loaded but before it is
	// written back, so the write carries the pre-cancel reservations.
	f.calendar.beforeSet = func() {
		f.calendar.beforeSet = nil
		_, err := f.orders.CancelOrder(ctx, customer, order.ID)
		require.NoError(t, err)
	}
	stale, err := f.availability.ListReservations(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	fresh, err := f.availability.ListReservations(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Equal(t, 0, f.calendar.hits)

	again, err := f.availability.ListReservations(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 1, f.calendar.hits)
}

func TestNewAvailabilityService_NilCache(t *testing.T) {
	f := newFixture(t)
	svc := NewAvailabilityService(f.store, nil)
	p := f.publishedProduct(t, vendorA, 1, "100")

	res, err := svc.ListReservations(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, res)
}

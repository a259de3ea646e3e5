package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rentdesk-backend/internal/cache"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	customer      = domain.Actor{UserID: "customer-1", Role: domain.RoleCustomer}
	otherCustomer = domain.Actor{UserID: "customer-2", Role: domain.RoleCustomer}
	vendorA       = domain.Actor{UserID: "vendor-a", Role: domain.RoleVendor}
	vendorB       = domain.Actor{UserID: "vendor-b", Role: domain.RoleVendor}
	admin         = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// jan returns midnight UTC on the given day of January 2025.
func jan(day int) time.Time {
	return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
}

func janInterval(t *testing.T, from, to int) domain.Interval {
	t.Helper()
	iv, err := domain.NewInterval(jan(from), jan(to))
	require.NoError(t, err)
	return iv
}

type calendarKey struct {
	productID  string
	generation int64
}

// recordingCache is an in-memory CalendarCache that counts its traffic and
// versions entries the way the Redis cache does.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[calendarKey][]domain.Reservation
	generations map[string]int64
	gets, hits  int
	invalidated []string
	// beforeSet runs ahead of every Set, outside the lock.
	beforeSet func()
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries:     make(map[calendarKey][]domain.Reservation),
		generations: make(map[string]int64),
	}
}

func (c *recordingCache) Get(_ context.Context, productID string) (cache.Lookup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	gen := c.generations[productID]
	res, ok := c.entries[calendarKey{productID, gen}]
	if ok {
		c.hits++
	}
	return cache.Lookup{Reservations: res, Found: ok, Generation: gen}, nil
}

func (c *recordingCache) Set(_ context.Context, productID string, generation int64, reservations []domain.Reservation) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[calendarKey{productID, generation}] = reservations
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, productIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range productIDs {
		c.generations[id]++
	}
	c.invalidated = append(c.invalidated, productIDs...)
	return nil
}

var _ cache.CalendarCache = (*recordingCache)(nil)

type fixture struct {
	store        *memory.Store
	calendar     *recordingCache
	availability *availabilityService
	products     *productService
	quotations   *quotationService
	orders       *orderService
	invoices     *invoiceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := func() time.Time { return fixedNow }
	store := memory.NewStore()
	calendar := newRecordingCache()
	billing := DefaultBillingPolicy()
	return &fixture{
		store:        store,
		calendar:     calendar,
		availability: &availabilityService{store: store, calendar: calendar},
		products:     &productService{store: store, now: clk},
		quotations:   &quotationService{store: store, now: clk},
		orders:       &orderService{store: store, calendar: calendar, billing: billing, now: clk},
		invoices:     &invoiceService{store: store, billing: billing, now: clk},
	}
}

// publishedProduct creates and publishes a daily-priced product for vendor.
func (f *fixture) publishedProduct(t *testing.T, vendor domain.Actor, qty int, perDay string) *domain.Product {
	t.Helper()
	ctx := context.Background()
	p := &domain.Product{Name: "Projector", QuantityOnHand: qty, PricePerDay: decPtr(perDay)}
	require.NoError(t, f.products.CreateProduct(ctx, vendor, p))
	published, err := f.products.SetPublished(ctx, vendor, p.ID, true)
	require.NoError(t, err)
	return published
}

type lineSpec struct {
	product  *domain.Product
	qty      int
	from, to int
}

// submittedQuotation builds a SENT quotation for actor from lines.
func (f *fixture) submittedQuotation(t *testing.T, actor domain.Actor, lines ...lineSpec) *domain.Quotation {
	t.Helper()
	ctx := context.Background()
	q, err := f.quotations.CreateQuotation(ctx, actor)
	require.NoError(t, err)
	for _, l := range lines {
		_, err := f.quotations.AddLine(ctx, actor, q.ID, l.product.ID, l.qty, janInterval(t, l.from, l.to))
		require.NoError(t, err)
	}
	q, err = f.quotations.Submit(ctx, actor, q.ID, "12 Market Road")
	require.NoError(t, err)
	return q
}

// approvedOrder runs the whole customer and vendor flow for one line.
func (f *fixture) approvedOrder(t *testing.T, p *domain.Product, qty, from, to int) (*domain.RentalOrder, *domain.Invoice) {
	t.Helper()
	q := f.submittedQuotation(t, customer, lineSpec{product: p, qty: qty, from: from, to: to})
	order, inv, err := f.orders.Approve(context.Background(), domain.Actor{UserID: p.VendorID, Role: domain.RoleVendor},
		q.ID, "", "", decimal.Zero)
	require.NoError(t, err)
	return order, inv
}

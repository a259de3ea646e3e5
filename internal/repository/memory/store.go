// Package memory is an in-process repository.Store used for local development
// and service tests. A transaction works on a private copy of the whole state
// and holds the store lock until it commits, so transactions are serializable.
package memory

import (
	"context"
	"sync"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type storedLine struct {
	line domain.QuotationLine
	seq  int64
}

type state struct {
	products     map[string]domain.Product
	reservations map[string]domain.Reservation
	quotations   map[string]domain.Quotation
	lines        map[string]storedLine
	orders       map[string]domain.RentalOrder
	invoices     map[string]domain.Invoice
	payments     map[string][]domain.Payment
	sequences    map[int]int64
	seq          int64
}

func newState() *state {
	return &state{
		products:     make(map[string]domain.Product),
		reservations: make(map[string]domain.Reservation),
		quotations:   make(map[string]domain.Quotation),
		lines:        make(map[string]storedLine),
		orders:       make(map[string]domain.RentalOrder),
		invoices:     make(map[string]domain.Invoice),
		payments:     make(map[string][]domain.Payment),
		sequences:    make(map[int]int64),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	c := &state{
		products:     cloneMap(s.products),
		reservations: cloneMap(s.reservations),
		quotations:   cloneMap(s.quotations),
		lines:        cloneMap(s.lines),
		orders:       make(map[string]domain.RentalOrder, len(s.orders)),
		invoices:     cloneMap(s.invoices),
		payments:     make(map[string][]domain.Payment, len(s.payments)),
		sequences:    cloneMap(s.sequences),
		seq:          s.seq,
	}
	for id, o := range s.orders {
		c.orders[id] = copyOrder(o)
	}
	for id, ps := range s.payments {
		c.payments[id] = append([]domain.Payment(nil), ps...)
	}
	return c
}

func (s *state) nextSeq() int64 {
	s.seq++
	return s.seq
}

func copyOrder(o domain.RentalOrder) domain.RentalOrder {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	o.Reservations = nil
	return o
}

// accessor runs fn against the state visible to one set of repositories.
type accessor func(fn func(*state) error) error

type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Repos() repository.Repositories {
	return newRepositories(func(fn func(*state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.state)
	})
}

// WithTx must not call Repos() from fn; that would wait on the lock fn holds.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	repos := newRepositories(func(f func(*state) error) error {
		return f(work)
	})
	if err := fn(ctx, repos); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.StoreFailure("commit transaction", err)
	}
	s.state = work
	return nil
}

func newRepositories(access accessor) repository.Repositories {
	return repository.Repositories{
		Products:     &productRepository{access: access},
		Reservations: &reservationRepository{access: access},
		Quotations:   &quotationRepository{access: access},
		Orders:       &orderRepository{access: access},
		Invoices:     &invoiceRepository{access: access},
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var (
	productCols     = []string{"id", "vendor_id", "name", "description", "quantity_on_hand", "price_per_hour", "price_per_day", "price_per_week", "is_published", "created_at", "updated_at"}
	reservationCols = []string{"id", "product_id", "order_id", "quantity", "reserved_from", "reserved_until", "status", "created_at", "updated_at"}
	invoiceCols     = []string{"id", "order_id", "customer_id", "vendor_id", "invoice_number", "status", "subtotal", "tax_amount", "security_deposit", "late_fee", "total_amount", "amount_paid", "sent_at", "due_at", "version", "created_at", "updated_at"}
)

func TestProductRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(productCols).
			AddRow("p-1", "v-1", "Canopy", "", 4, nil, "150.00", "900.00", true, now, now)
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id = \\$1$").
			WithArgs("p-1").
			WillReturnRows(rows)

		p, err := repo.GetByID(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, 4, p.QuantityOnHand)
		assert.Nil(t, p.PricePerHour)
		require.NotNil(t, p.PricePerDay)
		assert.Equal(t, "150.00", p.PricePerDay.StringFixed(2))
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id = \\$1$").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Row lock", func(t *testing.T) {
		rows := sqlmock.NewRows(productCols).
			AddRow("p-1", "v-1", "Canopy", "", 4, "20.00", nil, nil, true, now, now)
		mock.ExpectQuery("SELECT (.+) FROM products WHERE id = \\$1 FOR UPDATE").
			WithArgs("p-1").
			WillReturnRows(rows)

		p, err := repo.GetByIDForUpdate(ctx, "p-1")
		require.NoError(t, err)
		require.NotNil(t, p.PricePerHour)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	day := decimal.NewFromInt(100)

	mock.ExpectExec("UPDATE products SET").
		WithArgs("Tent", "", 2, nil, sqlmock.AnyArg(), nil, true, sqlmock.AnyArg(), "p-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Product{ID: "p-1", Name: "Tent", QuantityOnHand: 2, PricePerDay: &day, IsPublished: true})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_FindOverlapping(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	now := time.Now()

	rows := sqlmock.NewRows(reservationCols).
		AddRow("r-1", "p-1", "o-1", 5, start.Add(-24*time.Hour), start.Add(24*time.Hour), "RESERVED", now, now)
	mock.ExpectQuery("SELECT (.+) FROM reservations\\s+WHERE product_id = \\$1 AND status = ANY\\(\\$2\\) AND reserved_from <= \\$3 AND reserved_until >= \\$4").
		WithArgs("p-1", sqlmock.AnyArg(), end, start).
		WillReturnRows(rows)

	found, err := repo.FindOverlapping(context.Background(), "p-1", domain.Interval{Start: start, End: end}, domain.HoldingStatuses)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 5, found[0].Quantity)
	assert.Equal(t, domain.ReservationStatusReserved, found[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec("INSERT INTO rental_orders").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "rental_orders_quotation_vendor_key"})

	err := repo.Create(context.Background(), &domain.RentalOrder{ID: "o-1", QuotationID: "q-1", VendorID: "v-1", Status: domain.OrderStatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateWithLines(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	o := &domain.RentalOrder{
		ID: "o-1", QuotationID: "q-1", CustomerID: "c-1", VendorID: "v-1",
		Status:      domain.OrderStatusConfirmed,
		TotalAmount: decimal.NewFromInt(200),
		Lines: []domain.OrderLine{
			{ID: "ol-1", ProductID: "p-1", Quantity: 2, Interval: domain.Interval{Start: start, End: start.Add(24 * time.Hour)}, UnitPrice: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(200)},
		},
	}

	mock.ExpectExec("INSERT INTO rental_orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_lines").
		WithArgs("ol-1", "o-1", "p-1", 2, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), o))
	assert.False(t, o.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_Update(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	t.Run("Bumps version", func(t *testing.T) {
		inv := &domain.Invoice{ID: "i-1", Status: domain.InvoiceStatusPartial, Version: 3}
		mock.ExpectExec("UPDATE invoices SET (.+) WHERE id=\\$8 AND version=\\$9").
			WithArgs("PARTIAL", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg(), "i-1", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, inv))
		assert.Equal(t, 4, inv.Version)
	})

	t.Run("Stale version", func(t *testing.T) {
		inv := &domain.Invoice{ID: "i-1", Status: domain.InvoiceStatusPaid, Version: 3}
		mock.ExpectExec("UPDATE invoices SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, inv)
		assert.ErrorIs(t, err, repository.ErrStaleVersion)
		assert.ErrorIs(t, err, domain.ErrStoreFailure)
		assert.Equal(t, 3, inv.Version)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_NextSequence(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectQuery("INSERT INTO invoice_sequences (.+) ON CONFLICT \\(year\\) DO UPDATE (.+) RETURNING last_number").
		WithArgs(2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_number"}).AddRow(42))

	n, err := repo.NextSequence(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_GetByOrderID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInvoiceRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(invoiceCols).
		AddRow("i-1", "o-1", "c-1", "v-1", "INV-2025-0001", "SENT", "300.00", "54.00", "0", "0", "354.00", "100.00", now, now.Add(time.Hour), 2, now, now)
	mock.ExpectQuery("SELECT (.+) FROM invoices WHERE order_id = \\$1").
		WithArgs("o-1").
		WillReturnRows(rows)

	inv, err := repo.GetByOrderID(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "254.00", inv.Balance().StringFixed(2))
	require.NotNil(t, inv.DueAt)
	assert.Equal(t, 2, inv.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_SumPayments(t *testing.T) {
	db, mock := newMock(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM payments").
		WithArgs("i-1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("680.50"))

	sum, err := repo.SumPayments(context.Background(), "i-1")
	require.NoError(t, err)
	assert.Equal(t, "680.50", sum.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE reservations SET status").
			WithArgs("RELEASED", sqlmock.AnyArg(), "r-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			return repos.Reservations.UpdateStatus(ctx, "r-1", domain.ReservationStatusReleased)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback on error", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE reservations SET status").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			return repos.Reservations.UpdateStatus(ctx, "r-1", domain.ReservationStatusReleased)
		})
		assert.ErrorIs(t, err, domain.ErrStoreFailure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin failure", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewStore(db)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrStoreFailure)
	})
}

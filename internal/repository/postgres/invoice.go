package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, order_id, customer_id, vendor_id, invoice_number, status, subtotal, tax_amount,
	security_deposit, late_fee, total_amount, amount_paid, sent_at, due_at, version, created_at, updated_at`

const paymentColumns = `id, invoice_id, amount, payment_method, transaction_id, status, paid_at`

type invoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		inv         domain.Invoice
		sentAt, due sql.NullTime
	)
	err := row.Scan(&inv.ID, &inv.OrderID, &inv.CustomerID, &inv.VendorID, &inv.InvoiceNumber, &inv.Status,
		&inv.Subtotal, &inv.TaxAmount, &inv.SecurityDeposit, &inv.LateFee, &inv.TotalAmount, &inv.AmountPaid,
		&sentAt, &due, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.SentAt = timePtr(sentAt)
	inv.DueAt = timePtr(due)
	return &inv, nil
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	logger.EnterMethod("invoiceRepository.Create", "orderID", inv.OrderID, "invoiceNumber", inv.InvoiceNumber)

	query := `INSERT INTO invoices (` + invoiceColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, inv.ID, inv.OrderID, inv.CustomerID, inv.VendorID, inv.InvoiceNumber,
		inv.Status, inv.Subtotal, inv.TaxAmount, inv.SecurityDeposit, inv.LateFee, inv.TotalAmount, inv.AmountPaid,
		inv.SentAt, inv.DueAt, inv.Version, now, now)
	if err != nil {
		logger.ExitMethodWithError("invoiceRepository.Create", err, "orderID", inv.OrderID)
		return mapError("insert invoice", "invoice", inv.ID, err)
	}
	inv.CreatedAt, inv.UpdatedAt = now, now

	logger.ExitMethod("invoiceRepository.Create", "invoiceID", inv.ID)
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("select invoice", "invoice", id, err)
	}
	return inv, nil
}

func (r *invoiceRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("lock invoice", "invoice", id, err)
	}
	return inv, nil
}

func (r *invoiceRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE order_id = $1`, orderID))
	if err != nil {
		return nil, mapError("select invoice by order", "invoice", "order "+orderID, err)
	}
	return inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	logger.EnterMethod("invoiceRepository.Update", "invoiceID", inv.ID, "status", inv.Status, "version", inv.Version)

	query := `UPDATE invoices SET status=$1, late_fee=$2, total_amount=$3, amount_paid=$4, sent_at=$5, due_at=$6,
	          version = version + 1, updated_at=$7
	          WHERE id=$8 AND version=$9`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, inv.Status, inv.LateFee, inv.TotalAmount, inv.AmountPaid,
		inv.SentAt, inv.DueAt, now, inv.ID, inv.Version)
	if err != nil {
		logger.ExitMethodWithError("invoiceRepository.Update", err, "invoiceID", inv.ID)
		return mapError("update invoice", "invoice", inv.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StoreFailure("update invoice", err)
	}
	if n == 0 {
		logger.ExitMethodWithError("invoiceRepository.Update", repository.ErrStaleVersion, "invoiceID", inv.ID)
		return domain.StoreFailure("update invoice "+inv.ID, repository.ErrStaleVersion)
	}
	inv.Version++
	inv.UpdatedAt = now

	logger.ExitMethod("invoiceRepository.Update", "invoiceID", inv.ID, "version", inv.Version)
	return nil
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE customer_id = $1 ORDER BY invoice_number DESC`, customerID)
}

func (r *invoiceRepository) ListByVendor(ctx context.Context, vendorID string) ([]domain.Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE vendor_id = $1 ORDER BY invoice_number DESC`, vendorID)
}

func (r *invoiceRepository) ListAll(ctx context.Context) ([]domain.Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY invoice_number DESC`)
}

func (r *invoiceRepository) ListOpen(ctx context.Context) ([]domain.Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE status IN ('SENT', 'PARTIAL') ORDER BY due_at, invoice_number`)
}

func (r *invoiceRepository) list(ctx context.Context, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreFailure("list invoices", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, domain.StoreFailure("scan invoice", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, domain.StoreFailure("list invoices", rows.Err())
}

// NextSequence increments the per-year counter in place, so concurrent
// approvals queue on the year's row instead of racing a read-then-insert.
func (r *invoiceRepository) NextSequence(ctx context.Context, year int) (int64, error) {
	query := `INSERT INTO invoice_sequences (year, last_number) VALUES ($1, 1)
	          ON CONFLICT (year) DO UPDATE SET last_number = invoice_sequences.last_number + 1
	          RETURNING last_number`
	logger.DatabaseCall("NextSequence", query, "year", year)
	var next int64
	if err := r.db.QueryRowContext(ctx, query, year).Scan(&next); err != nil {
		logger.DatabaseResult("NextSequence", 0, err)
		return 0, domain.StoreFailure("allocate invoice number", err)
	}
	logger.DatabaseResult("NextSequence", 1, nil, "next", next)
	return next, nil
}

func (r *invoiceRepository) AppendPayment(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.InvoiceID, p.Amount, p.PaymentMethod,
		nullString(p.TransactionID), p.Status, p.PaidAt)
	return mapError("insert payment", "payment", p.ID, err)
}

func (r *invoiceRepository) SumPayments(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&sum)
	if err != nil {
		return decimal.Zero, domain.StoreFailure("sum payments", err)
	}
	return sum, nil
}

func (r *invoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = $1 ORDER BY paid_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, domain.StoreFailure("list payments", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var (
			p    domain.Payment
			txID sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentMethod, &txID, &p.Status, &p.PaidAt); err != nil {
			return nil, domain.StoreFailure("scan payment", err)
		}
		p.TransactionID = stringPtr(txID)
		payments = append(payments, p)
	}
	return payments, domain.StoreFailure("list payments", rows.Err())
}

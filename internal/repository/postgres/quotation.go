package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

const quotationColumns = `id, customer_id, status, subtotal, tax_amount, total_amount,
	delivery_address, rejection_reason, submitted_at, created_at, updated_at`

const quotationLineColumns = `id, quotation_id, product_id, vendor_id, quantity, rental_start, rental_end,
	unit_price, subtotal, pricing_type, approval_status, order_id, rejection_reason, created_at, updated_at`

type quotationRepository struct {
	db DBTX
}

func NewQuotationRepository(db DBTX) repository.QuotationRepository {
	return &quotationRepository{db: db}
}

func scanQuotation(row rowScanner) (*domain.Quotation, error) {
	var (
		q         domain.Quotation
		submitted sql.NullTime
	)
	err := row.Scan(&q.ID, &q.CustomerID, &q.Status, &q.Subtotal, &q.TaxAmount, &q.TotalAmount,
		&q.DeliveryAddress, &q.RejectionReason, &submitted, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.SubmittedAt = timePtr(submitted)
	return &q, nil
}

func scanQuotationLine(row rowScanner) (*domain.QuotationLine, error) {
	var (
		l       domain.QuotationLine
		orderID sql.NullString
	)
	err := row.Scan(&l.ID, &l.QuotationID, &l.ProductID, &l.VendorID, &l.Quantity,
		&l.Interval.Start, &l.Interval.End, &l.UnitPrice, &l.Subtotal, &l.PricingType,
		&l.ApprovalStatus, &orderID, &l.RejectionReason, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Interval.Start = l.Interval.Start.UTC()
	l.Interval.End = l.Interval.End.UTC()
	l.OrderID = stringPtr(orderID)
	return &l, nil
}

func (r *quotationRepository) Create(ctx context.Context, q *domain.Quotation) error {
	query := `INSERT INTO quotations (` + quotationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, q.ID, q.CustomerID, q.Status, q.Subtotal, q.TaxAmount, q.TotalAmount,
		q.DeliveryAddress, q.RejectionReason, q.SubmittedAt, now, now)
	if err != nil {
		return mapError("insert quotation", "quotation", q.ID, err)
	}
	q.CreatedAt, q.UpdatedAt = now, now
	for i := range q.Lines {
		if err := r.CreateLine(ctx, &q.Lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *quotationRepository) GetByID(ctx context.Context, id string) (*domain.Quotation, error) {
	return r.get(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
}

// GetByIDForUpdate locks the header row; lines are only written under that lock.
func (r *quotationRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Quotation, error) {
	return r.get(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1 FOR UPDATE`, id)
}

func (r *quotationRepository) get(ctx context.Context, query, id string) (*domain.Quotation, error) {
	q, err := scanQuotation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("select quotation", "quotation", id, err)
	}
	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Lines = lines
	return q, nil
}

func (r *quotationRepository) lines(ctx context.Context, quotationID string) ([]domain.QuotationLine, error) {
	query := `SELECT ` + quotationLineColumns + ` FROM quotation_lines WHERE quotation_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, quotationID)
	if err != nil {
		return nil, domain.StoreFailure("select quotation lines", err)
	}
	defer rows.Close()

	lines := []domain.QuotationLine{}
	for rows.Next() {
		l, err := scanQuotationLine(rows)
		if err != nil {
			return nil, domain.StoreFailure("scan quotation line", err)
		}
		lines = append(lines, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure("select quotation lines", err)
	}
	return lines, nil
}

func (r *quotationRepository) Update(ctx context.Context, q *domain.Quotation) error {
	query := `UPDATE quotations SET status=$1, subtotal=$2, tax_amount=$3, total_amount=$4,
	          delivery_address=$5, rejection_reason=$6, submitted_at=$7, updated_at=$8 WHERE id=$9`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, q.Status, q.Subtotal, q.TaxAmount, q.TotalAmount,
		q.DeliveryAddress, q.RejectionReason, q.SubmittedAt, now, q.ID)
	if err != nil {
		return mapError("update quotation", "quotation", q.ID, err)
	}
	if err := requireRow(res, "update quotation", "quotation", q.ID); err != nil {
		return err
	}
	q.UpdatedAt = now
	return nil
}

// Delete removes the quotation; lines go with it through ON DELETE CASCADE.
func (r *quotationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return mapError("delete quotation", "quotation", id, err)
	}
	return requireRow(res, "delete quotation", "quotation", id)
}

func (r *quotationRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE customer_id = $1 ORDER BY created_at DESC, id`
	return r.list(ctx, query, customerID)
}

func (r *quotationRepository) ListPendingForVendor(ctx context.Context, vendorID string) ([]domain.Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations q
	          WHERE q.status IN ('SENT', 'CONFIRMED')
	            AND EXISTS (SELECT 1 FROM quotation_lines l
	                        WHERE l.quotation_id = q.id AND l.vendor_id = $1 AND l.approval_status = 'PENDING')
	          ORDER BY q.submitted_at DESC, q.id`
	return r.list(ctx, query, vendorID)
}

func (r *quotationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Quotation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreFailure("list quotations", err)
	}
	var quotations []domain.Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			rows.Close()
			return nil, domain.StoreFailure("scan quotation", err)
		}
		quotations = append(quotations, *q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure("list quotations", err)
	}

	// Lines are loaded after the header cursor is closed; a transaction can
	// only have one open result set.
	for i := range quotations {
		lines, err := r.lines(ctx, quotations[i].ID)
		if err != nil {
			return nil, err
		}
		quotations[i].Lines = lines
	}
	return quotations, nil
}

func (r *quotationRepository) CreateLine(ctx context.Context, l *domain.QuotationLine) error {
	query := `INSERT INTO quotation_lines (` + quotationLineColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, l.ID, l.QuotationID, l.ProductID, l.VendorID, l.Quantity,
		l.Interval.Start, l.Interval.End, l.UnitPrice, l.Subtotal, l.PricingType, l.ApprovalStatus,
		nullString(l.OrderID), l.RejectionReason, now, now)
	if err != nil {
		return mapError("insert quotation line", "quotation line", l.ID, err)
	}
	l.CreatedAt, l.UpdatedAt = now, now
	return nil
}

func (r *quotationRepository) UpdateLine(ctx context.Context, l *domain.QuotationLine) error {
	query := `UPDATE quotation_lines SET quantity=$1, unit_price=$2, subtotal=$3, approval_status=$4,
	          order_id=$5, rejection_reason=$6, updated_at=$7 WHERE id=$8`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, l.Quantity, l.UnitPrice, l.Subtotal, l.ApprovalStatus,
		nullString(l.OrderID), l.RejectionReason, now, l.ID)
	if err != nil {
		return mapError("update quotation line", "quotation line", l.ID, err)
	}
	if err := requireRow(res, "update quotation line", "quotation line", l.ID); err != nil {
		return err
	}
	l.UpdatedAt = now
	return nil
}

func (r *quotationRepository) DeleteLine(ctx context.Context, lineID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quotation_lines WHERE id = $1`, lineID)
	if err != nil {
		return mapError("delete quotation line", "quotation line", lineID, err)
	}
	return requireRow(res, "delete quotation line", "quotation line", lineID)
}

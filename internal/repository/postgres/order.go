package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

const orderColumns = `id, quotation_id, customer_id, vendor_id, status, total_amount, delivery_address,
	picked_up_at, returned_at, created_at, updated_at`

const orderLineColumns = `id, order_id, product_id, quantity, rental_start, rental_end, unit_price, subtotal`

type orderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) repository.OrderRepository {
	return &orderRepository{db: db}
}

func scanOrder(row rowScanner) (*domain.RentalOrder, error) {
	var (
		o                    domain.RentalOrder
		pickedUp, returnedAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.QuotationID, &o.CustomerID, &o.VendorID, &o.Status, &o.TotalAmount,
		&o.DeliveryAddress, &pickedUp, &returnedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.PickedUpAt = timePtr(pickedUp)
	o.ReturnedAt = timePtr(returnedAt)
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *domain.RentalOrder) error {
	logger.EnterMethod("orderRepository.Create", "quotationID", o.QuotationID, "vendorID", o.VendorID)

	query := `INSERT INTO rental_orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, o.ID, o.QuotationID, o.CustomerID, o.VendorID, o.Status,
		o.TotalAmount, o.DeliveryAddress, o.PickedUpAt, o.ReturnedAt, now, now)
	if err != nil {
		logger.ExitMethodWithError("orderRepository.Create", err, "quotationID", o.QuotationID)
		return mapError("insert order", "order", o.ID, err)
	}

	lineQuery := `INSERT INTO order_lines (` + orderLineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, l := range o.Lines {
		_, err := r.db.ExecContext(ctx, lineQuery, l.ID, o.ID, l.ProductID, l.Quantity,
			l.Interval.Start, l.Interval.End, l.UnitPrice, l.Subtotal)
		if err != nil {
			logger.ExitMethodWithError("orderRepository.Create", err, "orderID", o.ID)
			return mapError("insert order line", "order line", l.ID, err)
		}
	}
	o.CreatedAt, o.UpdatedAt = now, now

	logger.ExitMethod("orderRepository.Create", "orderID", o.ID, "lines", len(o.Lines))
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.RentalOrder, error) {
	return r.get(ctx, id, `SELECT `+orderColumns+` FROM rental_orders WHERE id = $1`, id)
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.RentalOrder, error) {
	return r.get(ctx, id, `SELECT `+orderColumns+` FROM rental_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *orderRepository) GetByQuotationAndVendor(ctx context.Context, quotationID, vendorID string) (*domain.RentalOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM rental_orders WHERE quotation_id = $1 AND vendor_id = $2`
	return r.get(ctx, quotationID+"/"+vendorID, query, quotationID, vendorID)
}

func (r *orderRepository) get(ctx context.Context, key, query string, args ...any) (*domain.RentalOrder, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError("select order", "order", key, err)
	}
	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) lines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	query := `SELECT ` + orderLineColumns + ` FROM order_lines WHERE order_id = $1 ORDER BY rental_start, id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, domain.StoreFailure("select order lines", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity,
			&l.Interval.Start, &l.Interval.End, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, domain.StoreFailure("scan order line", err)
		}
		l.Interval.Start = l.Interval.Start.UTC()
		l.Interval.End = l.Interval.End.UTC()
		lines = append(lines, l)
	}
	return lines, domain.StoreFailure("select order lines", rows.Err())
}

func (r *orderRepository) Update(ctx context.Context, o *domain.RentalOrder) error {
	query := `UPDATE rental_orders SET status=$1, picked_up_at=$2, returned_at=$3, updated_at=$4 WHERE id=$5`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, o.Status, o.PickedUpAt, o.ReturnedAt, now, o.ID)
	if err != nil {
		return mapError("update order", "order", o.ID, err)
	}
	if err := requireRow(res, "update order", "order", o.ID); err != nil {
		return err
	}
	o.UpdatedAt = now
	return nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.RentalOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM rental_orders WHERE customer_id = $1 ORDER BY created_at DESC, id`
	return r.list(ctx, query, customerID)
}

func (r *orderRepository) ListByVendor(ctx context.Context, vendorID string) ([]domain.RentalOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM rental_orders WHERE vendor_id = $1 ORDER BY created_at DESC, id`
	return r.list(ctx, query, vendorID)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]domain.RentalOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreFailure("list orders", err)
	}
	var orders []domain.RentalOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, domain.StoreFailure("scan order", err)
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure("list orders", err)
	}
	for i := range orders {
		if orders[i].Lines, err = r.lines(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

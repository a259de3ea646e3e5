package postgres

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"

	"github.com/lib/pq"
)

const reservationColumns = `id, product_id, order_id, quantity, reserved_from, reserved_until, status, created_at, updated_at`

type reservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(&res.ID, &res.ProductID, &res.OrderID, &res.Quantity,
		&res.Interval.Start, &res.Interval.End, &res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	res.Interval.Start = res.Interval.Start.UTC()
	res.Interval.End = res.Interval.End.UTC()
	return &res, nil
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	logger.EnterMethod("reservationRepository.Create", "productID", res.ProductID, "orderID", res.OrderID)

	query := `INSERT INTO reservations (` + reservationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, res.ID, res.ProductID, res.OrderID, res.Quantity,
		res.Interval.Start, res.Interval.End, res.Status, now, now)
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Create", err, "productID", res.ProductID)
		return mapError("insert reservation", "reservation", res.ID, err)
	}
	res.CreatedAt, res.UpdatedAt = now, now

	logger.ExitMethod("reservationRepository.Create", "reservationID", res.ID)
	return nil
}

// FindOverlapping uses inclusive bounds, matching domain.Interval.Overlaps.
func (r *reservationRepository) FindOverlapping(ctx context.Context, productID string, iv domain.Interval, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE product_id = $1 AND status = ANY($2) AND reserved_from <= $3 AND reserved_until >= $4
	          ORDER BY reserved_from, id`
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	logger.DatabaseCall("FindOverlapping", "reservations", "productID", productID)
	return r.list(ctx, "find overlapping reservations", query, productID, pq.Array(names), iv.End, iv.Start)
}

func (r *reservationRepository) ListActiveByProduct(ctx context.Context, productID string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE product_id = $1 AND status IN ('RESERVED', 'ACTIVE')
	          ORDER BY reserved_from, id`
	return r.list(ctx, "list product reservations", query, productID)
}

func (r *reservationRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE order_id = $1 ORDER BY reserved_from, id`
	return r.list(ctx, "list order reservations", query, orderID)
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	query := `UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return mapError("update reservation", "reservation", id, err)
	}
	return requireRow(res, "update reservation", "reservation", id)
}

func (r *reservationRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult(op, 0, err)
		return nil, domain.StoreFailure(op, err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	logger.DatabaseResult(op, int64(len(out)), nil)
	return out, nil
}

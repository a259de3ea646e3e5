package memory

import (
	"context"
	"slices"
	"sort"

	"rentdesk-backend/internal/domain"
)

type reservationRepository struct {
	access accessor
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	return r.access(func(s *state) error {
		if _, ok := s.reservations[res.ID]; ok {
			return domain.AlreadyExists("reservation", res.ID, "reservation already exists")
		}
		s.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepository) FindOverlapping(ctx context.Context, productID string, iv domain.Interval, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.list(func(res domain.Reservation) bool {
		return res.ProductID == productID && slices.Contains(statuses, res.Status) && res.Interval.Overlaps(iv)
	})
}

func (r *reservationRepository) ListActiveByProduct(ctx context.Context, productID string) ([]domain.Reservation, error) {
	return r.list(func(res domain.Reservation) bool {
		return res.ProductID == productID && res.IsHolding()
	})
}

func (r *reservationRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Reservation, error) {
	return r.list(func(res domain.Reservation) bool { return res.OrderID == orderID })
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	return r.access(func(s *state) error {
		res, ok := s.reservations[id]
		if !ok {
			return domain.NotFound("reservation", id)
		}
		res.Status = status
		s.reservations[id] = res
		return nil
	})
}

func (r *reservationRepository) list(keep func(domain.Reservation) bool) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.access(func(s *state) error {
		for _, res := range s.reservations {
			if keep(res) {
				out = append(out, res)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Interval.Start.Equal(out[j].Interval.Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Interval.Start.Before(out[j].Interval.Start)
	})
	return out, err
}

package memory

import (
	"context"
	"sort"

	"rentdesk-backend/internal/domain"
)

type productRepository struct {
	access accessor
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	return r.access(func(s *state) error {
		if _, ok := s.products[p.ID]; ok {
			return domain.AlreadyExists("product", p.ID, "product already exists")
		}
		s.products[p.ID] = *p
		return nil
	})
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	err := r.access(func(s *state) error {
		p, ok := s.products[id]
		if !ok {
			return domain.NotFound("product", id)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByIDForUpdate is GetByID; the transaction already holds the store lock.
func (r *productRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	return r.access(func(s *state) error {
		if _, ok := s.products[p.ID]; !ok {
			return domain.NotFound("product", p.ID)
		}
		s.products[p.ID] = *p
		return nil
	})
}

func (r *productRepository) ListByVendor(ctx context.Context, vendorID string) ([]domain.Product, error) {
	return r.list(func(p domain.Product) bool { return p.VendorID == vendorID })
}

func (r *productRepository) ListPublished(ctx context.Context) ([]domain.Product, error) {
	return r.list(func(p domain.Product) bool { return p.IsPublished })
}

func (r *productRepository) list(keep func(domain.Product) bool) ([]domain.Product, error) {
	var out []domain.Product
	err := r.access(func(s *state) error {
		for _, p := range s.products {
			if keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

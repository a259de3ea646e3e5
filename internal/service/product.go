package service

import (
	"context"
	"strconv"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"

	"github.com/google/uuid"
)

type productService struct {
	store repository.Store
	now   clock
}

func NewProductService(store repository.Store) ProductService {
	return &productService{store: store, now: utcNow}
}

func (s *productService) CreateProduct(ctx context.Context, actor domain.Actor, p *domain.Product) error {
	logger.EnterMethod("productService.CreateProduct", "userID", actor.UserID, "name", p.Name)

	if err := requireRole(actor, "product", "", domain.RoleVendor, domain.RoleAdmin); err != nil {
		logger.ExitMethodWithError("productService.CreateProduct", err, "userID", actor.UserID)
		return err
	}
	if p.VendorID == "" || !actor.IsAdmin() {
		p.VendorID = actor.UserID
	}
	if err := p.Validate(); err != nil {
		logger.ExitMethodWithError("productService.CreateProduct", err, "userID", actor.UserID)
		return err
	}

	now := s.now()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.store.Repos().Products.Create(ctx, p); err != nil {
		logger.ExitMethodWithError("productService.CreateProduct", err, "userID", actor.UserID)
		return err
	}

	logger.ExitMethod("productService.CreateProduct", "productID", p.ID)
	return nil
}

func ownsProduct(actor domain.Actor, p *domain.Product) error {
	if actor.IsAdmin() || p.VendorID == actor.UserID {
		return nil
	}
	return domain.Forbidden("product", p.ID, "you can only manage your own products")
}

// UpdateProduct applies upd under the product row lock. Stock may not drop
// below the peak quantity already reserved for any instant.
func (s *productService) UpdateProduct(ctx context.Context, actor domain.Actor, productID string, upd ProductUpdate) (*domain.Product, error) {
	logger.EnterMethod("productService.UpdateProduct", "userID", actor.UserID, "productID", productID)

	var updated *domain.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Products.GetByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if err := ownsProduct(actor, p); err != nil {
			return err
		}

		if upd.Name != nil {
			p.Name = *upd.Name
		}
		if upd.Description != nil {
			p.Description = *upd.Description
		}
		if upd.PricePerHour != nil {
			p.PricePerHour = upd.PricePerHour
		}
		if upd.PricePerDay != nil {
			p.PricePerDay = upd.PricePerDay
		}
		if upd.PricePerWeek != nil {
			p.PricePerWeek = upd.PricePerWeek
		}
		if upd.QuantityOnHand != nil && *upd.QuantityOnHand != p.QuantityOnHand {
			active, err := repos.Reservations.ListActiveByProduct(ctx, p.ID)
			if err != nil {
				return err
			}
			if peak := PeakReservedQuantity(active); *upd.QuantityOnHand < peak {
				return domain.Unavailable("product", p.ID,
					"cannot reduce stock to "+strconv.Itoa(*upd.QuantityOnHand)+": "+strconv.Itoa(peak)+" units are reserved")
			}
			p.QuantityOnHand = *upd.QuantityOnHand
		}
		if err := p.Validate(); err != nil {
			return err
		}

		p.UpdatedAt = s.now()
		if err := repos.Products.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("productService.UpdateProduct", err, "productID", productID)
		return nil, err
	}

	logger.ExitMethod("productService.UpdateProduct", "productID", productID)
	return updated, nil
}

func (s *productService) SetPublished(ctx context.Context, actor domain.Actor, productID string, published bool) (*domain.Product, error) {
	logger.EnterMethod("productService.SetPublished", "userID", actor.UserID, "productID", productID, "published", published)

	var updated *domain.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		p, err := repos.Products.GetByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if err := ownsProduct(actor, p); err != nil {
			return err
		}
		p.IsPublished = published
		p.UpdatedAt = s.now()
		if err := repos.Products.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("productService.SetPublished", err, "productID", productID)
		return nil, err
	}

	logger.ExitMethod("productService.SetPublished", "productID", productID)
	return updated, nil
}

func (s *productService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.store.Repos().Products.GetByID(ctx, productID)
}

func (s *productService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.Repos().Products.ListPublished(ctx)
}

func (s *productService) ListMyProducts(ctx context.Context, actor domain.Actor) ([]domain.Product, error) {
	if err := requireRole(actor, "product", "", domain.RoleVendor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.Repos().Products.ListByVendor(ctx, actor.UserID)
}

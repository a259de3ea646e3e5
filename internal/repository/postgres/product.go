package postgres

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const productColumns = `id, vendor_id, name, description, quantity_on_hand,
	price_per_hour, price_per_day, price_per_week, is_published, created_at, updated_at`

type productRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) repository.ProductRepository {
	return &productRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                   domain.Product
		perHour, perDay, pw decimal.NullDecimal
	)
	err := row.Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.QuantityOnHand,
		&perHour, &perDay, &pw, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.PricePerHour = decimalPtr(perHour)
	p.PricePerDay = decimalPtr(perDay)
	p.PricePerWeek = decimalPtr(pw)
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (` + productColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, p.ID, p.VendorID, p.Name, p.Description, p.QuantityOnHand,
		nullDecimal(p.PricePerHour), nullDecimal(p.PricePerDay), nullDecimal(p.PricePerWeek),
		p.IsPublished, now, now)
	if err != nil {
		return mapError("insert product", "product", p.ID, err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("select product", "product", id, err)
	}
	return p, nil
}

func (r *productRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("lock product", "product", id, err)
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products SET name=$1, description=$2, quantity_on_hand=$3, price_per_hour=$4,
	          price_per_day=$5, price_per_week=$6, is_published=$7, updated_at=$8 WHERE id=$9`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.QuantityOnHand,
		nullDecimal(p.PricePerHour), nullDecimal(p.PricePerDay), nullDecimal(p.PricePerWeek),
		p.IsPublished, now, p.ID)
	if err != nil {
		return mapError("update product", "product", p.ID, err)
	}
	if err := requireRow(res, "update product", "product", p.ID); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

func (r *productRepository) ListByVendor(ctx context.Context, vendorID string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE vendor_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, "list vendor products", query, vendorID)
}

func (r *productRepository) ListPublished(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_published ORDER BY created_at DESC`
	return r.list(ctx, "list published products", query)
}

func (r *productRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		products = append(products, *p)
	}
	return products, domain.StoreFailure(op, rows.Err())
}

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/stocktrack-api/internal/database"
)

var (
	ErrNotFound     = errors.New("product not found")
	ErrDuplicateSKU = errors.New("sku already exists")
)

// Repository handles product persistence
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// List returns every product, newest id first.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	var rows []database.Product
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("p.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]Product, 0, len(rows))
	for i := range rows {
		products = append(products, *mapDBProductToModel(&rows[i]))
	}
	return products, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := new(database.Product)
	err := r.db.NewSelect().
		Model(row).
		Where("p.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return mapDBProductToModel(row), nil
}

func (r *Repository) Create(ctx context.Context, in Input) (*Product, error) {
	row := &database.Product{
		Name:  strings.TrimSpace(in.Name),
		SKU:   strings.TrimSpace(in.SKU),
		Price: in.Price,
		Stock: in.Stock,
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return mapDBProductToModel(row), nil
}

// Update overwrites the writable fields of product id.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Product, error) {
	row := new(database.Product)
	err := r.db.NewUpdate().
		Model(row).
		Set("name = ?", strings.TrimSpace(in.Name)).
		Set("sku = ?", strings.TrimSpace(in.SKU)).
		Set("price = ?", in.Price).
		Set("stock = ?", in.Stock).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return mapDBProductToModel(row), nil
}

// SetImageURL points product id at a newly uploaded image.
func (r *Repository) SetImageURL(ctx context.Context, id int64, url string) (*Product, error) {
	row := new(database.Product)
	err := r.db.NewUpdate().
		Model(row).
		Set("image_url = ?", url).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set product image: %w", err)
	}
	return mapDBProductToModel(row), nil
}

// Delete removes product id and returns what was removed.
func (r *Repository) Delete(ctx context.Context, id int64) (*Product, error) {
	row := new(database.Product)
	err := r.db.NewDelete().
		Model(row).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return mapDBProductToModel(row), nil
}

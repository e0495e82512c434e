package product

import (
	"time"

	"github.com/redmonkez12/stocktrack-api/internal/database"
)

// Product represents a catalog item
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Input is the writable part of a product, used for create and full update.
type Input struct {
	Name  string  `json:"name" validate:"required" example:"Widget"`
	SKU   string  `json:"sku" validate:"required" example:"W-001"`
	Price float64 `json:"price" validate:"gt=0" example:"9.99"`
	Stock int     `json:"stock" validate:"gte=0" example:"10"`
}

// Fields is the audit payload for a write of in.
func (in Input) Fields() map[string]any {
	return map[string]any{
		"name":  in.Name,
		"sku":   in.SKU,
		"price": in.Price,
		"stock": in.Stock,
	}
}

func mapDBProductToModel(p *database.Product) *Product {
	return &Product{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		Stock:     p.Stock,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

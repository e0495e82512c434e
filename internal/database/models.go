package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the persisted credential record.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	SKU       string    `bun:"sku,notnull,unique"`
	Price     float64   `bun:"price,notnull"`
	Stock     int       `bun:"stock,notnull"`
	ImageURL  *string   `bun:"image_url"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// AuditLog rows are written once and never updated.
type AuditLog struct {
	bun.BaseModel `bun:"table:logs,alias:l"`

	ID        int64          `bun:"id,pk,autoincrement"`
	UserID    *int64         `bun:"user_id"`
	User      *User          `bun:"rel:belongs-to,join:user_id=id"`
	Action    string         `bun:"action,notnull"`
	Entity    *string        `bun:"entity"`
	EntityID  *int64         `bun:"entity_id"`
	Payload   map[string]any `bun:"payload,type:jsonb,nullzero"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Models lists every table model, in creation order.
func Models() []any {
	return []any{
		(*User)(nil),
		(*Product)(nil),
		(*AuditLog)(nil),
	}
}

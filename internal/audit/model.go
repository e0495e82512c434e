// Package audit records who did what to which entity. Writes are best-effort:
// a failed write is reported to the diagnostic log and never reaches the
// operation it describes.
package audit

import "time"

// Action names recorded by the application.
const (
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionProductDelete = "product.delete"
	ActionProductUpload = "product.upload"
	ActionUserRegister  = "user.register"
	ActionPasswordReset = "user.password_reset"
)

// Entity types.
const (
	EntityProduct = "product"
	EntityUser    = "user"
)

// Entry is a single immutable audit record.
type Entry struct {
	ID        int64          `json:"id"`
	UserID    *int64         `json:"-"`
	User      *UserRef       `json:"user"`
	Action    string         `json:"action"`
	Entity    *string        `json:"entity"`
	EntityID  *int64         `json:"entityId"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
}

// UserRef is the actor as shown in log listings.
type UserRef struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// NewEntry describes action by actor (nil when unattributed) on an entity.
func NewEntry(actor *int64, action, entity string, entityID int64, payload map[string]any) Entry {
	return Entry{
		UserID:   actor,
		Action:   action,
		Entity:   &entity,
		EntityID: &entityID,
		Payload:  payload,
	}
}

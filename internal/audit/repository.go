package audit

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/stocktrack-api/internal/database"
)

// Repository persists audit entries in the logs table.
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Create inserts entry and fills in its id and timestamp.
func (r *Repository) Create(ctx context.Context, entry *Entry) error {
	row := &database.AuditLog{
		UserID:   entry.UserID,
		Action:   entry.Action,
		Entity:   entry.Entity,
		EntityID: entry.EntityID,
		Payload:  entry.Payload,
	}

	if _, err := r.db.NewInsert().Model(row).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	entry.ID = row.ID
	entry.CreatedAt = row.CreatedAt
	return nil
}

// List returns entries newest first, with the acting user when known.
func (r *Repository) List(ctx context.Context, take, skip int) ([]Entry, error) {
	var rows []database.AuditLog
	err := r.db.NewSelect().
		Model(&rows).
		Relation("User").
		OrderExpr("l.created_at DESC").
		OrderExpr("l.id DESC").
		Limit(take).
		Offset(skip).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, mapDBLogToEntry(&rows[i]))
	}
	return entries, nil
}

func mapDBLogToEntry(row *database.AuditLog) Entry {
	e := Entry{
		ID:        row.ID,
		UserID:    row.UserID,
		Action:    row.Action,
		Entity:    row.Entity,
		EntityID:  row.EntityID,
		Payload:   row.Payload,
		CreatedAt: row.CreatedAt,
	}
	if row.User != nil && row.User.ID != 0 {
		e.User = &UserRef{ID: row.User.ID, Email: row.User.Email}
	}
	return e
}

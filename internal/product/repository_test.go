package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/stocktrack-api/internal/database/dbtest"
)

func TestRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	first, err := repo.Create(ctx, Input{Name: "Widget", SKU: "W-1", Price: 9.99, Stock: 3})
	require.NoError(t, err)
	assert.Positive(t, first.ID)
	assert.Nil(t, first.ImageURL)

	second, err := repo.Create(ctx, Input{Name: "Gadget", SKU: "G-1", Price: 1.5, Stock: 0})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	updated, err := repo.Update(ctx, first.ID, Input{Name: "Widget v2", SKU: "W-2", Price: 12, Stock: 5})
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", updated.Name)
	assert.Equal(t, "W-2", updated.SKU)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	withImage, err := repo.SetImageURL(ctx, first.ID, "http://img/1.png")
	require.NoError(t, err)
	require.NotNil(t, withImage.ImageURL)
	assert.Equal(t, "http://img/1.png", *withImage.ImageURL)

	deleted, err := repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "W-2", deleted.SKU)

	_, err = repo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	_, err := repo.Update(ctx, 99, Input{Name: "x", SKU: "x", Price: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.SetImageURL(ctx, 99, "http://img")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Delete(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_DuplicateSKU(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	_, err := repo.Create(ctx, Input{Name: "A", SKU: "SAME", Price: 1})
	require.NoError(t, err)
	other, err := repo.Create(ctx, Input{Name: "B", SKU: "OTHER", Price: 1})
	require.NoError(t, err)

	_, err = repo.Create(ctx, Input{Name: "C", SKU: "SAME", Price: 1})
	assert.ErrorIs(t, err, ErrDuplicateSKU)

	_, err = repo.Update(ctx, other.ID, Input{Name: "B", SKU: "SAME", Price: 1})
	assert.ErrorIs(t, err, ErrDuplicateSKU)
}

package registry

import (
	"context"
	"testing"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProductRegistry(t *testing.T) *ProductRegistry {
	t.Helper()
	return NewProductRegistry(context.Background(), store.NewMemoryKV(), events.NewBus())
}

func mustAddProduct(t *testing.T, r *ProductRegistry, in ProductInput) *ProductRegistry {
	t.Helper()
	_, err := r.Add(context.Background(), in)
	require.NoError(t, err)
	return r
}

func TestProductRegistry_Add(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestProductRegistry(t)

	p, err := r.Add(ctx, ProductInput{Name: "Widget", Price: 10, Quantity: 5, Barcode: "123"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	got, ok := r.GetByID(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Widget", got.Name)

	byCode, ok := r.GetByBarcode("123")
	require.True(t, ok)
	assert.Equal(t, p.ID, byCode.ID)
}

func TestProductRegistry_Add_DuplicateName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name      string
		duplicate string
	}{
		{name: "exact", duplicate: "Widget"},
		{name: "case insensitive", duplicate: "wIDGET"},
		{name: "whitespace insensitive", duplicate: "  Widget  "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newTestProductRegistry(t)
			mustAddProduct(t, r, ProductInput{Name: "Widget", Price: 10, Quantity: 5})

			_, err := r.Add(ctx, ProductInput{Name: tt.duplicate, Price: 1, Quantity: 1})
			require.ErrorIs(t, err, ErrDuplicateName)
			assert.Len(t, r.List(), 1)
		})
	}
}

func TestProductRegistry_Add_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestProductRegistry(t)

	tests := []struct {
		name string
		in   ProductInput
	}{
		{name: "blank name", in: ProductInput{Name: "   ", Price: 1, Quantity: 1}},
		{name: "negative price", in: ProductInput{Name: "A", Price: -1, Quantity: 1}},
		{name: "negative quantity", in: ProductInput{Name: "B", Price: 1, Quantity: -1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Add(ctx, tt.in)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProductRegistry_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestProductRegistry(t)
	p, err := r.Add(ctx, ProductInput{Name: "Widget", Price: 10, Quantity: 5})
	require.NoError(t, err)

	newPrice := 12.5
	updated, err := r.Update(ctx, p.ID, ProductPatch{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, "Widget", updated.Name)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	_, err = r.Update(ctx, "nope", ProductPatch{Price: &newPrice})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProductRegistry_Update_RenameCollision(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestProductRegistry(t)
	mustAddProduct(t, r, ProductInput{Name: "Widget", Price: 10, Quantity: 5})
	p, err := r.Add(ctx, ProductInput{Name: "Gadget", Price: 5, Quantity: 2})
	require.NoError(t, err)

	name := " widget "
	_, err = r.Update(ctx, p.ID, ProductPatch{Name: &name})
	require.ErrorIs(t, err, ErrDuplicateName)

	// Registry unchanged after the rejected rename.
	got, ok := r.GetByID(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Gadget", got.Name)

	// Renaming to itself (different casing) is allowed.
	self := "GADGET"
	updated, err := r.Update(ctx, p.ID, ProductPatch{Name: &self})
	require.NoError(t, err)
	assert.Equal(t, "GADGET", updated.Name)
}

func TestProductRegistry_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestProductRegistry(t)
	p, err := r.Add(ctx, ProductInput{Name: "Widget", Price: 10, Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, p.ID))
	_, ok := r.GetByID(p.ID)
	assert.False(t, ok)

	require.ErrorIs(t, r.Delete(ctx, p.ID), ErrNotFound)
}

func TestProductRegistry_AdjustQuantity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestProductRegistry(t)
	p, err := r.Add(ctx, ProductInput{Name: "Widget", Price: 10, Quantity: 5})
	require.NoError(t, err)

	got, err := r.AdjustQuantity(ctx, p.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)

	_, err = r.AdjustQuantity(ctx, p.ID, -3)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Quantity never went negative.
	got2, ok := r.GetByID(p.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got2.Quantity)

	_, err = r.AdjustQuantity(ctx, "nope", 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProductRegistry_ApplyQuantityDeltas_AllOrNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestProductRegistry(t)
	a, err := r.Add(ctx, ProductInput{Name: "A", Price: 1, Quantity: 10})
	require.NoError(t, err)
	b, err := r.Add(ctx, ProductInput{Name: "B", Price: 1, Quantity: 1})
	require.NoError(t, err)

	err = r.ApplyQuantityDeltas(ctx, []QuantityDelta{
		{ProductID: a.ID, Delta: -5},
		{ProductID: b.ID, Delta: -2},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The first delta must not have been applied.
	gotA, _ := r.GetByID(a.ID)
	gotB, _ := r.GetByID(b.ID)
	assert.Equal(t, 10, gotA.Quantity)
	assert.Equal(t, 1, gotB.Quantity)

	require.NoError(t, r.ApplyQuantityDeltas(ctx, []QuantityDelta{
		{ProductID: a.ID, Delta: -5},
		{ProductID: b.ID, Delta: -1},
	}))
	gotA, _ = r.GetByID(a.ID)
	gotB, _ = r.GetByID(b.ID)
	assert.Equal(t, 5, gotA.Quantity)
	assert.Equal(t, 0, gotB.Quantity)
}

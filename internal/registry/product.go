package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/google/uuid"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateName     = errors.New("duplicate product name")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// normalizeName is the uniqueness key for product names: trimmed,
// case-folded.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ProductRegistry is the single shared owner of product state. All stock
// mutation from sales and returns funnels through AdjustQuantity or
// ApplyQuantityDeltas so the non-negative quantity invariant is enforced in
// one place; Update writes quantity directly and is reserved for manual admin
// edits.
type ProductRegistry struct {
	slot *store.Slot[[]models.Product]
}

func NewProductRegistry(ctx context.Context, kv store.KV, bus *events.Bus) *ProductRegistry {
	return &ProductRegistry{
		slot: store.NewSlot(ctx, kv, bus, store.KeyProducts, func() []models.Product {
			return []models.Product{}
		}),
	}
}

type ProductInput struct {
	Name     string
	Price    float64
	Quantity int
	ImageRef string
	Barcode  string
}

type ProductPatch struct {
	Name     *string
	Price    *float64
	Quantity *int
	ImageRef *string
	Barcode  *string
}

func (r *ProductRegistry) List() []models.Product {
	return r.slot.Get()
}

func (r *ProductRegistry) GetByID(id string) (*models.Product, bool) {
	for _, p := range r.slot.Get() {
		if p.ID == id {
			return &p, true
		}
	}
	return nil, false
}

func (r *ProductRegistry) GetByBarcode(code string) (*models.Product, bool) {
	if code == "" {
		return nil, false
	}
	for _, p := range r.slot.Get() {
		if p.Barcode == code {
			return &p, true
		}
	}
	return nil, false
}

func (r *ProductRegistry) Add(ctx context.Context, in ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative: %w", ErrValidation)
	}

	products := r.slot.Get()
	for _, p := range products {
		if normalizeName(p.Name) == normalizeName(name) {
			return nil, ErrDuplicateName
		}
	}

	now := time.Now().UTC()
	product := models.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     in.Price,
		Quantity:  in.Quantity,
		ImageRef:  in.ImageRef,
		Barcode:   in.Barcode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	next := make([]models.Product, 0, len(products)+1)
	next = append(next, products...)
	next = append(next, product)
	if err := r.slot.Set(ctx, next); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRegistry) Update(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	products := r.slot.Get()
	idx := -1
	for i, p := range products {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("name is required: %w", ErrValidation)
		}
		for i, p := range products {
			if i != idx && normalizeName(p.Name) == normalizeName(name) {
				return nil, ErrDuplicateName
			}
		}
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative: %w", ErrValidation)
	}

	next := make([]models.Product, len(products))
	copy(next, products)

	p := &next[idx]
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.ImageRef != nil {
		p.ImageRef = *patch.ImageRef
	}
	if patch.Barcode != nil {
		p.Barcode = *patch.Barcode
	}
	p.UpdatedAt = time.Now().UTC()

	if err := r.slot.Set(ctx, next); err != nil {
		return nil, err
	}
	updated := *p
	return &updated, nil
}

func (r *ProductRegistry) Delete(ctx context.Context, id string) error {
	products := r.slot.Get()
	next := make([]models.Product, 0, len(products))
	found := false
	for _, p := range products {
		if p.ID == id {
			found = true
			continue
		}
		next = append(next, p)
	}
	if !found {
		return ErrNotFound
	}
	return r.slot.Set(ctx, next)
}

// AdjustQuantity is the safe path for single-product stock mutation.
func (r *ProductRegistry) AdjustQuantity(ctx context.Context, id string, delta int) (*models.Product, error) {
	p, ok := r.GetByID(id)
	if !ok {
		return nil, ErrNotFound
	}
	q := p.Quantity + delta
	if q < 0 {
		return nil, fmt.Errorf("%s: %w", p.Name, ErrInsufficientStock)
	}
	return r.Update(ctx, id, ProductPatch{Quantity: &q})
}

type QuantityDelta struct {
	ProductID string
	Delta     int
}

// ApplyQuantityDeltas validates every delta against current stock and then
// commits all of them in a single whole-collection write, so a multi-item
// sale either decrements every product or none of them.
func (r *ProductRegistry) ApplyQuantityDeltas(ctx context.Context, deltas []QuantityDelta) error {
	products := r.slot.Get()
	next := make([]models.Product, len(products))
	copy(next, products)

	index := make(map[string]int, len(next))
	for i, p := range next {
		index[p.ID] = i
	}

	now := time.Now().UTC()
	for _, d := range deltas {
		i, ok := index[d.ProductID]
		if !ok {
			return fmt.Errorf("product %s: %w", d.ProductID, ErrNotFound)
		}
		q := next[i].Quantity + d.Delta
		if q < 0 {
			return fmt.Errorf("%s: %w", next[i].Name, ErrInsufficientStock)
		}
		next[i].Quantity = q
		next[i].UpdatedAt = now
	}

	return r.slot.Set(ctx, next)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/store"
	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation")
	ErrSaleNotFound    = errors.New("sale not found")
	ErrAlreadyReturned = errors.New("sale already returned")
)

// Line is one requested cart line at checkout: a product reference and the
// quantity to sell. Prices are resolved against the registry at record time.
type Line struct {
	ProductID string
	Quantity  int
}

// SaleLedger appends sale records and drives the active→returned state
// machine. Records are ordered most-recent-first and are never deleted.
type SaleLedger struct {
	slot     *store.Slot[[]models.Sale]
	products *registry.ProductRegistry
}

func NewSaleLedger(ctx context.Context, kv store.KV, bus *events.Bus, products *registry.ProductRegistry) *SaleLedger {
	return &SaleLedger{
		slot: store.NewSlot(ctx, kv, bus, store.KeySales, func() []models.Sale {
			return []models.Sale{}
		}),
		products: products,
	}
}

func (l *SaleLedger) List() []models.Sale {
	return l.slot.Get()
}

func (l *SaleLedger) GetByID(id string) (*models.Sale, bool) {
	for _, s := range l.slot.Get() {
		if s.ID == id {
			return &s, true
		}
	}
	return nil, false
}

// RecordSale validates every line against current stock, snapshots name and
// unit price into the sale items, clamps the discount to [0, originalTotal],
// commits all stock decrements in one registry write and prepends the new
// sale. Stock and the ledger are only ever mutated after the full validation
// pass.
func (l *SaleLedger) RecordSale(ctx context.Context, lines []Line, discount float64, seller models.User) (*models.Sale, error) {
	lg := logging.FromContext(ctx).With("svc", "ledger.record_sale")

	if len(lines) == 0 {
		return nil, fmt.Errorf("sale needs at least one item: %w", ErrValidation)
	}

	items := make([]models.SaleItem, 0, len(lines))
	deltas := make([]registry.QuantityDelta, 0, len(lines))
	var original float64

	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
		}
		p, ok := l.products.GetByID(ln.ProductID)
		if !ok {
			return nil, fmt.Errorf("product %s: %w", ln.ProductID, registry.ErrNotFound)
		}
		if p.Quantity < ln.Quantity {
			return nil, fmt.Errorf("%s: %w", p.Name, registry.ErrInsufficientStock)
		}
		items = append(items, models.SaleItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  ln.Quantity,
		})
		original += p.Price * float64(ln.Quantity)
		deltas = append(deltas, registry.QuantityDelta{ProductID: p.ID, Delta: -ln.Quantity})
	}

	effective := discount
	if effective < 0 {
		effective = 0
	}
	if effective > original {
		lg.Warn("discount exceeds total, clamping",
			"discount", discount, "original_total", original)
		effective = original
	}

	if err := l.products.ApplyQuantityDeltas(ctx, deltas); err != nil {
		lg.Error("stock decrement failed after validation", "error", err)
		return nil, err
	}

	sale := models.Sale{
		ID:             uuid.NewString(),
		Items:          items,
		OriginalTotal:  original,
		Discount:       effective,
		Total:          original - effective,
		SoldAt:         time.Now().UTC(),
		SellerID:       seller.ID,
		SellerUsername: seller.Username,
		Status:         models.SaleStatusActive,
	}

	sales := l.slot.Get()
	next := make([]models.Sale, 0, len(sales)+1)
	next = append(next, sale)
	next = append(next, sales...)
	if err := l.slot.Set(ctx, next); err != nil {
		return nil, err
	}

	lg.Info("sale recorded", "sale_id", sale.ID, "items", len(sale.Items), "total", sale.Total)
	return &sale, nil
}

// ReturnSale flips an active sale to returned and restores stock. Returning a
// sale twice reports ErrAlreadyReturned without touching stock again. A
// restock failure is logged but does not block the status flip.
func (l *SaleLedger) ReturnSale(ctx context.Context, saleID string) (*models.Sale, error) {
	lg := logging.FromContext(ctx).With("svc", "ledger.return_sale", "sale_id", saleID)

	sales := l.slot.Get()
	idx := -1
	for i, s := range sales {
		if s.ID == saleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrSaleNotFound
	}
	if sales[idx].Status == models.SaleStatusReturned {
		return nil, ErrAlreadyReturned
	}

	deltas := make([]registry.QuantityDelta, 0, len(sales[idx].Items))
	for _, item := range sales[idx].Items {
		deltas = append(deltas, registry.QuantityDelta{ProductID: item.ProductID, Delta: item.Quantity})
	}
	if err := l.products.ApplyQuantityDeltas(ctx, deltas); err != nil {
		// Restock deltas are positive, so this only happens if a product was
		// deleted since the sale. The return still completes.
		lg.Warn("restock failed", "error", err)
	}

	next := make([]models.Sale, len(sales))
	copy(next, sales)
	now := time.Now().UTC()
	next[idx].Status = models.SaleStatusReturned
	next[idx].ReturnedAt = &now

	if err := l.slot.Set(ctx, next); err != nil {
		return nil, err
	}

	returned := next[idx]
	lg.Info("sale returned")
	return &returned, nil
}

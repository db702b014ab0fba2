package cart

import (
	"errors"
	"sync"

	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/registry"
)

var (
	ErrOutOfStock   = errors.New("out of stock")
	ErrExceedsStock = errors.New("exceeds available stock")
)

// Cart stages lines for one checkout session. It is never persisted; lines
// snapshot name and price but quantities are always checked against the
// product registry's current stock.
type Cart struct {
	products *registry.ProductRegistry

	mu    sync.Mutex
	lines []models.SaleItem
}

func New(products *registry.ProductRegistry) *Cart {
	return &Cart{products: products}
}

// AddItem stages one unit of the product, or bumps an existing line by one.
func (c *Cart) AddItem(productID string) error {
	p, ok := c.products.GetByID(productID)
	if !ok {
		return registry.ErrNotFound
	}
	if p.Quantity <= 0 {
		return ErrOutOfStock
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			if c.lines[i].Quantity+1 > p.Quantity {
				return ErrExceedsStock
			}
			c.lines[i].Quantity++
			return nil
		}
	}

	c.lines = append(c.lines, models.SaleItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
	})
	return nil
}

// SetItemQuantity sets a line's quantity; qty <= 0 removes the line.
func (c *Cart) SetItemQuantity(productID string, qty int) error {
	if qty <= 0 {
		c.RemoveItem(productID)
		return nil
	}

	p, ok := c.products.GetByID(productID)
	if !ok {
		return registry.ErrNotFound
	}
	if qty > p.Quantity {
		return ErrExceedsStock
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = qty
			return nil
		}
	}
	c.lines = append(c.lines, models.SaleItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  qty,
	})
	return nil
}

func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.lines[:0]
	for _, ln := range c.lines {
		if ln.ProductID != productID {
			next = append(next, ln)
		}
	}
	c.lines = next
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

func (c *Cart) Items() []models.SaleItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.SaleItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is recomputed from the staged lines on every call.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, ln := range c.lines {
		total += ln.UnitPrice * float64(ln.Quantity)
	}
	return total
}

// Pool hands out one cart per seller for the HTTP surface.
type Pool struct {
	products *registry.ProductRegistry

	mu    sync.Mutex
	carts map[string]*Cart
}

func NewPool(products *registry.ProductRegistry) *Pool {
	return &Pool{products: products, carts: make(map[string]*Cart)}
}

func (p *Pool) For(sellerID string) *Cart {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.carts[sellerID]
	if !ok {
		c = New(p.products)
		p.carts[sellerID] = c
	}
	return c
}

func (p *Pool) Drop(sellerID string) {
	p.mu.Lock()
	delete(p.carts, sellerID)
	p.mu.Unlock()
}

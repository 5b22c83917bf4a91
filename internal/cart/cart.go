// Package cart holds the sale-in-progress state for one register session.
// A cart is mutated by a single control flow at a time; there is no internal
// locking. Stock checks here are advisory only — the checkout path re-checks
// against the catalog when the sale is committed.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"kedaipos/backend/internal/display"
	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/pricing"
)

var (
	ErrOutOfStock      = errors.New("out of stock")
	ErrMaxStockReached = errors.New("max stock reached")
	ErrNotFound        = errors.New("item not in cart")
)

// Inventory is the catalog side of the inventory provider: price and stock
// resolution for advisory checks and derived totals.
type Inventory interface {
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
}

type Cart struct {
	terminalID string
	inv        Inventory
	notifier   display.Notifier
	taxRate    float64

	items        []domain.LineItem
	discount     domain.Discount
	paymentCents int64
}

func New(terminalID string, inv Inventory, notifier display.Notifier, taxRate float64) *Cart {
	return &Cart{
		terminalID: terminalID,
		inv:        inv,
		notifier:   notifier,
		taxRate:    taxRate,
		items:      make([]domain.LineItem, 0, 8),
		discount:   domain.Discount{Type: domain.DiscountNominal},
	}
}

// AddItem inserts the resolved product with quantity 1, or increments an
// existing line. Rejections (ErrOutOfStock, ErrMaxStockReached) leave the
// cart untouched and emit no display update.
func (c *Cart) AddItem(ctx context.Context, product domain.Product) error {
	for i := range c.items {
		if c.items[i].ProductID != product.ID {
			continue
		}
		if c.items[i].Quantity+1 > product.Stock {
			return fmt.Errorf("%w: %s has %d in stock", ErrMaxStockReached, product.Name, product.Stock)
		}
		c.items[i].Quantity++
		c.notify(ctx)
		return nil
	}

	if product.Stock <= 0 {
		return fmt.Errorf("%w: %s", ErrOutOfStock, product.Name)
	}
	c.items = append(c.items, domain.LineItem{ProductID: product.ID, Quantity: 1})
	c.notify(ctx)
	return nil
}

// RemoveItem deletes the matching line. A missing line is surfaced as
// ErrNotFound, but the display is updated either way so it always shows the
// latest state.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	defer c.notify(ctx)

	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// UpdateQuantity sets the line quantity, clamping to the product's current
// stock (warning, not an error) and flooring at 1 — removal goes through
// RemoveItem, never through a zero quantity. The returned bool reports
// whether the stock clamp was applied.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, qty int) (bool, error) {
	line := c.find(productID)
	if line == nil {
		c.notify(ctx)
		return false, ErrNotFound
	}

	product, err := c.inv.GetProductByID(ctx, productID)
	if err != nil {
		return false, err
	}

	clamped := false
	if qty > product.Stock {
		qty = product.Stock
		clamped = true
	}
	if qty < 1 {
		qty = 1
	}
	line.Quantity = qty
	c.notify(ctx)
	return clamped, nil
}

func (c *Cart) DecreaseQuantity(ctx context.Context, productID string) (bool, error) {
	line := c.find(productID)
	if line == nil {
		c.notify(ctx)
		return false, ErrNotFound
	}
	return c.UpdateQuantity(ctx, productID, line.Quantity-1)
}

// SetDiscount overwrites the discount configuration atomically. Values are
// not clamped here; clamping is part of the pricing computation so the stored
// configuration stays as entered.
func (c *Cart) SetDiscount(ctx context.Context, value int64, discountType domain.DiscountType) error {
	if discountType != domain.DiscountPercentage && discountType != domain.DiscountNominal {
		return fmt.Errorf("unknown discount type %q", discountType)
	}
	c.discount = domain.Discount{Type: discountType, Value: value}
	c.notify(ctx)
	return nil
}

// SetPaymentAmount records the tendered amount. Payment is only surfaced at
// commit, so no display update is emitted.
func (c *Cart) SetPaymentAmount(amount int64) {
	c.paymentCents = amount
}

// Clear resets line items, discount, and payment to the empty session state.
func (c *Cart) Clear(ctx context.Context) {
	c.items = c.items[:0]
	c.discount = domain.Discount{Type: domain.DiscountNominal}
	c.paymentCents = 0
	c.notify(ctx)
}

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

func (c *Cart) TerminalID() string { return c.terminalID }

func (c *Cart) Discount() domain.Discount { return c.discount }

func (c *Cart) PaymentAmount() int64 { return c.paymentCents }

func (c *Cart) TaxRate() float64 { return c.taxRate }

// Items returns a value copy of the line items in insertion order.
func (c *Cart) Items() []domain.LineItem {
	items := make([]domain.LineItem, len(c.items))
	copy(items, c.items)
	return items
}

// View resolves the cart against the current catalog and computes all derived
// totals. Nothing here is cached between calls.
func (c *Cart) View(ctx context.Context) (domain.CartView, error) {
	lines, views, itemCount, err := c.resolve(ctx)
	if err != nil {
		return domain.CartView{}, err
	}

	totals := pricing.Compute(lines, c.discount, c.taxRate, c.paymentCents)
	return domain.CartView{
		TerminalID:          c.terminalID,
		Items:               views,
		ItemCount:           itemCount,
		SubtotalCents:       totals.SubtotalCents,
		DiscountType:        c.discount.Type,
		DiscountValue:       c.discount.Value,
		DiscountAmountCents: totals.DiscountAmountCents,
		TaxCents:            totals.TaxCents,
		TotalCents:          totals.TotalCents,
		PaymentAmountCents:  c.paymentCents,
		ChangeCents:         totals.ChangeCents,
	}, nil
}

func (c *Cart) find(productID string) *domain.LineItem {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return &c.items[i]
		}
	}
	return nil
}

func (c *Cart) resolve(ctx context.Context) ([]pricing.Line, []domain.CartLineView, int, error) {
	lines := make([]pricing.Line, 0, len(c.items))
	views := make([]domain.CartLineView, 0, len(c.items))
	itemCount := 0
	for _, item := range c.items {
		product, err := c.inv.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("resolve %s: %w", item.ProductID, err)
		}
		lines = append(lines, pricing.Line{UnitPriceCents: product.PriceCents, Quantity: item.Quantity})
		views = append(views, domain.CartLineView{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: product.PriceCents * int64(item.Quantity),
		})
		itemCount += item.Quantity
	}
	return lines, views, itemCount, nil
}

// notify pushes the latest cart state to the customer display. Best-effort:
// a resolution failure is logged and the mutation stands.
func (c *Cart) notify(ctx context.Context) {
	view, err := c.View(ctx)
	if err != nil {
		log.Printf("[cart] WARN: display update skipped for terminal %s: %v", c.terminalID, err)
		return
	}
	c.notifier.NotifyCartUpdate(ctx, display.CartUpdate{
		TerminalID: c.terminalID,
		Items:      view.Items,
		TotalCents: view.TotalCents,
	})
}

package cart

import (
	"context"
	"errors"
	"testing"

	"kedaipos/backend/internal/display"
	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/store"
)

type fakeInventory struct {
	products map[string]domain.Product
}

func (f *fakeInventory) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := product
	return &copied, nil
}

type recordingNotifier struct {
	cartUpdates []display.CartUpdate
	completed   []domain.Transaction
}

func (r *recordingNotifier) NotifyCartUpdate(_ context.Context, update display.CartUpdate) {
	r.cartUpdates = append(r.cartUpdates, update)
}

func (r *recordingNotifier) NotifyTransactionComplete(_ context.Context, tx domain.Transaction) {
	r.completed = append(r.completed, tx)
}

func testInventory() *fakeInventory {
	return &fakeInventory{products: map[string]domain.Product{
		"prd-kopi":  {ID: "prd-kopi", Name: "Kopi Susu Gula Aren", PriceCents: 18000, Stock: 50},
		"prd-tea":   {ID: "prd-tea", Name: "Ice Tea", PriceCents: 8000, Stock: 2},
		"prd-habis": {ID: "prd-habis", Name: "Croissant", PriceCents: 12000, Stock: 0},
	}}
}

func TestAddItemInsertsThenIncrements(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	notifier := &recordingNotifier{}
	c := New("T-01", inv, notifier, 0.10)

	if err := c.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := c.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item again: %v", err)
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Quantity)
	}
	if len(notifier.cartUpdates) != 2 {
		t.Fatalf("expected 2 display updates, got %d", len(notifier.cartUpdates))
	}
}

func TestAddItemRejectsOutOfStock(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	notifier := &recordingNotifier{}
	c := New("T-01", inv, notifier, 0.10)

	err := c.AddItem(ctx, inv.products["prd-habis"])
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if !c.IsEmpty() {
		t.Fatalf("rejected add must leave cart empty")
	}
	if len(notifier.cartUpdates) != 0 {
		t.Fatalf("rejected add must not update the display, got %d updates", len(notifier.cartUpdates))
	}
}

func TestAddItemRejectsIncrementPastStock(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	c := New("T-01", inv, &recordingNotifier{}, 0.10)

	tea := inv.products["prd-tea"]
	if err := c.AddItem(ctx, tea); err != nil {
		t.Fatalf("add 1: %v", err)
	}
	if err := c.AddItem(ctx, tea); err != nil {
		t.Fatalf("add 2: %v", err)
	}
	if err := c.AddItem(ctx, tea); !errors.Is(err, ErrMaxStockReached) {
		t.Fatalf("expected ErrMaxStockReached, got %v", err)
	}
	if qty := c.Items()[0].Quantity; qty != 2 {
		t.Fatalf("expected quantity held at 2, got %d", qty)
	}
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	notifier := &recordingNotifier{}
	c := New("T-01", inv, notifier, 0.10)

	if err := c.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := c.RemoveItem(ctx, "prd-kopi"); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if !c.IsEmpty() {
		t.Fatalf("expected empty cart after remove")
	}

	if err := c.RemoveItem(ctx, "prd-kopi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing line, got %v", err)
	}
	// Remove always refreshes the display, even on a miss.
	if len(notifier.cartUpdates) != 3 {
		t.Fatalf("expected 3 display updates, got %d", len(notifier.cartUpdates))
	}
}

func TestUpdateQuantityClampsToStock(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	c := New("T-01", inv, &recordingNotifier{}, 0.10)

	if err := c.AddItem(ctx, inv.products["prd-tea"]); err != nil {
		t.Fatalf("add item: %v", err)
	}

	clamped, err := c.UpdateQuantity(ctx, "prd-tea", 10)
	if err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if !clamped {
		t.Fatalf("expected clamp to be reported")
	}
	if qty := c.Items()[0].Quantity; qty != 2 {
		t.Fatalf("expected quantity clamped to stock 2, got %d", qty)
	}

	clamped, err = c.UpdateQuantity(ctx, "prd-tea", 0)
	if err != nil {
		t.Fatalf("update quantity to zero: %v", err)
	}
	if clamped {
		t.Fatalf("floor to 1 is not a stock clamp")
	}
	if qty := c.Items()[0].Quantity; qty != 1 {
		t.Fatalf("expected quantity floored at 1, got %d", qty)
	}
}

func TestDecreaseQuantityFloorsAtOne(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	c := New("T-01", inv, &recordingNotifier{}, 0.10)

	if err := c.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := c.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item again: %v", err)
	}

	if _, err := c.DecreaseQuantity(ctx, "prd-kopi"); err != nil {
		t.Fatalf("decrease quantity: %v", err)
	}
	if qty := c.Items()[0].Quantity; qty != 1 {
		t.Fatalf("expected quantity 1 after decrease, got %d", qty)
	}

	// Decreasing a single-unit line keeps it at 1; removal is RemoveItem's job.
	if _, err := c.DecreaseQuantity(ctx, "prd-kopi"); err != nil {
		t.Fatalf("decrease at floor: %v", err)
	}
	if qty := c.Items()[0].Quantity; qty != 1 {
		t.Fatalf("expected quantity floored at 1, got %d", qty)
	}

	if _, err := c.DecreaseQuantity(ctx, "prd-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	ctx := context.Background()
	c := New("T-01", testInventory(), &recordingNotifier{}, 0.10)

	if _, err := c.UpdateQuantity(ctx, "prd-kopi", 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetDiscountAtomicOverwrite(t *testing.T) {
	ctx := context.Background()
	c := New("T-01", testInventory(), &recordingNotifier{}, 0.10)

	if err := c.SetDiscount(ctx, 10, domain.DiscountPercentage); err != nil {
		t.Fatalf("set percentage discount: %v", err)
	}
	if err := c.SetDiscount(ctx, 2000, domain.DiscountNominal); err != nil {
		t.Fatalf("set nominal discount: %v", err)
	}

	d := c.Discount()
	if d.Type != domain.DiscountNominal || d.Value != 2000 {
		t.Fatalf("expected nominal 2000 to fully replace the prior discount, got %+v", d)
	}

	if err := c.SetDiscount(ctx, 5, "BOGO"); err == nil {
		t.Fatalf("expected error for unknown discount type")
	}
	d = c.Discount()
	if d.Type != domain.DiscountNominal || d.Value != 2000 {
		t.Fatalf("rejected discount must leave the prior one intact, got %+v", d)
	}
}

func TestViewComputesTotals(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	c := New("T-01", inv, &recordingNotifier{}, 0.10)

	if err := c.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add kopi: %v", err)
	}
	if _, err := c.UpdateQuantity(ctx, "prd-kopi", 2); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if err := c.SetDiscount(ctx, 6000, domain.DiscountNominal); err != nil {
		t.Fatalf("set discount: %v", err)
	}
	c.SetPaymentAmount(40000)

	view, err := c.View(ctx)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.SubtotalCents != 36000 {
		t.Fatalf("expected subtotal 36000, got %d", view.SubtotalCents)
	}
	if view.DiscountAmountCents != 6000 {
		t.Fatalf("expected discount 6000, got %d", view.DiscountAmountCents)
	}
	if view.TaxCents != 3000 {
		t.Fatalf("expected tax 3000, got %d", view.TaxCents)
	}
	if view.TotalCents != 33000 {
		t.Fatalf("expected total 33000, got %d", view.TotalCents)
	}
	if view.ChangeCents != 7000 {
		t.Fatalf("expected change 7000, got %d", view.ChangeCents)
	}
	if view.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", view.ItemCount)
	}
}

func TestClearResetsEverything(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	c := New("T-01", inv, &recordingNotifier{}, 0.10)

	if err := c.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := c.SetDiscount(ctx, 50, domain.DiscountPercentage); err != nil {
		t.Fatalf("set discount: %v", err)
	}
	c.SetPaymentAmount(100000)

	c.Clear(ctx)

	if !c.IsEmpty() {
		t.Fatalf("expected empty cart after clear")
	}
	if d := c.Discount(); d.Type != domain.DiscountNominal || d.Value != 0 {
		t.Fatalf("expected discount reset, got %+v", d)
	}
	if c.PaymentAmount() != 0 {
		t.Fatalf("expected payment reset, got %d", c.PaymentAmount())
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	c := New("T-01", inv, &recordingNotifier{}, 0.10)

	if err := c.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item: %v", err)
	}

	items := c.Items()
	items[0].Quantity = 99

	if qty := c.Items()[0].Quantity; qty != 1 {
		t.Fatalf("mutating the returned slice must not change the cart, got %d", qty)
	}
}

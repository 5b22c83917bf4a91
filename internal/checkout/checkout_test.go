package checkout

import (
	"context"
	"errors"
	"testing"

	"kedaipos/backend/internal/cart"
	"kedaipos/backend/internal/display"
	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/store"
)

type fakeInventory struct {
	products     map[string]domain.Product
	decrementErr error
}

func (f *fakeInventory) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := product
	return &copied, nil
}

func (f *fakeInventory) DecrementStock(_ context.Context, id string, qty int) error {
	if f.decrementErr != nil {
		return f.decrementErr
	}
	product, ok := f.products[id]
	if !ok {
		return store.ErrNotFound
	}
	product.Stock -= qty
	if product.Stock < 0 {
		product.Stock = 0
	}
	f.products[id] = product
	return nil
}

type fakeTransactionLog struct {
	created   []domain.Transaction
	createErr error
}

func (f *fakeTransactionLog) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, tx)
	copied := tx
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
		"prd-kopi": {ID: "prd-kopi", Name: "Kopi Susu Gula Aren", PriceCents: 18000, Stock: 50},
		"prd-tea":  {ID: "prd-tea", Name: "Ice Tea", PriceCents: 8000, Stock: 100},
	}}
}

func TestCommitEmptyCartIsNoOp(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	txlog := &fakeTransactionLog{}
	notifier := &recordingNotifier{}
	crt := cart.New("T-01", inv, notifier, 0.10)

	created, err := New(inv, txlog, notifier).Commit(ctx, crt, "CASH")
	if err != nil {
		t.Fatalf("commit empty cart: %v", err)
	}
	if created != nil {
		t.Fatalf("expected no transaction for empty cart, got %+v", created)
	}
	if len(txlog.created) != 0 {
		t.Fatalf("empty commit must not record a transaction")
	}
	if inv.products["prd-kopi"].Stock != 50 {
		t.Fatalf("empty commit must not touch inventory")
	}
	if len(notifier.completed) != 0 {
		t.Fatalf("empty commit must not announce a completed sale")
	}
}

func TestCommitDeductsStockAndResetsCart(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	txlog := &fakeTransactionLog{}
	notifier := &recordingNotifier{}
	crt := cart.New("T-01", inv, notifier, 0.10)

	kopi := inv.products["prd-kopi"]
	if err := crt.AddItem(ctx, kopi); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := crt.AddItem(ctx, kopi); err != nil {
		t.Fatalf("add item again: %v", err)
	}
	if _, err := crt.UpdateQuantity(ctx, "prd-kopi", 5); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	crt.SetPaymentAmount(100000)

	created, err := New(inv, txlog, notifier).Commit(ctx, crt, "CASH")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if created == nil {
		t.Fatalf("expected a transaction")
	}
	if created.SubtotalCents != 90000 {
		t.Fatalf("expected subtotal 90000, got %d", created.SubtotalCents)
	}
	if created.TaxCents != 9000 {
		t.Fatalf("expected tax 9000, got %d", created.TaxCents)
	}
	if created.TotalCents != 99000 {
		t.Fatalf("expected total 99000, got %d", created.TotalCents)
	}
	if created.ChangeCents != 1000 {
		t.Fatalf("expected change 1000, got %d", created.ChangeCents)
	}
	if inv.products["prd-kopi"].Stock != 45 {
		t.Fatalf("expected stock 45 after commit, got %d", inv.products["prd-kopi"].Stock)
	}
	if !crt.IsEmpty() {
		t.Fatalf("expected cart reset after commit")
	}
	if len(notifier.completed) != 1 {
		t.Fatalf("expected one completion notification, got %d", len(notifier.completed))
	}
	if len(txlog.created) != 1 {
		t.Fatalf("expected one recorded transaction, got %d", len(txlog.created))
	}
}

func TestCommitDefaultsPaymentMethod(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	crt := cart.New("T-01", inv, &recordingNotifier{}, 0.10)
	if err := crt.AddItem(ctx, inv.products["prd-tea"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	crt.SetPaymentAmount(10000)

	created, err := New(inv, &fakeTransactionLog{}, &recordingNotifier{}).Commit(ctx, crt, "")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if created.PaymentMethod != "CASH" {
		t.Fatalf("expected default payment method CASH, got %s", created.PaymentMethod)
	}
}

func TestCommitProceedsOnInsufficientPayment(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	txlog := &fakeTransactionLog{}
	crt := cart.New("T-01", inv, &recordingNotifier{}, 0.10)
	if err := crt.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	crt.SetPaymentAmount(5000) // total is 19800

	created, err := New(inv, txlog, &recordingNotifier{}).Commit(ctx, crt, "CASH")
	if err != nil {
		t.Fatalf("commit with short payment: %v", err)
	}
	if created == nil {
		t.Fatalf("short payment must still commit")
	}
	if created.ChangeCents != 0 {
		t.Fatalf("expected change floored at 0, got %d", created.ChangeCents)
	}
	if created.PaymentAmountCents != 5000 {
		t.Fatalf("expected recorded tender 5000, got %d", created.PaymentAmountCents)
	}
	if !crt.IsEmpty() {
		t.Fatalf("expected cart reset after commit")
	}
}

func TestCommitDecrementFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	inv.decrementErr = errors.New("connection refused")
	txlog := &fakeTransactionLog{}
	notifier := &recordingNotifier{}
	crt := cart.New("T-01", inv, notifier, 0.10)
	if err := crt.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	crt.SetPaymentAmount(50000)

	_, err := New(inv, txlog, notifier).Commit(ctx, crt, "CASH")
	if !errors.Is(err, ErrCommitFailed) {
		t.Fatalf("expected ErrCommitFailed, got %v", err)
	}
	if crt.IsEmpty() {
		t.Fatalf("failed commit must not reset the cart")
	}
	if len(txlog.created) != 0 {
		t.Fatalf("failed commit must not record a transaction")
	}
	if len(notifier.completed) != 0 {
		t.Fatalf("failed commit must not announce completion")
	}
}

func TestCommitPersistenceFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	txlog := &fakeTransactionLog{createErr: errors.New("insert failed")}
	notifier := &recordingNotifier{}
	crt := cart.New("T-01", inv, notifier, 0.10)
	if err := crt.AddItem(ctx, inv.products["prd-tea"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	crt.SetPaymentAmount(10000)

	_, err := New(inv, txlog, notifier).Commit(ctx, crt, "CASH")
	if !errors.Is(err, ErrCommitFailed) {
		t.Fatalf("expected ErrCommitFailed, got %v", err)
	}
	if crt.IsEmpty() {
		t.Fatalf("failed commit must not reset the cart")
	}
	if len(notifier.completed) != 0 {
		t.Fatalf("failed commit must not announce completion")
	}
}

func TestCommitSnapshotIsIsolatedFromCatalog(t *testing.T) {
	ctx := context.Background()
	inv := testInventory()
	txlog := &fakeTransactionLog{}
	crt := cart.New("T-01", inv, &recordingNotifier{}, 0.10)
	if err := crt.AddItem(ctx, inv.products["prd-kopi"]); err != nil {
		t.Fatalf("add item: %v", err)
	}
	crt.SetPaymentAmount(25000)

	created, err := New(inv, txlog, &recordingNotifier{}).Commit(ctx, crt, "CASH")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	// A later price change must not reach back into the snapshot.
	kopi := inv.products["prd-kopi"]
	kopi.PriceCents = 99999
	inv.products["prd-kopi"] = kopi

	if created.Items[0].UnitPriceCents != 18000 {
		t.Fatalf("snapshot price changed, got %d", created.Items[0].UnitPriceCents)
	}
	if created.Items[0].Name != "Kopi Susu Gula Aren" {
		t.Fatalf("unexpected snapshot name %s", created.Items[0].Name)
	}
}

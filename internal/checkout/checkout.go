// Package checkout finalizes a sale: it snapshots the active cart into an
// immutable transaction, deducts inventory, and resets the register. The
// commit sequence is one logical unit — on a decrement or persistence fault
// the cart is left un-reset and the fault is surfaced to the caller.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kedaipos/backend/internal/cart"
	"kedaipos/backend/internal/display"
	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/pricing"
	"kedaipos/backend/internal/xid"
)

var ErrCommitFailed = errors.New("commit failed")

// Inventory is the authoritative side of the inventory provider: commit-time
// price resolution plus the floor-at-zero stock decrement.
type Inventory interface {
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) error
}

type TransactionLog interface {
	CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
}

type Committer struct {
	inv      Inventory
	txlog    TransactionLog
	notifier display.Notifier
}

func New(inv Inventory, txlog TransactionLog, notifier display.Notifier) *Committer {
	return &Committer{inv: inv, txlog: txlog, notifier: notifier}
}

// Commit finalizes the cart. An empty cart is a normal no-op: no transaction
// is created, no inventory is touched, and no error is returned.
//
// Insufficient payment does not block the commit; it is surfaced as a logged
// advisory and change floors at zero. Tightening this into a hard
// precondition is a policy change confined to this function.
func (c *Committer) Commit(ctx context.Context, crt *cart.Cart, paymentMethod string) (*domain.Transaction, error) {
	if crt.IsEmpty() {
		return nil, nil
	}
	if paymentMethod == "" {
		paymentMethod = "CASH"
	}

	items := crt.Items()
	discount := crt.Discount()
	payment := crt.PaymentAmount()

	// Snapshot at current catalog prices. Lines are value copies; the
	// transaction never shares state with the live cart.
	lines := make([]pricing.Line, 0, len(items))
	txLines := make([]domain.TransactionLine, 0, len(items))
	for _, item := range items {
		product, err := c.inv.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve %s: %v", ErrCommitFailed, item.ProductID, err)
		}
		lines = append(lines, pricing.Line{UnitPriceCents: product.PriceCents, Quantity: item.Quantity})
		txLines = append(txLines, domain.TransactionLine{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
		})
	}

	totals := pricing.Compute(lines, discount, crt.TaxRate(), payment)
	if payment < totals.TotalCents {
		log.Printf("[checkout] WARN: insufficient payment on terminal %s: tendered %d for total %d", crt.TerminalID(), payment, totals.TotalCents)
	}

	tx := domain.Transaction{
		ID:                  xid.New("trx"),
		Items:               txLines,
		SubtotalCents:       totals.SubtotalCents,
		DiscountType:        discount.Type,
		DiscountValue:       discount.Value,
		DiscountAmountCents: totals.DiscountAmountCents,
		TaxCents:            totals.TaxCents,
		TotalCents:          totals.TotalCents,
		PaymentAmountCents:  payment,
		ChangeCents:         totals.ChangeCents,
		PaymentMethod:       paymentMethod,
		CreatedAt:           time.Now().UTC(),
	}

	// Deduct exactly the committed quantities. Each product floors at zero
	// in the provider.
	for _, line := range tx.Items {
		if err := c.inv.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("%w: stock decrement for %s: %v", ErrCommitFailed, line.ProductID, err)
		}
	}

	created, err := c.txlog.CreateTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: record transaction: %v", ErrCommitFailed, err)
	}

	// Fire-and-forget: display failure never fails the commit.
	c.notifier.NotifyTransactionComplete(ctx, *created)

	// Reset emits the empty-cart display update.
	crt.Clear(ctx)

	return created, nil
}

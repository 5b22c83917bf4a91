// Package display is the customer-facing display collaborator. Notifications
// are one-way and best-effort: the sale engine never consumes a result, and a
// failed notification must never fail a cart mutation or a commit.
package display

import (
	"context"
	"log"

	"kedaipos/backend/internal/domain"
)

// CartUpdate is the "latest state" payload pushed after every cart mutation.
type CartUpdate struct {
	TerminalID string                `json:"terminal_id"`
	Items      []domain.CartLineView `json:"items"`
	TotalCents int64                 `json:"total_cents"`
}

type Notifier interface {
	NotifyCartUpdate(ctx context.Context, update CartUpdate)
	NotifyTransactionComplete(ctx context.Context, tx domain.Transaction)
}

type NoopNotifier struct{}

func (NoopNotifier) NotifyCartUpdate(_ context.Context, _ CartUpdate) {}

func (NoopNotifier) NotifyTransactionComplete(_ context.Context, _ domain.Transaction) {}

// LogNotifier writes display updates to the process log. Used when no Redis
// channel is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyCartUpdate(_ context.Context, update CartUpdate) {
	log.Printf("[display] cart update terminal=%s items=%d total=%d", update.TerminalID, len(update.Items), update.TotalCents)
}

func (LogNotifier) NotifyTransactionComplete(_ context.Context, tx domain.Transaction) {
	log.Printf("[display] transaction complete id=%s total=%d change=%d", tx.ID, tx.TotalCents, tx.ChangeCents)
}

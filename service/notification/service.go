package notification

import (
	"context"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

// Outbox is the durable notification queue. Rows are written in the
// same transaction as the mutation that triggers them, so a committed
// mutation never loses its notification; delivery happens later in the
// drain loop.
type Outbox struct {
	provider  repository.Provider
	notifRepo repository.Notification
}

// NewOutbox ...
func NewOutbox(provider repository.Provider, notifRepo repository.Notification) *Outbox {
	return &Outbox{
		provider:  provider,
		notifRepo: notifRepo,
	}
}

// Enqueue appends an unsent row inside the caller's transaction.
// The context must come from Provider.Transact.
func (o *Outbox) Enqueue(ctx context.Context, userID int64, message string) error {
	return o.notifRepo.Insert(ctx, userID, message, time.Now())
}

// EnqueueNow appends an unsent row in its own transaction, for callers
// outside any ledger mutation.
func (o *Outbox) EnqueueNow(ctx context.Context, userID int64, message string) error {
	return o.provider.Transact(ctx, func(ctx context.Context) error {
		return o.Enqueue(ctx, userID, message)
	})
}

// DrainBatch fetches unsent rows oldest-first.
func (o *Outbox) DrainBatch(ctx context.Context, limit int) ([]model.Notification, error) {
	return o.notifRepo.ListUnsent(o.provider.Readonly(ctx), limit)
}

// MarkSent ...
func (o *Outbox) MarkSent(ctx context.Context, id int64) error {
	return o.provider.Transact(ctx, func(ctx context.Context) error {
		return o.notifRepo.MarkSent(ctx, id)
	})
}

// MarkFailed ...
func (o *Outbox) MarkFailed(ctx context.Context, id int64, maxAttempts int) error {
	return o.provider.Transact(ctx, func(ctx context.Context) error {
		return o.notifRepo.MarkFailed(ctx, id, maxAttempts)
	})
}

// CountUnsent ...
func (o *Outbox) CountUnsent(ctx context.Context) (int64, error) {
	return o.notifRepo.CountUnsent(o.provider.Readonly(ctx))
}

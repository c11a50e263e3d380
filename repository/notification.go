package repository

import (
	"context"
	"time"

	"github.com/stampme/stampme/model"
)

// Notification is the outbox table. Rows are appended inside the same
// transaction as the ledger mutation that triggers them.
type Notification interface {
	Insert(ctx context.Context, userID int64, message string, now time.Time) error
	ListUnsent(ctx context.Context, limit int) ([]model.Notification, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, maxAttempts int) error
	CountUnsent(ctx context.Context) (int64, error)
}

type notificationImpl struct {
}

// NewNotification ...
func NewNotification() Notification {
	return &notificationImpl{}
}

// Insert ...
func (n *notificationImpl) Insert(ctx context.Context, userID int64, message string, now time.Time) error {
	query := `
INSERT INTO notifications (user_id, message, created_at)
VALUES (?, ?, ?)
`
	_, err := GetTx(ctx).ExecContext(ctx, query, userID, message, now)
	return err
}

// ListUnsent returns undelivered, not yet dead-lettered rows oldest-first.
func (n *notificationImpl) ListUnsent(ctx context.Context, limit int) ([]model.Notification, error) {
	query := `
SELECT id, user_id, message, sent, attempts, dead, created_at
FROM notifications
WHERE sent = FALSE AND dead = FALSE
ORDER BY created_at
LIMIT ?
`
	var result []model.Notification
	err := getQueryer(ctx).SelectContext(ctx, &result, query, limit)
	return result, err
}

// MarkSent ...
func (n *notificationImpl) MarkSent(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET sent = TRUE WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, id)
	return err
}

// MarkFailed increments the attempt counter and dead-letters the row
// once maxAttempts is reached. The dead assignment must come first:
// MySQL evaluates SET left to right, so a later assignment would read
// the already incremented counter.
func (n *notificationImpl) MarkFailed(ctx context.Context, id int64, maxAttempts int) error {
	query := `
UPDATE notifications
SET dead = attempts + 1 >= ?, attempts = attempts + 1
WHERE id = ?
`
	_, err := GetTx(ctx).ExecContext(ctx, query, maxAttempts, id)
	return err
}

// CountUnsent ...
func (n *notificationImpl) CountUnsent(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE sent = FALSE AND dead = FALSE`
	var count int64
	err := getQueryer(ctx).GetContext(ctx, &count, query)
	return count, err
}

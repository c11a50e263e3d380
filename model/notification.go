package model

import "time"

// Notification is an outbox row: written in the same transaction as the
// mutation that triggered it, delivered asynchronously by the drain loop.
type Notification struct {
	ID      int64  `db:"id"`
	UserID  int64  `db:"user_id"`
	Message string `db:"message"`

	Sent     bool `db:"sent"`
	Attempts int  `db:"attempts"`
	Dead     bool `db:"dead"`

	CreatedAt time.Time `db:"created_at"`
}

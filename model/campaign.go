package model

import (
	"database/sql"
	"time"
)

// Campaign ...
type Campaign struct {
	ID         int64  `db:"id"`
	MerchantID int64  `db:"merchant_id"`
	Name       string `db:"name"`

	Description       sql.NullString `db:"description"`
	StampsNeeded      int            `db:"stamps_needed"`
	RewardDescription sql.NullString `db:"reward_description"`

	ExpiresAt sql.NullTime `db:"expires_at"`
	Active    bool         `db:"active"`

	TotalJoins       int64 `db:"total_joins"`
	TotalCompletions int64 `db:"total_completions"`

	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the campaign has an expiry in the past.
func (c Campaign) Expired(now time.Time) bool {
	return c.ExpiresAt.Valid && c.ExpiresAt.Time.Before(now)
}

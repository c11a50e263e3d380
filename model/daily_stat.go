package model

import "time"

// DailyStat is a per-merchant, per-date aggregate counter row,
// unique on (merchant_id, date).
type DailyStat struct {
	ID         int64     `db:"id"`
	MerchantID int64     `db:"merchant_id"`
	Date       time.Time `db:"date"`

	Visits         int64 `db:"visits"`
	NewCustomers   int64 `db:"new_customers"`
	StampsGiven    int64 `db:"stamps_given"`
	RewardsClaimed int64 `db:"rewards_claimed"`
}

// StatDelta is the set of additive increments applied to a DailyStat row.
type StatDelta struct {
	Visits         int64
	NewCustomers   int64
	StampsGiven    int64
	RewardsClaimed int64
}

// DateOf truncates a timestamp to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

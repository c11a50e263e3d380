package model

import "time"

// StampTransaction is the audit row recorded for every ledger mutation.
type StampTransaction struct {
	ID           int64      `db:"id"`
	EnrollmentID int64      `db:"enrollment_id"`
	MerchantID   int64      `db:"merchant_id"`
	ActionType   ActionType `db:"action_type"`
	StampsChange int        `db:"stamps_change"`
	CreatedAt    time.Time  `db:"created_at"`
}

// ActionType ...
type ActionType string

const (
	// ActionTypeStampAdded ...
	ActionTypeStampAdded ActionType = "stamp_added"

	// ActionTypeBonusStamp ...
	ActionTypeBonusStamp ActionType = "bonus_stamp"

	// ActionTypeReset ...
	ActionTypeReset ActionType = "reset"
)

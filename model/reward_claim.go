package model

import "time"

// RewardClaim is the audit row written when a merchant resets a completed
// enrollment after handing out the reward.
type RewardClaim struct {
	ID           int64     `db:"id"`
	EnrollmentID int64     `db:"enrollment_id"`
	MerchantID   int64     `db:"merchant_id"`
	StampsSpent  int       `db:"stamps_spent"`
	CreatedAt    time.Time `db:"created_at"`
}

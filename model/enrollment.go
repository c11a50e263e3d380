package model

import (
	"database/sql"
	"time"
)

// Enrollment is a customer's membership inside exactly one campaign.
// Invariant: Completed == (Stamps >= campaign.StampsNeeded) after every mutation.
type Enrollment struct {
	ID         int64 `db:"id"`
	CampaignID int64 `db:"campaign_id"`
	CustomerID int64 `db:"customer_id"`

	Stamps      int          `db:"stamps"`
	JoinedAt    time.Time    `db:"joined_at"`
	LastStampAt sql.NullTime `db:"last_stamp_at"`

	Completed   bool         `db:"completed"`
	CompletedAt sql.NullTime `db:"completed_at"`

	Rating   sql.NullInt64  `db:"rating"`
	Feedback sql.NullString `db:"feedback"`
}

// WalletItem is an enrollment joined with its campaign for customer display.
type WalletItem struct {
	Enrollment

	CampaignName string       `db:"campaign_name"`
	StampsNeeded int          `db:"stamps_needed"`
	ExpiresAt    sql.NullTime `db:"expires_at"`
	MerchantName string       `db:"merchant_name"`
}

// CampaignMember is an enrollment joined with the customer for merchant display.
type CampaignMember struct {
	Enrollment

	Username  sql.NullString `db:"username"`
	FirstName string         `db:"first_name"`
}

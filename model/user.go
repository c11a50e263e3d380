package model

import (
	"database/sql"
	"time"
)

// User ...
type User struct {
	ID        int64          `db:"id"`
	Username  sql.NullString `db:"username"`
	FirstName string         `db:"first_name"`
	Role      UserRole       `db:"role"`

	MerchantApproved   bool          `db:"merchant_approved"`
	MerchantApprovedAt sql.NullTime  `db:"merchant_approved_at"`
	MerchantApprovedBy sql.NullInt64 `db:"merchant_approved_by"`

	TotalStampsEarned   int64 `db:"total_stamps_earned"`
	TotalRewardsClaimed int64 `db:"total_rewards_claimed"`

	CreatedAt  time.Time `db:"created_at"`
	LastActive time.Time `db:"last_active"`
}

// UserRole ...
type UserRole string

const (
	// UserRoleCustomer ...
	UserRoleCustomer UserRole = "customer"

	// UserRoleMerchant ...
	UserRoleMerchant UserRole = "merchant"

	// UserRoleAdmin ...
	UserRoleAdmin UserRole = "admin"
)

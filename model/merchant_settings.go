package model

import "database/sql"

// MerchantSettings ...
type MerchantSettings struct {
	MerchantID          int64 `db:"merchant_id"`
	RequireApproval     bool  `db:"require_approval"`
	AutoApprove         bool  `db:"auto_approve"`
	DailySummaryEnabled bool  `db:"daily_summary_enabled"`
	NotificationHour    int   `db:"notification_hour"`

	BusinessName sql.NullString `db:"business_name"`
	BusinessType sql.NullString `db:"business_type"`
	Location     sql.NullString `db:"location"`
}

// DefaultMerchantSettings ...
func DefaultMerchantSettings(merchantID int64) MerchantSettings {
	return MerchantSettings{
		MerchantID:          merchantID,
		RequireApproval:     true,
		AutoApprove:         false,
		DailySummaryEnabled: true,
		NotificationHour:    18,
	}
}

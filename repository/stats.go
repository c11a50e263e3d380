package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stampme/stampme/model"
)

// DailyStat ...
type DailyStat interface {
	Increment(ctx context.Context, merchantID int64, date time.Time, delta model.StatDelta) error
	Get(ctx context.Context, merchantID int64, date time.Time) (model.DailyStat, error)
	ListSummaryMerchants(ctx context.Context) ([]model.User, error)
}

type dailyStatImpl struct {
}

// NewDailyStat ...
func NewDailyStat() DailyStat {
	return &dailyStatImpl{}
}

// Increment applies upsert-and-add semantics on the (merchant, date)
// row. The addition happens in SQL so concurrent increments never
// overwrite each other.
func (d *dailyStatImpl) Increment(
	ctx context.Context, merchantID int64, date time.Time, delta model.StatDelta,
) error {
	query := `
INSERT INTO daily_stats (merchant_id, date, visits, new_customers, stamps_given, rewards_claimed)
VALUES (?, ?, ?, ?, ?, ?) AS NEW
ON DUPLICATE KEY UPDATE
	visits = visits + NEW.visits,
	new_customers = new_customers + NEW.new_customers,
	stamps_given = stamps_given + NEW.stamps_given,
	rewards_claimed = rewards_claimed + NEW.rewards_claimed
`
	_, err := GetTx(ctx).ExecContext(ctx, query,
		merchantID, date,
		delta.Visits, delta.NewCustomers, delta.StampsGiven, delta.RewardsClaimed,
	)
	return err
}

// Get returns a zeroed stat row when none exists yet.
func (d *dailyStatImpl) Get(ctx context.Context, merchantID int64, date time.Time) (model.DailyStat, error) {
	query := `
SELECT id, merchant_id, date, visits, new_customers, stamps_given, rewards_claimed
FROM daily_stats
WHERE merchant_id = ? AND date = ?
`
	var result model.DailyStat
	err := getQueryer(ctx).GetContext(ctx, &result, query, merchantID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyStat{MerchantID: merchantID, Date: date}, nil
	}
	return result, err
}

// ListSummaryMerchants returns approved merchants with the daily
// summary enabled.
func (d *dailyStatImpl) ListSummaryMerchants(ctx context.Context) ([]model.User, error) {
	query := `
SELECT u.id, u.username, u.first_name, u.role,
	u.merchant_approved, u.merchant_approved_at, u.merchant_approved_by,
	u.total_stamps_earned, u.total_rewards_claimed,
	u.created_at, u.last_active
FROM users u
JOIN merchant_settings ms ON u.id = ms.merchant_id
WHERE u.role = 'merchant'
	AND u.merchant_approved = TRUE
	AND ms.daily_summary_enabled = TRUE
ORDER BY u.id
`
	var result []model.User
	err := getQueryer(ctx).SelectContext(ctx, &result, query)
	return result, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stampme/stampme/model"
)

// Campaign ...
type Campaign interface {
	Insert(ctx context.Context, campaign model.Campaign) (int64, error)
	Get(ctx context.Context, id int64) (model.Campaign, error)
	ListByMerchant(ctx context.Context, merchantID int64) ([]model.Campaign, error)
	IncreaseJoins(ctx context.Context, id int64) error
	IncreaseCompletions(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error

	InsertRewardTier(ctx context.Context, tier model.RewardTier) (int64, error)
	ListRewardTiers(ctx context.Context, campaignID int64) ([]model.RewardTier, error)
}

type campaignImpl struct {
}

// NewCampaign ...
func NewCampaign() Campaign {
	return &campaignImpl{}
}

// Insert ...
func (c *campaignImpl) Insert(ctx context.Context, campaign model.Campaign) (int64, error) {
	query := `
INSERT INTO campaigns (
	merchant_id, name, description, stamps_needed,
	reward_description, expires_at, active
) VALUES (
	:merchant_id, :name, :description, :stamps_needed,
	:reward_description, :expires_at, :active
)
`
	result, err := GetTx(ctx).NamedExecContext(ctx, query, campaign)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Get ...
func (c *campaignImpl) Get(ctx context.Context, id int64) (model.Campaign, error) {
	query := `
SELECT id, merchant_id, name, description, stamps_needed,
	reward_description, expires_at, active,
	total_joins, total_completions, created_at
FROM campaigns
WHERE id = ?
`
	var result model.Campaign
	err := getQueryer(ctx).GetContext(ctx, &result, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Campaign{}, model.ErrNotFound
	}
	return result, err
}

// ListByMerchant returns the merchant's active campaigns, newest first.
func (c *campaignImpl) ListByMerchant(ctx context.Context, merchantID int64) ([]model.Campaign, error) {
	query := `
SELECT id, merchant_id, name, description, stamps_needed,
	reward_description, expires_at, active,
	total_joins, total_completions, created_at
FROM campaigns
WHERE merchant_id = ? AND active = TRUE
ORDER BY created_at DESC
`
	var result []model.Campaign
	err := getQueryer(ctx).SelectContext(ctx, &result, query, merchantID)
	return result, err
}

// IncreaseJoins ...
func (c *campaignImpl) IncreaseJoins(ctx context.Context, id int64) error {
	query := `UPDATE campaigns SET total_joins = total_joins + 1 WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, id)
	return err
}

// IncreaseCompletions ...
func (c *campaignImpl) IncreaseCompletions(ctx context.Context, id int64) error {
	query := `UPDATE campaigns SET total_completions = total_completions + 1 WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, id)
	return err
}

// Deactivate soft-deactivates a campaign. Rows are never hard-deleted
// while enrollments exist.
func (c *campaignImpl) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE campaigns SET active = FALSE WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, id)
	return err
}

// InsertRewardTier ...
func (c *campaignImpl) InsertRewardTier(ctx context.Context, tier model.RewardTier) (int64, error) {
	query := `
INSERT INTO reward_tiers (campaign_id, stamps_required, reward_name, reward_description)
VALUES (:campaign_id, :stamps_required, :reward_name, :reward_description)
`
	result, err := GetTx(ctx).NamedExecContext(ctx, query, tier)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListRewardTiers ...
func (c *campaignImpl) ListRewardTiers(ctx context.Context, campaignID int64) ([]model.RewardTier, error) {
	query := `
SELECT id, campaign_id, stamps_required, reward_name, reward_description
FROM reward_tiers
WHERE campaign_id = ?
ORDER BY stamps_required
`
	var result []model.RewardTier
	err := getQueryer(ctx).SelectContext(ctx, &result, query, campaignID)
	return result, err
}

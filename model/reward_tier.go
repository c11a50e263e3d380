package model

import "database/sql"

// RewardTier is an informational milestone inside a campaign. Tiers are
// independent of the completion threshold and are not validated against it.
type RewardTier struct {
	ID             int64          `db:"id"`
	CampaignID     int64          `db:"campaign_id"`
	StampsRequired int            `db:"stamps_required"`
	RewardName     string         `db:"reward_name"`
	Description    sql.NullString `db:"reward_description"`
}

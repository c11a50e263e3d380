package model

import "time"

// Referral is created once per referred customer's first join via a
// referral link.
type Referral struct {
	ID         int64     `db:"id"`
	ReferrerID int64     `db:"referrer_id"`
	ReferredID int64     `db:"referred_id"`
	CampaignID int64     `db:"campaign_id"`
	BonusGiven bool      `db:"bonus_given"`
	CreatedAt  time.Time `db:"created_at"`
}

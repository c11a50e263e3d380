package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stampme/stampme/model"
)

// Referral ...
type Referral interface {
	Insert(ctx context.Context, ref model.Referral) (int64, error)
	GetByReferred(ctx context.Context, referredID int64, campaignID int64) (model.Referral, error)
	MarkBonusGiven(ctx context.Context, id int64) error
	ListByReferrer(ctx context.Context, referrerID int64) ([]model.Referral, error)
}

type referralImpl struct {
}

// NewReferral ...
func NewReferral() Referral {
	return &referralImpl{}
}

// Insert ...
func (r *referralImpl) Insert(ctx context.Context, ref model.Referral) (int64, error) {
	query := `
INSERT INTO referrals (referrer_id, referred_id, campaign_id, bonus_given, created_at)
VALUES (:referrer_id, :referred_id, :campaign_id, :bonus_given, :created_at)
`
	result, err := GetTx(ctx).NamedExecContext(ctx, query, ref)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetByReferred ...
func (r *referralImpl) GetByReferred(ctx context.Context, referredID int64, campaignID int64) (model.Referral, error) {
	query := `
SELECT id, referrer_id, referred_id, campaign_id, bonus_given, created_at
FROM referrals
WHERE referred_id = ? AND campaign_id = ?
`
	var result model.Referral
	err := getQueryer(ctx).GetContext(ctx, &result, query, referredID, campaignID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Referral{}, model.ErrNotFound
	}
	return result, err
}

// MarkBonusGiven ...
func (r *referralImpl) MarkBonusGiven(ctx context.Context, id int64) error {
	query := `UPDATE referrals SET bonus_given = TRUE WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, id)
	return err
}

// ListByReferrer ...
func (r *referralImpl) ListByReferrer(ctx context.Context, referrerID int64) ([]model.Referral, error) {
	query := `
SELECT id, referrer_id, referred_id, campaign_id, bonus_given, created_at
FROM referrals
WHERE referrer_id = ?
ORDER BY created_at
`
	var result []model.Referral
	err := getQueryer(ctx).SelectContext(ctx, &result, query, referrerID)
	return result, err
}

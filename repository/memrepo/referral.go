package memrepo

import (
	"context"
	"sort"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

type referralRepo struct {
	db *DB
}

// ReferralRepo ...
func (d *DB) ReferralRepo() repository.Referral {
	return &referralRepo{db: d}
}

func (r *referralRepo) Insert(ctx context.Context, ref model.Referral) (int64, error) {
	defer r.db.acquire(ctx)()

	ref.ID = r.db.state.nextID()
	r.db.state.referrals[ref.ID] = ref
	return ref.ID, nil
}

func (r *referralRepo) GetByReferred(ctx context.Context, referredID int64, campaignID int64) (model.Referral, error) {
	defer r.db.acquire(ctx)()

	for _, ref := range r.db.state.referrals {
		if ref.ReferredID == referredID && ref.CampaignID == campaignID {
			return ref, nil
		}
	}
	return model.Referral{}, model.ErrNotFound
}

func (r *referralRepo) MarkBonusGiven(ctx context.Context, id int64) error {
	defer r.db.acquire(ctx)()

	ref, ok := r.db.state.referrals[id]
	if !ok {
		return nil
	}
	ref.BonusGiven = true
	r.db.state.referrals[id] = ref
	return nil
}

func (r *referralRepo) ListByReferrer(ctx context.Context, referrerID int64) ([]model.Referral, error) {
	defer r.db.acquire(ctx)()

	var result []model.Referral
	for _, ref := range r.db.state.referrals {
		if ref.ReferrerID == referrerID {
			result = append(result, ref)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

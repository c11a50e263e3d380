package memrepo

import (
	"context"
	"sort"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

type campaignRepo struct {
	db *DB
}

// CampaignRepo ...
func (d *DB) CampaignRepo() repository.Campaign {
	return &campaignRepo{db: d}
}

func (r *campaignRepo) Insert(ctx context.Context, campaign model.Campaign) (int64, error) {
	defer r.db.acquire(ctx)()

	campaign.ID = r.db.state.nextID()
	r.db.state.campaigns[campaign.ID] = campaign
	return campaign.ID, nil
}

func (r *campaignRepo) Get(ctx context.Context, id int64) (model.Campaign, error) {
	defer r.db.acquire(ctx)()

	campaign, ok := r.db.state.campaigns[id]
	if !ok {
		return model.Campaign{}, model.ErrNotFound
	}
	return campaign, nil
}

func (r *campaignRepo) ListByMerchant(ctx context.Context, merchantID int64) ([]model.Campaign, error) {
	defer r.db.acquire(ctx)()

	var result []model.Campaign
	for _, c := range r.db.state.campaigns {
		if c.MerchantID == merchantID && c.Active {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *campaignRepo) IncreaseJoins(ctx context.Context, id int64) error {
	defer r.db.acquire(ctx)()

	campaign, ok := r.db.state.campaigns[id]
	if !ok {
		return nil
	}
	campaign.TotalJoins++
	r.db.state.campaigns[id] = campaign
	return nil
}

func (r *campaignRepo) IncreaseCompletions(ctx context.Context, id int64) error {
	defer r.db.acquire(ctx)()

	campaign, ok := r.db.state.campaigns[id]
	if !ok {
		return nil
	}
	campaign.TotalCompletions++
	r.db.state.campaigns[id] = campaign
	return nil
}

func (r *campaignRepo) Deactivate(ctx context.Context, id int64) error {
	defer r.db.acquire(ctx)()

	campaign, ok := r.db.state.campaigns[id]
	if !ok {
		return nil
	}
	campaign.Active = false
	r.db.state.campaigns[id] = campaign
	return nil
}

func (r *campaignRepo) InsertRewardTier(ctx context.Context, tier model.RewardTier) (int64, error) {
	defer r.db.acquire(ctx)()

	tier.ID = r.db.state.nextID()
	r.db.state.tiers = append(r.db.state.tiers, tier)
	return tier.ID, nil
}

func (r *campaignRepo) ListRewardTiers(ctx context.Context, campaignID int64) ([]model.RewardTier, error) {
	defer r.db.acquire(ctx)()

	var result []model.RewardTier
	for _, t := range r.db.state.tiers {
		if t.CampaignID == campaignID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StampsRequired < result[j].StampsRequired
	})
	return result, nil
}

package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

type statsRepo struct {
	db *DB
}

// DailyStatRepo ...
func (d *DB) DailyStatRepo() repository.DailyStat {
	return &statsRepo{db: d}
}

func dateKey(merchantID int64, date time.Time) statKey {
	return statKey{
		merchantID: merchantID,
		date:       model.DateOf(date).Format("2006-01-02"),
	}
}

func (r *statsRepo) Increment(
	ctx context.Context, merchantID int64, date time.Time, delta model.StatDelta,
) error {
	defer r.db.acquire(ctx)()

	key := dateKey(merchantID, date)
	stat, ok := r.db.state.stats[key]
	if !ok {
		stat = model.DailyStat{
			ID:         r.db.state.nextID(),
			MerchantID: merchantID,
			Date:       model.DateOf(date),
		}
	}
	stat.Visits += delta.Visits
	stat.NewCustomers += delta.NewCustomers
	stat.StampsGiven += delta.StampsGiven
	stat.RewardsClaimed += delta.RewardsClaimed
	r.db.state.stats[key] = stat
	return nil
}

func (r *statsRepo) Get(ctx context.Context, merchantID int64, date time.Time) (model.DailyStat, error) {
	defer r.db.acquire(ctx)()

	stat, ok := r.db.state.stats[dateKey(merchantID, date)]
	if !ok {
		return model.DailyStat{MerchantID: merchantID, Date: model.DateOf(date)}, nil
	}
	return stat, nil
}

func (r *statsRepo) ListSummaryMerchants(ctx context.Context) ([]model.User, error) {
	defer r.db.acquire(ctx)()

	var result []model.User
	for _, u := range r.db.state.users {
		if u.Role != model.UserRoleMerchant || !u.MerchantApproved {
			continue
		}
		settings, ok := r.db.state.settings[u.ID]
		if !ok || !settings.DailySummaryEnabled {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

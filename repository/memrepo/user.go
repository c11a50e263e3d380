package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

type userRepo struct {
	db *DB
}

// UserRepo ...
func (d *DB) UserRepo() repository.User {
	return &userRepo{db: d}
}

func (r *userRepo) Upsert(ctx context.Context, user model.User) error {
	defer r.db.acquire(ctx)()

	existing, ok := r.db.state.users[user.ID]
	if !ok {
		r.db.state.users[user.ID] = user
		return nil
	}
	existing.Username = user.Username
	existing.FirstName = user.FirstName
	existing.LastActive = user.LastActive
	r.db.state.users[user.ID] = existing
	return nil
}

func (r *userRepo) Get(ctx context.Context, id int64) (model.User, error) {
	defer r.db.acquire(ctx)()

	user, ok := r.db.state.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

func (r *userRepo) SetRole(ctx context.Context, id int64, role model.UserRole) error {
	defer r.db.acquire(ctx)()

	user, ok := r.db.state.users[id]
	if !ok {
		return nil
	}
	user.Role = role
	r.db.state.users[id] = user
	return nil
}

func (r *userRepo) ApproveMerchant(ctx context.Context, id int64, adminID int64, now time.Time) error {
	defer r.db.acquire(ctx)()

	user, ok := r.db.state.users[id]
	if !ok {
		return nil
	}
	user.MerchantApproved = true
	user.MerchantApprovedAt = nullTime(now)
	user.MerchantApprovedBy = nullInt64(adminID)
	r.db.state.users[id] = user
	return nil
}

func (r *userRepo) ListPendingMerchants(ctx context.Context) ([]model.User, error) {
	defer r.db.acquire(ctx)()

	var result []model.User
	for _, u := range r.db.state.users {
		if u.Role == model.UserRoleMerchant && !u.MerchantApproved {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *userRepo) AddStampsEarned(ctx context.Context, id int64, delta int64) error {
	defer r.db.acquire(ctx)()

	user, ok := r.db.state.users[id]
	if !ok {
		return nil
	}
	user.TotalStampsEarned += delta
	r.db.state.users[id] = user
	return nil
}

func (r *userRepo) AddRewardsClaimed(ctx context.Context, id int64, delta int64) error {
	defer r.db.acquire(ctx)()

	user, ok := r.db.state.users[id]
	if !ok {
		return nil
	}
	user.TotalRewardsClaimed += delta
	r.db.state.users[id] = user
	return nil
}

func (r *userRepo) GetSettings(ctx context.Context, merchantID int64) (model.MerchantSettings, error) {
	defer r.db.acquire(ctx)()

	settings, ok := r.db.state.settings[merchantID]
	if !ok {
		return model.MerchantSettings{}, model.ErrNotFound
	}
	return settings, nil
}

func (r *userRepo) InsertDefaultSettings(ctx context.Context, merchantID int64) error {
	defer r.db.acquire(ctx)()

	if _, ok := r.db.state.settings[merchantID]; ok {
		return nil
	}
	r.db.state.settings[merchantID] = model.DefaultMerchantSettings(merchantID)
	return nil
}

func (r *userRepo) UpdateSettings(ctx context.Context, settings model.MerchantSettings) error {
	defer r.db.acquire(ctx)()

	if _, ok := r.db.state.settings[settings.MerchantID]; !ok {
		return nil
	}
	r.db.state.settings[settings.MerchantID] = settings
	return nil
}

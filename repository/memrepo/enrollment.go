package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

type enrollmentRepo struct {
	db *DB
}

// EnrollmentRepo ...
func (d *DB) EnrollmentRepo() repository.Enrollment {
	return &enrollmentRepo{db: d}
}

func (r *enrollmentRepo) find(campaignID int64, customerID int64) (model.Enrollment, bool) {
	for _, e := range r.db.state.enrollments {
		if e.CampaignID == campaignID && e.CustomerID == customerID {
			return e, true
		}
	}
	return model.Enrollment{}, false
}

func (r *enrollmentRepo) Upsert(
	ctx context.Context, campaignID int64, customerID int64, now time.Time,
) (int64, bool, error) {
	defer r.db.acquire(ctx)()

	if existing, ok := r.find(campaignID, customerID); ok {
		return existing.ID, false, nil
	}

	enrollment := model.Enrollment{
		ID:         r.db.state.nextID(),
		CampaignID: campaignID,
		CustomerID: customerID,
		JoinedAt:   now,
	}
	r.db.state.enrollments[enrollment.ID] = enrollment
	return enrollment.ID, true, nil
}

func (r *enrollmentRepo) Get(ctx context.Context, campaignID int64, customerID int64) (model.Enrollment, error) {
	defer r.db.acquire(ctx)()

	enrollment, ok := r.find(campaignID, customerID)
	if !ok {
		return model.Enrollment{}, model.ErrNotFound
	}
	return enrollment, nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id int64) (model.Enrollment, error) {
	defer r.db.acquire(ctx)()

	enrollment, ok := r.db.state.enrollments[id]
	if !ok {
		return model.Enrollment{}, model.ErrNotFound
	}
	return enrollment, nil
}

func (r *enrollmentRepo) LockByID(ctx context.Context, id int64) (model.Enrollment, error) {
	return r.GetByID(ctx, id)
}

func (r *enrollmentRepo) ListByCampaign(ctx context.Context, campaignID int64) ([]model.CampaignMember, error) {
	defer r.db.acquire(ctx)()

	var result []model.CampaignMember
	for _, e := range r.db.state.enrollments {
		if e.CampaignID != campaignID {
			continue
		}
		member := model.CampaignMember{Enrollment: e}
		if u, ok := r.db.state.users[e.CustomerID]; ok {
			member.Username = u.Username
			member.FirstName = u.FirstName
		}
		result = append(result, member)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Stamps != result[j].Stamps {
			return result[i].Stamps > result[j].Stamps
		}
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result, nil
}

func (r *enrollmentRepo) ListByCustomer(ctx context.Context, customerID int64) ([]model.WalletItem, error) {
	defer r.db.acquire(ctx)()

	var result []model.WalletItem
	for _, e := range r.db.state.enrollments {
		if e.CustomerID != customerID {
			continue
		}
		campaign, ok := r.db.state.campaigns[e.CampaignID]
		if !ok || !campaign.Active {
			continue
		}
		item := model.WalletItem{
			Enrollment: e,

			CampaignName: campaign.Name,
			StampsNeeded: campaign.StampsNeeded,
			ExpiresAt:    campaign.ExpiresAt,
		}
		if merchant, ok := r.db.state.users[campaign.MerchantID]; ok {
			item.MerchantName = merchant.FirstName
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.LastStampAt.Valid != b.LastStampAt.Valid {
			return a.LastStampAt.Valid
		}
		if a.LastStampAt.Valid && !a.LastStampAt.Time.Equal(b.LastStampAt.Time) {
			return a.LastStampAt.Time.After(b.LastStampAt.Time)
		}
		return a.JoinedAt.After(b.JoinedAt)
	})
	return result, nil
}

func (r *enrollmentRepo) AddStamp(ctx context.Context, id int64, now time.Time) (int, error) {
	defer r.db.acquire(ctx)()

	enrollment, ok := r.db.state.enrollments[id]
	if !ok {
		return 0, model.ErrNotFound
	}
	enrollment.Stamps++
	enrollment.LastStampAt = nullTime(now)
	r.db.state.enrollments[id] = enrollment
	return enrollment.Stamps, nil
}

func (r *enrollmentRepo) MarkCompleted(ctx context.Context, id int64, now time.Time) error {
	defer r.db.acquire(ctx)()

	enrollment, ok := r.db.state.enrollments[id]
	if !ok {
		return nil
	}
	enrollment.Completed = true
	enrollment.CompletedAt = nullTime(now)
	r.db.state.enrollments[id] = enrollment
	return nil
}

func (r *enrollmentRepo) SetCompleted(ctx context.Context, id int64, completed bool, now time.Time) error {
	if completed {
		return r.MarkCompleted(ctx, id, now)
	}

	defer r.db.acquire(ctx)()

	enrollment, ok := r.db.state.enrollments[id]
	if !ok {
		return nil
	}
	enrollment.Completed = false
	r.db.state.enrollments[id] = enrollment
	return nil
}

func (r *enrollmentRepo) Reset(ctx context.Context, id int64) error {
	defer r.db.acquire(ctx)()

	enrollment, ok := r.db.state.enrollments[id]
	if !ok {
		return nil
	}
	enrollment.Stamps = 0
	enrollment.Completed = false
	enrollment.CompletedAt = nullTime(time.Time{})
	enrollment.CompletedAt.Valid = false
	r.db.state.enrollments[id] = enrollment
	return nil
}

func (r *enrollmentRepo) SaveRating(ctx context.Context, id int64, rating int, feedback string) error {
	defer r.db.acquire(ctx)()

	enrollment, ok := r.db.state.enrollments[id]
	if !ok {
		return nil
	}
	enrollment.Rating = nullInt64(int64(rating))
	enrollment.Feedback = nullString(feedback)
	r.db.state.enrollments[id] = enrollment
	return nil
}

func (r *enrollmentRepo) InsertRewardClaim(ctx context.Context, claim model.RewardClaim) error {
	defer r.db.acquire(ctx)()

	claim.ID = r.db.state.nextID()
	r.db.state.claims = append(r.db.state.claims, claim)
	return nil
}

// RewardClaims returns a copy of the recorded claims, for tests.
func (d *DB) RewardClaims() []model.RewardClaim {
	d.mut.Lock()
	defer d.mut.Unlock()
	return append([]model.RewardClaim(nil), d.state.claims...)
}

package enrollment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository/memrepo"
)

type serviceTest struct {
	db  *memrepo.DB
	svc *Service

	merchantID int64
	customerID int64
	campaignID int64
}

func newContext() context.Context {
	return context.Background()
}

func newServiceTest(t *testing.T) *serviceTest {
	db := memrepo.New()
	svc := NewService(
		db, db.CampaignRepo(), db.EnrollmentRepo(),
		db.StampTransactionRepo(), db.DailyStatRepo(),
	)

	st := &serviceTest{
		db:  db,
		svc: svc,

		merchantID: 11,
		customerID: 22,
	}

	ctx := newContext()
	now := time.Now()

	err := db.UserRepo().Upsert(ctx, model.User{
		ID:               st.merchantID,
		FirstName:        "Coffee Corner",
		Role:             model.UserRoleMerchant,
		MerchantApproved: true,
		CreatedAt:        now,
		LastActive:       now,
	})
	assert.Equal(t, nil, err)

	campaignID, err := db.CampaignRepo().Insert(ctx, model.Campaign{
		MerchantID:   st.merchantID,
		Name:         "Free Coffee",
		StampsNeeded: 5,
		Active:       true,
		CreatedAt:    now,
	})
	assert.Equal(t, nil, err)
	st.campaignID = campaignID

	return st
}

func TestService_Enroll_Idempotent(t *testing.T) {
	st := newServiceTest(t)
	ctx := newContext()

	first, err := st.svc.Enroll(ctx, st.campaignID, st.customerID)
	assert.Equal(t, nil, err)
	assert.Equal(t, st.campaignID, first.CampaignID)
	assert.Equal(t, st.customerID, first.CustomerID)
	assert.Equal(t, 0, first.Stamps)

	campaign, err := st.db.CampaignRepo().Get(ctx, st.campaignID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), campaign.TotalJoins)

	stat, err := st.db.DailyStatRepo().Get(ctx, st.merchantID, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), stat.NewCustomers)

	second, err := st.svc.Enroll(ctx, st.campaignID, st.customerID)
	assert.Equal(t, nil, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.JoinedAt, second.JoinedAt)

	campaign, err = st.db.CampaignRepo().Get(ctx, st.campaignID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), campaign.TotalJoins)

	stat, err = st.db.DailyStatRepo().Get(ctx, st.merchantID, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), stat.NewCustomers)
}

func TestService_Enroll_InactiveCampaign(t *testing.T) {
	st := newServiceTest(t)
	ctx := newContext()

	err := st.db.CampaignRepo().Deactivate(ctx, st.campaignID)
	assert.Equal(t, nil, err)

	_, err = st.svc.Enroll(ctx, st.campaignID, st.customerID)
	assert.Equal(t, ErrCampaignInactive, err)
}

func TestService_Enroll_ExpiredCampaign(t *testing.T) {
	st := newServiceTest(t)
	ctx := newContext()

	expired, err := st.db.CampaignRepo().Insert(ctx, model.Campaign{
		MerchantID:   st.merchantID,
		Name:         "Old Promo",
		StampsNeeded: 5,
		Active:       true,
		ExpiresAt: sql.NullTime{
			Valid: true,
			Time:  time.Now().AddDate(0, 0, -1),
		},
		CreatedAt: time.Now(),
	})
	assert.Equal(t, nil, err)

	_, err = st.svc.Enroll(ctx, expired, st.customerID)
	assert.Equal(t, ErrCampaignInactive, err)
}

func TestService_Enroll_MissingCampaign(t *testing.T) {
	st := newServiceTest(t)

	_, err := st.svc.Enroll(newContext(), 404, st.customerID)
	assert.Equal(t, model.ErrNotFound, err)
}

func TestService_ResetAfterClaim(t *testing.T) {
	st := newServiceTest(t)
	ctx := newContext()

	enrollment, err := st.svc.Enroll(ctx, st.campaignID, st.customerID)
	assert.Equal(t, nil, err)

	for i := 0; i < 5; i++ {
		_, err := st.db.EnrollmentRepo().AddStamp(ctx, enrollment.ID, time.Now())
		assert.Equal(t, nil, err)
	}
	err = st.db.EnrollmentRepo().MarkCompleted(ctx, enrollment.ID, time.Now())
	assert.Equal(t, nil, err)

	err = st.svc.ResetAfterClaim(ctx, st.merchantID, enrollment.ID)
	assert.Equal(t, nil, err)

	after, err := st.db.EnrollmentRepo().GetByID(ctx, enrollment.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, after.Stamps)
	assert.Equal(t, false, after.Completed)
	assert.Equal(t, false, after.CompletedAt.Valid)

	claims := st.db.RewardClaims()
	assert.Equal(t, 1, len(claims))
	assert.Equal(t, enrollment.ID, claims[0].EnrollmentID)
	assert.Equal(t, st.merchantID, claims[0].MerchantID)
	assert.Equal(t, 5, claims[0].StampsSpent)

	txns, err := st.db.StampTransactionRepo().ListByEnrollment(ctx, enrollment.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(txns))
	assert.Equal(t, model.ActionTypeReset, txns[0].ActionType)
	assert.Equal(t, -5, txns[0].StampsChange)

	stat, err := st.db.DailyStatRepo().Get(ctx, st.merchantID, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), stat.RewardsClaimed)
}

func TestService_ResetAfterClaim_NotOwner(t *testing.T) {
	st := newServiceTest(t)
	ctx := newContext()

	enrollment, err := st.svc.Enroll(ctx, st.campaignID, st.customerID)
	assert.Equal(t, nil, err)
	_, err = st.db.EnrollmentRepo().AddStamp(ctx, enrollment.ID, time.Now())
	assert.Equal(t, nil, err)

	err = st.svc.ResetAfterClaim(ctx, 9999, enrollment.ID)
	assert.Equal(t, ErrNotCampaignOwner, err)

	// rolled back: stamps untouched, no claim recorded
	after, err := st.db.EnrollmentRepo().GetByID(ctx, enrollment.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, after.Stamps)
	assert.Equal(t, 0, len(st.db.RewardClaims()))
}

func TestService_ListByCampaign_Ordering(t *testing.T) {
	st := newServiceTest(t)
	ctx := newContext()

	for _, customerID := range []int64{101, 102, 103} {
		_, err := st.svc.Enroll(ctx, st.campaignID, customerID)
		assert.Equal(t, nil, err)
	}

	second, err := st.db.EnrollmentRepo().Get(ctx, st.campaignID, 102)
	assert.Equal(t, nil, err)
	for i := 0; i < 3; i++ {
		_, err := st.db.EnrollmentRepo().AddStamp(ctx, second.ID, time.Now())
		assert.Equal(t, nil, err)
	}

	members, err := st.svc.ListByCampaign(ctx, st.campaignID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(members))
	assert.Equal(t, int64(102), members[0].CustomerID)
	assert.Equal(t, 3, members[0].Stamps)
	assert.Equal(t, int64(101), members[1].CustomerID)
	assert.Equal(t, int64(103), members[2].CustomerID)
}

func TestService_ListByCustomer_SkipsInactive(t *testing.T) {
	st := newServiceTest(t)
	ctx := newContext()

	inactive, err := st.db.CampaignRepo().Insert(ctx, model.Campaign{
		MerchantID:   st.merchantID,
		Name:         "Ended",
		StampsNeeded: 5,
		Active:       true,
		CreatedAt:    time.Now(),
	})
	assert.Equal(t, nil, err)

	_, err = st.svc.Enroll(ctx, st.campaignID, st.customerID)
	assert.Equal(t, nil, err)
	_, err = st.svc.Enroll(ctx, inactive, st.customerID)
	assert.Equal(t, nil, err)

	err = st.db.CampaignRepo().Deactivate(ctx, inactive)
	assert.Equal(t, nil, err)

	wallet, err := st.svc.ListByCustomer(ctx, st.customerID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(wallet))
	assert.Equal(t, "Free Coffee", wallet[0].CampaignName)
	assert.Equal(t, 5, wallet[0].StampsNeeded)
}

func TestService_SaveRating(t *testing.T) {
	st := newServiceTest(t)
	ctx := newContext()

	enrollment, err := st.svc.Enroll(ctx, st.campaignID, st.customerID)
	assert.Equal(t, nil, err)

	err = st.svc.SaveRating(ctx, enrollment.ID, 0, "")
	assert.Equal(t, model.NewValidationError("rating", "must be between 1 and 5"), err)
	err = st.svc.SaveRating(ctx, enrollment.ID, 6, "")
	assert.Equal(t, model.NewValidationError("rating", "must be between 1 and 5"), err)

	err = st.svc.SaveRating(ctx, enrollment.ID, 5, "great coffee")
	assert.Equal(t, nil, err)

	after, err := st.db.EnrollmentRepo().GetByID(ctx, enrollment.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(5), after.Rating.Int64)
	assert.Equal(t, "great coffee", after.Feedback.String)
}

package stamping

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository/memrepo"
)

type serviceTest struct {
	db  *memrepo.DB
	svc *Service

	merchantID   int64
	customerID   int64
	campaignID   int64
	enrollmentID int64
}

func newContext() context.Context {
	return context.Background()
}

func newServiceTest(t *testing.T, stampsNeeded int) *serviceTest {
	db := memrepo.New()
	svc := NewService(
		db, db.StampRequestRepo(), db.EnrollmentRepo(), db.CampaignRepo(),
		db.UserRepo(), db.StampTransactionRepo(), db.DailyStatRepo(), db.NotificationRepo(),
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

	err = db.UserRepo().Upsert(ctx, model.User{
		ID:         st.customerID,
		FirstName:  "Alice",
		Role:       model.UserRoleCustomer,
		CreatedAt:  now,
		LastActive: now,
	})
	assert.Equal(t, nil, err)

	campaignID, err := db.CampaignRepo().Insert(ctx, model.Campaign{
		MerchantID:   st.merchantID,
		Name:         "Free Coffee",
		StampsNeeded: stampsNeeded,
		Active:       true,
		CreatedAt:    now,
	})
	assert.Equal(t, nil, err)
	st.campaignID = campaignID

	enrollmentID, created, err := db.EnrollmentRepo().Upsert(ctx, campaignID, st.customerID, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, created)
	st.enrollmentID = enrollmentID

	return st
}

func (st *serviceTest) enrollment(t *testing.T) model.Enrollment {
	e, err := st.db.EnrollmentRepo().GetByID(newContext(), st.enrollmentID)
	assert.Equal(t, nil, err)
	return e
}

func (st *serviceTest) campaign(t *testing.T) model.Campaign {
	c, err := st.db.CampaignRepo().Get(newContext(), st.campaignID)
	assert.Equal(t, nil, err)
	return c
}

func (st *serviceTest) customer(t *testing.T) model.User {
	u, err := st.db.UserRepo().Get(newContext(), st.customerID)
	assert.Equal(t, nil, err)
	return u
}

func TestService_Create_NotEnrolled(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()
	now := time.Now()

	// a known customer who never joined the campaign
	err := st.db.UserRepo().Upsert(ctx, model.User{
		ID:         33,
		FirstName:  "Bob",
		Role:       model.UserRoleCustomer,
		CreatedAt:  now,
		LastActive: now,
	})
	assert.Equal(t, nil, err)

	_, err = st.svc.Create(ctx, st.campaignID, 33, "")
	assert.Equal(t, model.ErrNotFound, err)

	count, err := st.svc.CountPending(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), count)
}

func TestService_Create_Then_Approve(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()

	req, err := st.svc.Create(ctx, st.campaignID, st.customerID, "table 4")
	assert.Equal(t, nil, err)
	assert.Equal(t, model.RequestStatusPending, req.Status)
	assert.Equal(t, st.merchantID, req.MerchantID)
	assert.Equal(t, st.enrollmentID, req.EnrollmentID)

	count, err := st.svc.CountPending(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), count)

	pending, err := st.svc.ListPending(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(pending))
	assert.Equal(t, "Free Coffee", pending[0].CampaignName)
	assert.Equal(t, "Alice", pending[0].FirstName)
	assert.Equal(t, 0, pending[0].CurrentStamps)

	result, err := st.svc.Approve(ctx, req.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, req.ID, result.RequestID)
	assert.Equal(t, 1, result.NewStamps)
	assert.Equal(t, false, result.Completed)
	assert.Equal(t, st.customerID, result.CustomerID)

	e := st.enrollment(t)
	assert.Equal(t, 1, e.Stamps)
	assert.Equal(t, true, e.LastStampAt.Valid)
	assert.Equal(t, false, e.Completed)

	assert.Equal(t, int64(1), st.customer(t).TotalStampsEarned)

	stat, err := st.db.DailyStatRepo().Get(ctx, st.merchantID, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), stat.Visits)
	assert.Equal(t, int64(1), stat.StampsGiven)

	txns, err := st.db.StampTransactionRepo().ListByEnrollment(ctx, st.enrollmentID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(txns))
	assert.Equal(t, model.ActionTypeStampAdded, txns[0].ActionType)
	assert.Equal(t, 1, txns[0].StampsChange)

	// one for the merchant on create, one for the customer on approve
	unsent, err := st.db.NotificationRepo().CountUnsent(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(2), unsent)

	count, err = st.svc.CountPending(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), count)
}

func TestService_Approve_AlreadyProcessed(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()

	req, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
	assert.Equal(t, nil, err)

	result, err := st.svc.Approve(ctx, req.ID)
	assert.Equal(t, nil, err)
	assert.NotNil(t, result)

	result, err = st.svc.Approve(ctx, req.ID)
	assert.Equal(t, nil, err)
	assert.Nil(t, result)

	assert.Equal(t, 1, st.enrollment(t).Stamps)
	assert.Equal(t, int64(1), st.customer(t).TotalStampsEarned)
}

func TestService_Approve_Concurrent(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()

	req, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
	assert.Equal(t, nil, err)

	const callers = 4
	results := make([]*ApproveResult, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		index := i
		go func() {
			defer wg.Done()

			result, err := st.svc.Approve(ctx, req.ID)
			assert.Equal(t, nil, err)
			results[index] = result
		}()
	}
	wg.Wait()

	mutated := 0
	for _, result := range results {
		if result != nil {
			mutated++
		}
	}
	assert.Equal(t, 1, mutated)
	assert.Equal(t, 1, st.enrollment(t).Stamps)
	assert.Equal(t, int64(1), st.customer(t).TotalStampsEarned)
}

func TestService_Reject(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()

	req, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
	assert.Equal(t, nil, err)

	rejected, err := st.svc.Reject(ctx, req.ID, "not a real visit")
	assert.Equal(t, nil, err)
	assert.Equal(t, model.RequestStatusRejected, rejected.Status)
	assert.Equal(t, "not a real visit", rejected.RejectionReason.String)
	assert.Equal(t, true, rejected.ProcessedAt.Valid)

	// a rejection never touches the ledger
	assert.Equal(t, 0, st.enrollment(t).Stamps)
	assert.Equal(t, int64(0), st.customer(t).TotalStampsEarned)

	stat, err := st.db.DailyStatRepo().Get(ctx, st.merchantID, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), stat.Visits)

	result, err := st.svc.Approve(ctx, req.ID)
	assert.Equal(t, nil, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, st.enrollment(t).Stamps)
}

func TestService_Reject_AlreadyApproved(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()

	req, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
	assert.Equal(t, nil, err)

	_, err = st.svc.Approve(ctx, req.ID)
	assert.Equal(t, nil, err)

	rejected, err := st.svc.Reject(ctx, req.ID, "too late")
	assert.Equal(t, nil, err)
	assert.Nil(t, rejected)
	assert.Equal(t, 1, st.enrollment(t).Stamps)
}

func TestService_Completion_CountersMoveOnce(t *testing.T) {
	st := newServiceTest(t, 2)
	ctx := newContext()

	req1, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
	assert.Equal(t, nil, err)
	result, err := st.svc.Approve(ctx, req1.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, result.Completed)

	req2, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
	assert.Equal(t, nil, err)
	result, err = st.svc.Approve(ctx, req2.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, result.Completed)
	assert.Equal(t, 2, result.NewStamps)

	e := st.enrollment(t)
	assert.Equal(t, true, e.Completed)
	assert.Equal(t, true, e.CompletedAt.Valid)
	assert.Equal(t, int64(1), st.campaign(t).TotalCompletions)
	assert.Equal(t, int64(1), st.customer(t).TotalRewardsClaimed)

	// stamps past the target on an already completed enrollment
	// must not move the completion counters again
	req3, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
	assert.Equal(t, nil, err)
	result, err = st.svc.Approve(ctx, req3.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, result.Completed)
	assert.Equal(t, 3, result.NewStamps)

	assert.Equal(t, int64(1), st.campaign(t).TotalCompletions)
	assert.Equal(t, int64(1), st.customer(t).TotalRewardsClaimed)
	assert.Equal(t, int64(3), st.customer(t).TotalStampsEarned)
}

func TestService_Completion_AfterReset(t *testing.T) {
	st := newServiceTest(t, 2)
	ctx := newContext()

	for i := 0; i < 2; i++ {
		req, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
		assert.Equal(t, nil, err)
		_, err = st.svc.Approve(ctx, req.ID)
		assert.Equal(t, nil, err)
	}
	assert.Equal(t, int64(1), st.campaign(t).TotalCompletions)

	err := st.db.EnrollmentRepo().Reset(ctx, st.enrollmentID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, st.enrollment(t).Stamps)
	assert.Equal(t, false, st.enrollment(t).Completed)

	for i := 0; i < 2; i++ {
		req, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
		assert.Equal(t, nil, err)
		_, err = st.svc.Approve(ctx, req.ID)
		assert.Equal(t, nil, err)
	}
	assert.Equal(t, true, st.enrollment(t).Completed)
	assert.Equal(t, int64(2), st.campaign(t).TotalCompletions)
}

func TestService_ApproveAll(t *testing.T) {
	st := newServiceTest(t, 10)
	ctx := newContext()

	for i := 0; i < 3; i++ {
		_, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
		assert.Equal(t, nil, err)
	}

	count, err := st.svc.ApproveAll(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, st.enrollment(t).Stamps)

	pending, err := st.svc.CountPending(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), pending)

	count, err = st.svc.ApproveAll(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, count)
}

func TestService_GiveStamp(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()

	result, err := st.svc.GiveStamp(ctx, st.merchantID, st.campaignID, st.customerID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, result.NewStamps)
	assert.Equal(t, false, result.Completed)

	assert.Equal(t, 1, st.enrollment(t).Stamps)
	assert.Equal(t, int64(1), st.customer(t).TotalStampsEarned)

	stat, err := st.db.DailyStatRepo().Get(ctx, st.merchantID, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), stat.Visits)
	assert.Equal(t, int64(1), stat.StampsGiven)
}

func TestService_GiveStamp_NotOwner(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()

	result, err := st.svc.GiveStamp(ctx, 9999, st.campaignID, st.customerID)
	assert.Equal(t, model.ErrNotFound, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, st.enrollment(t).Stamps)
}

func TestService_Create_AutoApprove(t *testing.T) {
	st := newServiceTest(t, 5)
	ctx := newContext()

	err := st.db.UserRepo().InsertDefaultSettings(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	settings, err := st.db.UserRepo().GetSettings(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	settings.AutoApprove = true
	err = st.db.UserRepo().UpdateSettings(ctx, settings)
	assert.Equal(t, nil, err)

	req, err := st.svc.Create(ctx, st.campaignID, st.customerID, "")
	assert.Equal(t, nil, err)
	assert.Equal(t, model.RequestStatusApproved, req.Status)
	assert.Equal(t, 1, st.enrollment(t).Stamps)

	count, err := st.svc.CountPending(ctx, st.merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), count)
}

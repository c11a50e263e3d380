package stats

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository/memrepo"
	"github.com/stampme/stampme/service/notification"
)

type serviceTest struct {
	db     *memrepo.DB
	outbox *notification.Outbox
	svc    *Service
}

func newContext() context.Context {
	return context.Background()
}

func newServiceTest() *serviceTest {
	db := memrepo.New()
	outbox := notification.NewOutbox(db, db.NotificationRepo())
	svc := NewService(db, db.DailyStatRepo(), db.StampRequestRepo(), outbox, zap.NewNop())
	return &serviceTest{
		db:     db,
		outbox: outbox,
		svc:    svc,
	}
}

func (st *serviceTest) addMerchant(t *testing.T, id int64, summaryEnabled bool) {
	ctx := newContext()
	now := time.Now()

	err := st.db.UserRepo().Upsert(ctx, model.User{
		ID:               id,
		FirstName:        "Merchant",
		Role:             model.UserRoleMerchant,
		MerchantApproved: true,
		CreatedAt:        now,
		LastActive:       now,
	})
	assert.Equal(t, nil, err)

	err = st.db.UserRepo().InsertDefaultSettings(ctx, id)
	assert.Equal(t, nil, err)

	if !summaryEnabled {
		settings, err := st.db.UserRepo().GetSettings(ctx, id)
		assert.Equal(t, nil, err)
		settings.DailySummaryEnabled = false
		err = st.db.UserRepo().UpdateSettings(ctx, settings)
		assert.Equal(t, nil, err)
	}
}

func TestService_Increment_UpsertAdd(t *testing.T) {
	st := newServiceTest()
	ctx := newContext()
	now := time.Now()

	stat, err := st.svc.Get(ctx, 11, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), stat.Visits)
	assert.Equal(t, model.DateOf(now), stat.Date)

	err = st.svc.Increment(ctx, 11, now, model.StatDelta{Visits: 1, StampsGiven: 1})
	assert.Equal(t, nil, err)
	err = st.svc.Increment(ctx, 11, now, model.StatDelta{Visits: 1, NewCustomers: 1})
	assert.Equal(t, nil, err)

	stat, err = st.svc.Get(ctx, 11, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(2), stat.Visits)
	assert.Equal(t, int64(1), stat.NewCustomers)
	assert.Equal(t, int64(1), stat.StampsGiven)
	assert.Equal(t, int64(0), stat.RewardsClaimed)

	// a different date gets its own row
	tomorrow := now.AddDate(0, 0, 1)
	err = st.svc.Increment(ctx, 11, tomorrow, model.StatDelta{Visits: 5})
	assert.Equal(t, nil, err)

	stat, err = st.svc.Get(ctx, 11, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(2), stat.Visits)

	stat, err = st.svc.Get(ctx, 11, tomorrow)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(5), stat.Visits)
}

func TestService_SendDailySummaries(t *testing.T) {
	st := newServiceTest()
	ctx := newContext()

	st.addMerchant(t, 11, true)
	st.addMerchant(t, 12, false)

	err := st.svc.Increment(ctx, 11, time.Now(), model.StatDelta{Visits: 3, StampsGiven: 3})
	assert.Equal(t, nil, err)

	err = st.svc.SendDailySummaries(ctx)
	assert.Equal(t, nil, err)

	batch, err := st.outbox.DrainBatch(ctx, 10)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(batch))
	assert.Equal(t, int64(11), batch[0].UserID)
	assert.Equal(t, true, strings.Contains(batch[0].Message, "3 visits"))
	assert.Equal(t, true, strings.Contains(batch[0].Message, "3 stamps given"))
	assert.Equal(t, false, strings.Contains(batch[0].Message, "pending"))
}

func TestService_SendDailySummaries_WithPending(t *testing.T) {
	st := newServiceTest()
	ctx := newContext()

	st.addMerchant(t, 11, true)

	_, err := st.db.StampRequestRepo().Insert(ctx, model.StampRequest{
		CampaignID: 1,
		CustomerID: 22,
		MerchantID: 11,
		Status:     model.RequestStatusPending,
		CreatedAt:  time.Now(),
	})
	assert.Equal(t, nil, err)

	err = st.svc.SendDailySummaries(ctx)
	assert.Equal(t, nil, err)

	batch, err := st.outbox.DrainBatch(ctx, 10)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(batch))
	assert.Equal(t, true, strings.Contains(batch[0].Message, "1 pending stamp requests"))
}

func TestUntilNext(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	// later today
	d := untilNext(base, 18, 0)
	assert.Equal(t, 6*time.Hour, d)

	// already passed, rolls to tomorrow
	d = untilNext(base, 9, 30)
	assert.Equal(t, 21*time.Hour+30*time.Minute, d)

	// exactly now rolls to tomorrow
	d = untilNext(base, 12, 0)
	assert.Equal(t, 24*time.Hour, d)
}

package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository/memrepo"
)

type serviceTest struct {
	db  *memrepo.DB
	svc *Service
}

func newContext() context.Context {
	return context.Background()
}

func newServiceTest() *serviceTest {
	db := memrepo.New()
	return &serviceTest{
		db:  db,
		svc: NewService(db, db.UserRepo(), db.NotificationRepo()),
	}
}

func TestService_EnsureUser(t *testing.T) {
	st := newServiceTest()
	ctx := newContext()

	created, err := st.svc.EnsureUser(ctx, 22, "alice", "Alice")
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(22), created.ID)
	assert.Equal(t, "alice", created.Username.String)
	assert.Equal(t, model.UserRoleCustomer, created.Role)

	// second contact refreshes the profile, keeps role and counters
	err = st.svc.RequestMerchantAccess(ctx, 22)
	assert.Equal(t, nil, err)

	again, err := st.svc.EnsureUser(ctx, 22, "alice_new", "Alice")
	assert.Equal(t, nil, err)
	assert.Equal(t, "alice_new", again.Username.String)
	assert.Equal(t, model.UserRoleMerchant, again.Role)
	assert.Equal(t, created.CreatedAt, again.CreatedAt)
}

func TestService_EnsureUser_NoUsername(t *testing.T) {
	st := newServiceTest()

	created, err := st.svc.EnsureUser(newContext(), 22, "", "Alice")
	assert.Equal(t, nil, err)
	assert.Equal(t, false, created.Username.Valid)
}

func TestService_MerchantApprovalFlow(t *testing.T) {
	st := newServiceTest()
	ctx := newContext()

	const adminID = 1
	const merchantID = 22

	_, err := st.svc.EnsureUser(ctx, merchantID, "bob", "Bob")
	assert.Equal(t, nil, err)

	approved, err := st.svc.IsMerchantApproved(ctx, merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, approved)

	err = st.svc.RequestMerchantAccess(ctx, merchantID)
	assert.Equal(t, nil, err)

	pending, err := st.svc.PendingMerchants(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(pending))
	assert.Equal(t, int64(merchantID), pending[0].ID)

	approved, err = st.svc.IsMerchantApproved(ctx, merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, approved)

	err = st.svc.ApproveMerchant(ctx, adminID, merchantID)
	assert.Equal(t, nil, err)

	approved, err = st.svc.IsMerchantApproved(ctx, merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, approved)

	merchant, err := st.svc.Get(ctx, merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(adminID), merchant.MerchantApprovedBy.Int64)
	assert.Equal(t, true, merchant.MerchantApprovedAt.Valid)

	pending, err = st.svc.PendingMerchants(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(pending))

	// default settings seeded and the merchant notified
	settings, err := st.svc.GetSettings(ctx, merchantID)
	assert.Equal(t, nil, err)
	assert.Equal(t, model.DefaultMerchantSettings(merchantID), settings)

	count, err := st.db.NotificationRepo().CountUnsent(ctx)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), count)
}

func TestService_IsMerchantApproved_UnknownUser(t *testing.T) {
	st := newServiceTest()

	approved, err := st.svc.IsMerchantApproved(newContext(), 404)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, approved)
}

func TestService_GetSettings_CreatesDefault(t *testing.T) {
	st := newServiceTest()
	ctx := newContext()

	settings, err := st.svc.GetSettings(ctx, 22)
	assert.Equal(t, nil, err)
	assert.Equal(t, model.DefaultMerchantSettings(22), settings)
	assert.Equal(t, true, settings.RequireApproval)
	assert.Equal(t, 18, settings.NotificationHour)
}

func TestService_UpdateSettings(t *testing.T) {
	st := newServiceTest()
	ctx := newContext()

	settings, err := st.svc.GetSettings(ctx, 22)
	assert.Equal(t, nil, err)

	settings.AutoApprove = true
	settings.NotificationHour = 20
	err = st.svc.UpdateSettings(ctx, settings)
	assert.Equal(t, nil, err)

	stored, err := st.svc.GetSettings(ctx, 22)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, stored.AutoApprove)
	assert.Equal(t, 20, stored.NotificationHour)
}

func TestService_Get_NotFound(t *testing.T) {
	st := newServiceTest()

	_, err := st.svc.Get(newContext(), 404)
	assert.Equal(t, model.ErrNotFound, err)
}

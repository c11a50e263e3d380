package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
	"github.com/stampme/stampme/repository/memrepo"
)

func newContext() context.Context {
	return context.Background()
}

func TestCampaignCache_ReadThrough(t *testing.T) {
	db := memrepo.New()
	raw := db.CampaignRepo()
	cached := repository.NewCampaignCache(raw, 1024*1024, 60)

	ctx := newContext()
	id, err := raw.Insert(ctx, model.Campaign{
		MerchantID:   11,
		Name:         "Free Coffee",
		StampsNeeded: 5,
		Active:       true,
		CreatedAt:    time.Now(),
	})
	assert.Equal(t, nil, err)

	campaign, err := cached.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Free Coffee", campaign.Name)
	assert.Equal(t, int64(0), campaign.TotalJoins)

	// counter moves through the raw repository, the cached read may
	// serve the previous value until the TTL expires
	err = raw.IncreaseJoins(ctx, id)
	assert.Equal(t, nil, err)

	campaign, err = cached.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), campaign.TotalJoins)

	fresh, err := raw.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), fresh.TotalJoins)
}

func TestCampaignCache_DeactivateInvalidates(t *testing.T) {
	db := memrepo.New()
	raw := db.CampaignRepo()
	cached := repository.NewCampaignCache(raw, 1024*1024, 60)

	ctx := newContext()
	id, err := raw.Insert(ctx, model.Campaign{
		MerchantID:   11,
		Name:         "Free Coffee",
		StampsNeeded: 5,
		Active:       true,
		CreatedAt:    time.Now(),
	})
	assert.Equal(t, nil, err)

	campaign, err := cached.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, campaign.Active)

	err = cached.Deactivate(ctx, id)
	assert.Equal(t, nil, err)

	campaign, err = cached.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, campaign.Active)
}

func TestCampaignCache_NotFound(t *testing.T) {
	db := memrepo.New()
	cached := repository.NewCampaignCache(db.CampaignRepo(), 1024*1024, 60)

	_, err := cached.Get(newContext(), 404)
	assert.Equal(t, model.ErrNotFound, err)
}

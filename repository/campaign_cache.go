package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/coocood/freecache"

	"github.com/stampme/stampme/model"
)

// campaignCache is a read-through cache in front of the campaign
// repository. Only Get is cached, with a short TTL: the campaign
// definition is immutable after creation, the lifetime counters may be
// up to expireSeconds stale. Write paths must use the raw repository.
type campaignCache struct {
	Campaign

	cache         *freecache.Cache
	expireSeconds int
}

// NewCampaignCache ...
func NewCampaignCache(repo Campaign, cacheSize int, expireSeconds int) Campaign {
	return &campaignCache{
		Campaign: repo,

		cache:         freecache.NewCache(cacheSize),
		expireSeconds: expireSeconds,
	}
}

func campaignCacheKey(id int64) []byte {
	return []byte("campaign:" + strconv.FormatInt(id, 10))
}

// Get ...
func (c *campaignCache) Get(ctx context.Context, id int64) (model.Campaign, error) {
	key := campaignCacheKey(id)

	data, err := c.cache.Get(key)
	if err == nil {
		var campaign model.Campaign
		if err := json.Unmarshal(data, &campaign); err == nil {
			return campaign, nil
		}
	}

	campaign, err := c.Campaign.Get(ctx, id)
	if err != nil {
		return model.Campaign{}, err
	}

	if data, err := json.Marshal(campaign); err == nil {
		_ = c.cache.Set(key, data, c.expireSeconds)
	}
	return campaign, nil
}

// Deactivate ...
func (c *campaignCache) Deactivate(ctx context.Context, id int64) error {
	err := c.Campaign.Deactivate(ctx, id)
	if err != nil {
		return err
	}
	c.cache.Del(campaignCacheKey(id))
	return nil
}

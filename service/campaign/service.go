package campaign

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

// Min and max stamp targets a campaign may declare.
const (
	MinStampsNeeded = 1
	MaxStampsNeeded = 50
)

// ErrMerchantNotApproved ...
var ErrMerchantNotApproved = errors.New("merchant not approved")

// Service owns campaign and reward tier definitions.
type Service struct {
	provider     repository.Provider
	campaignRepo repository.Campaign
	userRepo     repository.User
	enrollRepo   repository.Enrollment
}

// NewService ...
func NewService(
	provider repository.Provider,
	campaignRepo repository.Campaign,
	userRepo repository.User,
	enrollRepo repository.Enrollment,
) *Service {
	return &Service{
		provider:     provider,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		enrollRepo:   enrollRepo,
	}
}

// CreateInput ...
type CreateInput struct {
	Name              string
	StampsNeeded      int
	Description       string
	RewardDescription string
	ExpiresDays       int
}

// Create validates the input, checks merchant approval and inserts the
// campaign. Validation failures reject before any write.
func (s *Service) Create(ctx context.Context, merchantID int64, input CreateInput) (model.Campaign, error) {
	if input.Name == "" {
		return model.Campaign{}, model.NewValidationError("name", "must not be empty")
	}
	if input.StampsNeeded < MinStampsNeeded || input.StampsNeeded > MaxStampsNeeded {
		return model.Campaign{}, model.NewValidationError("stamps_needed", "must be between 1 and 50")
	}

	merchant, err := s.userRepo.Get(s.provider.Readonly(ctx), merchantID)
	if err != nil {
		return model.Campaign{}, err
	}
	if merchant.Role != model.UserRoleMerchant || !merchant.MerchantApproved {
		return model.Campaign{}, ErrMerchantNotApproved
	}

	now := time.Now()
	campaign := model.Campaign{
		MerchantID:        merchantID,
		Name:              input.Name,
		Description:       nullString(input.Description),
		StampsNeeded:      input.StampsNeeded,
		RewardDescription: nullString(input.RewardDescription),
		Active:            true,
		CreatedAt:         now,
	}
	if input.ExpiresDays > 0 {
		campaign.ExpiresAt = sql.NullTime{
			Valid: true,
			Time:  now.AddDate(0, 0, input.ExpiresDays),
		}
	}

	err = s.provider.Transact(ctx, func(ctx context.Context) error {
		id, err := s.campaignRepo.Insert(ctx, campaign)
		if err != nil {
			return err
		}
		campaign.ID = id
		return nil
	})
	if err != nil {
		return model.Campaign{}, err
	}
	return campaign, nil
}

// Get ...
func (s *Service) Get(ctx context.Context, id int64) (model.Campaign, error) {
	return s.campaignRepo.Get(s.provider.Readonly(ctx), id)
}

// ListByMerchant ...
func (s *Service) ListByMerchant(ctx context.Context, merchantID int64) ([]model.Campaign, error) {
	return s.campaignRepo.ListByMerchant(s.provider.Readonly(ctx), merchantID)
}

// AddRewardTier appends an informational milestone. No ordering
// constraint is enforced against stamps_needed: tiers beyond the
// completion target are accepted as-is.
func (s *Service) AddRewardTier(
	ctx context.Context, merchantID int64, campaignID int64,
	stampsRequired int, name string, description string,
) (model.RewardTier, error) {
	if name == "" {
		return model.RewardTier{}, model.NewValidationError("reward_name", "must not be empty")
	}

	campaign, err := s.campaignRepo.Get(s.provider.Readonly(ctx), campaignID)
	if err != nil {
		return model.RewardTier{}, err
	}
	if campaign.MerchantID != merchantID {
		return model.RewardTier{}, model.ErrNotFound
	}

	tier := model.RewardTier{
		CampaignID:     campaignID,
		StampsRequired: stampsRequired,
		RewardName:     name,
		Description:    nullString(description),
	}
	err = s.provider.Transact(ctx, func(ctx context.Context) error {
		id, err := s.campaignRepo.InsertRewardTier(ctx, tier)
		if err != nil {
			return err
		}
		tier.ID = id
		return nil
	})
	if err != nil {
		return model.RewardTier{}, err
	}
	return tier, nil
}

// ListRewardTiers ...
func (s *Service) ListRewardTiers(ctx context.Context, campaignID int64) ([]model.RewardTier, error) {
	return s.campaignRepo.ListRewardTiers(s.provider.Readonly(ctx), campaignID)
}

// Deactivate soft-deactivates the merchant's campaign.
func (s *Service) Deactivate(ctx context.Context, merchantID int64, campaignID int64) error {
	campaign, err := s.campaignRepo.Get(s.provider.Readonly(ctx), campaignID)
	if err != nil {
		return err
	}
	if campaign.MerchantID != merchantID {
		return model.ErrNotFound
	}

	return s.provider.Transact(ctx, func(ctx context.Context) error {
		return s.campaignRepo.Deactivate(ctx, campaignID)
	})
}

// Stats ...
type Stats struct {
	TotalCustomers int
	Completed      int
	TotalStamps    int
	CompletionRate float64
	AvgStamps      float64
}

// ComputeStats aggregates enrollment progress for a merchant's campaign.
func (s *Service) ComputeStats(ctx context.Context, merchantID int64, campaignID int64) (Stats, error) {
	readCtx := s.provider.Readonly(ctx)

	campaign, err := s.campaignRepo.Get(readCtx, campaignID)
	if err != nil {
		return Stats{}, err
	}
	if campaign.MerchantID != merchantID {
		return Stats{}, model.ErrNotFound
	}

	members, err := s.enrollRepo.ListByCampaign(readCtx, campaignID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{TotalCustomers: len(members)}
	for _, m := range members {
		stats.TotalStamps += m.Stamps
		if m.Completed {
			stats.Completed++
		}
	}
	if len(members) > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(len(members)) * 100
		stats.AvgStamps = float64(stats.TotalStamps) / float64(len(members))
	}
	return stats, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{Valid: true, String: s}
}

package enrollment

import (
	"context"
	"errors"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

// ErrCampaignInactive ...
var ErrCampaignInactive = errors.New("campaign inactive or expired")

// ErrNotCampaignOwner ...
var ErrNotCampaignOwner = errors.New("not the campaign owner")

// Service owns the enrollment ledger: per-customer progress within a
// campaign. The stamping workflow is the only other writer of stamps.
type Service struct {
	provider     repository.Provider
	campaignRepo repository.Campaign
	enrollRepo   repository.Enrollment
	txnRepo      repository.StampTransaction
	statsRepo    repository.DailyStat
}

// NewService ...
func NewService(
	provider repository.Provider,
	campaignRepo repository.Campaign,
	enrollRepo repository.Enrollment,
	txnRepo repository.StampTransaction,
	statsRepo repository.DailyStat,
) *Service {
	return &Service{
		provider:     provider,
		campaignRepo: campaignRepo,
		enrollRepo:   enrollRepo,
		txnRepo:      txnRepo,
		statsRepo:    statsRepo,
	}
}

// Enroll is an idempotent upsert: an existing enrollment is returned
// unchanged with its original joined_at. campaign.total_joins and the
// merchant's new-customer counter move only on first creation.
func (s *Service) Enroll(ctx context.Context, campaignID int64, customerID int64) (model.Enrollment, error) {
	now := time.Now()

	campaign, err := s.campaignRepo.Get(s.provider.Readonly(ctx), campaignID)
	if err != nil {
		return model.Enrollment{}, err
	}
	if !campaign.Active || campaign.Expired(now) {
		return model.Enrollment{}, ErrCampaignInactive
	}

	var result model.Enrollment
	err = s.provider.Transact(ctx, func(ctx context.Context) error {
		id, created, err := s.enrollRepo.Upsert(ctx, campaignID, customerID, now)
		if err != nil {
			return err
		}
		if created {
			if err := s.campaignRepo.IncreaseJoins(ctx, campaignID); err != nil {
				return err
			}
			delta := model.StatDelta{NewCustomers: 1}
			if err := s.statsRepo.Increment(ctx, campaign.MerchantID, model.DateOf(now), delta); err != nil {
				return err
			}
		}

		result, err = s.enrollRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return model.Enrollment{}, err
	}
	return result, nil
}

// Get ...
func (s *Service) Get(ctx context.Context, campaignID int64, customerID int64) (model.Enrollment, error) {
	return s.enrollRepo.Get(s.provider.Readonly(ctx), campaignID, customerID)
}

// ListByCampaign ...
func (s *Service) ListByCampaign(ctx context.Context, campaignID int64) ([]model.CampaignMember, error) {
	return s.enrollRepo.ListByCampaign(s.provider.Readonly(ctx), campaignID)
}

// ListByCustomer ...
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]model.WalletItem, error) {
	return s.enrollRepo.ListByCustomer(s.provider.Readonly(ctx), customerID)
}

// ResetAfterClaim sets the enrollment back to zero stamps after the
// merchant hands out the reward, recording a reward_claims audit row
// and the merchant's daily claim counter in the same transaction.
func (s *Service) ResetAfterClaim(ctx context.Context, merchantID int64, enrollmentID int64) error {
	now := time.Now()

	return s.provider.Transact(ctx, func(ctx context.Context) error {
		enrollment, err := s.enrollRepo.LockByID(ctx, enrollmentID)
		if err != nil {
			return err
		}

		campaign, err := s.campaignRepo.Get(ctx, enrollment.CampaignID)
		if err != nil {
			return err
		}
		if campaign.MerchantID != merchantID {
			return ErrNotCampaignOwner
		}

		claim := model.RewardClaim{
			EnrollmentID: enrollmentID,
			MerchantID:   merchantID,
			StampsSpent:  enrollment.Stamps,
			CreatedAt:    now,
		}
		if err := s.enrollRepo.InsertRewardClaim(ctx, claim); err != nil {
			return err
		}

		txn := model.StampTransaction{
			EnrollmentID: enrollmentID,
			MerchantID:   merchantID,
			ActionType:   model.ActionTypeReset,
			StampsChange: -enrollment.Stamps,
			CreatedAt:    now,
		}
		if err := s.txnRepo.Insert(ctx, txn); err != nil {
			return err
		}

		delta := model.StatDelta{RewardsClaimed: 1}
		if err := s.statsRepo.Increment(ctx, merchantID, model.DateOf(now), delta); err != nil {
			return err
		}

		return s.enrollRepo.Reset(ctx, enrollmentID)
	})
}

// SaveRating stores the customer's post-completion rating.
func (s *Service) SaveRating(ctx context.Context, enrollmentID int64, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return model.NewValidationError("rating", "must be between 1 and 5")
	}
	return s.provider.Transact(ctx, func(ctx context.Context) error {
		return s.enrollRepo.SaveRating(ctx, enrollmentID, rating, feedback)
	})
}

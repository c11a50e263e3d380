package referral

import (
	"context"
	"errors"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

// Service grants bonus stamps on referred sign-ups.
//
// GrantBonus deliberately bypasses the request workflow and the
// completion-counter bookkeeping, and carries no guard against being
// invoked twice for the same referral: calling it twice doubles the
// bonus. Both behaviors mirror the original product and are kept until
// product intent is clarified.
type Service struct {
	provider     repository.Provider
	referralRepo repository.Referral
	enrollRepo   repository.Enrollment
	campaignRepo repository.Campaign
	txnRepo      repository.StampTransaction
}

// NewService ...
func NewService(
	provider repository.Provider,
	referralRepo repository.Referral,
	enrollRepo repository.Enrollment,
	campaignRepo repository.Campaign,
	txnRepo repository.StampTransaction,
) *Service {
	return &Service{
		provider:     provider,
		referralRepo: referralRepo,
		enrollRepo:   enrollRepo,
		campaignRepo: campaignRepo,
		txnRepo:      txnRepo,
	}
}

// RecordReferral creates the referral row for the referred customer's
// first join. Referrer-vs-referred identity is checked at the call
// site, not here.
func (s *Service) RecordReferral(
	ctx context.Context, referrerID int64, referredID int64, campaignID int64,
) (model.Referral, error) {
	ref := model.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
		CampaignID: campaignID,
		CreatedAt:  time.Now(),
	}
	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		id, err := s.referralRepo.Insert(ctx, ref)
		if err != nil {
			return err
		}
		ref.ID = id
		return nil
	})
	if err != nil {
		return model.Referral{}, err
	}
	return ref, nil
}

// GrantBonus adds one stamp directly to the referrer's enrollment in
// the campaign. A missing enrollment is a silent no-op. The completion
// flag is recomputed so the ledger invariant holds, but campaign and
// user completion counters are not touched.
func (s *Service) GrantBonus(ctx context.Context, referrerID int64, campaignID int64) error {
	now := time.Now()

	return s.provider.Transact(ctx, func(ctx context.Context) error {
		enrollment, err := s.enrollRepo.Get(ctx, campaignID, referrerID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		newStamps, err := s.enrollRepo.AddStamp(ctx, enrollment.ID, now)
		if err != nil {
			return err
		}

		campaign, err := s.campaignRepo.Get(ctx, enrollment.CampaignID)
		if err != nil {
			return err
		}
		if newStamps >= campaign.StampsNeeded && !enrollment.Completed {
			if err := s.enrollRepo.SetCompleted(ctx, enrollment.ID, true, now); err != nil {
				return err
			}
		}

		txn := model.StampTransaction{
			EnrollmentID: enrollment.ID,
			MerchantID:   campaign.MerchantID,
			ActionType:   model.ActionTypeBonusStamp,
			StampsChange: 1,
			CreatedAt:    now,
		}
		return s.txnRepo.Insert(ctx, txn)
	})
}

// MarkBonusGiven flags the referral after its bonus has been granted.
func (s *Service) MarkBonusGiven(ctx context.Context, referralID int64) error {
	return s.provider.Transact(ctx, func(ctx context.Context) error {
		return s.referralRepo.MarkBonusGiven(ctx, referralID)
	})
}

// GetByReferred ...
func (s *Service) GetByReferred(ctx context.Context, referredID int64, campaignID int64) (model.Referral, error) {
	return s.referralRepo.GetByReferred(s.provider.Readonly(ctx), referredID, campaignID)
}

// ListByReferrer returns the referrals a customer has brought in, oldest first.
func (s *Service) ListByReferrer(ctx context.Context, referrerID int64) ([]model.Referral, error) {
	return s.referralRepo.ListByReferrer(s.provider.Readonly(ctx), referrerID)
}

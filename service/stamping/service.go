package stamping

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

var tracer = otel.Tracer("github.com/stampme/stampme/service/stamping")

// Service is the stamp-request approval workflow: a state machine over
// pending/approved/rejected requests, and the only writer of
// enrollment stamps on the approval path.
type Service struct {
	provider     repository.Provider
	requestRepo  repository.StampRequest
	enrollRepo   repository.Enrollment
	campaignRepo repository.Campaign
	userRepo     repository.User
	txnRepo      repository.StampTransaction
	statsRepo    repository.DailyStat
	notifRepo    repository.Notification
}

// NewService ...
func NewService(
	provider repository.Provider,
	requestRepo repository.StampRequest,
	enrollRepo repository.Enrollment,
	campaignRepo repository.Campaign,
	userRepo repository.User,
	txnRepo repository.StampTransaction,
	statsRepo repository.DailyStat,
	notifRepo repository.Notification,
) *Service {
	return &Service{
		provider:     provider,
		requestRepo:  requestRepo,
		enrollRepo:   enrollRepo,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		txnRepo:      txnRepo,
		statsRepo:    statsRepo,
		notifRepo:    notifRepo,
	}
}

// ApproveResult ...
type ApproveResult struct {
	RequestID  int64
	NewStamps  int
	Completed  bool
	Campaign   model.Campaign
	CustomerID int64
}

// Create files a pending request for one unit of progress credit and
// notifies the merchant. When the merchant has auto-approve enabled the
// request is approved immediately in a follow-up transaction.
func (s *Service) Create(
	ctx context.Context, campaignID int64, customerID int64, message string,
) (model.StampRequest, error) {
	now := time.Now()
	readCtx := s.provider.Readonly(ctx)

	campaign, err := s.campaignRepo.Get(readCtx, campaignID)
	if err != nil {
		return model.StampRequest{}, err
	}

	enrollment, err := s.enrollRepo.Get(readCtx, campaignID, customerID)
	if err != nil {
		return model.StampRequest{}, err
	}

	customer, err := s.userRepo.Get(readCtx, customerID)
	if err != nil {
		return model.StampRequest{}, err
	}

	req := model.StampRequest{
		CampaignID:      campaignID,
		CustomerID:      customerID,
		MerchantID:      campaign.MerchantID,
		EnrollmentID:    enrollment.ID,
		Status:          model.RequestStatusPending,
		CustomerMessage: nullString(message),
		CreatedAt:       now,
	}
	err = s.provider.Transact(ctx, func(ctx context.Context) error {
		id, err := s.requestRepo.Insert(ctx, req)
		if err != nil {
			return err
		}
		req.ID = id

		return s.notifRepo.Insert(ctx, campaign.MerchantID, msgNewRequest(customer), now)
	})
	if err != nil {
		return model.StampRequest{}, err
	}

	if s.autoApprove(readCtx, campaign.MerchantID) {
		result, err := s.Approve(ctx, req.ID)
		if err != nil {
			return model.StampRequest{}, err
		}
		// a nil result means another writer processed the request first
		if result != nil {
			req.Status = model.RequestStatusApproved
		}
	}
	return req, nil
}

func (s *Service) autoApprove(readCtx context.Context, merchantID int64) bool {
	settings, err := s.userRepo.GetSettings(readCtx, merchantID)
	if err != nil {
		return false
	}
	return settings.AutoApprove
}

// Approve executes the pending->approved transition as one atomic
// unit. It returns (nil, nil) when the request is no longer pending:
// concurrent approvals of the same id yield exactly one mutation, all
// other callers observe the already-processed state.
func (s *Service) Approve(ctx context.Context, requestID int64) (*ApproveResult, error) {
	ctx, span := tracer.Start(ctx, "stamping.Approve")
	defer span.End()

	now := time.Now()

	var result *ApproveResult
	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		req, err := s.requestRepo.LockPending(ctx, requestID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		enrollment, err := s.enrollRepo.LockByID(ctx, req.EnrollmentID)
		if err != nil {
			return err
		}

		newStamps, err := s.enrollRepo.AddStamp(ctx, req.EnrollmentID, now)
		if err != nil {
			return err
		}

		campaign, err := s.campaignRepo.Get(ctx, req.CampaignID)
		if err != nil {
			return err
		}

		completed := newStamps >= campaign.StampsNeeded
		if completed && !enrollment.Completed {
			if err := s.enrollRepo.MarkCompleted(ctx, req.EnrollmentID, now); err != nil {
				return err
			}
			if err := s.campaignRepo.IncreaseCompletions(ctx, req.CampaignID); err != nil {
				return err
			}
			if err := s.userRepo.AddRewardsClaimed(ctx, req.CustomerID, 1); err != nil {
				return err
			}
			campaign.TotalCompletions++
		}

		if err := s.userRepo.AddStampsEarned(ctx, req.CustomerID, 1); err != nil {
			return err
		}

		delta := model.StatDelta{Visits: 1, StampsGiven: 1}
		if err := s.statsRepo.Increment(ctx, req.MerchantID, model.DateOf(now), delta); err != nil {
			return err
		}

		txn := model.StampTransaction{
			EnrollmentID: req.EnrollmentID,
			MerchantID:   req.MerchantID,
			ActionType:   model.ActionTypeStampAdded,
			StampsChange: 1,
			CreatedAt:    now,
		}
		if err := s.txnRepo.Insert(ctx, txn); err != nil {
			return err
		}

		if err := s.requestRepo.MarkApproved(ctx, requestID, now); err != nil {
			return err
		}

		message := msgStampApproved(campaign, newStamps)
		if completed {
			message = msgRewardEarned(campaign)
		}
		if err := s.notifRepo.Insert(ctx, req.CustomerID, message, now); err != nil {
			return err
		}

		result = &ApproveResult{
			RequestID:  requestID,
			NewStamps:  newStamps,
			Completed:  completed,
			Campaign:   campaign,
			CustomerID: req.CustomerID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil {
		approvedTotal.Inc()
	}
	return result, nil
}

// Reject moves a pending request to rejected without touching the
// ledger. Returns (nil, nil) when the request is no longer pending.
func (s *Service) Reject(ctx context.Context, requestID int64, reason string) (*model.StampRequest, error) {
	now := time.Now()

	var result *model.StampRequest
	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		req, err := s.requestRepo.LockPending(ctx, requestID)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.requestRepo.MarkRejected(ctx, requestID, reason, now); err != nil {
			return err
		}

		if err := s.notifRepo.Insert(ctx, req.CustomerID, msgRequestRejected(reason), now); err != nil {
			return err
		}

		req.Status = model.RequestStatusRejected
		req.RejectionReason = nullString(reason)
		req.ProcessedAt = sql.NullTime{Valid: true, Time: now}
		result = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil {
		rejectedTotal.Inc()
	}
	return result, nil
}

// ApproveAll approves every currently pending request for the merchant
// sequentially. Each approval is independently atomic: a failure
// partway leaves earlier approvals committed.
func (s *Service) ApproveAll(ctx context.Context, merchantID int64) (int, error) {
	ids, err := s.requestRepo.ListPendingIDs(s.provider.Readonly(ctx), merchantID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		result, err := s.Approve(ctx, id)
		if err != nil {
			return count, err
		}
		if result != nil {
			count++
		}
	}
	return count, nil
}

// ListPending ...
func (s *Service) ListPending(ctx context.Context, merchantID int64) ([]model.PendingRequest, error) {
	return s.requestRepo.ListPending(s.provider.Readonly(ctx), merchantID)
}

// CountPending ...
func (s *Service) CountPending(ctx context.Context, merchantID int64) (int64, error) {
	return s.requestRepo.CountPending(s.provider.Readonly(ctx), merchantID)
}

// GiveStamp is the merchant's direct trust path around the request
// workflow: no customer-initiated request, but the same atomic
// bookkeeping as Approve.
func (s *Service) GiveStamp(
	ctx context.Context, merchantID int64, campaignID int64, customerID int64,
) (*ApproveResult, error) {
	now := time.Now()

	var result *ApproveResult
	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		campaign, err := s.campaignRepo.Get(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign.MerchantID != merchantID {
			return model.ErrNotFound
		}

		enrollment, err := s.enrollRepo.Get(ctx, campaignID, customerID)
		if err != nil {
			return err
		}
		enrollment, err = s.enrollRepo.LockByID(ctx, enrollment.ID)
		if err != nil {
			return err
		}

		newStamps, err := s.enrollRepo.AddStamp(ctx, enrollment.ID, now)
		if err != nil {
			return err
		}

		completed := newStamps >= campaign.StampsNeeded
		if completed && !enrollment.Completed {
			if err := s.enrollRepo.MarkCompleted(ctx, enrollment.ID, now); err != nil {
				return err
			}
			if err := s.campaignRepo.IncreaseCompletions(ctx, campaignID); err != nil {
				return err
			}
			if err := s.userRepo.AddRewardsClaimed(ctx, customerID, 1); err != nil {
				return err
			}
			campaign.TotalCompletions++
		}

		if err := s.userRepo.AddStampsEarned(ctx, customerID, 1); err != nil {
			return err
		}

		delta := model.StatDelta{Visits: 1, StampsGiven: 1}
		if err := s.statsRepo.Increment(ctx, merchantID, model.DateOf(now), delta); err != nil {
			return err
		}

		txn := model.StampTransaction{
			EnrollmentID: enrollment.ID,
			MerchantID:   merchantID,
			ActionType:   model.ActionTypeStampAdded,
			StampsChange: 1,
			CreatedAt:    now,
		}
		if err := s.txnRepo.Insert(ctx, txn); err != nil {
			return err
		}

		message := msgStampApproved(campaign, newStamps)
		if completed {
			message = msgRewardEarned(campaign)
		}
		if err := s.notifRepo.Insert(ctx, customerID, message, now); err != nil {
			return err
		}

		result = &ApproveResult{
			NewStamps:  newStamps,
			Completed:  completed,
			Campaign:   campaign,
			CustomerID: customerID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{Valid: true, String: s}
}

package stats

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
	"github.com/stampme/stampme/service/notification"
)

// Service owns per-merchant daily counters and the daily summary job.
type Service struct {
	provider    repository.Provider
	statsRepo   repository.DailyStat
	requestRepo repository.StampRequest
	outbox      *notification.Outbox
	logger      *zap.Logger
}

// NewService ...
func NewService(
	provider repository.Provider,
	statsRepo repository.DailyStat,
	requestRepo repository.StampRequest,
	outbox *notification.Outbox,
	logger *zap.Logger,
) *Service {
	return &Service{
		provider:    provider,
		statsRepo:   statsRepo,
		requestRepo: requestRepo,
		outbox:      outbox,
		logger:      logger,
	}
}

// Increment applies upsert-and-add deltas to the (merchant, date) row.
func (s *Service) Increment(ctx context.Context, merchantID int64, date time.Time, delta model.StatDelta) error {
	return s.provider.Transact(ctx, func(ctx context.Context) error {
		return s.statsRepo.Increment(ctx, merchantID, model.DateOf(date), delta)
	})
}

// Get returns the merchant's counters for the date, zeroed when absent.
func (s *Service) Get(ctx context.Context, merchantID int64, date time.Time) (model.DailyStat, error) {
	return s.statsRepo.Get(s.provider.Readonly(ctx), merchantID, model.DateOf(date))
}

// SendDailySummaries queues a summary notification for every approved
// merchant with the daily summary enabled. A failure for one merchant
// is logged and does not stop the rest.
func (s *Service) SendDailySummaries(ctx context.Context) error {
	readCtx := s.provider.Readonly(ctx)

	merchants, err := s.statsRepo.ListSummaryMerchants(readCtx)
	if err != nil {
		return err
	}

	today := model.DateOf(time.Now())
	for _, merchant := range merchants {
		stat, err := s.statsRepo.Get(readCtx, merchant.ID, today)
		if err != nil {
			s.logger.Error("daily summary: load stats failed",
				zap.Int64("merchant_id", merchant.ID), zap.Error(err))
			continue
		}

		pending, err := s.requestRepo.CountPending(readCtx, merchant.ID)
		if err != nil {
			s.logger.Error("daily summary: count pending failed",
				zap.Int64("merchant_id", merchant.ID), zap.Error(err))
			continue
		}

		message := summaryMessage(today, stat, pending)
		if err := s.outbox.EnqueueNow(ctx, merchant.ID, message); err != nil {
			s.logger.Error("daily summary: enqueue failed",
				zap.Int64("merchant_id", merchant.ID), zap.Error(err))
		}
	}
	return nil
}

func summaryMessage(date time.Time, stat model.DailyStat, pending int64) string {
	message := fmt.Sprintf(
		"Daily summary for %s: %d visits, %d new customers, %d stamps given, %d rewards claimed.",
		date.Format("January 2, 2006"),
		stat.Visits, stat.NewCustomers, stat.StampsGiven, stat.RewardsClaimed,
	)
	if pending > 0 {
		message += fmt.Sprintf(" You have %d pending stamp requests.", pending)
	}
	return message
}

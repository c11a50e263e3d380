package notification

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Sender is the chat-transport collaborator. The core never
// understands chat protocol framing, it only hands over text.
type Sender interface {
	SendText(ctx context.Context, userID int64, text string) error
}

var deliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stampme",
	Subsystem: "outbox",
	Name:      "delivered_total",
	Help:      "Total number of delivered notifications.",
})

var deadLetteredTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stampme",
	Subsystem: "outbox",
	Name:      "dead_lettered_total",
	Help:      "Total number of notifications dropped after exhausting retries.",
})

var unsentDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "stampme",
	Subsystem: "outbox",
	Name:      "unsent_depth",
	Help:      "Unsent notifications remaining in the outbox.",
})

// Deliverer drains the outbox on a fixed interval. Rows are marked
// sent only on confirmed delivery; a failed delivery stays queued for
// the next cycle until MaxAttempts, then it is dead-lettered.
type Deliverer struct {
	outbox *Outbox
	sender Sender
	logger *zap.Logger

	interval    time.Duration
	batchSize   int
	maxAttempts int
}

// NewDeliverer ...
func NewDeliverer(
	outbox *Outbox, sender Sender, logger *zap.Logger,
	interval time.Duration, batchSize int, maxAttempts int,
) *Deliverer {
	return &Deliverer{
		outbox: outbox,
		sender: sender,
		logger: logger,

		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// Run polls the outbox until the context is canceled.
func (d *Deliverer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error("outbox drain cycle failed", zap.Error(err))
			}
		}
	}
}

// RunOnce executes a single drain cycle.
func (d *Deliverer) RunOnce(ctx context.Context) error {
	batch, err := d.outbox.DrainBatch(ctx, d.batchSize)
	if err != nil {
		return err
	}

	for _, notif := range batch {
		if err := d.sender.SendText(ctx, notif.UserID, notif.Message); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.Int64("notification_id", notif.ID),
				zap.Int64("user_id", notif.UserID),
				zap.Int("attempts", notif.Attempts+1),
				zap.Error(err),
			)
			if err := d.outbox.MarkFailed(ctx, notif.ID, d.maxAttempts); err != nil {
				return err
			}
			if notif.Attempts+1 >= d.maxAttempts {
				deadLetteredTotal.Inc()
			}
			continue
		}

		if err := d.outbox.MarkSent(ctx, notif.ID); err != nil {
			return err
		}
		deliveredTotal.Inc()
	}

	depth, err := d.outbox.CountUnsent(ctx)
	if err != nil {
		return err
	}
	unsentDepth.Set(float64(depth))
	return nil
}

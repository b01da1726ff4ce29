package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/notify"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// CompletedPoller scans for newly completed tickets on a fixed interval
// and pushes a summary to the notification sink. Scans never overlap:
// the loop runs one scan to completion before the next tick is taken.
// A failed scan is logged and the loop continues.
type CompletedPoller struct {
	tickets  repository.TicketRepository
	sink     notify.Sink
	seen     notify.SeenStore
	logger   *zap.Logger
	metrics  *observability.Metrics
	interval time.Duration
	address  string

	lastScan time.Time
}

// NewCompletedPoller builds the poller.
func NewCompletedPoller(
	tickets repository.TicketRepository,
	sink notify.Sink,
	seen notify.SeenStore,
	logger *zap.Logger,
	metrics *observability.Metrics,
	interval time.Duration,
	destinationAddress string,
) *CompletedPoller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CompletedPoller{
		tickets:  tickets,
		sink:     sink,
		seen:     seen,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
		address:  destinationAddress,
		lastScan: time.Now().Add(-interval),
	}
}

// Run loops until the context is cancelled.
func (p *CompletedPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("completed-ticket poller stopped")
			return
		case <-ticker.C:
			if err := p.ScanOnce(ctx); err != nil {
				p.logger.Error("completed-ticket scan failed; retrying next tick", zap.Error(err))
			}
		}
	}
}

// ScanOnce performs a single scan pass. Exported so tests and manual
// triggers can drive the poller without the ticker.
func (p *CompletedPoller) ScanOnce(ctx context.Context) error {
	since := p.lastScan
	scanStarted := time.Now()

	completed, err := p.tickets.ListCompletedSince(ctx, since)
	if err != nil {
		p.metrics.RecordPollerScan(true)
		return err
	}

	failures := 0
	for i := range completed {
		ticket := &completed[i]
		alreadySeen, err := p.seen.Seen(ctx, ticket.Number)
		if err != nil {
			// Dedup store trouble must not stop the scan; worst case
			// is a duplicate notification.
			p.logger.Warn("seen store unavailable", zap.Error(err))
		}
		if alreadySeen {
			continue
		}
		if err := p.notify(ctx, ticket); err != nil {
			failures++
			p.logger.Warn("notification failed",
				zap.String("ticket", ticket.Number), zap.Error(err))
			continue
		}
		// Marked only after the send, so a failed send is retried on a
		// later scan. A duplicate on that race is tolerated, a drop is
		// not.
		if _, err := p.seen.MarkSeen(ctx, ticket.Number); err != nil {
			p.logger.Warn("seen store unavailable", zap.Error(err))
		}
		p.metrics.RecordNotification()
	}

	// An undelivered ticket holds the watermark back so the next scan
	// picks it up again; delivered tickets are skipped via the seen set.
	if failures == 0 {
		p.lastScan = scanStarted
	}
	p.metrics.RecordPollerScan(false)
	return nil
}

func (p *CompletedPoller) notify(ctx context.Context, ticket *domain.Ticket) error {
	summary := notify.TicketSummary{
		Number:     ticket.Number,
		Title:      ticket.Title,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		Creator:    ticket.CreatorEmail,
		ResolvedAt: ticket.ResolvedAt,
	}
	return p.sink.Send(ctx, p.address, summary)
}

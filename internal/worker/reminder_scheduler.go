package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sealdesk/sealdesk/internal/mailer"
	"github.com/sealdesk/sealdesk/internal/repository"
)

// ReminderScheduler polls for submitters whose next sequential reminder is
// due and dispatches at most one email per submitter per pass.
//
// State lives in the database (reminders_sent, last_reminder_sent_at), so
// the loop is restart-safe: a send failure leaves both fields untouched and
// the same stage is retried on the next pass once the threshold still holds.
// Stages are never skipped or combined — a submitter overdue for its 2nd and
// 3rd reminder receives only the 2nd, then waits for a later pass.
//
// Sends are paced through a token-bucket limiter so one pass over a large
// candidate set does not saturate the email gateway.
type ReminderScheduler struct {
	repo     repository.SubmissionRepository
	mail     mailer.Mailer
	interval time.Duration
	cooldown time.Duration
	pace     *rate.Limiter
	log      *zap.Logger

	// Hook for metrics — injected by main so the scheduler stays metrics-agnostic.
	onSent func(stage int)
}

// NewReminderScheduler constructs the scheduler. sendsPerSecond controls
// inter-email spacing within one pass (2/sec ≈ 500 ms apart). onSent is
// optional (nil = no-op).
func NewReminderScheduler(
	repo repository.SubmissionRepository,
	mail mailer.Mailer,
	interval time.Duration,
	cooldown time.Duration,
	sendsPerSecond float64,
	logger *zap.Logger,
	onSent func(stage int),
) *ReminderScheduler {
	if onSent == nil {
		onSent = func(int) {}
	}
	return &ReminderScheduler{
		repo:     repo,
		mail:     mail,
		interval: interval,
		cooldown: cooldown,
		pace:     rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
		log:      logger,
		onSent:   onSent,
	}
}

// Run ticks every interval and evaluates all reminder candidates.
// Stops cleanly when ctx is cancelled.
func (rs *ReminderScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	rs.log.Info("reminder scheduler started",
		zap.Duration("interval", rs.interval),
		zap.Duration("cooldown", rs.cooldown),
	)

	for {
		select {
		case <-ctx.Done():
			rs.log.Info("reminder scheduler stopping")
			return
		case <-ticker.C:
			rs.Poll(ctx)
		}
	}
}

// Poll runs a single evaluation pass. Exported so tests can drive passes
// without waiting on the ticker.
func (rs *ReminderScheduler) Poll(ctx context.Context) {
	candidates, err := rs.repo.FindReminderCandidates(ctx)
	if err != nil {
		rs.log.Error("reminder poll error", zap.Error(err))
		return
	}

	sent := 0
	for _, sub := range candidates {
		if ctx.Err() != nil {
			return
		}

		// The eligibility query should exclude unconfigured rows; a
		// malformed config that slips through is skipped, not retried
		// into a crash loop.
		if sub.Reminders == nil || sub.Reminders.Validate() != nil {
			rs.log.Warn("skipping submitter with invalid reminder config",
				zap.String("submitter_id", sub.ID))
			continue
		}

		now := time.Now().UTC()
		stage, due := sub.NextReminderDue(now, rs.cooldown)
		if !due {
			continue
		}

		if err := rs.pace.Wait(ctx); err != nil {
			// ctx cancelled while pacing — shutting down.
			return
		}

		if err := rs.mail.SendReminder(ctx, sub, stage); err != nil {
			// Counters stay untouched so the same stage retries
			// naturally on the next pass.
			rs.log.Warn("reminder send failed",
				zap.String("submitter_id", sub.ID),
				zap.Int("stage", stage),
				zap.Error(err),
			)
			continue
		}

		if err := rs.repo.RecordReminderSent(ctx, sub.ID, now); err != nil {
			rs.log.Error("failed to record reminder send",
				zap.String("submitter_id", sub.ID),
				zap.Int("stage", stage),
				zap.Error(err),
			)
			continue
		}

		rs.onSent(stage)
		sent++
	}

	if sent > 0 {
		rs.log.Info("reminder pass complete",
			zap.Int("candidates", len(candidates)),
			zap.Int("sent", sent),
		)
	}
}

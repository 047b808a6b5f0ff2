package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
)

type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Lease        time.Duration
	// RetryBase is the first retry delay; later attempts double it up to RetryMax.
	RetryBase time.Duration
	RetryMax  time.Duration
}

// Worker drains the outbox. Delivery is at-least-once: a job whose lease
// expires before it is marked sent is claimed again.
type Worker struct {
	db       *gorm.DB
	sender   *Sender
	renderer *Renderer
	cfg      WorkerConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewWorker(db *gorm.DB, sender *Sender, renderer *Renderer, cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Lease <= 0 {
		cfg.Lease = time.Minute
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 30 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 30 * time.Minute
	}
	return &Worker{
		db:       db,
		sender:   sender,
		renderer: renderer,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (w *Worker) SetLogger(logger *slog.Logger) { w.logger = logger }

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "outbox_worker_started", "poll_interval", w.cfg.PollInterval.String())
	t := time.NewTicker(w.cfg.PollInterval)
	defer t.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "outbox_poll_failed", "err", err)
		}
		select {
		case <-ctx.Done():
			w.logger.InfoContext(context.Background(), "outbox_worker_stopped")
			return nil
		case <-t.C:
		}
	}
}

// RunOnce claims and processes one batch of due jobs and returns how many were sent.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	jobs, err := w.claim(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if w.process(ctx, job) {
			sent++
		}
	}
	return sent, nil
}

func (w *Worker) claim(ctx context.Context) ([]OutboxJob, error) {
	now := w.now()
	due := "(status = ? AND next_attempt_at <= ?) OR (status = ? AND locked_until < ?)"

	var candidates []OutboxJob
	err := w.db.WithContext(ctx).
		Where(due, JobPending, now, JobProcessing, now).
		Order("next_attempt_at ASC").
		Limit(w.cfg.BatchSize).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	lease := now.Add(w.cfg.Lease)
	claimed := make([]OutboxJob, 0, len(candidates))
	for _, c := range candidates {
		res := w.db.WithContext(ctx).Model(&OutboxJob{}).
			Where("id = ?", c.ID).
			Where(due, JobPending, now, JobProcessing, now).
			Updates(map[string]any{
				"status":       JobProcessing,
				"locked_until": lease,
				"updated_at":   now,
			})
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 1 {
			c.Status = JobProcessing
			c.LockedUntil = &lease
			claimed = append(claimed, c)
		}
	}
	return claimed, nil
}

func (w *Worker) process(ctx context.Context, job OutboxJob) bool {
	msg, err := w.renderer.Render(job)
	if err != nil {
		w.fail(ctx, job, err, true)
		return false
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		w.fail(ctx, job, err, false)
		return false
	}

	now := w.now()
	err = w.db.WithContext(ctx).Model(&OutboxJob{}).
		Where("id = ? AND status = ?", job.ID, JobProcessing).
		Updates(map[string]any{
			"status":       JobSent,
			"attempts":     job.Attempts + 1,
			"sent_at":      now,
			"locked_until": nil,
			"last_error":   nil,
			"updated_at":   now,
		}).Error
	if err != nil {
		w.logger.ErrorContext(ctx, "outbox_mark_sent_failed", "job_id", job.ID, "err", err)
		return false
	}
	w.logger.InfoContext(ctx, "outbox_job_sent", "job_id", job.ID, "kind", job.Kind, "to", job.Recipient)
	return true
}

// fail records a failed attempt. permanent errors skip straight to dead.
func (w *Worker) fail(ctx context.Context, job OutboxJob, cause error, permanent bool) {
	attempts := job.Attempts + 1
	msg := cause.Error()
	if len(msg) > 512 {
		msg = msg[:512]
	}

	now := w.now()
	fields := map[string]any{
		"attempts":     attempts,
		"locked_until": nil,
		"last_error":   msg,
		"updated_at":   now,
	}
	if permanent || attempts >= job.MaxAttempts {
		fields["status"] = JobDead
	} else {
		fields["status"] = JobPending
		fields["next_attempt_at"] = now.Add(w.retryDelay(attempts))
	}

	err := w.db.WithContext(ctx).Model(&OutboxJob{}).
		Where("id = ? AND status = ?", job.ID, JobProcessing).
		Updates(fields).Error
	if err != nil {
		w.logger.ErrorContext(ctx, "outbox_mark_failed_failed", "job_id", job.ID, "err", err)
		return
	}
	w.logger.WarnContext(ctx, "outbox_job_failed",
		"job_id", job.ID, "kind", job.Kind, "attempts", attempts, "status", fields["status"], "err", cause)
}

// retryDelay returns the delay before attempt number attempts+1.
func (w *Worker) retryDelay(attempts int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.cfg.RetryBase
	b.MaxInterval = w.cfg.RetryMax
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	d := b.NextBackOff()
	for i := 1; i < attempts; i++ {
		d = b.NextBackOff()
	}
	return d
}

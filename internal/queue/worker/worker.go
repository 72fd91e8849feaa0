package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rjoubert/tablebook/internal/jobs"
	"github.com/rjoubert/tablebook/internal/notifications"
	"github.com/rjoubert/tablebook/internal/observability"
	"github.com/rjoubert/tablebook/internal/queue"
)

type Config struct {
	WorkerID      string
	Concurrency   int
	PopTimeout    time.Duration
	ShutdownGrace time.Duration
}

// Worker pops notification jobs off the redis list and delivers them. Failed
// jobs go back on the list after an exponential backoff until MaxAttempts is
// reached; after that they are dropped with an error log. Delivery is
// best-effort end to end, nothing here ever reaches an API caller.
type Worker struct {
	cfg      Config
	rdb      *redis.Client
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

func New(cfg Config, rdb *redis.Client, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 2 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		rdb:      rdb,
		notifier: notifier,
		prom:     prom,
		log:      log,
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started", "worker_id", w.cfg.WorkerID, "concurrency", w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			return w.drain()
		default:
		}

		res, err := w.rdb.BRPop(ctx, w.cfg.PopTimeout, queue.NotificationsKey).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}

			w.log.Error("queue pop failed", "err", err)

			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			continue
		}

		// BRPop returns [key, value]
		raw := res[1]

		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			// put it back so another worker picks it up
			w.requeue(raw)
			continue
		}

		w.wg.Add(1)

		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()
			w.handle(ctx, raw)
		}()
	}
}

func (w *Worker) drain() error {
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})

	go func() {
		defer close(done)
		w.wg.Wait()
	}()

	select {
	case <-done:
		w.log.Info("worker drained")
		return nil
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Error("worker shutdown grace elapsed with jobs in flight")
		return errors.New("shutdown grace elapsed")
	}
}

func (w *Worker) handle(ctx context.Context, raw string) {
	w.prom.JobsInFlight.Inc()
	defer w.prom.JobsInFlight.Dec()

	var j jobs.Job

	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		w.log.Error("discarding undecodable job", "err", err)
		w.prom.JobResults.WithLabelValues("unknown", "failed").Inc()
		return
	}

	start := time.Now()
	err := w.process(ctx, j)
	secs := time.Since(start).Seconds()

	if err == nil {
		w.prom.JobDuration.WithLabelValues(string(j.Type), "done").Observe(secs)
		w.prom.JobResults.WithLabelValues(string(j.Type), "done").Inc()
		return
	}

	// malformed payloads never succeed on retry
	if errors.Is(err, jobs.ErrInvalidJobType) || errors.Is(err, jobs.ErrInvalidJobPayload) || errors.Is(err, jobs.ErrPayloadTypeMismatch) {
		w.log.Error("discarding invalid job", "job_id", j.ID, "type", j.Type, "err", err)
		w.prom.JobDuration.WithLabelValues(string(j.Type), "failed").Observe(secs)
		w.prom.JobResults.WithLabelValues(string(j.Type), "failed").Inc()
		return
	}

	j.Attempts++

	if j.Attempts >= j.MaxAttempts {
		w.log.Error("job failed permanently", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", err)
		w.prom.JobDuration.WithLabelValues(string(j.Type), "failed").Observe(secs)
		w.prom.JobResults.WithLabelValues(string(j.Type), "failed").Inc()
		return
	}

	w.prom.JobDuration.WithLabelValues(string(j.Type), "retry").Observe(secs)
	w.prom.JobResults.WithLabelValues(string(j.Type), "retry").Inc()

	delay := ExponentialBackoff(j.Attempts - 1)
	w.log.Warn("job failed, retrying", "job_id", j.ID, "attempt", j.Attempts, "delay", delay, "err", err)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		// re-enqueue immediately on shutdown so the job is not lost
	}

	b, merr := json.Marshal(j)

	if merr != nil {
		w.log.Error("could not re-encode job", "job_id", j.ID, "err", merr)
		return
	}

	w.requeue(string(b))
}

func (w *Worker) process(ctx context.Context, j jobs.Job) error {
	payload, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	if err := jobs.ValidatePayload(j.Type, payload); err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.CancellationNoticePayload:
		return w.notifier.SendCancellationNotice(ctx, notifications.CancellationNoticeInput{
			ReservationID: p.ReservationID,
			Email:         p.Email,
			Name:          p.Name,
			Date:          p.Date,
			Time:          p.Time,
		})
	default:
		return jobs.ErrInvalidJobType
	}
}

// requeue uses its own short context: the job must go back even when the run
// context is already canceled.
func (w *Worker) requeue(raw string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := w.rdb.LPush(ctx, queue.NotificationsKey, raw).Err(); err != nil {
		w.log.Error("requeue failed, job lost", "err", err)
	}
}

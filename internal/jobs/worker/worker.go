package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/jobs/runtime"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type Config struct {
	// Queue is the job_run.queue partition this worker drains.
	Queue        string
	Concurrency  int
	PollInterval time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	// StaleRunning is how old a running job's heartbeat must be before another
	// worker may reclaim it.
	StaleRunning      time.Duration
	HeartbeatInterval time.Duration
	JobTimeout        time.Duration
	// Metrics is optional.
	Metrics *observability.Metrics
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 30 * time.Second
	}
	if c.StaleRunning <= 0 {
		c.StaleRunning = 30 * time.Minute
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 10 * time.Minute
	}
	return c
}

// Worker drains one queue with a pool of polling goroutines. Running and
// Idle are point-in-time snapshots; callers must tolerate them going stale.
type Worker struct {
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	cfg      Config

	running  atomic.Bool
	inFlight atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, cfg Config) *Worker {
	cfg = cfg.withDefaults()
	return &Worker{
		log:      baseLog.With("component", "JobWorker", "queue", cfg.Queue),
		repo:     repo,
		registry: registry,
		cfg:      cfg,
	}
}

func (w *Worker) Queue() string { return w.cfg.Queue }

// Running reports whether the poll loops are active.
func (w *Worker) Running() bool { return w.running.Load() }

// Idle reports whether no job is executing right now.
func (w *Worker) Idle() bool { return w.inFlight.Load() == 0 }

func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running.Load() {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running.Store(true)

	w.log.Info("Starting job worker pool", "concurrency", w.cfg.Concurrency, "job_types", w.registry.Types())
	for i := 0; i < w.cfg.Concurrency; i++ {
		loopID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(loopCtx, loopID)
		}()
	}
}

// Stop cancels the poll loops and waits for in-flight jobs to return.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	w.running.Store(false)
	cancel()
	w.wg.Wait()
	w.log.Info("Job worker pool stopped")
}

func (w *Worker) runLoop(ctx context.Context, loopID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Worker loop stopped", "loop", loopID)
			return
		case <-ticker.C:
			// Drain everything runnable before waiting for the next tick.
			for ctx.Err() == nil && w.RunOnce(ctx) {
			}
		}
	}
}

// RunOnce claims and executes at most one job. It reports whether a job was claimed.
func (w *Worker) RunOnce(ctx context.Context) bool {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, w.cfg.Queue, w.cfg.MaxAttempts, w.cfg.RetryDelay, w.cfg.StaleRunning)
	if err != nil {
		w.log.Warn("ClaimNextRunnable failed", "error", err)
		return false
	}
	if job == nil {
		return false
	}

	w.inFlight.Add(1)
	defer w.inFlight.Add(-1)

	w.execute(ctx, job)
	return true
}

func (w *Worker) execute(ctx context.Context, job *types.JobRun) {
	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	jc := runtime.NewContext(jobCtx, job, w.repo)
	log := w.log.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)

	h, ok := w.registry.Get(job.JobType)
	if !ok {
		log.Warn("No handler registered for job_type")
		jc.Fail("dispatch", &missingHandlerError{JobType: job.JobType})
		w.cfg.Metrics.ObserveJob(w.cfg.Queue, job.JobType, job.Status, 0)
		return
	}

	stopHeartbeat := w.heartbeat(jobCtx, job)
	defer stopHeartbeat()

	started := time.Now()
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Job handler panic", "panic", r)
				jc.Fail("panic", errFromRecover(r))
			}
		}()

		if runErr := h.Run(jc); runErr != nil {
			// Handlers report domain outcomes through jc; a returned error is an
			// infrastructure failure and gets another attempt.
			log.Warn("Job handler returned error", "error", runErr, "max_attempts", w.cfg.MaxAttempts)
			jc.Retry("run", runErr)
		}
	}()
	dur := time.Since(started)
	w.cfg.Metrics.ObserveJob(w.cfg.Queue, job.JobType, job.Status, dur)
	log.Debug("Job finished", "status", job.Status, "duration_ms", dur.Milliseconds())
}

func (w *Worker) heartbeat(ctx context.Context, job *types.JobRun) func() {
	hbCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(w.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := w.repo.Heartbeat(dbctx.Context{Ctx: hbCtx}, job.ID); err != nil {
					w.log.Warn("Heartbeat failed", "job_id", job.ID, "error", err)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

type missingHandlerError struct{ JobType string }

func (e *missingHandlerError) Error() string {
	return "no handler registered for job_type=" + e.JobType
}

func errFromRecover(v any) error { return &panicError{Val: v} }

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/services"
)

// Scheduler turns cron specs into queued jobs. A tick is skipped while a job
// of the same type is still queued or running.
type Scheduler struct {
	log  *logger.Logger
	cron *cron.Cron
	jobs services.JobService
	repo repos.JobRunRepo

	mu      sync.Mutex
	started bool
}

func New(baseLog *logger.Logger, jobs services.JobService, repo repos.JobRunRepo) *Scheduler {
	return &Scheduler{
		log:  baseLog.With("component", "Scheduler", "queue", jobs.Queue()),
		cron: cron.New(),
		jobs: jobs,
		repo: repo,
	}
}

// Every registers jobType under a cron spec ("@hourly", "@every 30m", or a
// six-field expression with seconds).
func (s *Scheduler) Every(spec string, jobType string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" || jobType == "" {
		return fmt.Errorf("schedule and job type required")
	}
	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Trigger(ctx, jobType); err != nil {
			s.log.Warn("Scheduled enqueue failed", "job_type", jobType, "error", err)
		}
	})
}

// Trigger enqueues jobType now unless one is already pending. It reports
// whether a job was enqueued.
func (s *Scheduler) Trigger(ctx context.Context, jobType string) (bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	exists, err := s.repo.ExistsRunnable(dbc, s.jobs.Queue(), jobType, "", nil)
	if err != nil {
		return false, fmt.Errorf("check pending %s: %w", jobType, err)
	}
	if exists {
		s.log.Debug("Scheduled job already pending", "job_type", jobType)
		return false, nil
	}
	job, err := s.jobs.Enqueue(dbc, services.EnqueueRequest{JobType: jobType})
	if err != nil {
		return false, err
	}
	s.log.Info("Scheduled job enqueued", "job_type", jobType, "job_id", job.ID)
	return true, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.cron.Stop()
}

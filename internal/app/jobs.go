package app

import (
	"fmt"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/jobs/pipeline/media_sentiment"
	"github.com/yungbote/carepulse-backend/internal/jobs/pipeline/processed_files_cleanup"
	"github.com/yungbote/carepulse-backend/internal/jobs/pipeline/task_overdue"
	"github.com/yungbote/carepulse-backend/internal/jobs/pipeline/task_reminder"
	jobrt "github.com/yungbote/carepulse-backend/internal/jobs/runtime"
	"github.com/yungbote/carepulse-backend/internal/jobs/scheduler"
	"github.com/yungbote/carepulse-backend/internal/jobs/worker"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type Jobs struct {
	MediaRegistry *jobrt.Registry
	TaskRegistry  *jobrt.Registry
	MediaWorker   *worker.Worker
	TaskWorker    *worker.Worker
	Scheduler     *scheduler.Scheduler
}

// wireWorkers builds one worker per queue with empty registries. Handlers
// are registered by registerJobs once the services exist.
func wireWorkers(log *logger.Logger, cfg Config, repos Repos, metrics *observability.Metrics) Jobs {
	log.Info("Wiring workers...")
	workerCfg := func(queue string) worker.Config {
		return worker.Config{
			Queue:        queue,
			Concurrency:  cfg.WorkerConcurrency,
			PollInterval: cfg.WorkerPollInterval,
			MaxAttempts:  cfg.JobMaxAttempts,
			RetryDelay:   cfg.JobRetryDelay,
			JobTimeout:   cfg.JobTimeout,
			Metrics:      metrics,
		}
	}
	mediaReg := jobrt.NewRegistry(types.QueueMedia)
	taskReg := jobrt.NewRegistry(types.QueueTasks)
	return Jobs{
		MediaRegistry: mediaReg,
		TaskRegistry:  taskReg,
		MediaWorker:   worker.NewWorker(log, repos.JobRun, mediaReg, workerCfg(types.QueueMedia)),
		TaskWorker:    worker.NewWorker(log, repos.JobRun, taskReg, workerCfg(types.QueueTasks)),
	}
}

func registerJobs(log *logger.Logger, cfg Config, repos Repos, clients Clients, svc Services, jobs *Jobs) error {
	log.Info("Registering job handlers...")

	if err := jobs.MediaRegistry.RegisterAll(
		media_sentiment.New(log, svc.Pipeline),
		processed_files_cleanup.New(log, []string{clients.MediaTools.WorkRoot()}, cfg.CleanupMaxAge),
	); err != nil {
		return fmt.Errorf("register media jobs: %w", err)
	}
	if err := jobs.TaskRegistry.RegisterAll(
		task_reminder.New(log, svc.Task),
		task_overdue.New(log, svc.Task),
	); err != nil {
		return fmt.Errorf("register task jobs: %w", err)
	}

	jobs.Scheduler = scheduler.New(log, svc.MediaJobs, repos.JobRun)
	if cfg.CleanupSchedule != "" {
		if err := jobs.Scheduler.Every(cfg.CleanupSchedule, types.JobTypeProcessedFilesCleanup); err != nil {
			return fmt.Errorf("schedule cleanup: %w", err)
		}
	}
	return nil
}

package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/pkg/errors"
	"github.com/yungbote/carepulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type EnqueueRequest struct {
	JobType    string
	EntityType string
	EntityID   *uuid.UUID
	Payload    map[string]any
	// RunAt schedules the job; zero means run now.
	RunAt time.Time
}

// JobService is the client side of one queue instance.
type JobService interface {
	Queue() string
	Enqueue(dbc dbctx.Context, req EnqueueRequest) (*types.JobRun, error)
	// Cancel stops a job that has not started. Running or finished jobs
	// return ErrConflict.
	Cancel(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	CancelForEntity(dbc dbctx.Context, jobType string, entityType string, entityID uuid.UUID) (int64, error)
	Get(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	log   *logger.Logger
	repo  repos.JobRunRepo
	queue string
}

func NewJobService(baseLog *logger.Logger, repo repos.JobRunRepo, queue string) JobService {
	return &jobService{
		log:   baseLog.With("service", "JobService", "queue", queue),
		repo:  repo,
		queue: queue,
	}
}

func (s *jobService) Queue() string { return s.queue }

func (s *jobService) Enqueue(dbc dbctx.Context, req EnqueueRequest) (*types.JobRun, error) {
	if req.JobType == "" {
		return nil, fmt.Errorf("%w: missing job_type", errors.ErrInvalidArgument)
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	if rid := ctxutil.RequestID(dbc.Ctx); rid != "" {
		if _, ok := payload["request_id"]; !ok {
			payload["request_id"] = rid
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	now := time.Now().UTC()
	runAt := req.RunAt.UTC()
	if req.RunAt.IsZero() || runAt.Before(now) {
		runAt = now
	}
	job := &types.JobRun{
		ID:         uuid.New(),
		Queue:      s.queue,
		JobType:    req.JobType,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Status:     types.JobStatusQueued,
		Stage:      "queued",
		RunAt:      runAt,
		Payload:    datatypes.JSON(raw),
		Result:     datatypes.JSON([]byte(`{}`)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Debug("Job enqueued", "job_id", job.ID, "job_type", job.JobType, "run_at", job.RunAt)
	return job, nil
}

func (s *jobService) Cancel(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.Get(dbc, jobID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.CancelQueued(dbc, jobID)
	if err != nil {
		return nil, fmt.Errorf("cancel job: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: job is %s and can no longer be canceled", errors.ErrConflict, job.Status)
	}
	job.Status = types.JobStatusCanceled
	job.Stage = "canceled"
	return job, nil
}

func (s *jobService) CancelForEntity(dbc dbctx.Context, jobType string, entityType string, entityID uuid.UUID) (int64, error) {
	n, err := s.repo.CancelQueuedForEntity(dbc, s.queue, jobType, entityType, entityID)
	if err != nil {
		return 0, fmt.Errorf("cancel jobs for %s %s: %w", entityType, entityID, err)
	}
	return n, nil
}

// Get only sees jobs of this queue.
func (s *jobService) Get(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.repo.GetByID(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.Queue != s.queue {
		return nil, errors.ErrNotFound
	}
	return job, nil
}

package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type JobRunRepo interface {
	Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error)
	ClaimNextRunnable(dbc dbctx.Context, queue string, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.JobRun, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error
	CancelQueued(dbc dbctx.Context, id uuid.UUID) (bool, error)
	CancelQueuedForEntity(dbc dbctx.Context, queue string, jobType string, entityType string, entityID uuid.UUID) (int64, error)
	ExistsRunnable(dbc dbctx.Context, queue string, jobType string, entityType string, entityID *uuid.UUID) (bool, error)
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{
		db:  db,
		log: baseLog.With("repo", "JobRunRepo"),
	}
}

func (r *jobRunRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Context())
	}
	return r.db.WithContext(dbc.Context())
}

func (r *jobRunRepo) Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error) {
	if len(jobs) == 0 {
		return []*types.JobRun{}, nil
	}
	if err := r.tx(dbc).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.JobRun
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&job).Error; err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

// ClaimNextRunnable picks the oldest due job of queue and marks it running.
// Runnable means: queued and due, a retryable failure (last_error_at set) with
// attempts left once retryDelay has passed, or running with attempts left and
// a heartbeat older than staleRunning.
func (r *jobRunRepo) ClaimNextRunnable(dbc dbctx.Context, queue string, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.JobRun, error) {
	now := time.Now().UTC()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.JobRun
	err := r.tx(dbc).Transaction(func(txx *gorm.DB) error {
		var job types.JobRun
		q := txx
		if txx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		qErr := q.Where("queue = ?", queue).
			Where(`
        (
          (status = ? AND run_at <= ?)
          OR (
            status = ?
            AND attempts < ?
            AND last_error_at IS NOT NULL
            AND last_error_at < ?
          )
          OR (
            status = ?
            AND attempts < ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, types.JobStatusQueued, now, types.JobStatusFailed, maxAttempts, retryCutoff, types.JobStatusRunning, maxAttempts, staleCutoff).
			Order("run_at ASC").
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		// Guard on the observed status and attempts so two pollers that both
		// read the row (no row locks on sqlite) cannot both claim it.
		res := txx.Model(&types.JobRun{}).
			Where("id = ? AND status = ? AND attempts = ?", job.ID, job.Status, job.Attempts).
			Updates(map[string]interface{}{
				"status":       types.JobStatusRunning,
				"stage":        "running",
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		job.Status = types.JobStatusRunning
		job.Stage = "running"
		job.Attempts++
		job.LockedAt = &now
		job.HeartbeatAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *jobRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).
		Model(&types.JobRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *jobRunRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}

	q := r.tx(dbc).
		Model(&types.JobRun{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("status <> ?", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRunRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	return r.tx(dbc).
		Model(&types.JobRun{}).
		Where("id = ? AND status = ?", id, types.JobStatusRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

// CancelQueued cancels a job that has not started yet. It reports false when
// the job is already running or finished.
func (r *jobRunRepo) CancelQueued(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	now := time.Now().UTC()
	res := r.tx(dbc).
		Model(&types.JobRun{}).
		Where("id = ? AND status = ?", id, types.JobStatusQueued).
		Updates(map[string]interface{}{
			"status":     types.JobStatusCanceled,
			"stage":      "canceled",
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRunRepo) CancelQueuedForEntity(dbc dbctx.Context, queue string, jobType string, entityType string, entityID uuid.UUID) (int64, error) {
	if entityID == uuid.Nil || entityType == "" {
		return 0, nil
	}
	q := r.tx(dbc).
		Model(&types.JobRun{}).
		Where("queue = ? AND entity_type = ? AND entity_id = ? AND status = ?", queue, entityType, entityID, types.JobStatusQueued)
	if jobType != "" {
		q = q.Where("job_type = ?", jobType)
	}
	res := q.Updates(map[string]interface{}{
		"status":     types.JobStatusCanceled,
		"stage":      "canceled",
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *jobRunRepo) ExistsRunnable(dbc dbctx.Context, queue string, jobType string, entityType string, entityID *uuid.UUID) (bool, error) {
	if queue == "" || jobType == "" {
		return false, nil
	}

	q := r.tx(dbc).Model(&types.JobRun{}).
		Where("queue = ? AND job_type = ? AND status IN ?", queue, jobType, []string{types.JobStatusQueued, types.JobStatusRunning})

	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	if entityID != nil && *entityID != uuid.Nil {
		q = q.Where("entity_id = ?", *entityID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/pkg/errors"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type CreateTaskInput struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	AssigneeName    string    `json:"assignee_name"`
	AssigneeContact string    `json:"assignee_contact"`
	DueAt           time.Time `json:"due_at"`
}

type TaskService interface {
	Create(dbc dbctx.Context, in CreateTaskInput) (*types.Task, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Task, error)
	List(dbc dbctx.Context, status string, limit int) ([]*types.Task, error)
	UpdateDueDate(dbc dbctx.Context, id uuid.UUID, dueAt time.Time) (*types.Task, error)
	Complete(dbc dbctx.Context, id uuid.UUID) (*types.Task, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error

	// SendReminder and MarkOverdue back the scheduled task jobs. Both report
	// false when the task is gone or no longer open.
	SendReminder(dbc dbctx.Context, id uuid.UUID) (bool, error)
	MarkOverdue(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type taskService struct {
	db           *gorm.DB
	log          *logger.Logger
	tasks        repos.TaskRepo
	jobs         JobService
	notifier     Notifier
	reminderLead time.Duration
}

func NewTaskService(db *gorm.DB, baseLog *logger.Logger, taskRepo repos.TaskRepo, jobs JobService, notifier Notifier, reminderLead time.Duration) TaskService {
	if reminderLead <= 0 {
		reminderLead = time.Hour
	}
	return &taskService{
		db:           db,
		log:          baseLog.With("service", "TaskService"),
		tasks:        taskRepo,
		jobs:         jobs,
		notifier:     notifier,
		reminderLead: reminderLead,
	}
}

func (s *taskService) Create(dbc dbctx.Context, in CreateTaskInput) (*types.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", errors.ErrInvalidArgument)
	}
	if in.DueAt.IsZero() {
		return nil, fmt.Errorf("%w: due_at required", errors.ErrInvalidArgument)
	}
	var t *types.Task
	err := s.inTx(dbc, func(inner dbctx.Context) error {
		created, err := s.tasks.Create(inner, &types.Task{
			Title:           in.Title,
			Description:     strings.TrimSpace(in.Description),
			AssigneeName:    strings.TrimSpace(in.AssigneeName),
			AssigneeContact: strings.TrimSpace(in.AssigneeContact),
			DueAt:           in.DueAt.UTC(),
			Status:          types.TaskStatusOpen,
		})
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if err := s.schedule(inner, created); err != nil {
			return err
		}
		t = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *taskService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Task, error) {
	t, err := s.tasks.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.ErrNotFound
	}
	return t, nil
}

func (s *taskService) List(dbc dbctx.Context, status string, limit int) ([]*types.Task, error) {
	switch status {
	case "", types.TaskStatusOpen, types.TaskStatusCompleted, types.TaskStatusOverdue:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", errors.ErrInvalidArgument, status)
	}
	return s.tasks.List(dbc, status, limit)
}

func (s *taskService) UpdateDueDate(dbc dbctx.Context, id uuid.UUID, dueAt time.Time) (*types.Task, error) {
	if dueAt.IsZero() {
		return nil, fmt.Errorf("%w: due_at required", errors.ErrInvalidArgument)
	}
	var t *types.Task
	err := s.inTx(dbc, func(inner dbctx.Context) error {
		cur, err := s.Get(inner, id)
		if err != nil {
			return err
		}
		if cur.Status == types.TaskStatusCompleted {
			return fmt.Errorf("%w: task already completed", errors.ErrConflict)
		}
		if err := s.cancelJobs(inner, id); err != nil {
			return err
		}
		cur.DueAt = dueAt.UTC()
		cur.Status = types.TaskStatusOpen
		if err := s.tasks.UpdateFields(inner, id, map[string]interface{}{
			"due_at": cur.DueAt,
			"status": cur.Status,
		}); err != nil {
			return fmt.Errorf("update due date: %w", err)
		}
		if err := s.schedule(inner, cur); err != nil {
			return err
		}
		t = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *taskService) Complete(dbc dbctx.Context, id uuid.UUID) (*types.Task, error) {
	t, err := s.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if t.Status == types.TaskStatusCompleted {
		return t, nil
	}
	now := time.Now().UTC()
	err = s.inTx(dbc, func(inner dbctx.Context) error {
		if err := s.tasks.UpdateFields(inner, id, map[string]interface{}{
			"status":       types.TaskStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return fmt.Errorf("complete task: %w", err)
		}
		return s.cancelJobs(inner, id)
	})
	if err != nil {
		return nil, err
	}
	t.Status = types.TaskStatusCompleted
	t.CompletedAt = &now
	return t, nil
}

func (s *taskService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if _, err := s.Get(dbc, id); err != nil {
		return err
	}
	return s.inTx(dbc, func(inner dbctx.Context) error {
		if err := s.cancelJobs(inner, id); err != nil {
			return err
		}
		return s.tasks.SoftDelete(inner, id)
	})
}

// inTx runs fn in a transaction, joining the caller's when there is one.
func (s *taskService) inTx(dbc dbctx.Context, fn func(inner dbctx.Context) error) error {
	if dbc.Tx != nil || s.db == nil {
		return fn(dbc)
	}
	return s.db.WithContext(dbc.Context()).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

// schedule queues the reminder (skipped when its time has passed) and the
// overdue check, and records both job ids on the task.
func (s *taskService) schedule(dbc dbctx.Context, t *types.Task) error {
	now := time.Now().UTC()
	taskID := t.ID
	payload := func() map[string]any { return map[string]any{"task_id": taskID.String()} }
	updates := map[string]interface{}{"reminder_job_id": nil, "overdue_job_id": nil}
	t.ReminderJobID, t.OverdueJobID = nil, nil

	if remindAt := t.DueAt.Add(-s.reminderLead); remindAt.After(now) {
		job, err := s.jobs.Enqueue(dbc, EnqueueRequest{
			JobType:    types.JobTypeTaskReminder,
			EntityType: "task",
			EntityID:   &taskID,
			Payload:    payload(),
			RunAt:      remindAt,
		})
		if err != nil {
			return fmt.Errorf("schedule reminder: %w", err)
		}
		t.ReminderJobID = &job.ID
		updates["reminder_job_id"] = job.ID
	}

	job, err := s.jobs.Enqueue(dbc, EnqueueRequest{
		JobType:    types.JobTypeTaskOverdue,
		EntityType: "task",
		EntityID:   &taskID,
		Payload:    payload(),
		RunAt:      t.DueAt,
	})
	if err != nil {
		return fmt.Errorf("schedule overdue check: %w", err)
	}
	t.OverdueJobID = &job.ID
	updates["overdue_job_id"] = job.ID

	return s.tasks.UpdateFields(dbc, t.ID, updates)
}

func (s *taskService) cancelJobs(dbc dbctx.Context, id uuid.UUID) error {
	n, err := s.jobs.CancelForEntity(dbc, "", "task", id)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Debug("Canceled pending task jobs", "task_id", id, "count", n)
	}
	return nil
}

func (s *taskService) SendReminder(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	t, err := s.tasks.GetByID(dbc, id)
	if err != nil {
		return false, err
	}
	if t == nil || !t.Open() {
		return false, nil
	}
	err = s.notifier.Notify(dbc.Context(), Notification{
		To:      t.AssigneeContact,
		Subject: "Task reminder: " + t.Title,
		Body:    fmt.Sprintf("Reminder: %q is due at %s.", t.Title, t.DueAt.Format(time.RFC822)),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *taskService) MarkOverdue(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	ok, err := s.tasks.UpdateFieldsIfStatus(dbc, id, types.TaskStatusOpen, map[string]interface{}{
		"status": types.TaskStatusOverdue,
	})
	if err != nil {
		return false, fmt.Errorf("mark overdue: %w", err)
	}
	if !ok {
		return false, nil
	}
	t, err := s.tasks.GetByID(dbc, id)
	if err != nil || t == nil {
		return true, err
	}
	// The status change is the durable outcome; a lost notification is not retried.
	if err := s.notifier.Notify(dbc.Context(), Notification{
		To:      t.AssigneeContact,
		Subject: "Task overdue: " + t.Title,
		Body:    fmt.Sprintf("%q was due at %s and is now overdue.", t.Title, t.DueAt.Format(time.RFC822)),
	}); err != nil {
		s.log.Warn("Overdue notification failed", "task_id", id, "error", err)
	}
	return true, nil
}

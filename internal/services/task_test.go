package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	"github.com/yungbote/carepulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/carepulse-backend/internal/pkg/errors"
)

type taskHarness struct {
	db       *gorm.DB
	dbc      dbctx.Context
	jobRepo  repos.JobRunRepo
	tasks    repos.TaskRepo
	notifier *fakeNotifier
	svc      TaskService
}

func newTaskHarness(t *testing.T) *taskHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &taskHarness{
		db:       db,
		dbc:      dbctx.Context{Ctx: context.Background()},
		jobRepo:  repos.NewJobRunRepo(db, log),
		tasks:    repos.NewTaskRepo(db, log),
		notifier: &fakeNotifier{},
	}
	jobs := NewJobService(log, h.jobRepo, types.QueueTasks)
	h.svc = NewTaskService(db, log, h.tasks, jobs, h.notifier, time.Hour)
	return h
}

func (h *taskHarness) jobStatus(t *testing.T, id *uuid.UUID) string {
	t.Helper()
	if id == nil {
		t.Fatalf("job id: want set got nil")
	}
	job, err := h.jobRepo.GetByID(h.dbc, *id)
	if err != nil || job == nil {
		t.Fatalf("GetByID(job): job=%v err=%v", job, err)
	}
	return job.Status
}

func TestTaskCreateSchedulesJobs(t *testing.T) {
	h := newTaskHarness(t)
	due := time.Now().Add(3 * time.Hour)

	task, err := h.svc.Create(h.dbc, CreateTaskInput{Title: "  Refill medication cart ", AssigneeContact: "+15550001111", DueAt: due})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Title != "Refill medication cart" || task.Status != types.TaskStatusOpen {
		t.Fatalf("Create: got title=%q status=%s", task.Title, task.Status)
	}
	reminder, err := h.jobRepo.GetByID(h.dbc, *task.ReminderJobID)
	if err != nil || reminder == nil || reminder.JobType != types.JobTypeTaskReminder {
		t.Fatalf("reminder job: job=%v err=%v", reminder, err)
	}
	if d := reminder.RunAt.Sub(due.Add(-time.Hour)); d < -time.Second || d > time.Second {
		t.Fatalf("reminder run_at: want due-1h got=%v", reminder.RunAt)
	}
	overdue, err := h.jobRepo.GetByID(h.dbc, *task.OverdueJobID)
	if err != nil || overdue == nil || overdue.JobType != types.JobTypeTaskOverdue || overdue.Queue != types.QueueTasks {
		t.Fatalf("overdue job: job=%v err=%v", overdue, err)
	}

	stored, err := h.svc.Get(h.dbc, task.ID)
	if err != nil || stored.ReminderJobID == nil || *stored.ReminderJobID != reminder.ID {
		t.Fatalf("stored reminder id: task=%v err=%v", stored, err)
	}
}

func TestTaskCreateSkipsPastReminder(t *testing.T) {
	h := newTaskHarness(t)
	task, err := h.svc.Create(h.dbc, CreateTaskInput{Title: "Fire drill", DueAt: time.Now().Add(20 * time.Minute)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ReminderJobID != nil {
		t.Fatalf("reminder: want none inside the lead window got=%v", task.ReminderJobID)
	}
	if h.jobStatus(t, task.OverdueJobID) != types.JobStatusQueued {
		t.Fatalf("overdue job: want queued")
	}
}

func TestTaskCreateValidation(t *testing.T) {
	h := newTaskHarness(t)
	if _, err := h.svc.Create(h.dbc, CreateTaskInput{Title: " ", DueAt: time.Now()}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("Create(no title): want ErrInvalidArgument got=%v", err)
	}
	if _, err := h.svc.Create(h.dbc, CreateTaskInput{Title: "x"}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("Create(no due): want ErrInvalidArgument got=%v", err)
	}
	if _, err := h.svc.List(h.dbc, "archived", 10); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("List(bad status): want ErrInvalidArgument got=%v", err)
	}
}

func TestTaskUpdateDueDateReschedules(t *testing.T) {
	h := newTaskHarness(t)
	task, err := h.svc.Create(h.dbc, CreateTaskInput{Title: "Family call", DueAt: time.Now().Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldReminder, oldOverdue := task.ReminderJobID, task.OverdueJobID

	updated, err := h.svc.UpdateDueDate(h.dbc, task.ID, time.Now().Add(5*time.Hour))
	if err != nil {
		t.Fatalf("UpdateDueDate: %v", err)
	}
	if h.jobStatus(t, oldReminder) != types.JobStatusCanceled || h.jobStatus(t, oldOverdue) != types.JobStatusCanceled {
		t.Fatalf("old jobs: want canceled")
	}
	if h.jobStatus(t, updated.ReminderJobID) != types.JobStatusQueued || h.jobStatus(t, updated.OverdueJobID) != types.JobStatusQueued {
		t.Fatalf("new jobs: want queued")
	}
	if *updated.OverdueJobID == *oldOverdue {
		t.Fatalf("overdue job: want a new job id")
	}
}

func TestTaskCompleteAndDelete(t *testing.T) {
	h := newTaskHarness(t)
	task, err := h.svc.Create(h.dbc, CreateTaskInput{Title: "Laundry pickup", DueAt: time.Now().Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done, err := h.svc.Complete(h.dbc, task.ID)
	if err != nil || done.Status != types.TaskStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("Complete: task=%v err=%v", done, err)
	}
	if h.jobStatus(t, task.ReminderJobID) != types.JobStatusCanceled || h.jobStatus(t, task.OverdueJobID) != types.JobStatusCanceled {
		t.Fatalf("jobs after complete: want canceled")
	}
	if again, err := h.svc.Complete(h.dbc, task.ID); err != nil || again.Status != types.TaskStatusCompleted {
		t.Fatalf("Complete(again): task=%v err=%v", again, err)
	}
	if _, err := h.svc.UpdateDueDate(h.dbc, task.ID, time.Now().Add(time.Hour)); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("UpdateDueDate(completed): want ErrConflict got=%v", err)
	}

	other, err := h.svc.Create(h.dbc, CreateTaskInput{Title: "Menu review", DueAt: time.Now().Add(4 * time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := h.svc.Delete(h.dbc, other.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := h.svc.Get(h.dbc, other.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Get(deleted): want ErrNotFound got=%v", err)
	}
	if h.jobStatus(t, other.OverdueJobID) != types.JobStatusCanceled {
		t.Fatalf("jobs after delete: want canceled")
	}
	if err := h.svc.Delete(h.dbc, other.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Delete(again): want ErrNotFound got=%v", err)
	}

	list, err := h.svc.List(h.dbc, types.TaskStatusCompleted, 10)
	if err != nil || len(list) != 1 || list[0].ID != task.ID {
		t.Fatalf("List(completed): got=%v err=%v", list, err)
	}
}

func TestTaskReminderAndOverdue(t *testing.T) {
	h := newTaskHarness(t)
	task, err := h.svc.Create(h.dbc, CreateTaskInput{Title: "Wound check", AssigneeContact: "nurse@example.org", DueAt: time.Now().Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sent, err := h.svc.SendReminder(h.dbc, task.ID)
	if err != nil || !sent {
		t.Fatalf("SendReminder: sent=%v err=%v", sent, err)
	}
	marked, err := h.svc.MarkOverdue(h.dbc, task.ID)
	if err != nil || !marked {
		t.Fatalf("MarkOverdue: marked=%v err=%v", marked, err)
	}
	if got, _ := h.svc.Get(h.dbc, task.ID); got.Status != types.TaskStatusOverdue {
		t.Fatalf("status: want overdue got=%s", got.Status)
	}
	if h.notifier.count() != 2 {
		t.Fatalf("notifications: want=2 got=%d", h.notifier.count())
	}
	if h.notifier.sent[1].To != "nurse@example.org" {
		t.Fatalf("overdue recipient: got=%s", h.notifier.sent[1].To)
	}

	// Neither fires once the task has left the open state.
	if marked, err := h.svc.MarkOverdue(h.dbc, task.ID); err != nil || marked {
		t.Fatalf("MarkOverdue(again): marked=%v err=%v", marked, err)
	}
	if sent, err := h.svc.SendReminder(h.dbc, task.ID); err != nil || sent {
		t.Fatalf("SendReminder(overdue): sent=%v err=%v", sent, err)
	}
	if sent, err := h.svc.SendReminder(h.dbc, uuid.New()); err != nil || sent {
		t.Fatalf("SendReminder(missing): sent=%v err=%v", sent, err)
	}
	if h.notifier.count() != 2 {
		t.Fatalf("notifications: want=2 got=%d", h.notifier.count())
	}
}

func TestTaskReminderNotifyErrorIsReturned(t *testing.T) {
	h := newTaskHarness(t)
	h.notifier.err = errFake
	task, err := h.svc.Create(h.dbc, CreateTaskInput{Title: "Pharmacy order", DueAt: time.Now().Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.SendReminder(h.dbc, task.ID); !errors.Is(err, errFake) {
		t.Fatalf("SendReminder: want notify error got=%v", err)
	}
	if marked, err := h.svc.MarkOverdue(h.dbc, task.ID); err != nil || !marked {
		t.Fatalf("MarkOverdue: notify errors are not fatal got marked=%v err=%v", marked, err)
	}
}

// flakyEnqueue fails the Nth Enqueue and passes everything else through.
type flakyEnqueue struct {
	JobService
	failOn int
	calls  int
}

func (f *flakyEnqueue) Enqueue(dbc dbctx.Context, req EnqueueRequest) (*types.JobRun, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, errFake
	}
	return f.JobService.Enqueue(dbc, req)
}

func TestTaskCreateRollsBackWhenSchedulingFails(t *testing.T) {
	h := newTaskHarness(t)
	log := testutil.Logger(t)
	jobs := &flakyEnqueue{JobService: NewJobService(log, h.jobRepo, types.QueueTasks), failOn: 2}
	svc := NewTaskService(h.db, log, h.tasks, jobs, h.notifier, time.Hour)

	if _, err := svc.Create(h.dbc, CreateTaskInput{Title: "Linen count", DueAt: time.Now().Add(3 * time.Hour)}); !errors.Is(err, errFake) {
		t.Fatalf("Create: want enqueue error got=%v", err)
	}
	list, err := svc.List(h.dbc, "", 10)
	if err != nil || len(list) != 0 {
		t.Fatalf("tasks after failed create: want=0 got=%d err=%v", len(list), err)
	}
	exists, err := h.jobRepo.ExistsRunnable(h.dbc, types.QueueTasks, types.JobTypeTaskReminder, "task", nil)
	if err != nil || exists {
		t.Fatalf("reminder job after failed create: want none got=%v err=%v", exists, err)
	}
}

func TestTaskUpdateDueDateRollsBackWhenSchedulingFails(t *testing.T) {
	h := newTaskHarness(t)
	log := testutil.Logger(t)
	jobs := &flakyEnqueue{JobService: NewJobService(log, h.jobRepo, types.QueueTasks), failOn: 4}
	svc := NewTaskService(h.db, log, h.tasks, jobs, h.notifier, time.Hour)

	due := time.Now().Add(2 * time.Hour).UTC()
	task, err := svc.Create(h.dbc, CreateTaskInput{Title: "Shift handover", DueAt: due})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UpdateDueDate(h.dbc, task.ID, due.Add(3*time.Hour)); !errors.Is(err, errFake) {
		t.Fatalf("UpdateDueDate: want enqueue error got=%v", err)
	}
	if h.jobStatus(t, task.ReminderJobID) != types.JobStatusQueued || h.jobStatus(t, task.OverdueJobID) != types.JobStatusQueued {
		t.Fatalf("original jobs: want still queued")
	}
	stored, err := svc.Get(h.dbc, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d := stored.DueAt.Sub(due); d < -time.Second || d > time.Second {
		t.Fatalf("due_at: want=%v got=%v", due, stored.DueAt)
	}
}

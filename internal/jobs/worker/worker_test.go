package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	"github.com/yungbote/carepulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/jobs/runtime"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
)

type funcHandler struct {
	typ string
	fn  func(jc *runtime.Context) error
}

func (h funcHandler) Type() string                  { return h.typ }
func (h funcHandler) Run(jc *runtime.Context) error { return h.fn(jc) }

func newTestWorker(t *testing.T, handlers ...runtime.Handler) (*Worker, repos.JobRunRepo) {
	t.Helper()
	db := testutil.DB(t)
	repo := repos.NewJobRunRepo(db, testutil.Logger(t))
	reg := runtime.NewRegistry("media")
	if err := reg.RegisterAll(handlers...); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	w := NewWorker(testutil.Logger(t), repo, reg, Config{
		Queue:        "media",
		MaxAttempts:  2,
		RetryDelay:   time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	})
	return w, repo
}

func enqueue(t *testing.T, repo repos.JobRunRepo, jobType string) *types.JobRun {
	t.Helper()
	job := &types.JobRun{
		Queue:   "media",
		JobType: jobType,
		Status:  types.JobStatusQueued,
		Stage:   "queued",
		RunAt:   time.Now().UTC().Add(-time.Second),
		Payload: datatypes.JSON([]byte(`{"moment_id":"1b4e28ba-2fa1-11d2-883f-0016d3cca427"}`)),
	}
	if _, err := repo.Create(dbctx.Context{Ctx: context.Background()}, []*types.JobRun{job}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return job
}

func TestWorkerRunOnceSucceedsAndTracksIdle(t *testing.T) {
	var sawBusy bool
	var w *Worker
	w, repo := newTestWorker(t, funcHandler{typ: "ok", fn: func(jc *runtime.Context) error {
		sawBusy = !w.Idle()
		if _, ok := jc.PayloadUUID("moment_id"); !ok {
			t.Errorf("PayloadUUID: want moment_id")
		}
		jc.Succeed("done", map[string]any{"n": 1})
		return nil
	}})
	job := enqueue(t, repo, "ok")

	if w.Running() {
		t.Fatalf("Running: want false before Start")
	}
	if !w.Idle() {
		t.Fatalf("Idle: want true before any job")
	}
	if !w.RunOnce(context.Background()) {
		t.Fatalf("RunOnce: want a claimed job")
	}
	if !sawBusy {
		t.Fatalf("Idle: want false while a job executes")
	}
	if !w.Idle() {
		t.Fatalf("Idle: want true after the job returned")
	}
	got, _ := repo.GetByID(dbctx.Context{Ctx: context.Background()}, job.ID)
	if got == nil || got.Status != types.JobStatusSucceeded || got.Progress != 100 {
		t.Fatalf("status: want succeeded/100 got=%+v", got)
	}
	if w.RunOnce(context.Background()) {
		t.Fatalf("RunOnce: queue should be empty")
	}
}

func TestWorkerRetriesHandlerErrorsUntilMaxAttempts(t *testing.T) {
	calls := 0
	w, repo := newTestWorker(t, funcHandler{typ: "flaky", fn: func(jc *runtime.Context) error {
		calls++
		return errors.New("db unavailable")
	}})
	job := enqueue(t, repo, "flaky")
	ctx := context.Background()

	if !w.RunOnce(ctx) {
		t.Fatalf("RunOnce #1: want claim")
	}
	time.Sleep(5 * time.Millisecond)
	if !w.RunOnce(ctx) {
		t.Fatalf("RunOnce #2: want retry claim")
	}
	time.Sleep(5 * time.Millisecond)
	if w.RunOnce(ctx) {
		t.Fatalf("RunOnce #3: attempts exhausted, want no claim")
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
	got, _ := repo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
	if got.Status != types.JobStatusFailed || got.Attempts != 2 || got.Error != "db unavailable" {
		t.Fatalf("final: want failed/2/db unavailable got=%s/%d/%s", got.Status, got.Attempts, got.Error)
	}
}

func TestWorkerFinalFailuresAreNotRetried(t *testing.T) {
	w, repo := newTestWorker(t,
		funcHandler{typ: "final", fn: func(jc *runtime.Context) error {
			jc.Fail("validate", errors.New("bad payload"))
			return nil
		}},
		funcHandler{typ: "boom", fn: func(jc *runtime.Context) error {
			panic("kaboom")
		}},
	)
	final := enqueue(t, repo, "final")
	boom := enqueue(t, repo, "boom")
	missing := enqueue(t, repo, "nobody_handles_this")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !w.RunOnce(ctx) {
			t.Fatalf("RunOnce #%d: want claim", i+1)
		}
	}
	time.Sleep(5 * time.Millisecond)
	if w.RunOnce(ctx) {
		t.Fatalf("RunOnce: final failures must not be reclaimed")
	}
	for _, id := range []*types.JobRun{final, boom, missing} {
		got, _ := repo.GetByID(dbctx.Context{Ctx: ctx}, id.ID)
		if got.Status != types.JobStatusFailed || got.LastErrorAt != nil {
			t.Fatalf("job %s: want final failure got status=%s last_error_at=%v", got.JobType, got.Status, got.LastErrorAt)
		}
	}
}

func TestWorkerStartStop(t *testing.T) {
	done := make(chan struct{}, 1)
	w, repo := newTestWorker(t, funcHandler{typ: "ok", fn: func(jc *runtime.Context) error {
		jc.Succeed("done", nil)
		done <- struct{}{}
		return nil
	}})
	enqueue(t, repo, "ok")

	w.Start(context.Background())
	if !w.Running() {
		t.Fatalf("Running: want true after Start")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("job was not picked up by the poll loop")
	}
	w.Stop()
	if w.Running() {
		t.Fatalf("Running: want false after Stop")
	}
}

package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/platform/ctxutil"
)

/*
Context is the execution handle for a single claimed job run. Handlers never
touch job_run directly; lifecycle writes go through Progress, Fail, Retry and
Succeed, all guarded so a canceled job is never overwritten.
*/
type Context struct {
	Ctx     context.Context
	Job     *types.JobRun
	Repo    repos.JobRunRepo
	payload map[string]any
}

func NewContext(ctx context.Context, job *types.JobRun, repo repos.JobRunRepo) *Context {
	c := &Context{
		Ctx:  ctxutil.Default(ctx),
		Job:  job,
		Repo: repo,
	}
	_ = c.decodePayload()
	c.applyTraceData()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

func (c *Context) applyTraceData() {
	reqID := c.PayloadString("request_id")
	if reqID == "" {
		return
	}
	c.Ctx = ctxutil.WithTraceData(c.Ctx, &ctxutil.TraceData{RequestID: reqID})
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// DecodePayload unmarshals the raw job payload into v.
func (c *Context) DecodePayload(v any) error {
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(c.Job.Payload, v)
}

func (c *Context) PayloadString(key string) string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	s := c.PayloadString(key)
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Context) update(updates map[string]interface{}) bool {
	if c.Repo == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return true
	}
	ok, err := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, []string{types.JobStatusCanceled}, updates)
	return err == nil && ok
}

// Progress records a non-terminal stage and refreshes the heartbeat.
func (c *Context) Progress(stage string, pct int) {
	if c == nil {
		return
	}
	now := time.Now().UTC()
	if !c.update(map[string]interface{}{
		"stage":        stage,
		"progress":     pct,
		"heartbeat_at": now,
		"updated_at":   now,
	}) {
		return
	}
	if c.Job != nil {
		c.Job.Stage = stage
		c.Job.Progress = pct
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
}

// Fail marks the job failed for good. It will not be retried.
func (c *Context) Fail(stage string, err error) {
	c.fail(stage, err, false)
}

// Retry marks the job failed and eligible for another attempt once the
// queue's retry delay has passed and attempts remain.
func (c *Context) Retry(stage string, err error) {
	c.fail(stage, err, true)
}

func (c *Context) fail(stage string, err error, retryable bool) {
	if c == nil {
		return
	}
	now := time.Now().UTC()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	var lastErrorAt *time.Time
	if retryable {
		lastErrorAt = &now
	}
	if !c.update(map[string]interface{}{
		"status":        types.JobStatusFailed,
		"stage":         stage,
		"error":         msg,
		"last_error_at": lastErrorAt,
		"locked_at":     nil,
		"updated_at":    now,
	}) {
		return
	}
	if c.Job != nil {
		c.Job.Status = types.JobStatusFailed
		c.Job.Stage = stage
		c.Job.Error = msg
		c.Job.LastErrorAt = lastErrorAt
		c.Job.LockedAt = nil
		c.Job.UpdatedAt = now
	}
}

func (c *Context) Succeed(finalStage string, result any) {
	if c == nil {
		return
	}
	now := time.Now().UTC()
	res := datatypes.JSON([]byte("{}"))
	if result != nil {
		if b, err := json.Marshal(result); err == nil {
			res = datatypes.JSON(b)
		}
	}
	if !c.update(map[string]interface{}{
		"status":       types.JobStatusSucceeded,
		"stage":        finalStage,
		"progress":     100,
		"error":        "",
		"result":       res,
		"locked_at":    nil,
		"heartbeat_at": now,
		"updated_at":   now,
	}) {
		return
	}
	if c.Job != nil {
		c.Job.Status = types.JobStatusSucceeded
		c.Job.Stage = finalStage
		c.Job.Progress = 100
		c.Job.Error = ""
		c.Job.Result = res
		c.Job.LockedAt = nil
		c.Job.UpdatedAt = now
	}
}

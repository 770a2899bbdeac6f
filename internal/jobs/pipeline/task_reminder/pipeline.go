package task_reminder

import (
	"fmt"

	jobrt "github.com/yungbote/carepulse-backend/internal/jobs/runtime"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	taskID, ok := jc.PayloadUUID("task_id")
	if !ok {
		jc.Fail("validate", fmt.Errorf("missing task_id"))
		return nil
	}

	jc.Progress("notify", 50)
	sent, err := p.tasks.SendReminder(dbctx.Context{Ctx: jc.Ctx}, taskID)
	if err != nil {
		return err
	}
	if !sent {
		p.log.Debug("Reminder skipped; task no longer open", "task_id", taskID)
	}

	jc.Succeed("done", map[string]any{
		"task_id": taskID.String(),
		"sent":    sent,
	})
	return nil
}

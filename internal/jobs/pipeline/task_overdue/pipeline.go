package task_overdue

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

	jc.Progress("mark_overdue", 50)
	marked, err := p.tasks.MarkOverdue(dbctx.Context{Ctx: jc.Ctx}, taskID)
	if err != nil {
		return err
	}
	if marked {
		p.log.Info("Task marked overdue", "task_id", taskID)
	}

	jc.Succeed("done", map[string]any{
		"task_id": taskID.String(),
		"marked":  marked,
	})
	return nil
}

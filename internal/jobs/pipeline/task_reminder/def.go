package task_reminder

import (
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/services"
)

type Pipeline struct {
	log   *logger.Logger
	tasks services.TaskService
}

func New(baseLog *logger.Logger, tasks services.TaskService) *Pipeline {
	return &Pipeline{
		log:   baseLog.With("job", types.JobTypeTaskReminder),
		tasks: tasks,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeTaskReminder }

package media_sentiment

import (
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/services"
)

type Pipeline struct {
	log      *logger.Logger
	pipeline services.MomentPipeline
}

func New(baseLog *logger.Logger, pipeline services.MomentPipeline) *Pipeline {
	return &Pipeline{
		log:      baseLog.With("job", types.JobTypeMediaSentiment),
		pipeline: pipeline,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeMediaSentiment }

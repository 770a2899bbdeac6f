package processed_files_cleanup

import (
	"time"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

const DefaultMaxAge = 24 * time.Hour

type Pipeline struct {
	log    *logger.Logger
	dirs   []string
	maxAge time.Duration
}

// New sweeps dirs for regular files older than maxAge.
func New(baseLog *logger.Logger, dirs []string, maxAge time.Duration) *Pipeline {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Pipeline{
		log:    baseLog.With("job", types.JobTypeProcessedFilesCleanup),
		dirs:   dirs,
		maxAge: maxAge,
	}
}

func (p *Pipeline) Type() string { return types.JobTypeProcessedFilesCleanup }

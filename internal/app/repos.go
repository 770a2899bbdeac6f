package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type Repos struct {
	JobRun repos.JobRunRepo
	Moment repos.MomentRepo
	Task   repos.TaskRepo
}

// wireRepos builds the gorm repos. moments overrides the gorm moment repo
// when another store was selected.
func wireRepos(db *gorm.DB, log *logger.Logger, moments repos.MomentRepo) Repos {
	log.Info("Wiring repos...")
	if moments == nil {
		moments = repos.NewMomentRepo(db, log)
	}
	return Repos{
		JobRun: repos.NewJobRunRepo(db, log),
		Moment: moments,
		Task:   repos.NewTaskRepo(db, log),
	}
}

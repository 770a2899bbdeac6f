package repos

import (
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/yungbote/carepulse-backend/internal/data/repos/jobs"
	"github.com/yungbote/carepulse-backend/internal/data/repos/moments"
	"github.com/yungbote/carepulse-backend/internal/data/repos/tasks"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type JobRunRepo = jobs.JobRunRepo
type MomentRepo = moments.MomentRepo
type TaskRepo = tasks.TaskRepo

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
func NewMomentRepo(db *gorm.DB, baseLog *logger.Logger) MomentRepo {
	return moments.NewMomentRepo(db, baseLog)
}
func NewMongoMomentRepo(col *mongo.Collection, baseLog *logger.Logger) MomentRepo {
	return moments.NewMongoMomentRepo(col, baseLog)
}
func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return tasks.NewTaskRepo(db, baseLog)
}

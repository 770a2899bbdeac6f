package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

const (
	QueueMedia = "media"
	QueueTasks = "tasks"

	TypeMediaSentiment        = "media_sentiment"
	TypeProcessedFilesCleanup = "processed_files_cleanup"
	TypeTaskReminder          = "task_reminder"
	TypeTaskOverdue           = "task_overdue"
)

// JobRun is one unit of durable background work. Queue partitions the table
// between independent worker instances ("media", "tasks"). LastErrorAt is
// stamped only for retryable failures; a failed job without it is final.
type JobRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Queue       string         `gorm:"column:queue;not null;index" json:"queue"`
	JobType     string         `gorm:"column:job_type;not null;index" json:"job_type"`
	EntityType  string         `gorm:"column:entity_type;index" json:"entity_type,omitempty"`
	EntityID    *uuid.UUID     `gorm:"type:uuid;column:entity_id;index" json:"entity_id,omitempty"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	Stage       string         `gorm:"column:stage;not null" json:"stage"`
	Progress    int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Attempts    int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error       string         `gorm:"column:error" json:"error,omitempty"`
	RunAt       time.Time      `gorm:"column:run_at;not null;index" json:"run_at"`
	LockedAt    *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time     `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	LastErrorAt *time.Time     `gorm:"column:last_error_at;index" json:"last_error_at,omitempty"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Result      datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (JobRun) TableName() string { return "job_run" }

func (j *JobRun) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.RunAt.IsZero() {
		j.RunAt = time.Now().UTC()
	}
	if len(j.Payload) == 0 {
		j.Payload = datatypes.JSON([]byte("{}"))
	}
	if len(j.Result) == 0 {
		j.Result = datatypes.JSON([]byte("{}"))
	}
	return nil
}

// Terminal reports whether the job will never run again.
func (j *JobRun) Terminal() bool {
	return j.Status == StatusSucceeded || j.Status == StatusCanceled
}

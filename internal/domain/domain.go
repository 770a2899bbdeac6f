package domain

import (
	"github.com/yungbote/carepulse-backend/internal/domain/jobs"
	"github.com/yungbote/carepulse-backend/internal/domain/moments"
	"github.com/yungbote/carepulse-backend/internal/domain/tasks"
)

type JobRun = jobs.JobRun

type Moment = moments.Moment
type MediaKind = moments.MediaKind

type Task = tasks.Task

const (
	MediaImage = moments.MediaImage
	MediaVideo = moments.MediaVideo

	MomentStatusPending    = moments.StatusPending
	MomentStatusProcessing = moments.StatusProcessing
	MomentStatusDone       = moments.StatusDone
	MomentStatusFailed     = moments.StatusFailed

	NoContentPlaceholder  = moments.NoContentPlaceholder
	MaxExtractedTextRunes = moments.MaxExtractedTextRunes

	JobStatusQueued    = jobs.StatusQueued
	JobStatusRunning   = jobs.StatusRunning
	JobStatusSucceeded = jobs.StatusSucceeded
	JobStatusFailed    = jobs.StatusFailed
	JobStatusCanceled  = jobs.StatusCanceled

	QueueMedia = jobs.QueueMedia
	QueueTasks = jobs.QueueTasks

	JobTypeMediaSentiment        = jobs.TypeMediaSentiment
	JobTypeProcessedFilesCleanup = jobs.TypeProcessedFilesCleanup
	JobTypeTaskReminder          = jobs.TypeTaskReminder
	JobTypeTaskOverdue           = jobs.TypeTaskOverdue

	TaskStatusOpen      = tasks.StatusOpen
	TaskStatusCompleted = tasks.StatusCompleted
	TaskStatusOverdue   = tasks.StatusOverdue
)

// Models lists every gorm-managed table, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Moment{},
		&Task{},
		&JobRun{},
	}
}

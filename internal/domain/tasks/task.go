package tasks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusOpen      = "open"
	StatusCompleted = "completed"
	StatusOverdue   = "overdue"
)

// Task is a facility to-do with a due date. ReminderJobID and OverdueJobID
// point at the scheduled jobs on the tasks queue.
type Task struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Description     string         `gorm:"column:description;type:text" json:"description,omitempty"`
	AssigneeName    string         `gorm:"column:assignee_name" json:"assignee_name,omitempty"`
	AssigneeContact string         `gorm:"column:assignee_contact" json:"assignee_contact,omitempty"`
	DueAt           time.Time      `gorm:"column:due_at;not null;index" json:"due_at"`
	Status          string         `gorm:"column:status;not null;index" json:"status"`
	ReminderJobID   *uuid.UUID     `gorm:"type:uuid;column:reminder_job_id" json:"reminder_job_id,omitempty"`
	OverdueJobID    *uuid.UUID     `gorm:"type:uuid;column:overdue_job_id" json:"overdue_job_id,omitempty"`
	CompletedAt     *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Task) TableName() string { return "task" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	return nil
}

func (t *Task) Open() bool { return t.Status == StatusOpen }

package tasks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type TaskRepo interface {
	Create(dbc dbctx.Context, t *types.Task) (*types.Task, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Task, error)
	List(dbc dbctx.Context, status string, limit int) ([]*types.Task, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// UpdateFieldsIfStatus applies updates only while the task is in status.
	UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, status string, updates map[string]interface{}) (bool, error)
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{
		db:  db,
		log: baseLog.With("repo", "TaskRepo"),
	}
}

func (r *taskRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Context())
	}
	return r.db.WithContext(dbc.Context())
}

func (r *taskRepo) Create(dbc dbctx.Context, t *types.Task) (*types.Task, error) {
	if err := r.tx(dbc).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *taskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Task, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var t types.Task
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&t).Error; err != nil {
		return nil, err
	}
	if t.ID == uuid.Nil {
		return nil, nil
	}
	return &t, nil
}

func (r *taskRepo) List(dbc dbctx.Context, status string, limit int) ([]*types.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	q := r.tx(dbc).Model(&types.Task{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.Task
	if err := q.Order("due_at ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *taskRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	_, err := r.UpdateFieldsIfStatus(dbc, id, "", updates)
	return err
}

func (r *taskRepo) UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, status string, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	q := r.tx(dbc).Model(&types.Task{}).Where("id = ?", id)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *taskRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.tx(dbc).Where("id = ?", id).Delete(&types.Task{}).Error
}

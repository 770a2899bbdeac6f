package moments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

// MomentRepo persists moments. UpdateFields keys are column names
// (extracted_text, sentiment_score, status, processed_immediately).
type MomentRepo interface {
	Create(dbc dbctx.Context, m *types.Moment) (*types.Moment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Moment, error)
	ListByWorker(dbc dbctx.Context, workerID uuid.UUID, limit int) ([]*types.Moment, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

const defaultListLimit = 50

type momentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMomentRepo(db *gorm.DB, baseLog *logger.Logger) MomentRepo {
	return &momentRepo{
		db:  db,
		log: baseLog.With("repo", "MomentRepo"),
	}
}

func (r *momentRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Context())
	}
	return r.db.WithContext(dbc.Context())
}

func (r *momentRepo) Create(dbc dbctx.Context, m *types.Moment) (*types.Moment, error) {
	if err := r.tx(dbc).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *momentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Moment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var m types.Moment
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&m).Error; err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		return nil, nil
	}
	return &m, nil
}

func (r *momentRepo) ListByWorker(dbc dbctx.Context, workerID uuid.UUID, limit int) ([]*types.Moment, error) {
	var out []*types.Moment
	if workerID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if err := r.tx(dbc).
		Where("worker_id = ?", workerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *momentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).
		Model(&types.Moment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

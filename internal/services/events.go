package services

import (
	"context"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/platform/redis"
)

const EventMomentProcessed = "moment.processed"

// MomentEvents announces pipeline completions to dashboards.
type MomentEvents interface {
	MomentProcessed(ctx context.Context, m *types.Moment)
}

type nopMomentEvents struct{}

func NewNopMomentEvents() MomentEvents { return nopMomentEvents{} }

func (nopMomentEvents) MomentProcessed(context.Context, *types.Moment) {}

type redisMomentEvents struct {
	log *logger.Logger
	bus redis.Bus
}

func NewRedisMomentEvents(baseLog *logger.Logger, bus redis.Bus) MomentEvents {
	return &redisMomentEvents{
		log: baseLog.With("service", "MomentEvents"),
		bus: bus,
	}
}

// MomentProcessed is best effort; publish failures are logged only.
func (e *redisMomentEvents) MomentProcessed(ctx context.Context, m *types.Moment) {
	if m == nil {
		return
	}
	err := e.bus.Publish(ctx, redis.Event{
		Type:       EventMomentProcessed,
		EntityType: "moment",
		EntityID:   m.ID.String(),
		Data: map[string]any{
			"worker_id":             m.WorkerID.String(),
			"status":                m.Status,
			"sentiment_score":       m.SentimentScore,
			"processed_immediately": m.ProcessedImmediately,
		},
	})
	if err != nil {
		e.log.Warn("Publish moment event failed", "moment_id", m.ID, "error", err)
	}
}

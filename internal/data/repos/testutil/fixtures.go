package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/carepulse-backend/internal/domain"
)

func SeedMoment(tb testing.TB, ctx context.Context, tx *gorm.DB, workerID uuid.UUID, kind types.MediaKind) *types.Moment {
	tb.Helper()
	m := &types.Moment{
		ID:        uuid.New(),
		WorkerID:  workerID,
		MediaURL:  "/media/" + string(kind),
		MediaPath: "/tmp/carepulse-test/" + string(kind),
		MediaKind: kind,
		Status:    types.MomentStatusPending,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed moment: %v", err)
	}
	return m
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, dueAt time.Time) *types.Task {
	tb.Helper()
	t := &types.Task{
		ID:              uuid.New(),
		Title:           "Restock gloves",
		AssigneeName:    "Sam",
		AssigneeContact: "+15550001111",
		DueAt:           dueAt.UTC(),
		Status:          types.TaskStatusOpen,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return t
}

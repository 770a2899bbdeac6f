package moments

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/carepulse-backend/internal/data/db"
	"github.com/yungbote/carepulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
)

func TestMongoMomentRepo(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("set TEST_MONGO_URI to run mongo integration tests")
	}
	ctx := context.Background()
	log := testutil.Logger(t)
	client, err := db.ConnectMongo(ctx, log, uri)
	if err != nil {
		t.Fatalf("ConnectMongo: %v", err)
	}
	t.Cleanup(func() { _ = db.DisconnectMongo(client) })

	col := client.Database("carepulse_test").Collection("moments_" + uuid.NewString()[:8])
	t.Cleanup(func() { _ = col.Drop(context.Background()) })
	if err := EnsureIndexes(ctx, col); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	repo := NewMongoMomentRepo(col, log)
	dbc := dbctx.Context{Ctx: ctx}
	workerID := uuid.New()

	m, err := repo.Create(dbc, &types.Moment{WorkerID: workerID, MediaURL: "/media/a.jpg", MediaPath: "/tmp/a.jpg", MediaKind: types.MediaImage})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpdateFields(dbc, m.ID, map[string]interface{}{"sentiment_score": 55, "status": types.MomentStatusDone}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByID(dbc, m.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v moment=%v", err, got)
	}
	if got.SentimentScore == nil || *got.SentimentScore != 55 || got.Status != types.MomentStatusDone {
		t.Fatalf("GetByID: unexpected moment %+v", got)
	}
	list, err := repo.ListByWorker(dbc, workerID, 5)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByWorker: want 1 got=%d err=%v", len(list), err)
	}
}

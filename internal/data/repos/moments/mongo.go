package moments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

// mongoMoment is the document shape. Ids are stored as strings so documents
// stay readable from the mongo shell.
type mongoMoment struct {
	ID                   string    `bson:"_id"`
	WorkerID             string    `bson:"worker_id"`
	MediaURL             string    `bson:"media_url"`
	MediaPath            string    `bson:"media_path"`
	MediaKind            string    `bson:"media_kind"`
	SubmitterName        string    `bson:"submitter_name,omitempty"`
	ExtractedText        *string   `bson:"extracted_text"`
	SentimentScore       *int      `bson:"sentiment_score"`
	Status               string    `bson:"status"`
	ProcessedImmediately bool      `bson:"processed_immediately"`
	CreatedAt            time.Time `bson:"created_at"`
	UpdatedAt            time.Time `bson:"updated_at"`
}

func toMongo(m *types.Moment) mongoMoment {
	return mongoMoment{
		ID:                   m.ID.String(),
		WorkerID:             m.WorkerID.String(),
		MediaURL:             m.MediaURL,
		MediaPath:            m.MediaPath,
		MediaKind:            string(m.MediaKind),
		SubmitterName:        m.SubmitterName,
		ExtractedText:        m.ExtractedText,
		SentimentScore:       m.SentimentScore,
		Status:               m.Status,
		ProcessedImmediately: m.ProcessedImmediately,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func (d mongoMoment) toDomain() (*types.Moment, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("moment %q: bad id: %w", d.ID, err)
	}
	workerID, err := uuid.Parse(d.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("moment %q: bad worker_id: %w", d.ID, err)
	}
	return &types.Moment{
		ID:                   id,
		WorkerID:             workerID,
		MediaURL:             d.MediaURL,
		MediaPath:            d.MediaPath,
		MediaKind:            types.MediaKind(d.MediaKind),
		SubmitterName:        d.SubmitterName,
		ExtractedText:        d.ExtractedText,
		SentimentScore:       d.SentimentScore,
		Status:               d.Status,
		ProcessedImmediately: d.ProcessedImmediately,
		CreatedAt:            d.CreatedAt.UTC(),
		UpdatedAt:            d.UpdatedAt.UTC(),
	}, nil
}

type mongoMomentRepo struct {
	col *mongo.Collection
	log *logger.Logger
}

// NewMongoMomentRepo stores moments in col. dbctx transactions are ignored.
func NewMongoMomentRepo(col *mongo.Collection, baseLog *logger.Logger) MomentRepo {
	return &mongoMomentRepo{
		col: col,
		log: baseLog.With("repo", "MongoMomentRepo"),
	}
}

// EnsureIndexes creates the worker listing index. Safe to call repeatedly.
func EnsureIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "worker_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *mongoMomentRepo) Create(dbc dbctx.Context, m *types.Moment) (*types.Moment, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = types.MomentStatusPending
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if _, err := r.col.InsertOne(dbc.Context(), toMongo(m)); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *mongoMomentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Moment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var doc mongoMoment
	err := r.col.FindOne(dbc.Context(), bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (r *mongoMomentRepo) ListByWorker(dbc dbctx.Context, workerID uuid.UUID, limit int) ([]*types.Moment, error) {
	out := []*types.Moment{}
	if workerID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	ctx := dbc.Context()
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.M{"created_at": -1})
	cursor, err := r.col.Find(ctx, bson.M{"worker_id": workerID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoMoment
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		m, err := d.toDomain()
		if err != nil {
			r.log.Warn("Skipping malformed moment document", "id", d.ID, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *mongoMomentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	set := bson.M{}
	for k, v := range updates {
		set[k] = v
	}
	if _, ok := set["updated_at"]; !ok {
		set["updated_at"] = time.Now().UTC()
	}
	_, err := r.col.UpdateOne(dbc.Context(), bson.M{"_id": id.String()}, bson.M{"$set": set})
	return err
}

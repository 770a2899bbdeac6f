package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/pkg/errors"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

// inlineProcessTimeout bounds a synchronous pipeline run once it is detached
// from the request.
const inlineProcessTimeout = 2 * time.Minute

type UploadInput struct {
	WorkerID      uuid.UUID
	SubmitterName string
	Filename      string
	ContentType   string
	File          io.Reader
}

// ProcessResult is what the uploader learns synchronously. Queued uploads
// carry nil text and score.
type ProcessResult struct {
	ExtractedText        *string `json:"extracted_text"`
	SentimentScore       *int    `json:"sentiment_score"`
	ProcessedImmediately bool    `json:"processed_immediately"`
}

type UploadResult struct {
	Moment *types.Moment
	ProcessResult
}

type MomentService interface {
	Upload(dbc dbctx.Context, in UploadInput) (*UploadResult, error)
	// DecideAndProcess never fails; pipeline and enqueue problems are
	// absorbed and logged.
	DecideAndProcess(dbc dbctx.Context, mediaPath string, kind types.MediaKind, momentID uuid.UUID) *ProcessResult
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Moment, error)
	ListByWorker(dbc dbctx.Context, workerID uuid.UUID, limit int) ([]*types.Moment, error)
}

type momentService struct {
	log      *logger.Logger
	moments  repos.MomentRepo
	store    MediaStore
	pipeline MomentPipeline
	jobs     JobService
	queue    QueueState
}

func NewMomentService(
	baseLog *logger.Logger,
	momentRepo repos.MomentRepo,
	store MediaStore,
	pipeline MomentPipeline,
	jobs JobService,
	queue QueueState,
) MomentService {
	return &momentService{
		log:      baseLog.With("service", "MomentService"),
		moments:  momentRepo,
		store:    store,
		pipeline: pipeline,
		jobs:     jobs,
		queue:    queue,
	}
}

func (s *momentService) Upload(dbc dbctx.Context, in UploadInput) (*UploadResult, error) {
	if in.WorkerID == uuid.Nil {
		return nil, fmt.Errorf("%w: worker_id required", errors.ErrInvalidArgument)
	}
	if in.File == nil {
		return nil, fmt.Errorf("%w: file required", errors.ErrInvalidArgument)
	}
	stored, err := s.store.Save(dbc.Context(), in.Filename, in.ContentType, in.File)
	if err != nil {
		return nil, err
	}

	m, err := s.moments.Create(dbc, &types.Moment{
		WorkerID:      in.WorkerID,
		MediaURL:      stored.URL,
		MediaPath:     stored.Path,
		MediaKind:     stored.Kind,
		SubmitterName: strings.TrimSpace(in.SubmitterName),
		Status:        types.MomentStatusPending,
	})
	if err != nil {
		if rmErr := os.Remove(stored.Path); rmErr != nil {
			s.log.Warn("Failed to remove orphaned upload", "path", stored.Path, "error", rmErr)
		}
		return nil, fmt.Errorf("create moment: %w", err)
	}

	res := s.DecideAndProcess(dbc, m.MediaPath, m.MediaKind, m.ID)
	if res.ProcessedImmediately {
		if fresh, err := s.moments.GetByID(dbc, m.ID); err == nil && fresh != nil {
			m = fresh
		} else {
			m.ProcessedImmediately = true
			m.ExtractedText = res.ExtractedText
			m.SentimentScore = res.SentimentScore
		}
	}
	return &UploadResult{Moment: m, ProcessResult: *res}, nil
}

func (s *momentService) DecideAndProcess(dbc dbctx.Context, mediaPath string, kind types.MediaKind, momentID uuid.UUID) *ProcessResult {
	log := s.log.With("moment_id", momentID, "media_kind", kind)
	if ShouldProcessImmediately(kind, s.queue) {
		return s.processNow(dbc, mediaPath, kind, momentID)
	}

	_, err := s.jobs.Enqueue(dbc, mediaSentimentJob(momentID, mediaPath, kind))
	if err == nil {
		return &ProcessResult{ProcessedImmediately: false}
	}
	if kind == types.MediaImage {
		log.Warn("Enqueue failed; processing image immediately", "error", err)
		return s.processNow(dbc, mediaPath, kind, momentID)
	}
	log.Warn("Enqueue failed for video; moment stays pending", "error", err)
	return &ProcessResult{ProcessedImmediately: false}
}

// processNow runs the pipeline detached from the caller's cancellation so a
// client disconnect cannot strand the moment in processing.
func (s *momentService) processNow(dbc dbctx.Context, mediaPath string, kind types.MediaKind, momentID uuid.UUID) *ProcessResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(dbc.Context()), inlineProcessTimeout)
	defer cancel()
	inner := dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	if err := s.moments.UpdateFields(inner, momentID, map[string]interface{}{
		"processed_immediately": true,
	}); err != nil {
		s.log.Warn("Failed to flag immediate processing", "moment_id", momentID, "error", err)
	}
	out, err := s.pipeline.Run(inner, PipelineInput{
		MomentID:  momentID,
		MediaPath: mediaPath,
		MediaKind: kind,
		Trigger:   TriggerImmediate,
	})
	if err != nil {
		s.log.Error("Immediate pipeline failed; handing moment to the queue", "moment_id", momentID, "error", err)
		if _, qErr := s.jobs.Enqueue(inner, mediaSentimentJob(momentID, mediaPath, kind)); qErr != nil {
			s.log.Error("Requeue after immediate failure failed", "moment_id", momentID, "error", qErr)
		}
		return &ProcessResult{ProcessedImmediately: true}
	}
	return &ProcessResult{
		ExtractedText:        out.ExtractedText,
		SentimentScore:       out.SentimentScore,
		ProcessedImmediately: true,
	}
}

func mediaSentimentJob(momentID uuid.UUID, mediaPath string, kind types.MediaKind) EnqueueRequest {
	return EnqueueRequest{
		JobType:    types.JobTypeMediaSentiment,
		EntityType: "moment",
		EntityID:   &momentID,
		Payload: map[string]any{
			"moment_id":  momentID.String(),
			"media_path": mediaPath,
			"media_kind": string(kind),
		},
	}
}

func (s *momentService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Moment, error) {
	m, err := s.moments.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.ErrNotFound
	}
	return m, nil
}

func (s *momentService) ListByWorker(dbc dbctx.Context, workerID uuid.UUID, limit int) ([]*types.Moment, error) {
	if workerID == uuid.Nil {
		return nil, fmt.Errorf("%w: worker id required", errors.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.moments.ListByWorker(dbc, workerID, limit)
}

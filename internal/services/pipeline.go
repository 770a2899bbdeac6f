package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/domain/moments"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/pkg/pointers"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

const (
	TriggerImmediate  = "immediate"
	TriggerBackground = "background"
)

type PipelineInput struct {
	MomentID  uuid.UUID
	MediaPath string
	MediaKind types.MediaKind
	// Trigger labels metrics and traces only; it does not change the outcome.
	Trigger string
}

type PipelineOutcome struct {
	ExtractedText  *string `json:"extracted_text"`
	SentimentScore *int    `json:"sentiment_score"`
	Status         string  `json:"status"`
}

// MomentPipeline runs extract, score and persist for one Moment. Extraction
// and scoring problems become outcome values; only persistence errors are
// returned.
type MomentPipeline interface {
	Run(dbc dbctx.Context, in PipelineInput) (*PipelineOutcome, error)
}

type momentPipeline struct {
	log       *logger.Logger
	moments   repos.MomentRepo
	extractor MediaExtractor
	scorer    SentimentScorer
	events    MomentEvents
	metrics   *observability.Metrics
}

func NewMomentPipeline(
	baseLog *logger.Logger,
	momentRepo repos.MomentRepo,
	extractor MediaExtractor,
	scorer SentimentScorer,
	events MomentEvents,
	metrics *observability.Metrics,
) MomentPipeline {
	if events == nil {
		events = NewNopMomentEvents()
	}
	return &momentPipeline{
		log:       baseLog.With("service", "MomentPipeline"),
		moments:   momentRepo,
		extractor: extractor,
		scorer:    scorer,
		events:    events,
		metrics:   metrics,
	}
}

func (p *momentPipeline) Run(dbc dbctx.Context, in PipelineInput) (*PipelineOutcome, error) {
	if in.MomentID == uuid.Nil {
		return nil, fmt.Errorf("missing moment id")
	}
	ctx, span := observability.Tracer().Start(dbc.Context(), "moment.pipeline")
	defer span.End()
	span.SetAttributes(
		attribute.String("moment.id", in.MomentID.String()),
		attribute.String("media.kind", string(in.MediaKind)),
		attribute.String("pipeline.trigger", in.Trigger),
	)
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}
	log := p.log.With("moment_id", in.MomentID, "trigger", in.Trigger)

	if err := p.moments.UpdateFields(dbc, in.MomentID, map[string]interface{}{
		"status": types.MomentStatusProcessing,
	}); err != nil {
		log.Warn("Failed to mark moment processing", "error", err)
	}

	text := p.extractor.Extract(ctx, in.MediaPath, in.MediaKind)
	score := ScoreFailed
	if strings.TrimSpace(text) != "" {
		score = p.scorer.Score(ctx, text)
	}
	out := BuildOutcome(text, score)

	if err := p.moments.UpdateFields(dbc, in.MomentID, map[string]interface{}{
		"extracted_text":  out.ExtractedText,
		"sentiment_score": out.SentimentScore,
		"status":          out.Status,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, fmt.Errorf("persist moment outcome: %w", err)
	}
	span.SetAttributes(attribute.String("moment.status", out.Status))
	p.metrics.IncMomentOutcome(in.Trigger, out.Status)
	log.Info("Moment processed", "status", out.Status, "scored", out.SentimentScore != nil)

	if m, err := p.moments.GetByID(dbc, in.MomentID); err == nil && m != nil {
		p.events.MomentProcessed(ctx, m)
	}
	return out, nil
}

// BuildOutcome maps extracted text and a raw score to the persisted fields.
// No text: placeholder, no score, failed. Text with ScoreFailed: truncated
// text, no score, failed. Otherwise truncated text, clamped score, done.
func BuildOutcome(text string, score int) *PipelineOutcome {
	if strings.TrimSpace(text) == "" {
		return &PipelineOutcome{ExtractedText: pointers.String(moments.NoContentPlaceholder), Status: types.MomentStatusFailed}
	}
	truncated := pointers.String(moments.TruncateText(strings.TrimSpace(text)))
	if score == ScoreFailed {
		return &PipelineOutcome{ExtractedText: truncated, Status: types.MomentStatusFailed}
	}
	return &PipelineOutcome{ExtractedText: truncated, SentimentScore: pointers.Int(moments.ClampScore(score)), Status: types.MomentStatusDone}
}

package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/carepulse-backend/internal/data/repos"
	"github.com/yungbote/carepulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/domain/moments"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
)

func TestBuildOutcome(t *testing.T) {
	long := strings.Repeat("é", moments.MaxExtractedTextRunes+40)

	out := BuildOutcome("  ", 80)
	if out.ExtractedText == nil || *out.ExtractedText != moments.NoContentPlaceholder {
		t.Fatalf("no text: want placeholder got=%v", out.ExtractedText)
	}
	if out.SentimentScore != nil || out.Status != types.MomentStatusFailed {
		t.Fatalf("no text: want nil score/failed got=%v/%s", out.SentimentScore, out.Status)
	}

	out = BuildOutcome(long, ScoreFailed)
	if out.ExtractedText == nil || len([]rune(*out.ExtractedText)) != moments.MaxExtractedTextRunes {
		t.Fatalf("sentinel: want truncated text got=%v", out.ExtractedText)
	}
	if out.SentimentScore != nil || out.Status != types.MomentStatusFailed {
		t.Fatalf("sentinel: want nil score/failed got=%v/%s", out.SentimentScore, out.Status)
	}

	out = BuildOutcome("Lovely afternoon", 140)
	if out.ExtractedText == nil || *out.ExtractedText != "Lovely afternoon" {
		t.Fatalf("scored: want text got=%v", out.ExtractedText)
	}
	if out.SentimentScore == nil || *out.SentimentScore != 100 || out.Status != types.MomentStatusDone {
		t.Fatalf("scored: want 100/done got=%v/%s", out.SentimentScore, out.Status)
	}
}

func TestMomentPipelineRunPersists(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := testutil.Logger(t)
	repo := repos.NewMomentRepo(db, log)
	m := testutil.SeedMoment(t, ctx, db, uuid.New(), types.MediaImage)

	events := &recordingEvents{}
	ext := &fixedExtractor{text: "Residents enjoyed music hour"}
	sc := &fixedScorer{score: 77}
	p := NewMomentPipeline(log, repo, ext, sc, events, nil)

	out, err := p.Run(dbc, PipelineInput{MomentID: m.ID, MediaPath: m.MediaPath, MediaKind: m.MediaKind, Trigger: TriggerBackground})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Status != types.MomentStatusDone || out.SentimentScore == nil || *out.SentimentScore != 77 {
		t.Fatalf("Run: want done/77 got=%s/%v", out.Status, out.SentimentScore)
	}

	got, err := repo.GetByID(dbc, m.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v moment=%v", err, got)
	}
	if got.ExtractedText == nil || *got.ExtractedText != "Residents enjoyed music hour" {
		t.Fatalf("stored text: got=%v", got.ExtractedText)
	}
	if got.SentimentScore == nil || *got.SentimentScore != 77 || got.Status != types.MomentStatusDone {
		t.Fatalf("stored score/status: got=%v/%s", got.SentimentScore, got.Status)
	}
	if len(events.ids) != 1 || events.ids[0] != m.ID {
		t.Fatalf("events: want [%s] got=%v", m.ID, events.ids)
	}
}

func TestMomentPipelineSkipsScoringWithoutText(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := testutil.Logger(t)
	repo := repos.NewMomentRepo(db, log)
	m := testutil.SeedMoment(t, ctx, db, uuid.New(), types.MediaVideo)

	sc := &fixedScorer{score: 50}
	p := NewMomentPipeline(log, repo, &fixedExtractor{text: ""}, sc, nil, nil)
	if _, err := p.Run(dbc, PipelineInput{MomentID: m.ID, MediaKind: types.MediaVideo, Trigger: TriggerBackground}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sc.calls != 0 {
		t.Fatalf("scorer calls: want=0 got=%d", sc.calls)
	}
	got, _ := repo.GetByID(dbc, m.ID)
	if got.ExtractedText == nil || *got.ExtractedText != moments.NoContentPlaceholder || got.SentimentScore != nil {
		t.Fatalf("stored: want placeholder/nil got=%v/%v", got.ExtractedText, got.SentimentScore)
	}
}

func TestMomentPipelineRejectsMissingID(t *testing.T) {
	p := NewMomentPipeline(testutil.Logger(t), nil, &fixedExtractor{}, &fixedScorer{}, nil, nil)
	if _, err := p.Run(dbctx.Context{Ctx: context.Background()}, PipelineInput{}); err == nil {
		t.Fatalf("Run: want error for nil moment id")
	}
}

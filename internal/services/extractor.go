package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/platform/localmedia"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

// MediaExtractor produces plain text for a stored media file. It never fails:
// "" means nothing could be extracted.
type MediaExtractor interface {
	Extract(ctx context.Context, path string, kind types.MediaKind) string
}

type ExtractorConfig struct {
	// DownscaleMaxSide bounds the low-detail image retry.
	DownscaleMaxSide int
	// FrameConcurrency bounds parallel frame descriptions.
	FrameConcurrency int
}

type mediaExtractor struct {
	log         *logger.Logger
	transcriber Transcriber
	describer   ImageDescriber
	tools       localmedia.Tools
	metrics     *observability.Metrics
	cfg         ExtractorConfig
}

func NewMediaExtractor(
	baseLog *logger.Logger,
	transcriber Transcriber,
	describer ImageDescriber,
	tools localmedia.Tools,
	metrics *observability.Metrics,
	cfg ExtractorConfig,
) MediaExtractor {
	if cfg.DownscaleMaxSide <= 0 {
		cfg.DownscaleMaxSide = 512
	}
	if cfg.FrameConcurrency <= 0 {
		cfg.FrameConcurrency = 3
	}
	return &mediaExtractor{
		log:         baseLog.With("service", "MediaExtractor"),
		transcriber: transcriber,
		describer:   describer,
		tools:       tools,
		metrics:     metrics,
		cfg:         cfg,
	}
}

func (e *mediaExtractor) Extract(ctx context.Context, path string, kind types.MediaKind) string {
	ctx, span := observability.Tracer().Start(ctx, "extractor.extract")
	defer span.End()
	span.SetAttributes(attribute.String("media.kind", string(kind)))

	switch kind {
	case types.MediaVideo:
		return e.extractVideo(ctx, path)
	case types.MediaImage:
		return e.extractImage(ctx, path)
	default:
		e.log.Warn("Unknown media kind", "kind", kind)
		return ""
	}
}

func (e *mediaExtractor) extractVideo(ctx context.Context, path string) string {
	if e.transcriber != nil {
		text, err := e.transcriber.Transcribe(ctx, path)
		if err != nil {
			e.log.Warn("Transcription failed", "error", err)
			e.metrics.IncExtractorCall("transcribe", "error")
		} else if t := strings.TrimSpace(text); t != "" {
			e.metrics.IncExtractorCall("transcribe", "ok")
			return t
		} else {
			e.metrics.IncExtractorCall("transcribe", "empty")
		}
	}

	if e.tools == nil || !e.tools.Available(ctx) {
		e.log.Info("Frame extraction unavailable; no text for video")
		return ""
	}
	return e.describeFrames(ctx, path)
}

func (e *mediaExtractor) describeFrames(ctx context.Context, path string) string {
	duration, err := e.tools.ProbeDuration(ctx, path)
	if err != nil {
		e.log.Warn("Duration probe failed; sampling a single frame", "error", err)
		duration = 0
	}
	offsets := FrameOffsets(duration)

	dir, err := e.tools.NewWorkDir(ctx, "frames")
	if err != nil {
		e.log.Warn("Failed to create frame scratch dir", "error", err)
		return ""
	}
	framePaths := make([]string, len(offsets))
	defer e.cleanupScratch(dir, framePaths)

	descriptions := make([]string, len(offsets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FrameConcurrency)
	for i, at := range offsets {
		framePaths[i] = filepath.Join(dir, fmt.Sprintf("frame_%d.jpg", i+1))
		g.Go(func() error {
			descriptions[i] = e.describeFrame(gctx, path, at, framePaths[i])
			return nil
		})
	}
	_ = g.Wait()

	return JoinFrameDescriptions(descriptions)
}

func (e *mediaExtractor) describeFrame(ctx context.Context, videoPath string, at time.Duration, outPath string) string {
	if _, err := e.tools.ExtractFrameAt(ctx, videoPath, at, outPath); err != nil {
		e.log.Warn("Frame extraction failed", "at", at.String(), "error", err)
		return ""
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		e.log.Warn("Failed to read frame", "at", at.String(), "error", err)
		return ""
	}
	desc, err := e.describer.DescribeImage(ctx, data, "image/jpeg", DetailLow)
	if err != nil {
		e.log.Warn("Frame description failed", "at", at.String(), "error", err)
		e.metrics.IncExtractorCall("frame", "error")
		return ""
	}
	e.metrics.IncExtractorCall("frame", "ok")
	return strings.TrimSpace(desc)
}

// cleanupScratch removes each frame file, then the directory.
func (e *mediaExtractor) cleanupScratch(dir string, files []string) {
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			e.log.Warn("Failed to remove frame", "path", f, "error", err)
		}
	}
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		e.log.Warn("Failed to remove frame dir", "dir", dir, "error", err)
	}
}

func (e *mediaExtractor) extractImage(ctx context.Context, path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn("Failed to read image", "error", err)
		return ""
	}
	desc, err := e.describer.DescribeImage(ctx, data, "", DetailHigh)
	if err == nil {
		e.metrics.IncExtractorCall("image_high", "ok")
		return strings.TrimSpace(desc)
	}
	e.log.Warn("High-detail description failed; retrying at low detail", "error", err)
	e.metrics.IncExtractorCall("image_high", "error")

	small, derr := localmedia.Downscale(data, e.cfg.DownscaleMaxSide)
	mime := "image/jpeg"
	if derr != nil {
		e.log.Warn("Downscale failed; retrying with original bytes", "error", derr)
		small, mime = data, ""
	}
	desc, err = e.describer.DescribeImage(ctx, small, mime, DetailLow)
	if err != nil {
		e.log.Warn("Low-detail description failed", "error", err)
		e.metrics.IncExtractorCall("image_low", "error")
		return ""
	}
	e.metrics.IncExtractorCall("image_low", "ok")
	return strings.TrimSpace(desc)
}

// FrameOffsets picks the sampling instants for a video of duration d:
// one frame under 5s (1s, or the midpoint for clips of 1s or less), two under
// 10s (1s, 3s), otherwise three (1s, 3s, 5s). An unknown duration (0) samples
// the first frame only. Offsets never reach past the end of the clip.
func FrameOffsets(d time.Duration) []time.Duration {
	if d <= 0 {
		return []time.Duration{0}
	}
	var raw []time.Duration
	switch {
	case d < 5*time.Second:
		if d > time.Second {
			raw = []time.Duration{time.Second}
		} else {
			raw = []time.Duration{d / 2}
		}
	case d < 10*time.Second:
		raw = []time.Duration{time.Second, 3 * time.Second}
	default:
		raw = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}
	}
	out := make([]time.Duration, 0, len(raw))
	for _, at := range raw {
		out = append(out, clampOffset(at, d))
	}
	return out
}

func clampOffset(at, d time.Duration) time.Duration {
	last := d - 100*time.Millisecond
	if last < 0 {
		last = 0
	}
	if at > last {
		return last
	}
	return at
}

// JoinFrameDescriptions keeps the non-empty descriptions in frame order.
func JoinFrameDescriptions(descriptions []string) string {
	parts := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		if d = strings.TrimSpace(d); d != "" {
			parts = append(parts, d)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%d frame descriptions]", len(parts))
	for i, p := range parts {
		fmt.Fprintf(&b, " Frame %d: %s", i+1, p)
	}
	return b.String()
}

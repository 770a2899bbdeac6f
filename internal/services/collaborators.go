package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/carepulse-backend/internal/platform/gcp"
	"github.com/yungbote/carepulse-backend/internal/platform/localmedia"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/platform/openai"
)

// Transcriber turns the audio track of a local media file into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// ImageDescriber returns a natural-language description of an encoded image.
// detail is "high" or "low".
type ImageDescriber interface {
	DescribeImage(ctx context.Context, data []byte, mime string, detail string) (string, error)
}

// TextClassifier answers a classification prompt with free text.
type TextClassifier interface {
	Classify(ctx context.Context, instructions string, text string) (string, error)
}

const (
	DetailHigh = "high"
	DetailLow  = "low"
)

const describeSystem = "You describe photos for a care team's activity log. Be factual and concise."

const describePrompt = "Describe what is happening in this image from a healthcare facility. " +
	"Mention people, activity, mood and any visible text. Two or three sentences."

type OpenAICollaborators struct {
	ai openai.Client
}

// NewOpenAICollaborators adapts one OpenAI client to the three extraction
// collaborator interfaces.
func NewOpenAICollaborators(ai openai.Client) *OpenAICollaborators {
	return &OpenAICollaborators{ai: ai}
}

func (o *OpenAICollaborators) Transcribe(ctx context.Context, path string) (string, error) {
	return o.ai.Transcribe(ctx, path)
}

func (o *OpenAICollaborators) DescribeImage(ctx context.Context, data []byte, mime string, detail string) (string, error) {
	out, err := o.ai.GenerateTextWithImages(ctx, describeSystem, describePrompt, []openai.ImageInput{{
		ImageURL: openai.DataURL(mime, data),
		Detail:   detail,
	}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAICollaborators) Classify(ctx context.Context, instructions string, text string) (string, error) {
	return o.ai.GenerateText(ctx, instructions, text)
}

type gcpTranscriber struct {
	log    *logger.Logger
	speech gcp.Speech
	tools  localmedia.Tools
}

// NewGCPTranscriber extracts a mono 16kHz FLAC track with ffmpeg and sends it
// to Cloud Speech.
func NewGCPTranscriber(baseLog *logger.Logger, speech gcp.Speech, tools localmedia.Tools) Transcriber {
	return &gcpTranscriber{
		log:    baseLog.With("service", "GCPTranscriber"),
		speech: speech,
		tools:  tools,
	}
}

func (g *gcpTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	if g.tools == nil || !g.tools.Available(ctx) {
		return "", fmt.Errorf("ffmpeg unavailable for audio extraction")
	}
	dir, err := g.tools.NewWorkDir(ctx, "audio")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			g.log.Warn("Failed to remove audio scratch dir", "dir", dir, "error", err)
		}
	}()

	out, err := g.tools.ExtractAudioFromVideo(ctx, path, filepath.Join(dir, "audio.flac"), localmedia.AudioExtractOptions{
		SampleRateHz: 16000,
		Channels:     1,
		Format:       "flac",
	})
	if err != nil {
		return "", err
	}
	audio, err := os.ReadFile(out)
	if err != nil {
		return "", fmt.Errorf("read extracted audio: %w", err)
	}
	return g.speech.TranscribeAudioBytes(ctx, audio, "audio/flac", gcp.SpeechConfig{
		SampleRateHertz:            16000,
		AudioChannelCount:          1,
		EnableAutomaticPunctuation: true,
	})
}

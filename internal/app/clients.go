package app

import (
	"context"
	"fmt"

	"github.com/yungbote/carepulse-backend/internal/platform/gcp"
	"github.com/yungbote/carepulse-backend/internal/platform/localmedia"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/platform/openai"
	"github.com/yungbote/carepulse-backend/internal/platform/redis"
	"github.com/yungbote/carepulse-backend/internal/platform/sendgrid"
	"github.com/yungbote/carepulse-backend/internal/platform/twilio"
)

type Clients struct {
	OpenAI     openai.Client
	GcpSpeech  gcp.Speech
	MediaTools localmedia.Tools
	Twilio     twilio.Client
	SendGrid   sendgrid.Client
	Bus        redis.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Openai
	ai, err := openai.New(log, cfg.OpenAI)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	out.OpenAI = ai

	out.MediaTools = localmedia.New(log, localmedia.Config{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		WorkRoot:    cfg.MediaWorkDir,
	})

	// Gcp
	if cfg.SpeechProvider == SpeechProviderGCP {
		speech, err := gcp.NewSpeech(ctx, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init speech client: %w", err)
		}
		out.GcpSpeech = speech
	}

	// Notifications
	if cfg.Twilio.Configured() {
		tw, err := twilio.New(log, cfg.Twilio)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init twilio client: %w", err)
		}
		out.Twilio = tw
	} else {
		log.Warn("Twilio not configured; phone notifications will be logged only")
	}
	if cfg.SendGrid.Configured() {
		sg, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
		out.SendGrid = sg
	} else {
		log.Warn("SendGrid not configured; email notifications will be logged only")
	}

	// Redis
	if cfg.Redis.Addr != "" {
		bus, err := redis.NewBus(ctx, log, cfg.Redis)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		out.Bus = bus
	}

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.GcpSpeech != nil {
		_ = c.GcpSpeech.Close()
	}
}

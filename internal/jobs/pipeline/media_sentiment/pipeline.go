package media_sentiment

import (
	"fmt"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	jobrt "github.com/yungbote/carepulse-backend/internal/jobs/runtime"
	"github.com/yungbote/carepulse-backend/internal/pkg/dbctx"
	"github.com/yungbote/carepulse-backend/internal/services"
)

// Run scores one queued upload. Extraction and scoring failures are stored on
// the Moment as outcomes; only a failed write is returned for retry.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	momentID, ok := jc.PayloadUUID("moment_id")
	if !ok {
		jc.Fail("validate", fmt.Errorf("missing moment_id"))
		return nil
	}
	kind := types.MediaKind(jc.PayloadString("media_kind"))
	if !kind.Valid() {
		jc.Fail("validate", fmt.Errorf("invalid media_kind %q", kind))
		return nil
	}
	mediaPath := jc.PayloadString("media_path")
	if mediaPath == "" {
		jc.Fail("validate", fmt.Errorf("missing media_path"))
		return nil
	}

	jc.Progress("analyze", 10)
	out, err := p.pipeline.Run(dbctx.Context{Ctx: jc.Ctx}, services.PipelineInput{
		MomentID:  momentID,
		MediaPath: mediaPath,
		MediaKind: kind,
		Trigger:   services.TriggerBackground,
	})
	if err != nil {
		return err
	}

	jc.Succeed("done", map[string]any{
		"moment_id":       momentID.String(),
		"status":          out.Status,
		"sentiment_score": out.SentimentScore,
	})
	return nil
}

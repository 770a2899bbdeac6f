package app

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/carepulse-backend/internal/domain"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
	"github.com/yungbote/carepulse-backend/internal/services"
)

type Services struct {
	// Queues
	MediaJobs services.JobService
	TaskJobs  services.JobService

	// Moments
	MediaStore services.MediaStore
	Pipeline   services.MomentPipeline
	Moment     services.MomentService

	// Tasks
	Notifier services.Notifier
	Task     services.TaskService

	Assistant services.AssistantService
}

// wireServices builds the service graph. mediaQueue is the media worker; the
// moment service reads its state to decide between inline and queued scoring.
func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics, mediaQueue services.QueueState) (Services, error) {
	log.Info("Wiring services...")

	mediaJobs := services.NewJobService(log, repos.JobRun, types.QueueMedia)
	taskJobs := services.NewJobService(log, repos.JobRun, types.QueueTasks)

	store, err := services.NewLocalMediaStore(log, services.MediaStoreConfig{
		Dir:      cfg.MediaDir,
		BaseURL:  cfg.MediaBaseURL,
		MaxBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init media store: %w", err)
	}

	collab := services.NewOpenAICollaborators(clients.OpenAI)
	var transcriber services.Transcriber = collab
	if clients.GcpSpeech != nil {
		transcriber = services.NewGCPTranscriber(log, clients.GcpSpeech, clients.MediaTools)
	}

	extractor := services.NewMediaExtractor(log, transcriber, collab, clients.MediaTools, metrics, services.ExtractorConfig{})
	scorer := services.NewSentimentScorer(log, collab)

	events := services.NewNopMomentEvents()
	if clients.Bus != nil {
		events = services.NewRedisMomentEvents(log, clients.Bus)
	}

	pipeline := services.NewMomentPipeline(log, repos.Moment, extractor, scorer, events, metrics)
	moments := services.NewMomentService(log, repos.Moment, store, pipeline, mediaJobs, mediaQueue)

	notifier := services.NewNotifier(log, clients.Twilio, clients.SendGrid, cfg.NotifyChannel, metrics)
	tasks := services.NewTaskService(db, log, repos.Task, taskJobs, notifier, cfg.TaskReminderLead)

	assistant := services.NewAssistantService(log, clients.OpenAI)

	return Services{
		MediaJobs:  mediaJobs,
		TaskJobs:   taskJobs,
		MediaStore: store,
		Pipeline:   pipeline,
		Moment:     moments,
		Notifier:   notifier,
		Task:       tasks,
		Assistant:  assistant,
	}, nil
}

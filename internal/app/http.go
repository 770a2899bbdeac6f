package app

import (
	httpserver "github.com/yungbote/carepulse-backend/internal/http"
	httpH "github.com/yungbote/carepulse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/carepulse-backend/internal/http/middleware"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Moment    *httpH.MomentHandler
	Task      *httpH.TaskHandler
	Job       *httpH.JobHandler
	Assistant *httpH.AssistantHandler
}

func wireHandlers(log *logger.Logger, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(),
		Moment:    httpH.NewMomentHandler(svc.Moment),
		Task:      httpH.NewTaskHandler(svc.Task),
		Job:       httpH.NewJobHandler(svc.MediaJobs, svc.TaskJobs),
		Assistant: httpH.NewAssistantHandler(svc.Assistant),
	}
}

// wireMiddleware leaves Auth nil when no JWT secret is configured, which
// serves /api unauthenticated.
func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; API routes are unauthenticated")
		return Middleware{}
	}
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, mw Middleware, metrics *observability.Metrics) *httpserver.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.ServiceName
	}
	return httpserver.NewServer(":"+cfg.Port, httpserver.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      serviceName,
		AllowedOrigins:   cfg.CORSOrigins,
		AuthMiddleware:   mw.Auth,
		MediaDir:         cfg.MediaDir,
		MediaRoute:       cfg.MediaRoute,
		HealthHandler:    handlers.Health,
		MomentHandler:    handlers.Moment,
		TaskHandler:      handlers.Task,
		JobHandler:       handlers.Job,
		AssistantHandler: handlers.Assistant,
	})
}

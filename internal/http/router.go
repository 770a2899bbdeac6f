package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/carepulse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/carepulse-backend/internal/http/middleware"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string
	AuthMiddleware *httpMW.AuthMiddleware

	// MediaDir is served read-only under MediaRoute (default /media).
	MediaDir   string
	MediaRoute string

	HealthHandler    *httpH.HealthHandler
	MomentHandler    *httpH.MomentHandler
	TaskHandler      *httpH.TaskHandler
	JobHandler       *httpH.JobHandler
	AssistantHandler *httpH.AssistantHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Stored uploads
	if cfg.MediaDir != "" {
		route := cfg.MediaRoute
		if route == "" {
			route = "/media"
		}
		r.Static(route, cfg.MediaDir)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Moments
		if cfg.MomentHandler != nil {
			api.POST("/moments", cfg.MomentHandler.Upload)
			api.GET("/moments/:id", cfg.MomentHandler.GetMoment)
			api.GET("/workers/:id/moments", cfg.MomentHandler.ListWorkerMoments)
		}

		// Tasks
		if cfg.TaskHandler != nil {
			api.POST("/tasks", cfg.TaskHandler.CreateTask)
			api.GET("/tasks", cfg.TaskHandler.ListTasks)
			api.GET("/tasks/:id", cfg.TaskHandler.GetTask)
			api.PATCH("/tasks/:id/due-date", cfg.TaskHandler.UpdateDueDate)
			api.POST("/tasks/:id/complete", cfg.TaskHandler.CompleteTask)
			api.DELETE("/tasks/:id", cfg.TaskHandler.DeleteTask)
		}

		// Jobs
		if cfg.JobHandler != nil {
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
			api.POST("/jobs/:id/cancel", cfg.JobHandler.CancelJob)
		}

		// Assistant
		if cfg.AssistantHandler != nil {
			api.POST("/assistant/ask", cfg.AssistantHandler.Ask)
		}
	}

	return r
}

package app

import (
	"context"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/yungbote/carepulse-backend/internal/data/db"
	"github.com/yungbote/carepulse-backend/internal/data/repos"
	"github.com/yungbote/carepulse-backend/internal/data/repos/moments"
	httpserver "github.com/yungbote/carepulse-backend/internal/http"
	"github.com/yungbote/carepulse-backend/internal/observability"
	"github.com/yungbote/carepulse-backend/internal/platform/logger"
)

const mongoMomentCollection = "moments"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Jobs     Jobs
	Server   *httpserver.Server
	Metrics  *observability.Metrics

	dbService    *db.Service
	mongo        *mongo.Client
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	a.Metrics = observability.Init(cfg.MetricsEnabled)

	dbService, err := db.NewService(log, cfg.DB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init db: %w", err)
	}
	a.dbService = dbService
	a.DB = dbService.DB()
	if err := db.AutoMigrateAll(a.DB); err != nil {
		a.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	var momentRepo repos.MomentRepo
	if cfg.MomentStore == MomentStoreMongo {
		client, err := db.ConnectMongo(ctx, log, cfg.MongoURI)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init mongo: %w", err)
		}
		a.mongo = client
		col := client.Database(cfg.MongoDB).Collection(mongoMomentCollection)
		if err := moments.EnsureIndexes(ctx, col); err != nil {
			a.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		momentRepo = repos.NewMongoMomentRepo(col, log)
	}

	a.Repos = wireRepos(a.DB, log, momentRepo)

	a.Clients, err = wireClients(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Jobs = wireWorkers(log, cfg, a.Repos, a.Metrics)

	a.Services, err = wireServices(a.DB, log, cfg, a.Repos, a.Clients, a.Metrics, a.Jobs.MediaWorker)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := registerJobs(log, cfg, a.Repos, a.Clients, a.Services, &a.Jobs); err != nil {
		a.Close()
		return nil, err
	}

	handlers := wireHandlers(log, a.Services)
	middleware := wireMiddleware(log, cfg)
	a.Server = wireServer(log, cfg, handlers, middleware, a.Metrics)

	return a, nil
}

// Start launches the queue workers, the cron scheduler and the metrics
// collector. It does not serve HTTP; call Run for that.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Jobs.MediaWorker != nil {
		a.Jobs.MediaWorker.Start(ctx)
	}
	if a.Jobs.TaskWorker != nil {
		a.Jobs.TaskWorker.Start(ctx)
	}
	if a.Jobs.Scheduler != nil {
		a.Jobs.Scheduler.Start()
	}
	a.Metrics.StartJobQueueCollector(ctx, a.Log, a.DB, a.Cfg.QueueDepthInterval)
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Serving HTTP", "port", a.Cfg.Port)
	return a.Server.Run()
}

// Shutdown stops accepting HTTP requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

// Close stops background work and releases every client. It is safe on a
// partially built App.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Jobs.Scheduler != nil {
		a.Jobs.Scheduler.Stop()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Jobs.MediaWorker != nil {
		a.Jobs.MediaWorker.Stop()
	}
	if a.Jobs.TaskWorker != nil {
		a.Jobs.TaskWorker.Stop()
	}
	a.Clients.Close()
	if a.mongo != nil {
		if err := db.DisconnectMongo(a.mongo); err != nil {
			a.Log.Warn("Mongo disconnect failed", "error", err)
		}
		a.mongo = nil
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		a.otelShutdown = nil
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("DB close failed", "error", err)
		}
		a.dbService = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

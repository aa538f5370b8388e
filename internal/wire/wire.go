//go:build wireinject
// +build wireinject

package wire

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/mod-warden/internal/app"
	"github.com/sevigo/mod-warden/internal/config"
	"github.com/sevigo/mod-warden/internal/db"
	"github.com/sevigo/mod-warden/internal/jobs"
	"github.com/sevigo/mod-warden/internal/lifecycle"
	"github.com/sevigo/mod-warden/internal/logger"
	"github.com/sevigo/mod-warden/internal/server"
	"github.com/sevigo/mod-warden/internal/server/handler"
	"github.com/sevigo/mod-warden/internal/storage"
	"github.com/sevigo/mod-warden/internal/workload"
)

func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(
		app.NewApp,
		server.NewServer,
		handler.NewReviewHandler,
		config.LoadConfig,
		db.NewDatabase,
		storage.NewReviewStore,
		storage.NewModeratorStore,
		storage.NewDecisionStore,
		storage.NewAuditStore,
		workload.NewRegistry,
		lifecycle.NewEngine,
		provideDispatcher,
		provideSweeper,
		provideLedger,
		provideEscalationPolicy,
		provideNotifier,
		provideTrustClient,
		provideAssignmentDispatcher,
		provideSQLX,
		provideDBConfig,
		provideLoggerConfig,
		provideLogWriter,
		logger.NewLogger,
	)
	return &app.App{}, nil, nil
}

func provideDispatcher(engine *lifecycle.Engine, cfg *config.Config, slogLogger *slog.Logger) *jobs.Dispatcher {
	return jobs.NewDispatcher(engine, cfg.MaxWorkers, slogLogger)
}

func provideSweeper(engine *lifecycle.Engine, reviews storage.ReviewStore, dispatcher *jobs.Dispatcher, cfg *config.Config, slogLogger *slog.Logger) *jobs.Sweeper {
	return jobs.NewSweeper(engine, reviews, dispatcher, cfg.Sweep.Schedule, slogLogger)
}

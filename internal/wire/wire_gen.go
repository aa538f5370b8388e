// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"
	"fmt"

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

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	// Configuration and logging
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger := logger.NewLogger(provideLoggerConfig(cfg), provideLogWriter(cfg))

	// Database (connects and runs migrations)
	dbConn, dbCleanup, err := db.NewDatabase(provideDBConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	conn := provideSQLX(dbConn)

	// Stores
	reviewStore := storage.NewReviewStore(conn)
	moderatorStore := storage.NewModeratorStore(conn)
	decisionStore := storage.NewDecisionStore(conn)
	auditStore := storage.NewAuditStore(conn)

	// Domain services
	auditLedger := provideLedger(auditStore, slogLogger)
	registry := workload.NewRegistry(moderatorStore, reviewStore, slogLogger)
	policy := provideEscalationPolicy(cfg, slogLogger)
	notifier := provideNotifier(cfg, slogLogger)
	trustClient := provideTrustClient(cfg, slogLogger)
	engine := lifecycle.NewEngine(reviewStore, decisionStore, auditLedger, registry, trustClient, notifier, policy, slogLogger)

	// Background jobs
	dispatcher := jobs.NewDispatcher(engine, cfg.MaxWorkers, slogLogger)
	sweeper := jobs.NewSweeper(engine, reviewStore, dispatcher, cfg.Sweep.Schedule, slogLogger)

	// HTTP surface
	reviewHandler := handler.NewReviewHandler(engine, auditLedger, provideAssignmentDispatcher(dispatcher), sweeper, slogLogger)
	srv := server.NewServer(ctx, cfg, reviewHandler, slogLogger)

	application := app.NewApp(cfg, srv, engine, auditLedger, dispatcher, sweeper, slogLogger)

	cleanup := func() {
		dbCleanup()
	}
	return application, cleanup, nil
}

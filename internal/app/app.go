// Package app initializes and orchestrates the main components of the Mod
// Warden service. It ties together the HTTP server, the assignment worker
// pool, and the timeout sweeper.
package app

import (
	"log/slog"

	"github.com/sevigo/mod-warden/internal/config"
	"github.com/sevigo/mod-warden/internal/jobs"
	"github.com/sevigo/mod-warden/internal/ledger"
	"github.com/sevigo/mod-warden/internal/lifecycle"
	"github.com/sevigo/mod-warden/internal/server"
)

// App holds the main application components. Engine, Ledger, and Sweeper are
// exported for the CLI, which drives them directly instead of going through
// the HTTP server.
type App struct {
	Engine  *lifecycle.Engine
	Ledger  *ledger.Ledger
	Sweeper *jobs.Sweeper

	cfg        *config.Config
	server     *server.Server
	dispatcher *jobs.Dispatcher
	logger     *slog.Logger
}

// NewApp assembles the application from its already-wired components.
func NewApp(
	cfg *config.Config,
	srv *server.Server,
	engine *lifecycle.Engine,
	auditLedger *ledger.Ledger,
	dispatcher *jobs.Dispatcher,
	sweeper *jobs.Sweeper,
	logger *slog.Logger,
) *App {
	return &App{
		Engine:     engine,
		Ledger:     auditLedger,
		Sweeper:    sweeper,
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start launches the timeout sweeper and then the HTTP server. It blocks
// until the server exits.
func (a *App) Start() error {
	a.logger.Info("starting Mod Warden",
		"server_port", a.cfg.Server.Port,
		"max_workers", a.cfg.MaxWorkers,
		"sweep_schedule", a.cfg.Sweep.Schedule)

	if err := a.Sweeper.Start(); err != nil {
		a.logger.Error("failed to start timeout sweeper", "error", err)
		return err
	}

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down Mod Warden services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Stop the sweeper before the dispatcher so a final sweep pass cannot
	// enqueue work into a closed queue.
	a.Sweeper.Stop()
	a.dispatcher.Stop()

	if serverErr != nil {
		a.logger.Error("Mod Warden stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("Mod Warden stopped successfully")
	return nil
}

package wire

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/mod-warden/internal/config"
	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/db"
	"github.com/sevigo/mod-warden/internal/jobs"
	"github.com/sevigo/mod-warden/internal/ledger"
	"github.com/sevigo/mod-warden/internal/lifecycle"
	"github.com/sevigo/mod-warden/internal/logger"
	"github.com/sevigo/mod-warden/internal/notify"
	"github.com/sevigo/mod-warden/internal/storage"
)

// auditSource identifies this service in audit records it writes.
const auditSource = "mod-warden"

func provideDBConfig(cfg *config.Config) *config.DBConfig {
	return &cfg.Database
}

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logging
}

func provideLogWriter(cfg *config.Config) io.Writer {
	switch cfg.Logging.Output {
	case "stderr":
		return os.Stderr
	case "file":
		f, err := os.OpenFile("mod-warden.log", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			slog.Warn("failed to open log file, falling back to stdout", "error", err)
			return os.Stdout
		}
		return f
	default:
		return os.Stdout
	}
}

func provideSQLX(conn *db.DB) *sqlx.DB {
	return conn.DB
}

func provideLedger(store storage.AuditStore, slogLogger *slog.Logger) *ledger.Ledger {
	return ledger.New(store, auditSource, slogLogger)
}

func provideEscalationPolicy(cfg *config.Config, slogLogger *slog.Logger) *lifecycle.EscalationPolicy {
	policy, err := lifecycle.LoadEscalationPolicy(cfg.Sweep.PolicyPath)
	if err != nil {
		if errors.Is(err, lifecycle.ErrPolicyNotFound) {
			slogLogger.Warn("escalation policy file not found, using defaults", "path", cfg.Sweep.PolicyPath)
			return policy
		}
		slogLogger.Error("invalid escalation policy, using defaults", "path", cfg.Sweep.PolicyPath, "error", err)
		return lifecycle.DefaultEscalationPolicy()
	}
	return policy
}

func provideNotifier(cfg *config.Config, slogLogger *slog.Logger) core.Notifier {
	return notify.NewHTTPNotifier(cfg.Collaborators.NotifierURL, cfg.Collaborators.Timeout, slogLogger)
}

func provideTrustClient(cfg *config.Config, slogLogger *slog.Logger) core.TrustClient {
	return notify.NewHTTPTrustClient(cfg.Collaborators.TrustURL, cfg.Collaborators.Timeout, slogLogger)
}

func provideAssignmentDispatcher(d *jobs.Dispatcher) core.AssignmentDispatcher {
	return d
}

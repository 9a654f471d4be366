package cli

import (
	"go.uber.org/zap"

	"github.com/roach88/parttrack/internal/config"
	"github.com/roach88/parttrack/internal/logging"
	"github.com/roach88/parttrack/internal/parts"
	"github.com/roach88/parttrack/internal/store"
	"github.com/roach88/parttrack/internal/tracker"
)

// app is the wiring shared by every command: config, loggers, store and
// the tracker service built on top of them.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	audit  *logging.Audit
	svc    *tracker.Service
}

type appOptions struct {
	audit    bool
	observer tracker.Observer
}

// openApp loads configuration and opens the store. Failures are command
// errors (exit 2).
func openApp(opts *RootOptions, ao appOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to prepare data directory", err)
	}

	mode := cfg.Log.Mode
	if opts.Verbose {
		mode = "development"
	}
	logger, err := logging.New(mode)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build logger", err)
	}
	if !opts.Verbose && mode == "production" {
		// Keep command output quiet unless something goes wrong.
		logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	}

	catalog := parts.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = parts.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load part catalog", err)
		}
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a := &app{cfg: cfg, logger: logger, store: st}

	svcOpts := []tracker.Option{tracker.WithLogger(logger)}
	if ao.audit {
		a.audit, err = logging.OpenAudit(cfg.AuditLog)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to open audit log", err)
		}
		svcOpts = append(svcOpts, tracker.WithAuditLogger(a.audit.Logger))
	}
	if ao.observer != nil {
		svcOpts = append(svcOpts, tracker.WithObserver(ao.observer))
	}

	a.svc = tracker.New(st, catalog, cfg.Tracker, svcOpts...)
	return a, nil
}

func (a *app) Close() {
	if a.audit != nil {
		_ = a.audit.Close()
	}
	_ = a.logger.Sync()
	_ = a.store.Close()
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/wirelessmesh/internal/config"
	"github.com/roach88/wirelessmesh/internal/engine"
	"github.com/roach88/wirelessmesh/internal/logging"
	"github.com/roach88/wirelessmesh/internal/notify"
	"github.com/roach88/wirelessmesh/internal/schema"
	"github.com/roach88/wirelessmesh/internal/store"
)

// runtime is everything a command needs to talk to the event log.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	manager  *engine.Manager
	service  *engine.Service
	registry *prometheus.Registry
	notifier interface {
		engine.Notifier
		Close() error
	}
}

// loadConfig resolves configuration from --config (or the environment)
// and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openRuntime wires store, schema, metrics and notifier into a manager.
// Logs go to logOut so command output stays clean.
func openRuntime(opts *RootOptions, logOut io.Writer) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	logger := logging.NewWithWriter(logOut, cfg.Logging, Version)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	validator, err := schema.New()
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to compile command schema", err)
	}

	rt := &runtime{cfg: cfg, logger: logger, store: st, notifier: notify.Nop{}}

	if cfg.MQTT.Enabled {
		n, err := notify.Connect(cfg.MQTT, logger)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to connect to MQTT broker", err)
		}
		rt.notifier = n
	}

	var metrics *engine.Metrics
	if cfg.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		metrics = engine.NewMetrics(rt.registry)
	}

	rt.manager = engine.NewManager(st,
		engine.WithLogger(logger),
		engine.WithValidator(validator),
		engine.WithNotifier(rt.notifier),
		engine.WithMetrics(metrics),
		engine.WithMaxResident(cfg.Engine.MaxResident),
		engine.WithSnapshotEvery(cfg.Engine.SnapshotEvery),
	)
	rt.service = engine.NewService(rt.manager)

	logger.Debug("runtime ready",
		"db", cfg.Database.Path,
		"mqtt", cfg.MQTT.Enabled,
		"metrics", cfg.Metrics.Enabled,
	)
	return rt, nil
}

// Close flushes metrics, disconnects the notifier and closes the store.
func (r *runtime) Close() error {
	var errs []error
	if r.registry != nil {
		if err := prometheus.WriteToTextfile(r.cfg.Metrics.Textfile, r.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := r.notifier.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver for --dsn
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/sped"
)

type appOptions struct {
	configPath string
	mode       string
	dsn        string
	verbose    bool
}

// app is a configured engine plus the resources it owns.
type app struct {
	engine   *sped.Engine
	tracker  *sped.Tracker
	states   *sped.StateStore
	metrics  *sped.Metrics
	registry *prometheus.Registry

	closers []func()
}

func loadSettings(opts appOptions) (sped.Settings, error) {
	settings := sped.DefaultSettings()
	if opts.configPath != "" {
		s, err := sped.LoadSettings(opts.configPath)
		if err != nil {
			return sped.Settings{}, err
		}
		settings = s
	}
	if opts.mode != "" {
		mode, err := sped.ParseMode(opts.mode)
		if err != nil {
			return sped.Settings{}, err
		}
		settings.Mode = mode
	}
	return settings, nil
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	a := &app{registry: prometheus.NewRegistry()}

	if opts.verbose {
		a.closers = append(a.closers, observeLogs(slog.New(slog.NewTextHandler(os.Stderr, nil))).Close)
	}
	a.metrics = sped.NewMetrics(a.registry)
	a.closers = append(a.closers, a.metrics.Observe().Close)

	var memory sped.Memory
	if opts.dsn != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", opts.dsn)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })

		soyMemory, err := sped.NewSoyMemory(db, settings.MemoryCapacity)
		if err != nil {
			a.Close()
			return nil, err
		}
		memory = soyMemory
	} else {
		memory = sped.NewMemoryStore(settings.MemoryCapacity)
	}

	manager := sped.NewCircuitManager(settings.Qubits)
	a.tracker = sped.NewTracker(settings.HistoryLimit)
	a.states = sped.NewStateStore(sped.NewEncoder(settings.Qubits), settings.MemoryCapacity)

	engine, err := sped.New(sped.Config{
		Settings:  settings,
		Reasoning: sped.NewHeuristic(manager).WithEncoding(settings.Encoding, true),
		Memory:    memory,
		Enhanced:  sped.NewSimulator(manager, sped.NewMitigator(settings.ErrorBudget)).WithStates(a.states),
		Hook:      a.tracker,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = engine
	a.closers = append(a.closers, func() { _ = engine.Close() })
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// observeLogs writes every sped signal to logger at its event severity.
func observeLogs(logger *slog.Logger) *capitan.Observer {
	return capitan.Observe(func(ctx context.Context, e *capitan.Event) {
		fields := e.Fields()
		attrs := make([]slog.Attr, 0, len(fields))
		for _, f := range fields {
			attrs = append(attrs, slog.Any(f.Key().Name(), f.Value()))
		}
		logger.LogAttrs(ctx, level(e.Severity()), e.Signal().Name(), attrs...)
	})
}

func level(s capitan.Severity) slog.Level {
	switch s {
	case capitan.SeverityDebug:
		return slog.LevelDebug
	case capitan.SeverityWarn:
		return slog.LevelWarn
	case capitan.SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

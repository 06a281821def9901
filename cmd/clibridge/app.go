package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/joss/clibridge/internal/config"
	"github.com/joss/clibridge/internal/exec"
	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/metrics"
	"github.com/joss/clibridge/internal/orchestrator"
	"github.com/joss/clibridge/internal/provider"
	"github.com/joss/clibridge/internal/provider/claude"
	"github.com/joss/clibridge/internal/provider/codex"
	"github.com/joss/clibridge/internal/session"
	"github.com/joss/clibridge/internal/store"
)

// app is the wired bridge: registry, session store and orchestrator.
type app struct {
	env      *config.BridgeEnv
	registry *provider.Registry
	sessions *session.Store
	orch     *orchestrator.Orchestrator
	backend  store.Backend
}

// newRegistry builds adapters for the configured providers, in order.
func newRegistry(env *config.BridgeEnv, x exec.Executor) *provider.Registry {
	reg := provider.NewRegistry()
	for _, id := range env.Providers {
		switch id {
		case provider.Claude:
			reg.Register(claude.New(claude.Config{Bin: env.ClaudeBin, WorkDir: env.WorkDir}, x))
		case provider.Codex:
			reg.Register(codex.New(codex.Config{Bin: env.CodexBin, WorkDir: env.WorkDir}, x))
		default:
			logging.New("cli").Warn("unknown_provider", map[string]interface{}{"provider": id}, nil)
		}
	}
	return reg
}

// openBackend opens the configured session backend.
func openBackend(env *config.BridgeEnv) (store.Backend, error) {
	var opts []store.Option
	if store.Kind(env.Store) == store.KindRedis {
		opts = append(opts, store.WithRedisURL(env.RedisURL))
	}
	b, err := store.Open(store.Kind(env.Store), env.StoreLocation(), opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", env.Store, err)
	}
	return b, nil
}

func newApp(ctx context.Context) (*app, error) {
	env := config.Env()
	if env.ConfigErr != nil {
		logging.New("cli").Warn("config_ignored", map[string]interface{}{"path": env.ConfigFile}, env.ConfigErr)
	}
	reg := newRegistry(env, exec.NewOSExecutor())

	backend, err := openBackend(env)
	if err != nil {
		return nil, err
	}
	if err := backend.Ping(ctx); err != nil {
		// the store keeps working in memory; writes are retried on every mutation
		logging.New("cli").Warn("store_unreachable", map[string]interface{}{"location": backend.Location()}, err)
	}

	sessions := session.Open(ctx, backend,
		session.WithProviders(reg.Available()...),
		session.WithMaxHistory(env.MaxHistory),
		session.WithSystemPrompt(env.SystemPrompt),
	)
	orch := orchestrator.New(reg, sessions, orchestrator.WithTimeout(env.RequestTimeout))

	return &app{
		env:      env,
		registry: reg,
		sessions: sessions,
		orch:     orch,
		backend:  backend,
	}, nil
}

// serveMetrics starts the metrics endpoint when configured.
func (a *app) serveMetrics(ctx context.Context) {
	if a.env.MetricsAddr == "" {
		return
	}
	srv := metrics.NewServer(a.env.MetricsAddr, metrics.Global())
	logging.SafeGo("metrics", func() {
		if err := srv.Serve(ctx); err != nil {
			logging.New("metrics").Error("serve_failed", map[string]interface{}{"addr": a.env.MetricsAddr}, err)
		}
	})
	logging.New("metrics").Info("listening", map[string]interface{}{"addr": a.env.MetricsAddr})
}

// logPath returns the log file path, creating its directory.
func (a *app) logPath() string {
	path := config.GetPaths().LogFile
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		logging.New("cli").Warn("log_dir_failed", map[string]interface{}{"path": path}, err)
	}
	return path
}

func (a *app) Close() error {
	return a.sessions.Close()
}

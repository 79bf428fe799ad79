package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/launchpad/internal/api"
	"github.com/shaiso/launchpad/internal/config"
	"github.com/shaiso/launchpad/internal/orchestrator"
	"github.com/shaiso/launchpad/internal/scheduler"
)

// shutdownTimeout — ограничение на graceful shutdown HTTP сервера.
const shutdownTimeout = 10 * time.Second

// configHolder хранит текущую конфигурацию демона.
// Перезагрузка меняет только набор задач и профиль; секции general,
// history и notifications применяются при перезапуске.
type configHolder struct {
	mu      sync.RWMutex
	cfg     *config.Config
	load    func() (*config.Config, error)
	logger  *slog.Logger
	version int
}

func (h *configHolder) get() *config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// reload перечитывает конфигурацию. Невалидная конфигурация
// не заменяет текущую.
func (h *configHolder) reload() {
	cfg, err := h.load()
	if err != nil {
		h.logger.Error("config reload failed, keeping previous configuration", "error", err)
		return
	}

	h.mu.Lock()
	h.cfg = cfg
	h.version++
	version := h.version
	h.mu.Unlock()

	h.logger.Info("configuration reloaded", "version", version, "tasks", taskNames(cfg.DomainTasks()))
}

// request строит запрос на run по текущей конфигурации.
func (h *configHolder) request() (orchestrator.RunRequest, error) {
	cfg := h.get()
	return orchestrator.RunRequest{
		Tasks:   cfg.DomainTasks(),
		Profile: cfg.Profile,
	}, nil
}

// NewDaemonCmd создаёт команду daemon: расписание, HTTP API и перезагрузка конфигурации.
func NewDaemonCmd(app *App) *cobra.Command {
	var listen string
	var schedule string
	var watch bool
	var runNow bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run launchpad in the background: cron schedule, HTTP API and config reload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Daemon.Listen = listen
			}
			if cmd.Flags().Changed("schedule") {
				cfg.Daemon.Schedule = schedule
			}
			if cmd.Flags().Changed("watch") {
				cfg.Daemon.Watch = watch
			}

			e, err := app.newEnv(ctx, cfg, envOptions{notifications: true, runtimeMetrics: true})
			if err != nil {
				return err
			}
			defer e.Close()

			return runDaemon(ctx, app, e, runNow)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP API address (overrides daemon.listen; empty disables)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule (overrides daemon.schedule)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload tasks when the config file changes")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Start one run immediately")

	return cmd
}

func runDaemon(ctx context.Context, app *App, e *env, runNow bool) error {
	logger := e.logger
	cfg := e.cfg

	holder := &configHolder{
		cfg:    cfg,
		load:   app.LoadConfig,
		logger: logger,
	}

	g, ctx := errgroup.WithContext(ctx)

	var sched *scheduler.Scheduler
	if cfg.Daemon.Schedule != "" {
		s, err := scheduler.New(scheduler.Config{
			Schedule: cfg.Daemon.Schedule,
			Runner:   e.orch,
			Request:  holder.request,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("%w: daemon.schedule: %w", config.ErrConfig, err)
		}
		sched = s
		g.Go(func() error { return sched.Start(ctx) })
	}

	var handler *api.Handler
	if cfg.Daemon.Listen != "" {
		apiCfg := api.Config{
			Runner:      e.orch,
			History:     e.store,
			Request:     holder.request,
			Gatherer:    e.registry,
			BaseContext: ctx,
			Logger:      logger,
		}
		if sched != nil {
			apiCfg.Schedule = sched
		}
		handler = api.NewHandler(apiCfg)

		mux := http.NewServeMux()
		handler.RegisterRoutes(mux)

		ln, err := net.Listen("tcp", cfg.Daemon.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Daemon.Listen, err)
		}
		server := &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			logger.Info("listening", "addr", ln.Addr().String())
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown error", "error", err)
			}
			handler.Wait()
			return nil
		})
	}

	if cfg.Daemon.Watch {
		paths := []string{cfg.Path}
		if cfg.Profile != "" {
			dir := config.ProfilesDir(cfg.Path, cfg.General.ProfilesDir)
			paths = append(paths, profilePaths(dir, cfg.Profile)...)
		}
		watcher, err := config.NewWatcher(config.WatcherConfig{
			Paths:    paths,
			OnChange: holder.reload,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return watcher.Run(ctx) })
	}

	if runNow {
		g.Go(func() error {
			req, _ := holder.request()
			req.Trigger = TriggerCLI
			report, err := e.orch.Run(ctx, req)
			if err != nil {
				logger.Warn("startup run not started", "error", err)
				return nil
			}
			app.Output().Report(report)
			return nil
		})
	}

	if sched == nil && handler == nil && !runNow {
		logger.Warn("daemon has nothing to do: set daemon.schedule or daemon.listen")
	}

	logger.Info("daemon started",
		"schedule", cfg.Daemon.Schedule,
		"listen", cfg.Daemon.Listen,
		"watch", cfg.Daemon.Watch,
	)

	<-ctx.Done()
	err := g.Wait()
	logger.Info("daemon stopped")
	return err
}

// profilePaths возвращает возможные файлы профиля.
func profilePaths(dir, name string) []string {
	return []string{
		filepath.Join(dir, name+".yaml"),
		filepath.Join(dir, name+".yml"),
	}
}

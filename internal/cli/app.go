package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shaiso/launchpad/internal/config"
	"github.com/shaiso/launchpad/internal/engine"
	"github.com/shaiso/launchpad/internal/netinfo"
	"github.com/shaiso/launchpad/internal/notify"
	"github.com/shaiso/launchpad/internal/orchestrator"
	"github.com/shaiso/launchpad/internal/probe"
	"github.com/shaiso/launchpad/internal/repo"
	"github.com/shaiso/launchpad/internal/telemetry"
	"github.com/shaiso/launchpad/internal/worker"
)

// App — общее состояние команд: глобальные флаги и точки подмены.
type App struct {
	ConfigPath string
	Profile    string
	JSON       bool
	NoColor    bool
	LogLevel   string

	// Stdout/Stderr — потоки вывода (default: os.Stdout/os.Stderr).
	Stdout io.Writer
	Stderr io.Writer

	// Executor подменяет запуск задач (default: worker на хосте).
	Executor orchestrator.Executor

	// Evaluator подменяет оценку условий (default: системные часы и сеть).
	Evaluator orchestrator.Evaluator

	// ErrorSinks получают уведомление о фатальной ошибке конфигурации
	// (default: log и desktop).
	ErrorSinks []notify.Sink
}

func (a *App) stdout() io.Writer {
	if a.Stdout != nil {
		return a.Stdout
	}
	return os.Stdout
}

func (a *App) stderr() io.Writer {
	if a.Stderr != nil {
		return a.Stderr
	}
	return os.Stderr
}

// Output создаёт Output по глобальным флагам.
func (a *App) Output() *Output {
	return NewOutput(a.stdout(), a.stderr(), a.JSON, a.NoColor)
}

// LoadConfig загружает конфигурацию с учётом --config и --profile.
func (a *App) LoadConfig() (*config.Config, error) {
	return config.Load(a.ConfigPath, a.Profile)
}

// notifyConfigError сообщает о фатальной ошибке конфигурации.
// Конфигурация недоступна, поэтому используются sink'и по умолчанию.
func (a *App) notifyConfigError(ctx context.Context, err error) {
	if !errors.Is(err, config.ErrConfig) {
		return
	}
	sinks := a.ErrorSinks
	if sinks == nil {
		sinks = []notify.Sink{&notify.LogSink{}, &notify.DesktopSink{}}
	}
	n := notify.New(notify.Config{Enabled: true, Sinks: sinks})
	_ = n.NotifyError(ctx, err)
}

// env — собранные зависимости одного запуска команды.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    repo.Store
	notifier *notify.Notifier
	metrics  *telemetry.Metrics
	registry *prometheus.Registry
	orch     *orchestrator.Orchestrator
	closers  []func() error
}

// envOptions — какие части окружения нужны команде.
type envOptions struct {
	// notifications — подключать sink'и уведомлений.
	notifications bool

	// runtimeMetrics — добавить метрики Go-рантайма и процесса (демон).
	runtimeMetrics bool
}

// newEnv собирает логгер, хранилище истории, уведомления, метрики и orchestrator.
func (a *App) newEnv(ctx context.Context, cfg *config.Config, opts envOptions) (*env, error) {
	level := cfg.General.LogLevel
	if a.LogLevel != "" {
		level = a.LogLevel
	}
	logger, closeLog := telemetry.SetupLogger(telemetry.LogOptions{
		Level:  level,
		Format: cfg.General.LogFormat,
		Dir:    cfg.ResolvePath(cfg.General.LogDir),
		Stdout: a.stderr(),
		Quiet:  a.JSON,
	})

	e := &env{cfg: cfg, logger: logger, closers: []func() error{closeLog}}

	store, err := repo.Open(ctx, repo.Options{
		Driver: cfg.History.Driver,
		DSN:    cfg.History.DSN,
		Dir:    cfg.ResolvePath(cfg.History.Dir),
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	e.store = store
	e.closers = append(e.closers, store.Close)

	notifCfg := cfg.Notifications
	if !opts.notifications {
		notifCfg.Enabled = false
	}
	notifier, closeNotify, err := notify.Build(ctx, notifCfg, logger)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.notifier = notifier
	e.closers = append(e.closers, closeNotify)

	e.registry = prometheus.NewRegistry()
	if opts.runtimeMetrics {
		e.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	e.metrics = telemetry.MustNewMetrics(e.registry)

	e.orch = orchestrator.New(orchestrator.Config{
		Executor:  a.executor(cfg, logger),
		Evaluator: a.evaluator(cfg, logger),
		History:   store,
		Notifier:  notifier,
		Metrics:   e.metrics,
		Policy:    orchestrator.ParseDependencyPolicy(cfg.General.DependencyPolicy),
		Logger:    logger,
	})

	return e, nil
}

func (a *App) executor(cfg *config.Config, logger *slog.Logger) orchestrator.Executor {
	if a.Executor != nil {
		return a.Executor
	}
	return worker.New(worker.Config{
		Registry: worker.NewHostRegistry(logger),
		Prober:   probe.NewHostSet(),
		Policy:   worker.NewRetryPolicy(cfg.General.Backoff, cfg.General.RetryInterval()),
		Logger:   logger,
	})
}

func (a *App) evaluator(cfg *config.Config, logger *slog.Logger) orchestrator.Evaluator {
	if a.Evaluator != nil {
		return a.Evaluator
	}
	evalCfg := engine.EvaluatorConfig{Logger: logger}
	if cfg.Network.Detect {
		detector := netinfo.New()
		if t := cfg.Network.Timeout(); t > 0 {
			detector.Timeout = t
		}
		evalCfg.Network = detector
	}
	return engine.NewEvaluator(evalCfg)
}

// request строит запрос на run из конфигурации окружения.
func (e *env) request(trigger string) orchestrator.RunRequest {
	return orchestrator.RunRequest{
		Tasks:   e.cfg.DomainTasks(),
		Profile: e.cfg.Profile,
		Trigger: trigger,
	}
}

// Close освобождает ресурсы в обратном порядке.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

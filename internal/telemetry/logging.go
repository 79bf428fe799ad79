package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName — имя файла журнала в log_dir.
const LogFileName = "launchpad.log"

// Параметры ротации журнала.
const (
	logMaxSizeMB  = 5
	logMaxBackups = 5
)

// LogOptions — настройки логгера.
type LogOptions struct {
	// Level — DEBUG, INFO, WARN, ERROR (переопределяется LOG_LEVEL).
	Level string

	// Format — "text" или "json" (переопределяется LOG_FORMAT).
	Format string

	// Dir — каталог ротируемого файла журнала; пусто — только stdout.
	Dir string

	// Stdout — консольный вывод (default: os.Stdout); nil с Quiet — без консоли.
	Stdout io.Writer

	// Quiet — не писать журнал в консоль (CLI с --json).
	Quiet bool
}

// LogLevel определяет уровень логирования.
// Переменная окружения LOG_LEVEL имеет приоритет над значением из конфигурации.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func LogLevel(configured string) slog.Level {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = configured
	}
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода определяется LOG_FORMAT или opts.Format:
//   - "text" (по умолчанию) — человекочитаемый формат
//   - "json" — JSON формат для сбора журналов
//
// При заданном Dir записи дублируются в <Dir>/launchpad.log
// с ротацией по 5 MB и пятью архивами. Возвращённая функция
// закрывает файл журнала.
func SetupLogger(opts LogOptions) (*slog.Logger, func() error) {
	level := LogLevel(opts.Level)
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var writers []io.Writer
	if !opts.Quiet {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		writers = append(writers, out)
	}

	closer := func() error { return nil }
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err == nil {
			file := &lumberjack.Logger{
				Filename:   filepath.Join(opts.Dir, LogFileName),
				MaxSize:    logMaxSizeMB,
				MaxBackups: logMaxBackups,
			}
			writers = append(writers, file)
			closer = file.Close
		}
	}

	var w io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = opts.Format
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, closer
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает fallback (или глобальный).
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

// WithRunID возвращает логгер с добавленным run_id.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}

// WithTask возвращает логгер с добавленным именем задачи.
func WithTask(logger *slog.Logger, task string) *slog.Logger {
	return logger.With("task", task)
}

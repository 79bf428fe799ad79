package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/launchpad/internal/config"
	"github.com/shaiso/launchpad/internal/mq"
)

// Build собирает Notifier из конфигурации.
//
// Возвращаемая функция закрывает соединения sink'ов (AMQP, Redis).
// Недоступный брокер не фатален: sink пропускается с предупреждением.
func Build(ctx context.Context, cfg config.NotificationsConfig, logger *slog.Logger) (*Notifier, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		sinks   []Sink
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	if cfg.Enabled {
		for _, name := range cfg.Sinks {
			switch name {
			case "log":
				sinks = append(sinks, &LogSink{Logger: logger})

			case "desktop":
				sinks = append(sinks, &DesktopSink{})

			case "amqp":
				conn, err := mq.NewConnection(cfg.AMQPURL, logger)
				if err != nil {
					logger.Warn("amqp sink disabled", "error", err)
					continue
				}
				closers = append(closers, conn.Close)
				if err := mq.SetupTopology(ctx, conn, cfg.Exchange); err != nil {
					logger.Warn("amqp topology setup failed", "error", err)
				}
				sinks = append(sinks, &AMQPSink{Publisher: mq.NewPublisher(conn, cfg.Exchange, logger)})

			case "redis":
				sink, err := NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisChannel)
				if err != nil {
					logger.Warn("redis sink disabled", "error", err)
					continue
				}
				closers = append(closers, sink.Close)
				sinks = append(sinks, sink)

			default:
				closeAll()
				return nil, nil, fmt.Errorf("unknown notification sink %q", name)
			}
		}
	}

	n := New(Config{Enabled: cfg.Enabled, Sinks: sinks, Logger: logger})
	return n, closeAll, nil
}

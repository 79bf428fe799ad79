package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/launchpad/internal/engine"
)

var (
	logLevels    = []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logFormats   = []string{"text", "json"}
	backoffs     = []string{"fixed", "exponential"}
	policies     = []string{"ordering", "gated"}
	historyKinds = []string{"jsonl", "sqlite", "mysql", "postgres", "none"}
	sinkKinds    = []string{"log", "desktop", "amqp", "redis"}
)

// Validate проверяет секции конфигурации и граф задач.
func (c *Config) Validate() error {
	g := c.General
	if !slices.Contains(logLevels, strings.ToUpper(g.LogLevel)) {
		return &FieldError{Key: "general.log_level", Value: g.LogLevel, Message: "must be one of " + strings.Join(logLevels, ", ")}
	}
	if !slices.Contains(logFormats, g.LogFormat) {
		return &FieldError{Key: "general.log_format", Value: g.LogFormat, Message: "must be text or json"}
	}
	if g.MaxRetries < 0 {
		return &FieldError{Key: "general.max_retries", Value: g.MaxRetries, Message: "must be non-negative"}
	}
	if g.RetryBackoffSec < 0 {
		return &FieldError{Key: "general.retry_backoff_sec", Value: g.RetryBackoffSec, Message: "must be non-negative"}
	}
	if !slices.Contains(backoffs, g.Backoff) {
		return &FieldError{Key: "general.backoff", Value: g.Backoff, Message: "must be fixed or exponential"}
	}
	if !slices.Contains(policies, g.DependencyPolicy) {
		return &FieldError{Key: "general.dependency_policy", Value: g.DependencyPolicy, Message: "must be ordering or gated"}
	}

	if c.Network.TimeoutSec < 0 {
		return &FieldError{Key: "network.timeout_sec", Value: c.Network.TimeoutSec, Message: "must be non-negative"}
	}

	if err := c.validateNotifications(); err != nil {
		return err
	}

	h := c.History
	if !slices.Contains(historyKinds, h.Driver) {
		return &FieldError{Key: "history.driver", Value: h.Driver, Message: "must be one of " + strings.Join(historyKinds, ", ")}
	}
	if (h.Driver == "mysql" || h.Driver == "postgres") && h.DSN == "" {
		return &FieldError{Key: "history.dsn", Value: h.DSN, Message: "required for " + h.Driver}
	}

	if s := c.Daemon.Schedule; s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			return &FieldError{Key: "daemon.schedule", Value: s, Message: err.Error()}
		}
	}

	if err := engine.Validate(c.DomainTasks()); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	for _, s := range n.Sinks {
		if !slices.Contains(sinkKinds, s) {
			return &FieldError{Key: "notifications.sinks", Value: s, Message: "unknown sink"}
		}
	}
	if !n.Enabled {
		return nil
	}
	if slices.Contains(n.Sinks, "amqp") && n.AMQPURL == "" {
		return &FieldError{Key: "notifications.amqp_url", Value: "", Message: "required for amqp sink"}
	}
	if slices.Contains(n.Sinks, "redis") && n.RedisAddr == "" {
		return &FieldError{Key: "notifications.redis_addr", Value: "", Message: "required for redis sink"}
	}
	return nil
}

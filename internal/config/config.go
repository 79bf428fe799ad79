package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaiso/launchpad/internal/domain"
)

// Config — полная конфигурация launchpad (config.yaml + профиль + env).
type Config struct {
	General       GeneralConfig       `mapstructure:"general" yaml:"general"`
	Network       NetworkConfig       `mapstructure:"network" yaml:"network"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	History       HistoryConfig       `mapstructure:"history" yaml:"history"`
	Daemon        DaemonConfig        `mapstructure:"daemon" yaml:"daemon"`
	Tasks         []TaskConfig        `mapstructure:"tasks" yaml:"tasks"`

	// Path — файл, из которого загружена конфигурация.
	Path string `mapstructure:"-" yaml:"-"`

	// Profile — применённый профиль (пусто для базовой конфигурации).
	Profile string `mapstructure:"-" yaml:"-"`
}

// GeneralConfig — общие настройки.
type GeneralConfig struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogDir    string `mapstructure:"log_dir" yaml:"log_dir"`

	// MaxRetries — retries по умолчанию для health check без явного значения.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// RetryBackoffSec — пауза между попытками (для exponential — начальная).
	RetryBackoffSec float64 `mapstructure:"retry_backoff_sec" yaml:"retry_backoff_sec"`

	// Backoff — "fixed" или "exponential".
	Backoff string `mapstructure:"backoff" yaml:"backoff"`

	// DependencyPolicy — "ordering" или "gated".
	DependencyPolicy string `mapstructure:"dependency_policy" yaml:"dependency_policy"`

	// ProfilesDir — каталог профилей относительно файла конфигурации.
	ProfilesDir string `mapstructure:"profiles_dir" yaml:"profiles_dir"`
}

// RetryInterval возвращает паузу между попытками.
func (g GeneralConfig) RetryInterval() time.Duration {
	return seconds(g.RetryBackoffSec)
}

// NetworkConfig — определение текущей сети для условия networks.
type NetworkConfig struct {
	// Detect — false отключает определение сети: условие networks
	// всегда даёт неопределённый результат.
	Detect bool `mapstructure:"detect" yaml:"detect"`

	// TimeoutSec — ограничение на опрос SSID и интерфейсов.
	TimeoutSec float64 `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout возвращает таймаут определения сети.
func (n NetworkConfig) Timeout() time.Duration {
	return seconds(n.TimeoutSec)
}

// NotificationsConfig — уведомления об итогах run.
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Sinks — получатели: log, desktop, amqp, redis.
	Sinks []string `mapstructure:"sinks" yaml:"sinks"`

	AMQPURL      string `mapstructure:"amqp_url" yaml:"amqp_url,omitempty"`
	Exchange     string `mapstructure:"exchange" yaml:"exchange,omitempty"`
	RedisAddr    string `mapstructure:"redis_addr" yaml:"redis_addr,omitempty"`
	RedisChannel string `mapstructure:"redis_channel" yaml:"redis_channel,omitempty"`
}

// HistoryConfig — хранилище истории run'ов.
type HistoryConfig struct {
	// Driver — jsonl, sqlite, mysql, postgres или none.
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN — строка подключения для sqlite/mysql/postgres.
	DSN string `mapstructure:"dsn" yaml:"dsn,omitempty"`

	// Dir — каталог для jsonl (metrics.jsonl) и sqlite по умолчанию.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DaemonConfig — режим демона.
type DaemonConfig struct {
	// Schedule — cron-выражение (5 полей или @every/@daily).
	Schedule string `mapstructure:"schedule" yaml:"schedule,omitempty"`

	// Listen — адрес HTTP API; пусто — API выключен.
	Listen string `mapstructure:"listen" yaml:"listen"`

	// Watch — перечитывать конфигурацию при изменении файла.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// TaskConfig — задача в том виде, в каком она записана в YAML.
type TaskConfig struct {
	Name       string             `mapstructure:"name" yaml:"name"`
	Type       string             `mapstructure:"type" yaml:"type"`
	Group      string             `mapstructure:"group" yaml:"group,omitempty"`
	Command    string             `mapstructure:"command" yaml:"command,omitempty"`
	Args       []string           `mapstructure:"args" yaml:"args,omitempty"`
	Path       string             `mapstructure:"path" yaml:"path,omitempty"`
	URLs       []string           `mapstructure:"urls" yaml:"urls,omitempty"`
	ProfileDir string             `mapstructure:"profile_dir" yaml:"profile_dir,omitempty"`
	DependsOn  []string           `mapstructure:"depends_on" yaml:"depends_on,omitempty"`
	Enabled    *bool              `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Conditions map[string]string  `mapstructure:"conditions" yaml:"conditions,omitempty"`
	Health     *HealthCheckConfig `mapstructure:"health_check" yaml:"health_check,omitempty"`
}

// HealthCheckConfig — health check в YAML.
type HealthCheckConfig struct {
	Method     string  `mapstructure:"method" yaml:"method"`
	Pattern    string  `mapstructure:"pattern" yaml:"pattern,omitempty"`
	TimeoutSec float64 `mapstructure:"timeout_sec" yaml:"timeout_sec,omitempty"`
	SettleSec  float64 `mapstructure:"settle_sec" yaml:"settle_sec,omitempty"`
	Retries    *int    `mapstructure:"retries" yaml:"retries,omitempty"`
}

// Task преобразует TaskConfig в domain.Task.
// Незаданные retries берутся из general.max_retries, enabled по умолчанию true.
func (t TaskConfig) Task(general GeneralConfig) domain.Task {
	task := domain.Task{
		Name:       t.Name,
		Kind:       domain.TaskKind(t.Type),
		Group:      t.Group,
		Command:    t.Command,
		Args:       t.Args,
		Path:       expandHome(t.Path),
		URLs:       t.URLs,
		ProfileDir: expandHome(t.ProfileDir),
		DependsOn:  t.DependsOn,
		Enabled:    t.Enabled == nil || *t.Enabled,
	}

	if len(t.Conditions) > 0 {
		task.Conditions = make(domain.Conditions, len(t.Conditions))
		for k, v := range t.Conditions {
			task.Conditions[k] = v
		}
	}

	if t.Health != nil {
		retries := general.MaxRetries
		if t.Health.Retries != nil {
			retries = *t.Health.Retries
		}
		task.HealthCheck = &domain.HealthCheck{
			Method:  domain.HealthMethod(t.Health.Method),
			Pattern: t.Health.Pattern,
			Timeout: seconds(t.Health.TimeoutSec),
			Settle:  seconds(t.Health.SettleSec),
			Retries: retries,
		}
	}

	return task
}

// DomainTasks возвращает задачи в порядке конфигурации.
func (c *Config) DomainTasks() []domain.Task {
	tasks := make([]domain.Task, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		tasks = append(tasks, t.Task(c.General))
	}
	return tasks
}

// ResolvePath возвращает путь относительно каталога файла конфигурации.
// Абсолютные пути не меняются, "~/" раскрывается в домашний каталог.
func (c *Config) ResolvePath(p string) string {
	if p == "" {
		return ""
	}
	p = expandHome(p)
	if filepath.IsAbs(p) || c.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// expandHome раскрывает "~/" в домашний каталог пользователя.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

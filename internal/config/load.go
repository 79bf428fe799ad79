package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath — файл конфигурации по умолчанию.
const DefaultPath = "config.yaml"

// EnvPrefix — префикс переменных окружения (LAUNCHPAD_GENERAL_LOG_LEVEL).
const EnvPrefix = "LAUNCHPAD"

// setDefaults регистрирует значения по умолчанию.
// Без зарегистрированного ключа viper не видит его переопределение из env.
func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "INFO")
	v.SetDefault("general.log_format", "text")
	v.SetDefault("general.log_dir", "logs")
	v.SetDefault("general.max_retries", 3)
	v.SetDefault("general.retry_backoff_sec", 2.0)
	v.SetDefault("general.backoff", "fixed")
	v.SetDefault("general.dependency_policy", "ordering")
	v.SetDefault("general.profiles_dir", "profiles")

	v.SetDefault("network.detect", true)
	v.SetDefault("network.timeout_sec", 10.0)

	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.sinks", []string{"log", "desktop"})
	v.SetDefault("notifications.amqp_url", "")
	v.SetDefault("notifications.exchange", "launchpad.runs")
	v.SetDefault("notifications.redis_addr", "")
	v.SetDefault("notifications.redis_channel", "launchpad:runs")

	v.SetDefault("history.driver", "jsonl")
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.dir", "logs")

	v.SetDefault("daemon.schedule", "")
	v.SetDefault("daemon.listen", "127.0.0.1:7878")
	v.SetDefault("daemon.watch", false)
}

// Load читает файл конфигурации, накладывает профиль и переменные окружения,
// затем валидирует результат.
//
// Любая ошибка оборачивает ErrConfig.
func Load(path, profile string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file not found: %s", ErrConfig, path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
	}

	if profile != "" {
		profilePath, err := findProfile(ProfilesDir(path, v.GetString("general.profiles_dir")), profile)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(profilePath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("%w: merge profile %s: %w", ErrConfig, profile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrConfig, err)
	}
	cfg.Path = path
	cfg.Profile = profile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ProfilesDir возвращает каталог профилей: относительный путь
// считается от каталога файла конфигурации.
func ProfilesDir(configPath, dir string) string {
	if dir == "" {
		dir = "profiles"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(filepath.Dir(configPath), dir)
}

// ListProfiles возвращает отсортированные имена профилей в каталоге.
// Отсутствующий каталог — пустой список.
func ListProfiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profiles dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

func findProfile(dir, name string) (string, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (looked in %s)", ErrProfileNotFound, name, dir)
}

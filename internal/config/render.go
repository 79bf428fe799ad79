package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrExists — файл конфигурации уже существует.
var ErrExists = errors.New("config file already exists")

// WriteYAML выводит эффективную конфигурацию в YAML.
func WriteYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Parse разбирает YAML без viper (для проверки сгенерированных файлов).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %w", ErrConfig, err)
	}
	return &cfg, nil
}

// WriteStarter создаёт стартовый config.yaml и пример профиля.
// Существующий файл не перезаписывается без force.
func WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	profiles := ProfilesDir(path, "profiles")
	if err := os.MkdirAll(profiles, 0o755); err != nil {
		return fmt.Errorf("create profiles dir: %w", err)
	}
	example := filepath.Join(profiles, "minimal.yaml")
	if _, err := os.Stat(example); err == nil && !force {
		return nil
	}
	if err := os.WriteFile(example, []byte(starterProfile), 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

const starterConfig = `# launchpad configuration
general:
  log_level: INFO          # DEBUG, INFO, WARN, ERROR
  log_format: text         # text or json
  log_dir: logs
  max_retries: 3           # default health check retries
  retry_backoff_sec: 2
  backoff: fixed           # fixed or exponential
  dependency_policy: ordering   # ordering or gated

network:
  detect: true
  timeout_sec: 10

notifications:
  enabled: true
  sinks: [log, desktop]

history:
  driver: jsonl            # jsonl, sqlite, mysql, postgres, none
  dir: logs

daemon:
  schedule: ""             # e.g. "30 8 * * 1-5"
  listen: 127.0.0.1:7878
  watch: false

tasks:
  - name: Network
    type: exec
    group: system
    command: ping
    args: ["-c", "1", "8.8.8.8"]
    health_check:
      method: http
      pattern: https://www.google.com
      timeout_sec: 10

  - name: VPN
    type: exec
    group: system
    command: rasdial
    args: [WorkVPN]
    depends_on: [Network]
    conditions:
      days: weekdays
    health_check:
      method: process
      pattern: rasdial
      settle_sec: 8

  - name: Projects
    type: open
    group: apps
    path: ~/projects

  - name: Browser
    type: browser
    group: browsers
    depends_on: [VPN]
    profile_dir: ~/.launchpad/browser
    urls:
      - https://mail.example.com
      - https://jira.example.com
    conditions:
      time_range: "08:00-19:00"
`

const starterProfile = `# Minimal profile: only the browser, no VPN.
tasks:
  - name: Browser
    type: browser
    group: browsers
    urls:
      - https://mail.example.com
`

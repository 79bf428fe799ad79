package domain

import "time"

// TaskKind — способ запуска задачи.
type TaskKind string

const (
	// TaskKindExec — запуск исполняемого файла как отдельного процесса.
	TaskKindExec TaskKind = "exec"

	// TaskKindOpen — открытие папки, файла или URL системным обработчиком.
	TaskKindOpen TaskKind = "open"

	// TaskKindBrowser — запуск браузера с профилем и набором стартовых URL.
	TaskKindBrowser TaskKind = "browser"
)

// Task — одна сконфигурированная единица запуска (приложение, папка, браузер, VPN).
//
// Task создаётся один раз из конфигурации перед run и не меняется
// во время планирования и выполнения.
type Task struct {
	// Name — уникальное непустое имя задачи.
	Name string `json:"name"`

	// Kind — тип запуска: "exec", "open", "browser".
	Kind TaskKind `json:"kind"`

	// Group — произвольная метка ("system", "apps", "browsers"),
	// используется фильтрами CLI.
	Group string `json:"group,omitempty"`

	// Command — исполняемый файл для exec.
	Command string `json:"command,omitempty"`

	// Args — аргументы командной строки.
	Args []string `json:"args,omitempty"`

	// Path — папка/файл/URL для open, рабочая директория для exec,
	// путь к бинарнику браузера для browser.
	Path string `json:"path,omitempty"`

	// URLs — стартовые страницы браузера.
	URLs []string `json:"urls,omitempty"`

	// ProfileDir — каталог пользовательского профиля браузера.
	ProfileDir string `json:"profile_dir,omitempty"`

	// DependsOn — имена задач, которые должны стартовать раньше.
	DependsOn []string `json:"depends_on,omitempty"`

	// Enabled — выключенная задача никогда не запускается.
	Enabled bool `json:"enabled"`

	// Conditions — условия активации (time_range, days, networks).
	Conditions Conditions `json:"conditions,omitempty"`

	// HealthCheck — проверка готовности после запуска (опционально).
	HealthCheck *HealthCheck `json:"health_check,omitempty"`
}

// HasHealthCheck возвращает true, если после запуска нужна проверка готовности.
func (t *Task) HasHealthCheck() bool {
	return t.HealthCheck != nil && t.HealthCheck.Method != HealthMethodNone
}

// MaxAttempts возвращает бюджет попыток: retries + 1.
// Без health check задача получает ровно одну попытку.
func (t *Task) MaxAttempts() int {
	if t.HealthCheck == nil || t.HealthCheck.Retries < 0 {
		return 1
	}
	return t.HealthCheck.Retries + 1
}

// Conditions — условия активации задачи: вид условия → строковая спецификация.
// Пустая карта означает "всегда подходит".
type Conditions map[string]string

// Ключи условий.
const (
	ConditionTimeRange = "time_range"
	ConditionDays      = "days"
	ConditionNetworks  = "networks"
)

// HealthMethod — метод проверки готовности.
type HealthMethod string

const (
	// HealthMethodNone — проверка отключена.
	HealthMethodNone HealthMethod = "none"

	// HealthMethodWindowTitle — появилось окно с заголовком, подходящим под pattern.
	HealthMethodWindowTitle HealthMethod = "window_title"

	// HealthMethodPort — TCP-порт принимает соединения (pattern = "host:port" или "port").
	HealthMethodPort HealthMethod = "port"

	// HealthMethodProcess — запущен процесс с именем pattern.
	HealthMethodProcess HealthMethod = "process"

	// HealthMethodHTTP — URL из pattern отвечает 2xx/3xx.
	HealthMethodHTTP HealthMethod = "http"
)

// IsValid возвращает true для известных методов.
func (m HealthMethod) IsValid() bool {
	switch m {
	case HealthMethodNone, HealthMethodWindowTitle, HealthMethodPort, HealthMethodProcess, HealthMethodHTTP:
		return true
	default:
		return false
	}
}

// HealthCheck — описание проверки готовности задачи.
type HealthCheck struct {
	// Method — метод проверки.
	Method HealthMethod `json:"method"`

	// Pattern — цель проверки (заголовок окна, порт, имя процесса, URL).
	// Обязателен, если Method != none.
	Pattern string `json:"pattern,omitempty"`

	// Timeout — таймаут одного вызова probe.
	Timeout time.Duration `json:"timeout"`

	// Settle — пауза между запуском и проверкой.
	Settle time.Duration `json:"settle"`

	// Retries — количество повторов после первой попытки.
	Retries int `json:"retries"`
}

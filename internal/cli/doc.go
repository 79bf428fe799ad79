// Package cli реализует командную строку launchpad.
//
// # Обзор
//
// Команды собираются вокруг App: глобальные флаги (--config, --profile,
// --json, --no-color) и точки подмены (Executor, Evaluator) для тестов.
// Каждая команда сама загружает конфигурацию и собирает окружение:
// логгер, хранилище истории, уведомления, метрики и orchestrator.
//
// # Команды
//
//   - run: запуск (--dry-run, --skip-group, --only-group, --metrics-textfile)
//   - plan: решения по условиям и порядок без запуска
//   - validate: проверка конфигурации и графа задач
//   - history, summary: история run'ов и статистика (--chart)
//   - profiles: список профилей
//   - config show|init: итоговая конфигурация, стартовый config.yaml
//   - daemon: расписание, HTTP API, перезагрузка конфигурации
//   - events: события run'ов из RabbitMQ
//   - remote status|run|history: работа с запущенным демоном через Client
//
// # Output
//
// Данные выводятся в stdout (таблицы text/tabwriter или JSON с --json),
// сообщения и журнал — в stderr. Статусы задач окрашиваются fatih/color.
//
// # Коды выхода
//
// 0 — успех, 1 — run с ошибками или прочий сбой, 2 — ошибка конфигурации.
package cli

// Package config загружает конфигурацию launchpad.
//
// Источники в порядке приоритета:
//   - переменные окружения LAUNCHPAD_<SECTION>_<KEY>
//   - профиль profiles/<name>.yaml (MergeInConfig поверх базы)
//   - config.yaml
//   - значения по умолчанию
//
// Списки (tasks, sinks) в профиле заменяют базовые целиком.
// Все ошибки загрузки и валидации оборачивают ErrConfig.
package config

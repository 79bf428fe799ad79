// Package orchestrator проводит один run запуска рабочего окружения.
//
// Orchestrator отвечает за:
//   - Фильтр задач по enabled, группам и условиям активации
//   - Построение порядка запуска по зависимостям
//   - Последовательный запуск задач через Executor
//   - Политику зависимостей (ordering или gated)
//   - Отмену run и пометку оставшихся задач
//   - Запись истории, метрик и уведомлений по итогам run
//
// Сбой одной задачи никогда не прерывает run.
package orchestrator

// Package engine содержит ядро планирования запуска.
//
// Включает:
//   - conditions.go — оценка условий активации (time_range, days, networks)
//   - validate.go   — валидация списка задач (имена, зависимости, циклы, health check)
//   - dag.go        — граф зависимостей и порядок запуска (алгоритм Кана)
//
// Engine ничего не запускает сам: он решает, какие задачи подходят
// под текущий контекст, и в каком порядке их запускать.
package engine

// Package mq публикует итоги run'ов в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с переподключением
//   - topology.go   — обменник launchpad.runs, очередь истории, подписки
//   - publisher.go  — публикация run.completed
//   - consumer.go   — чтение событий (команда events)
//
// Routing keys: run.succeeded, run.failed, run.cancelled.
package mq

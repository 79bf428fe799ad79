// Package notify сообщает пользователю об итогах run.
//
// Notifier строит одно сообщение (Message) по отчёту и рассылает его
// всем sink'ам:
//   - log: запись в журнал через slog
//   - desktop: системное уведомление (notify-send, osascript, PowerShell toast)
//   - amqp: событие run.* в topic-обменник RabbitMQ (см. пакет mq)
//   - redis: PUBLISH в канал и список последних событий
//
// Сбой одного sink'а не мешает остальным и не влияет на итог run.
package notify

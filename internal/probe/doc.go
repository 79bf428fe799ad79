// Package probe содержит проверки готовности задач после запуска.
//
// Каждая проверка отвечает на один вопрос "готово ли?" через единый
// контракт Check(ctx, pattern) (bool, error):
//   - window_title — открыто окно с подходящим заголовком
//   - port         — TCP-порт принимает соединения
//   - process      — запущен процесс с заданным именем (gopsutil)
//   - http         — URL отвечает 2xx/3xx
//
// Set собирает проверки по методам и реализует worker.Prober.
package probe

// Package scheduler запускает run по расписанию в режиме демона.
//
// Расписание задаётся cron-выражением (daemon.schedule), поддерживаются
// дескрипторы robfig/cron (@daily, @every 30m). Запрос на run строится
// заново на каждом срабатывании из текущей конфигурации.
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Schedule: "0 9 * * 1-5",
//	    Runner:   orch,
//	    Request:  requestFromConfig,
//	    Logger:   logger,
//	})
//	if err != nil { ... }
//	go sched.Start(ctx)
//
// Пересекающиеся срабатывания пропускаются; run, запущенный вручную,
// также блокирует срабатывание (orchestrator.ErrRunInProgress).
package scheduler

// launchpad — запуск рабочего окружения одной командой.
//
// Использование:
//
//	launchpad [--config FILE] [--profile NAME] [--json] <command> [flags]
//
// Команды:
//
//	run       Запустить задачи в порядке зависимостей
//	plan      Показать план без запуска
//	validate  Проверить конфигурацию
//	history   История run'ов
//	summary   Статистика по истории
//	profiles  Список профилей
//	config    Показать или создать конфигурацию
//	daemon    Расписание, HTTP API и перезагрузка конфигурации
//	events    События run'ов из RabbitMQ
//	remote    Работа с запущенным демоном
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/launchpad/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, &cli.App{}, version, os.Args[1:])
	cancel()
	os.Exit(code)
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/shaiso/launchpad/internal/domain"
)

// BrowserLauncher запускает Chromium-совместимый браузер с постоянным
// профилем и открывает стартовые страницы, каждую в своей вкладке.
//
// Браузер запускается видимым и без leakless-сторожа: окно остаётся
// открытым после завершения launchpad.
type BrowserLauncher struct {
	logger *slog.Logger
}

// NewBrowserLauncher создаёт BrowserLauncher.
func NewBrowserLauncher(logger *slog.Logger) *BrowserLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserLauncher{logger: logger}
}

// Launch реализует Launcher.
//
// task.Path — путь к бинарнику (пусто — поиск системного браузера),
// task.ProfileDir — каталог профиля, task.URLs — стартовые страницы.
func (l *BrowserLauncher) Launch(ctx context.Context, task *domain.Task) error {
	bin := task.Path
	if bin == "" {
		path, found := launcher.LookPath()
		if !found {
			return fmt.Errorf("%w: no chromium-based browser found", ErrLaunchFailed)
		}
		bin = path
	}

	// Без Context(ctx): отмена run не должна убивать уже открытый браузер.
	ln := launcher.New().
		Bin(bin).
		Headless(false).
		Leakless(false)

	if task.ProfileDir != "" {
		if err := os.MkdirAll(task.ProfileDir, 0o755); err != nil {
			return fmt.Errorf("%w: profile dir: %v", ErrLaunchFailed, err)
		}
		ln = ln.UserDataDir(task.ProfileDir)
	}

	controlURL, err := ln.Launch()
	if err != nil {
		return fmt.Errorf("%w: start browser: %v", ErrLaunchFailed, err)
	}

	// CDP-соединение нужно только на время открытия вкладок;
	// закрытие сокета отпускает браузер, не завершая его.
	dialer := &releasingDialer{}
	defer dialer.Release()

	ws := &cdp.WebSocket{Dialer: dialer}
	if err := ws.Connect(ctx, controlURL, nil); err != nil {
		return fmt.Errorf("%w: connect to browser: %v", ErrLaunchFailed, err)
	}

	browser := rod.New().Client(cdp.New().Start(ws)).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("%w: connect to browser: %v", ErrLaunchFailed, err)
	}

	for _, u := range task.URLs {
		if _, err := browser.Page(proto.TargetCreateTarget{URL: u}); err != nil {
			// Одна битая вкладка не ломает запуск браузера.
			l.logger.Warn("failed to open page", "task", task.Name, "url", u, "error", err)
		}
	}

	l.logger.Debug("browser launched", "task", task.Name, "pages", len(task.URLs), "profile", task.ProfileDir)
	return nil
}

// releasingDialer запоминает открытые им соединения, чтобы закрыть их
// после работы с браузером. Закрытие соединения завершает и читающую
// горутину CDP-клиента.
type releasingDialer struct {
	net.Dialer

	mu    sync.Mutex
	conns []net.Conn
}

func (d *releasingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

// Release закрывает все соединения. Повторный вызов ничего не делает.
func (d *releasingDialer) Release() error {
	d.mu.Lock()
	conns := d.conns
	d.conns = nil
	d.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// PortProbe проверяет, что TCP-порт принимает соединения.
//
// Pattern: "8080" (localhost) или "host:port".
type PortProbe struct {
	dialer net.Dialer
}

// Check реализует Probe.
func (p *PortProbe) Check(ctx context.Context, pattern string) (bool, error) {
	addr, err := portAddress(pattern)
	if err != nil {
		return false, err
	}

	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// Порт закрыт — сервис ещё не поднялся.
		return false, nil
	}
	_ = conn.Close()
	return true, nil
}

// portAddress нормализует pattern в адрес для Dial.
func portAddress(pattern string) (string, error) {
	pattern = strings.TrimSpace(pattern)
	if _, err := strconv.Atoi(pattern); err == nil {
		return net.JoinHostPort("127.0.0.1", pattern), nil
	}

	host, port, err := net.SplitHostPort(pattern)
	if err != nil {
		return "", fmt.Errorf("port probe: bad pattern %q: %w", pattern, err)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("port probe: bad port in %q", pattern)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port), nil
}

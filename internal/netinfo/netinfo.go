// Package netinfo определяет идентификатор текущей сети для условия networks.
//
// Идентификатор — SSID Wi-Fi, если он доступен, иначе первые три октета
// первого не-loopback IPv4-адреса ("192.168.1").
package netinfo

import (
	"context"
	"net"
	"os/exec"
	"runtime"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
)

const defaultLookupTimeout = 5 * time.Second

// Detector — источник идентификатора сети хост-системы.
// Реализует engine.NetworkInfo.
type Detector struct {
	// SSID возвращает имя Wi-Fi сети; пусто — не Wi-Fi или не удалось.
	SSID func(ctx context.Context) (string, error)

	// Addrs возвращает адреса интерфейсов в CIDR-нотации.
	Addrs func(ctx context.Context) ([]string, error)

	// Timeout — ограничение на внешние утилиты.
	Timeout time.Duration
}

// New создаёт Detector для текущей платформы.
func New() *Detector {
	return &Detector{
		SSID:    platformSSID,
		Addrs:   interfaceAddrs,
		Timeout: defaultLookupTimeout,
	}
}

// CurrentNetwork возвращает SSID или префикс IPv4.
// Пустая строка без ошибки — сеть определить не удалось.
func (d *Detector) CurrentNetwork(ctx context.Context) (string, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if d.SSID != nil {
		if ssid, err := d.SSID(ctx); err == nil && ssid != "" {
			return ssid, nil
		}
	}

	if d.Addrs == nil {
		return "", nil
	}
	addrs, err := d.Addrs(ctx)
	if err != nil {
		return "", err
	}
	return ipv4Prefix(addrs), nil
}

// ipv4Prefix возвращает первые три октета первого не-loopback IPv4.
func ipv4Prefix(addrs []string) string {
	for _, a := range addrs {
		ip := net.ParseIP(a)
		if ip == nil {
			var err error
			ip, _, err = net.ParseCIDR(a)
			if err != nil {
				continue
			}
		}
		v4 := ip.To4()
		if v4 == nil || v4.IsLoopback() {
			continue
		}
		s := v4.String()
		return s[:strings.LastIndex(s, ".")]
	}
	return ""
}

// interfaceAddrs собирает адреса всех интерфейсов через gopsutil.
func interfaceAddrs(ctx context.Context) ([]string, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, iface := range ifaces {
		for _, a := range iface.Addrs {
			addrs = append(addrs, a.Addr)
		}
	}
	return addrs, nil
}

// platformSSID читает SSID: netsh (Windows), iwgetid (Linux),
// airport (macOS).
func platformSSID(ctx context.Context) (string, error) {
	switch runtime.GOOS {
	case "windows":
		out, err := exec.CommandContext(ctx, "netsh", "wlan", "show", "interfaces").Output()
		if err != nil {
			return "", err
		}
		return parseNetsh(string(out)), nil
	case "darwin":
		out, err := exec.CommandContext(ctx,
			"/System/Library/PrivateFrameworks/Apple80211.framework/Versions/Current/Resources/airport", "-I").Output()
		if err != nil {
			return "", err
		}
		return parseAirport(string(out)), nil
	default:
		out, err := exec.CommandContext(ctx, "iwgetid", "-r").Output()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	}
}

// parseNetsh достаёт SSID из вывода "netsh wlan show interfaces".
// Строку BSSID пропускаем.
func parseNetsh(out string) string {
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "SSID" {
			continue
		}
		if ssid := strings.TrimSpace(value); ssid != "" {
			return ssid
		}
	}
	return ""
}

// parseAirport достаёт SSID из вывода "airport -I".
func parseAirport(out string) string {
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.TrimSpace(key) == "SSID" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

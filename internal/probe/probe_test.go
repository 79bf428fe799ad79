package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shaiso/launchpad/internal/domain"
)

// --- Set Tests ---

func TestSet_MethodNoneAlwaysReady(t *testing.T) {
	s := NewSet()
	ok, err := s.Probe(context.Background(), domain.HealthCheck{Method: domain.HealthMethodNone})
	if err != nil || !ok {
		t.Errorf("expected (true, nil), got (%v, %v)", ok, err)
	}
}

func TestSet_UnknownMethod(t *testing.T) {
	s := NewSet()
	_, err := s.Probe(context.Background(), domain.HealthCheck{Method: domain.HealthMethodPort, Pattern: "1"})
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestSet_Dispatch(t *testing.T) {
	s := NewSet()
	var got string
	s.Register(domain.HealthMethodProcess, Func(func(ctx context.Context, pattern string) (bool, error) {
		got = pattern
		return true, nil
	}))

	ok, err := s.Probe(context.Background(), domain.HealthCheck{Method: domain.HealthMethodProcess, Pattern: "slack"})
	if err != nil || !ok {
		t.Fatalf("expected (true, nil), got (%v, %v)", ok, err)
	}
	if got != "slack" {
		t.Errorf("expected pattern slack, got %q", got)
	}
}

func TestNewHostSet_RegistersAllMethods(t *testing.T) {
	s := NewHostSet()
	for _, m := range []domain.HealthMethod{
		domain.HealthMethodWindowTitle,
		domain.HealthMethodPort,
		domain.HealthMethodProcess,
		domain.HealthMethodHTTP,
	} {
		if _, ok := s.probes[m]; !ok {
			t.Errorf("expected probe for %s", m)
		}
	}
}

// --- PortProbe Tests ---

func TestPortProbe_Open(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	p := &PortProbe{}
	for _, pattern := range []string{port, "127.0.0.1:" + port, ":" + port} {
		ok, err := p.Check(context.Background(), pattern)
		if err != nil || !ok {
			t.Errorf("pattern %q: expected (true, nil), got (%v, %v)", pattern, ok, err)
		}
	}
}

func TestPortProbe_Closed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	ok, err := (&PortProbe{}).Check(context.Background(), port)
	if err != nil || ok {
		t.Errorf("expected (false, nil), got (%v, %v)", ok, err)
	}
}

func TestPortProbe_BadPattern(t *testing.T) {
	_, err := (&PortProbe{}).Check(context.Background(), "not-a-port")
	if err == nil {
		t.Error("expected error for bad pattern")
	}
}

// --- ProcessProbe Tests ---

func TestProcessProbe(t *testing.T) {
	p := &ProcessProbe{List: func(context.Context) ([]string, error) {
		return []string{"systemd", "Slack.exe", "openvpn"}, nil
	}}

	tests := []struct {
		pattern string
		want    bool
	}{
		{pattern: "slack", want: true},
		{pattern: "OpenVPN", want: true},
		{pattern: "slack.exe", want: true},
		{pattern: "zoom", want: false},
	}

	for _, tt := range tests {
		ok, err := p.Check(context.Background(), tt.pattern)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok != tt.want {
			t.Errorf("pattern %q: expected %v, got %v", tt.pattern, tt.want, ok)
		}
	}
}

func TestProcessProbe_ListError(t *testing.T) {
	p := &ProcessProbe{List: func(context.Context) ([]string, error) {
		return nil, errors.New("permission denied")
	}}
	if _, err := p.Check(context.Background(), "x"); err == nil {
		t.Error("expected error")
	}
}

// --- WindowProbe Tests ---

func TestWindowProbe(t *testing.T) {
	p := &WindowProbe{List: func(context.Context) ([]string, error) {
		return []string{"Mail (3) - Thunderbird", "FortiClient VPN"}, nil
	}}

	tests := []struct {
		pattern string
		want    bool
	}{
		{pattern: "thunderbird", want: true},
		{pattern: "^Forti.*VPN$", want: true},
		{pattern: "Slack", want: false},
		{pattern: "Mail (3", want: true}, // невалидный regexp → подстрока
	}

	for _, tt := range tests {
		ok, err := p.Check(context.Background(), tt.pattern)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok != tt.want {
			t.Errorf("pattern %q: expected %v, got %v", tt.pattern, tt.want, ok)
		}
	}
}

func TestParseWindowList(t *testing.T) {
	wmctrl := "0x01e00003  0 host Terminal\n0x02400003  0 host Inbox - Mail\n\n"
	got := parseWindowList("linux", wmctrl)
	if len(got) != 2 || got[0] != "Terminal" || got[1] != "Inbox - Mail" {
		t.Errorf("unexpected wmctrl parse: %q", got)
	}

	osa := "Finder, missing value, Slack\n"
	got = parseWindowList("darwin", osa)
	if len(got) != 2 || got[1] != "Slack" {
		t.Errorf("unexpected osascript parse: %q", got)
	}
}

// --- HTTPProbe Tests ---

func TestHTTPProbe(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "redirect", status: http.StatusFound, want: true},
		{name: "server error", status: http.StatusServiceUnavailable, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status == http.StatusFound {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			ok, err := NewHTTPProbe().Check(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("expected %v, got %v", tt.want, ok)
			}
		})
	}
}

func TestHTTPProbe_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ok, err := NewHTTPProbe().Check(ctx, server.URL)
	if ok {
		t.Error("expected not ready on timeout")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

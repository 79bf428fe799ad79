package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPProbe проверяет, что URL отвечает кодом 2xx или 3xx.
// Используется и для проверки сетевого подключения (network.check_url).
type HTTPProbe struct {
	client *http.Client
}

// NewHTTPProbe создаёт HTTPProbe. Редиректы не отслеживаются:
// 3xx уже означает, что сервер жив.
func NewHTTPProbe() *HTTPProbe {
	return &HTTPProbe{
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Check реализует Probe.
func (p *HTTPProbe) Check(ctx context.Context, pattern string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pattern, nil)
	if err != nil {
		return false, fmt.Errorf("http probe: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400, nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shaiso/launchpad/internal/api"
	"github.com/shaiso/launchpad/internal/domain"
)

// ErrNoRunInProgress — демон сейчас не выполняет run.
var ErrNoRunInProgress = errors.New("no run in progress")

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, возвращённая демоном.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для API демона.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// run с wait может идти долго: health check'и с settle и повторами
			Timeout: 10 * time.Minute,
		},
	}
}

// --- Runs ---

// ListRuns возвращает историю run'ов.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var records []domain.RunRecord
	err := c.list(ctx, "/api/v1/runs", params, &records)
	return records, err
}

// GetRun возвращает запись истории по ID.
func (c *Client) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	var rec domain.RunRecord
	err := c.get(ctx, "/api/v1/runs/"+url.PathEscape(id), &rec)
	return &rec, err
}

// Summary возвращает статистику по истории.
func (c *Client) Summary(ctx context.Context) (*domain.RunSummary, error) {
	var s domain.RunSummary
	err := c.get(ctx, "/api/v1/runs/summary", &s)
	return &s, err
}

// Current возвращает снимок выполняющегося run.
// Если run не идёт, возвращает ErrNoRunInProgress.
func (c *Client) Current(ctx context.Context) (*api.CurrentRunResponse, error) {
	var cur api.CurrentRunResponse
	err := c.get(ctx, "/api/v1/runs/current", &cur)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, ErrNoRunInProgress
	}
	return &cur, err
}

// StartRun запускает run на демоне. С req.Wait ответ содержит отчёт,
// иначе report == nil (run принят в фоне).
func (c *Client) StartRun(ctx context.Context, req api.CreateRunRequest) (*api.ReportResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/runs", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusAccepted {
		return nil, nil
	}

	var report api.ReportResponse
	if err := decodeData(resp.Body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Schedule возвращает расписание демона.
func (c *Client) Schedule(ctx context.Context) (*api.ScheduleResponse, error) {
	var s api.ScheduleResponse
	err := c.get(ctx, "/api/v1/schedule", &s)
	return &s, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}
	return decodeData(resp.Body, result)
}

func (c *Client) list(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func decodeData(r io.Reader, result any) error {
	var dr dataResponse
	if err := json.NewDecoder(r).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return &APIError{Status: resp.StatusCode}
	}

	return &APIError{Status: resp.StatusCode, Code: er.Error.Code, Message: er.Error.Message}
}

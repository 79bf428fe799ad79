package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/launchpad/internal/domain"
)

// recentLimit — сколько последних уведомлений хранится в списке.
const recentLimit = 50

// RedisEvent — уведомление в Redis.
type RedisEvent struct {
	RunID     *uuid.UUID `json:"run_id,omitempty"`
	Profile   string     `json:"profile,omitempty"`
	Success   bool       `json:"success"`
	Message   Message    `json:"message"`
	Errors    []string   `json:"errors,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// RedisSink публикует уведомление в канал Pub/Sub и хранит
// последние события в списке <channel>:recent.
type RedisSink struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisSink подключается к Redis и проверяет соединение.
func NewRedisSink(ctx context.Context, addr, channel string) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisSinkWithClient(client, channel), nil
}

// NewRedisSinkWithClient оборачивает готовый клиент.
func NewRedisSinkWithClient(client redis.UniversalClient, channel string) *RedisSink {
	if channel == "" {
		channel = "launchpad:runs"
	}
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Send(ctx context.Context, msg Message, report *domain.RunReport) error {
	event := RedisEvent{Message: msg, Timestamp: time.Now()}
	if report != nil {
		id := report.ID
		event.RunID = &id
		event.Profile = report.Profile
		event.Success = report.Success()
		event.Errors = report.Failures()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	recent := s.channel + ":recent"
	pipe := s.client.TxPipeline()
	pipe.Publish(ctx, s.channel, body)
	pipe.LPush(ctx, recent, body)
	pipe.LTrim(ctx, recent, 0, recentLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Close закрывает клиент.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/launchpad/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

// MessageTypeRunCompleted — run завершён (успешно, с ошибками или отменён).
const MessageTypeRunCompleted MessageType = "run.completed"

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunCompletedPayload — сводка run для внешних потребителей.
type RunCompletedPayload struct {
	RunID           uuid.UUID `json:"run_id"`
	Profile         string    `json:"profile,omitempty"`
	Trigger         string    `json:"trigger,omitempty"`
	Result          string    `json:"result"`
	DurationSeconds float64   `json:"duration_seconds"`
	Verified        int       `json:"verified"`
	Skipped         int       `json:"skipped"`
	Errors          []string  `json:"errors,omitempty"`
}

// NewRunCompleted строит payload из отчёта.
func NewRunCompleted(report *domain.RunReport) RunCompletedPayload {
	return RunCompletedPayload{
		RunID:           report.ID,
		Profile:         report.Profile,
		Trigger:         report.Trigger,
		Result:          RunResult(report),
		DurationSeconds: report.Duration().Seconds(),
		Verified:        report.Count(domain.TaskStatusVerified),
		Skipped:         report.Count(domain.TaskStatusSkipped),
		Errors:          report.Failures(),
	}
}

// RunResult возвращает succeeded, failed или cancelled.
func RunResult(report *domain.RunReport) string {
	switch {
	case report.Cancelled:
		return "cancelled"
	case report.Success():
		return "succeeded"
	default:
		return "failed"
	}
}

// RoutingKeyFor возвращает routing key по результату run.
func RoutingKeyFor(report *domain.RunReport) string {
	switch RunResult(report) {
	case "cancelled":
		return RoutingKeyCancelled
	case "succeeded":
		return RoutingKeySucceeded
	default:
		return RoutingKeyFailed
	}
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn     *Connection
	exchange string
	logger   *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, exchange string, logger *slog.Logger) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:     conn,
		exchange: exchange,
		logger:   logger,
	}
}

// Publish публикует сообщение с routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			p.exchange, // exchange
			routingKey, // routing key
			false,      // mandatory
			false,      // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", p.exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", p.exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishRun публикует итог run.
func (p *Publisher) PublishRun(ctx context.Context, report *domain.RunReport) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunCompleted,
		Payload:   NewRunCompleted(report),
		Timestamp: time.Now(),
	}
	return p.Publish(ctx, RoutingKeyFor(report), msg)
}

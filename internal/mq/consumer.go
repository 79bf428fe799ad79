package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// errDeliveriesClosed — брокер закрыл канал доставки (обычно разрыв соединения).
var errDeliveriesClosed = errors.New("deliveries channel closed")

// Handler обрабатывает событие. Ошибка — nack без возврата в очередь:
// подписка эксклюзивная, повторная доставка того же события её не починит.
type Handler func(ctx context.Context, d *Delivery) error

// Delivery — доставленное событие.
type Delivery struct {
	// Message — распарсенный конверт.
	Message Message

	// RoutingKey — ключ, с которым событие опубликовано (run.succeeded, …).
	RoutingKey string

	// Raw — сырое AMQP сообщение.
	Raw amqp.Delivery
}

// Consumer читает события run'ов из очереди.
//
// Очередь получается через Setup при каждом (пере)подключении:
// эксклюзивная очередь подписки исчезает вместе с соединением.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	setup    func(ctx context.Context) (string, error)
	handler  Handler
	prefetch int
	tag      string
}

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	// Queue — имя готовой очереди (если Setup не задан).
	Queue string

	// Setup объявляет очередь и возвращает её имя.
	Setup func(ctx context.Context) (string, error)

	// Handler — обработчик событий.
	Handler Handler

	// Prefetch — число неподтверждённых сообщений (default: 1).
	Prefetch int

	Logger *slog.Logger
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, cfg ConsumerConfig) *Consumer {
	c := &Consumer{
		conn:     conn,
		logger:   cfg.Logger,
		setup:    cfg.Setup,
		handler:  cfg.Handler,
		prefetch: cfg.Prefetch,
		tag:      "launchpad-" + uuid.NewString()[:8],
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.prefetch <= 0 {
		c.prefetch = 1
	}
	if c.setup == nil {
		queue := cfg.Queue
		c.setup = func(context.Context) (string, error) { return queue, nil }
	}
	return c
}

// Run потребляет события до отмены ctx. После разрыва соединения
// ждёт переподключения и открывает новую сессию.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consumer session ended, waiting for reconnect", "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

// session объявляет очередь и обрабатывает доставки до разрыва канала.
func (c *Consumer) session(ctx context.Context) error {
	queue, err := c.setup(ctx)
	if err != nil {
		return fmt.Errorf("setup queue: %w", err)
	}

	ch := c.conn.Channel()
	if ch == nil {
		return ErrNoChannel
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue, c.tag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	c.logger.Info("consumer started", "queue", queue, "tag", c.tag)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			c.dispatch(ctx, raw)
		}
	}
}

// dispatch разбирает конверт и передаёт событие обработчику.
// Нечитаемые сообщения отбрасываются, события незнакомых типов подтверждаются без обработки.
func (c *Consumer) dispatch(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("dropping unreadable message", "routing_key", raw.RoutingKey, "error", err)
		raw.Nack(false, false)
		return
	}

	if msg.Type != MessageTypeRunCompleted {
		c.logger.Debug("ignoring message", "type", msg.Type, "message_id", msg.ID)
		raw.Ack(false)
		return
	}

	if err := c.handler(ctx, &Delivery{Message: msg, RoutingKey: raw.RoutingKey, Raw: raw}); err != nil {
		c.logger.Error("event handler failed", "message_id", msg.ID, "error", err)
		raw.Nack(false, false)
		return
	}
	raw.Ack(false)
}

// ParsePayload декодирует payload конверта в T.
func ParsePayload[T any](msg *Message) (T, error) {
	var out T

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return out, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", msg.Type, err)
	}
	return out, nil
}

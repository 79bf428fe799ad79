package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange — topic-обменник событий run'ов.
const DefaultExchange = "launchpad.runs"

// QueueHistory — долговечная очередь, копящая все события run'ов
// для внешних потребителей (дашборды, аудит).
const QueueHistory = "launchpad.runs.history"

// Routing keys событий run'ов.
const (
	RoutingKeySucceeded = "run.succeeded"
	RoutingKeyFailed    = "run.failed"
	RoutingKeyCancelled = "run.cancelled"

	// RoutingKeyAll — шаблон подписки на все события.
	RoutingKeyAll = "run.#"
)

// SetupTopology объявляет обменник и очередь истории.
func SetupTopology(ctx context.Context, conn *Connection, exchange string) error {
	if exchange == "" {
		exchange = DefaultExchange
	}

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchange(ch, exchange); err != nil {
			return err
		}

		if _, err := ch.QueueDeclare(
			QueueHistory, // name
			true,         // durable
			false,        // delete when unused
			false,        // exclusive
			false,        // no-wait
			amqp.Table{"x-max-length": int32(1000)},
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueHistory, err)
		}

		if err := ch.QueueBind(QueueHistory, RoutingKeyAll, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueHistory, exchange, err)
		}
		return nil
	})
}

// DeclareSubscription создаёт временную эксклюзивную очередь,
// привязанную к обменнику по pattern, и возвращает её имя.
func DeclareSubscription(ctx context.Context, conn *Connection, exchange, pattern string) (string, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if pattern == "" {
		pattern = RoutingKeyAll
	}

	var name string
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchange(ch, exchange); err != nil {
			return err
		}

		q, err := ch.QueueDeclare(
			"",    // имя генерирует брокер
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare subscription queue: %w", err)
		}

		if err := ch.QueueBind(q.Name, pattern, exchange, false, nil); err != nil {
			return fmt.Errorf("bind subscription %s: %w", pattern, err)
		}
		name = q.Name
		return nil
	})
	return name, err
}

func declareExchange(ch *amqp.Channel, name string) error {
	err := ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

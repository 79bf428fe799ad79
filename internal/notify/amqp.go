package notify

import (
	"context"

	"github.com/shaiso/launchpad/internal/domain"
)

// RunPublisher публикует отчёт run (mq.Publisher).
type RunPublisher interface {
	PublishRun(ctx context.Context, report *domain.RunReport) error
}

// AMQPSink публикует итоги run в RabbitMQ.
// Ошибки вне run (report == nil) не публикуются.
type AMQPSink struct {
	Publisher RunPublisher
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Send(ctx context.Context, _ Message, report *domain.RunReport) error {
	if report == nil {
		return nil
	}
	return s.Publisher.PublishRun(ctx, report)
}

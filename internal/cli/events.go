package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/launchpad/internal/config"
	"github.com/shaiso/launchpad/internal/mq"
)

// NewEventsCmd создаёт команду events: подписка на события run'ов в RabbitMQ.
func NewEventsCmd(app *App) *cobra.Command {
	var amqpURL string
	var exchange string
	var pattern string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow run events published to RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Без --amqp-url адрес берётся из конфигурации, если она есть.
			if amqpURL == "" || exchange == "" {
				if cfg, err := app.LoadConfig(); err == nil {
					if amqpURL == "" {
						amqpURL = cfg.Notifications.AMQPURL
					}
					if exchange == "" {
						exchange = cfg.Notifications.Exchange
					}
				} else if !errors.Is(err, config.ErrConfig) {
					return err
				}
			}
			if amqpURL == "" {
				amqpURL = mq.DefaultURL()
			}

			conn, err := mq.NewConnection(amqpURL, nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			out := app.Output()
			consumer := mq.NewConsumer(conn, mq.ConsumerConfig{
				Setup: func(ctx context.Context) (string, error) {
					return mq.DeclareSubscription(ctx, conn, exchange, pattern)
				},
				Handler: func(_ context.Context, d *mq.Delivery) error {
					printEvent(out, app.JSON, d)
					return nil
				},
			})

			out.Success(fmt.Sprintf("Following %s on %s (Ctrl+C to stop)", pattern, exchangeName(exchange)))
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amqpURL, "amqp-url", "", "RabbitMQ URL (default: notifications.amqp_url)")
	cmd.Flags().StringVar(&exchange, "exchange", "", "Exchange name (default: notifications.exchange)")
	cmd.Flags().StringVar(&pattern, "pattern", mq.RoutingKeyAll, "Routing key pattern (run.failed, run.#, ...)")

	return cmd
}

func printEvent(out *Output, jsonMode bool, d *mq.Delivery) {
	payload, err := mq.ParsePayload[mq.RunCompletedPayload](&d.Message)
	if err != nil {
		out.Warn(fmt.Sprintf("unreadable event %s: %v", d.Message.ID, err))
		return
	}

	if jsonMode {
		out.JSON(payload)
		return
	}

	line := fmt.Sprintf("%s  %-13s  %-8s  %6.1fs  verified=%d skipped=%d",
		d.Message.Timestamp.Local().Format("2006-01-02 15:04:05"),
		d.RoutingKey,
		profileName(payload.Profile),
		payload.DurationSeconds,
		payload.Verified,
		payload.Skipped,
	)
	if len(payload.Errors) > 0 {
		line += "  errors: " + strings.Join(payload.Errors, "; ")
	}

	switch payload.Result {
	case "succeeded":
		fmt.Fprintln(out.w, out.ok.Sprint(line))
	case "cancelled":
		fmt.Fprintln(out.w, out.warn.Sprint(line))
	default:
		fmt.Fprintln(out.w, out.fail.Sprint(line))
	}
}

func exchangeName(exchange string) string {
	if exchange == "" {
		return mq.DefaultExchange
	}
	return exchange
}

package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/discount-club/internal/lib/sl"
)

// Consume читает сообщения очереди и передаёт их обработчику.
// Сообщение подтверждается после успешной обработки; при ошибке
// возвращается в очередь для повтора. Блокирует до отмены контекста
// или закрытия канала.
func Consume(ctx context.Context, ch *amqp.Channel, queue string,
	handler func(body []byte) error, log *slog.Logger) error {
	const op = "rabbitmq.Consume"

	msgs, err := ch.Consume(
		queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("%s: channel closed", op)
			}
			if err := handler(msg.Body); err != nil {
				log.Error("failed to handle message", sl.Err(err))
				if nackErr := msg.Nack(false, true); nackErr != nil {
					log.Error("failed to nack message", sl.Err(nackErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Error("failed to ack message", sl.Err(ackErr))
			}
		}
	}
}

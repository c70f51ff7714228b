package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/discount-club/internal/models"
)

// Publisher публикует сообщения уведомлений в обменник.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает новый Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishActivationEmail публикует сообщение письма активации.
func (p *Publisher) PublishActivationEmail(msg models.ActivationEmail) error {
	return p.publish(ActivationRoutingKey, msg)
}

func (p *Publisher) publish(routingKey string, message any) error {
	const op = "rabbitmq.publish"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		NotificationsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

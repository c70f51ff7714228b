package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Имена обменника, очереди и ключа маршрутизации писем активации.
const (
	NotificationsExchange = "notifications"
	ActivationQueue       = "notifications.activation"
	ActivationRoutingKey  = "activation"
)

// SetupChannel открывает канал и объявляет обменник с очередью
// писем активации.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		ActivationQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.QueueBind(ActivationQueue, ActivationRoutingKey, NotificationsExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

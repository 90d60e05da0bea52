package queue

import (
	"encoding/json"

	"github.com/streadway/amqp"
)

// TopicRecipientRetries carries {"recipient_id": n} jobs for failed sends;
// cmd/worker consumes it and re-sends one recipient at a time.
const TopicRecipientRetries = "recipient_retries"

// AmqpQueue publishes jobs to RabbitMQ. Consuming stays in cmd/worker,
// which owns acks and the retry-count headers.
type AmqpQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAmqpQueue(url string) (*AmqpQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AmqpQueue{conn: conn, ch: ch}, nil
}

func (q *AmqpQueue) Publish(topic string, payload any) error {
	// Declare is idempotent; keeps publisher and consumer in agreement.
	if _, err := q.ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return q.ch.Publish(
		"",    // default exchange
		topic, // routing key = queue name
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (q *AmqpQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		return err
	}
	return q.conn.Close()
}

var _ Publisher = (*AmqpQueue)(nil)

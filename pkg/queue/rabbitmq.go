package queue

import (
	"fmt"
	"time"

	"pocketledger/pkg/config"
	"pocketledger/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EvaluationQueueName = "alert_evaluation_queue"
	EvaluationExchange  = "alert_evaluations"
	EvaluationRoute     = "evaluation"
)

// Client wraps the RabbitMQ channel used to move evaluation batches from
// the rule evaluator to the alerting service.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		EvaluationExchange, // name
		"direct",           // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		EvaluationQueueName, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		EvaluationQueueName, // queue name
		EvaluationRoute,     // routing key
		EvaluationExchange,  // exchange
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishEvaluationBatch publishes a JSON-encoded evaluation batch. The rule
// evaluator owns the payload format; this side only moves bytes.
func (c *Client) PublishEvaluationBatch(body []byte) error {
	err := c.channel.Publish(
		EvaluationExchange, // exchange
		EvaluationRoute,    // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish batch to exchange=%s, routing_key=%s: %v", EvaluationExchange, EvaluationRoute, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// ConsumeEvaluationBatches delivers each queued batch body to the handler.
// A handler error nacks with requeue, so handlers must swallow permanent
// failures (e.g. malformed payloads) to avoid a redelivery loop.
func (c *Client) ConsumeEvaluationBatches(handler func(body []byte) error) error {
	msgs, err := c.channel.Consume(
		EvaluationQueueName, // queue
		"",                  // consumer
		false,               // auto-ack (we manually ack after processing)
		false,               // exclusive
		false,               // no-local
		false,               // no-wait
		nil,                 // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from evaluation queue: %s", EvaluationQueueName)

	go func() {
		for msg := range msgs {
			c.logger.Debug("[RABBITMQ] Received message from queue %s, size=%d bytes", EvaluationQueueName, len(msg.Body))

			if err := handler(msg.Body); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed to process evaluation batch: %v", err)
				msg.Nack(false, true) // reject and requeue
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}

// GetQueueLength returns the number of messages waiting in the queue.
func (c *Client) GetQueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(EvaluationQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}

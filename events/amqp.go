package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/haileyok/seneca/registry"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AmqpPublisher forwards registry events to a topic exchange.
type AmqpPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	prefix   string
}

type AmqpArgs struct {
	Url        string
	Exchange   string
	RoutingKey string
}

func NewAmqpPublisher(args *AmqpArgs) (*AmqpPublisher, error) {
	if args.Exchange == "" {
		args.Exchange = "seneca"
	}

	if args.RoutingKey == "" {
		args.RoutingKey = "registry"
	}

	conn, err := amqp.Dial(args.Url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		args.Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AmqpPublisher{
		conn:     conn,
		channel:  ch,
		exchange: args.Exchange,
		prefix:   args.RoutingKey,
	}, nil
}

func (p *AmqpPublisher) Publish(ctx context.Context, evt *registry.Event) error {
	body, err := json.Marshal(NewMessage(evt))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.channel.PublishWithContext(
		ctx,
		p.exchange,
		RoutingKey(p.prefix, evt.Kind),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
			MessageId:    fmt.Sprintf("%d", evt.Seq),
		},
	)
}

func (p *AmqpPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}

	if p.conn != nil {
		return p.conn.Close()
	}

	return nil
}

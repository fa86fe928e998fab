package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	FulfillmentExchange   = "fulfillment_topic"
	NotificationsExchange = "notifications_fanout"
	DLXExchange           = "dlx"

	KitchenQueue       = "kitchen.q"
	BarQueue           = "bar.q"
	NotificationsQueue = "notifications.q"
	DeadLetterQueue    = "dlq"

	maxPriority = 10
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Channel opens a fresh channel; workers publish and consume on separate ones.
func (c *Client) Channel() (*amqp.Channel, error) { return c.conn.Channel() }

// DeclareAll sets up the full topology, idempotently. One durable queue per
// destination bound by routing key fulfillment.<destination>.*, a fanout for
// notifications, and a DLX for poison messages.
func (c *Client) DeclareAll() error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("nil channel")
	}
	if err := c.ch.ExchangeDeclare(FulfillmentExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(DLXExchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	destQueues := map[string]string{
		KitchenQueue: "fulfillment.kitchen.*",
		BarQueue:     "fulfillment.bartender.*",
	}
	for q, key := range destQueues {
		if _, err := c.ch.QueueDeclare(q, true, false, false, false, amqp.Table{
			"x-max-priority":            int32(maxPriority),
			"x-dead-letter-exchange":    DLXExchange,
			"x-dead-letter-routing-key": DeadLetterQueue,
		}); err != nil {
			return err
		}
		if err := c.ch.QueueBind(q, key, FulfillmentExchange, false, nil); err != nil {
			return err
		}
	}
	if _, err := c.ch.QueueDeclare(NotificationsQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(NotificationsQueue, "", NotificationsExchange, false, nil); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(DeadLetterQueue, DeadLetterQueue, DLXExchange, false, nil); err != nil {
		return err
	}
	return nil
}

func (c *Client) PublishPersistent(ctx context.Context, exchange, key string, priority uint8, body []byte) error {
	return c.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Priority:     priority,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}

func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}

// Cancel stops deliveries for a consumer tag; in-flight messages stay
// unacked until the caller finishes them.
func (c *Client) Cancel(consumer string) error {
	return c.ch.Cancel(consumer, false)
}

// QueueFor maps a destination to its fulfillment queue name.
func QueueFor(destination string) string {
	if destination == "bartender" {
		return BarQueue
	}
	return KitchenQueue
}

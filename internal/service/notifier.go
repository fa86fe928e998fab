package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/mq"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

// NotifierInterface is fire-and-forget by contract: implementations log
// delivery failures and never surface them to the primary operation.
type NotifierInterface interface {
	OrderReady(orderID int64)
	LowStock(productID int64)
	SessionClosed(sessionID int64)
}

// FulfillmentPublisherInterface fans confirmed orders out to the destination
// queues.
type FulfillmentPublisherInterface interface {
	PublishFulfillment(ctx context.Context, msg domain.FulfillmentMessage) error
	PublishStatusChange(ctx context.Context, change domain.StatusChange) error
}

const publishTimeout = 5 * time.Second

type AMQPNotifier struct {
	client *mq.Client
	lg     *logger.Logger
}

func NewAMQPNotifier(client *mq.Client, lg *logger.Logger) *AMQPNotifier {
	return &AMQPNotifier{client: client, lg: lg}
}

func (n *AMQPNotifier) emit(kind domain.EventKind, entity string, entityID int64) {
	ev := domain.NotificationEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Entity:    entity,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		n.lg.Error("notification_marshal_failed", err, map[string]any{"kind": kind})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := n.client.PublishPersistent(ctx, mq.NotificationsExchange, "", 0, body); err != nil {
		n.lg.Error("notification_publish_failed", err, map[string]any{"kind": kind, "entity_id": entityID})
		return
	}
	n.lg.Debug("notification_published", map[string]any{"kind": kind, "entity_id": entityID})
}

func (n *AMQPNotifier) OrderReady(orderID int64) { n.emit(domain.EventOrderReady, "order", orderID) }

func (n *AMQPNotifier) LowStock(productID int64) { n.emit(domain.EventLowStock, "product", productID) }

func (n *AMQPNotifier) SessionClosed(sessionID int64) {
	n.emit(domain.EventSessionClosed, "session", sessionID)
}

type AMQPFulfillmentPublisher struct {
	client *mq.Client
}

func NewAMQPFulfillmentPublisher(client *mq.Client) *AMQPFulfillmentPublisher {
	return &AMQPFulfillmentPublisher{client: client}
}

func (p *AMQPFulfillmentPublisher) PublishFulfillment(ctx context.Context, msg domain.FulfillmentMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("fulfillment.%s.%d", msg.Destination, msg.Priority)
	return p.client.PublishPersistent(ctx, mq.FulfillmentExchange, key, uint8(msg.Priority), body)
}

func (p *AMQPFulfillmentPublisher) PublishStatusChange(ctx context.Context, change domain.StatusChange) error {
	body, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return p.client.PublishPersistent(ctx, mq.NotificationsExchange, "", 0, body)
}

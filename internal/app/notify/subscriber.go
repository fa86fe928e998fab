package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/mq"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

// Subscriber tails the notifications fanout and prints every event as a log
// line. It stands in for the display boards and the waiter pager system,
// which consume the same queue.
type Subscriber struct {
	client *mq.Client
	name   string
	lg     *logger.Logger
}

func NewSubscriber(client *mq.Client, name string, lg *logger.Logger) *Subscriber {
	return &Subscriber{client: client, name: name, lg: lg}
}

func (s *Subscriber) Run(ctx context.Context) error {
	msgs, err := s.client.Consume(mq.NotificationsQueue, s.name, 10)
	if err != nil {
		return err
	}
	s.lg.Info("subscriber_started", map[string]any{"queue": mq.NotificationsQueue})

	for {
		select {
		case <-ctx.Done():
			s.lg.Info("subscriber_stopped", nil)
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			s.handle(d)
		}
	}
}

func (s *Subscriber) handle(d amqp.Delivery) {
	// The fanout carries two shapes; try the status change first since it is
	// the chattier one.
	var change domain.StatusChange
	if err := json.Unmarshal(d.Body, &change); err == nil && change.OrderNumber != "" {
		s.lg.Info("status_change", map[string]any{
			"order_number": change.OrderNumber,
			"old_status":   change.OldStatus,
			"new_status":   change.NewStatus,
			"changed_by":   change.ChangedBy,
		})
		_ = d.Ack(false)
		return
	}

	var ev domain.NotificationEvent
	if err := json.Unmarshal(d.Body, &ev); err == nil && ev.Kind != "" {
		s.lg.Info("notification", map[string]any{
			"kind": ev.Kind, "entity": ev.Entity, "entity_id": ev.EntityID,
		})
		_ = d.Ack(false)
		return
	}

	s.lg.Error("notification_unparseable", nil, map[string]any{"message_id": d.MessageId})
	_ = d.Ack(false)
}

package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/metrics"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/mq"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/repository"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/service"
)

var (
	errRequeue = errors.New("requeue")     // nack(requeue=true)
	errDLQ     = errors.New("dead_letter") // nack(requeue=false)
)

type Config struct {
	WorkerName  string
	Destination domain.Destination
	Prefetch    int
	Heartbeat   time.Duration

	// StoreTimeout bounds the registry writes that run off the consume
	// context (heartbeats, the shutdown offline mark).
	StoreTimeout time.Duration

	// PrepDelay simulates preparation time between claiming an entry and
	// marking it ready. Zero means immediate.
	PrepDelay time.Duration
}

// Worker drains one destination queue. Each delivery is processed
// idempotently: a redelivered message finds its queue entry already claimed
// and acks without side effects.
type Worker struct {
	cfg       Config
	client    *mq.Client
	svc       service.FulfillmentServiceInterface
	workers   repository.FulfillmentRepositoryInterface
	publisher service.FulfillmentPublisherInterface
	lg        *logger.Logger
}

func NewWorker(cfg Config, client *mq.Client, svc service.FulfillmentServiceInterface,
	workers repository.FulfillmentRepositoryInterface, publisher service.FulfillmentPublisherInterface,
	lg *logger.Logger) *Worker {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 30 * time.Second
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &Worker{cfg: cfg, client: client, svc: svc, workers: workers, publisher: publisher, lg: lg}
}

func (w *Worker) Run(ctx context.Context) error {
	if w.cfg.WorkerName == "" {
		return errors.New("worker name is empty: pass --worker-name")
	}

	if err := w.workers.RegisterOrFail(ctx, w.cfg.WorkerName, w.cfg.Destination); err != nil {
		w.lg.Error("worker_registration_failed", err, map[string]any{"worker": w.cfg.WorkerName})
		return err
	}
	w.lg.Info("worker_registered", map[string]any{
		"worker": w.cfg.WorkerName, "destination": w.cfg.Destination,
	})

	queue := mq.QueueFor(string(w.cfg.Destination))
	msgs, err := w.client.Consume(queue, w.cfg.WorkerName, w.cfg.Prefetch)
	if err != nil {
		return err
	}

	stopBeat := make(chan struct{})
	go func() {
		t := time.NewTicker(w.cfg.Heartbeat)
		defer t.Stop()
		for {
			select {
			case <-stopBeat:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				beatCtx, cancel := context.WithTimeout(context.Background(), w.cfg.StoreTimeout)
				err := w.workers.Heartbeat(beatCtx, w.cfg.WorkerName)
				cancel()
				if err != nil {
					w.lg.Error("heartbeat_failed", err, map[string]any{"worker": w.cfg.WorkerName})
				}
			}
		}
	}()

	w.lg.Info("worker_consuming", map[string]any{
		"queue": queue, "prefetch": w.cfg.Prefetch, "worker": w.cfg.WorkerName,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for d := range msgs {
			err := w.processOne(ctx, d)
			switch {
			case err == nil:
				_ = d.Ack(false)
				metrics.RecordFulfillment(string(w.cfg.Destination), "ack")
			case errors.Is(err, errDLQ):
				_ = d.Nack(false, false)
				metrics.RecordFulfillment(string(w.cfg.Destination), "dead_letter")
			default:
				_ = d.Nack(false, true)
				metrics.RecordFulfillment(string(w.cfg.Destination), "requeue")
			}
		}
	}()

	<-ctx.Done()
	w.lg.Info("worker_shutdown", map[string]any{"worker": w.cfg.WorkerName})

	// Stop taking new deliveries, mark offline, then drain in-flight work.
	_ = w.client.Cancel(w.cfg.WorkerName)
	offCtx, cancelOff := context.WithTimeout(context.Background(), w.cfg.StoreTimeout)
	_ = w.workers.SetOffline(offCtx, w.cfg.WorkerName)
	cancelOff()
	close(stopBeat)
	<-done
	return nil
}

func (w *Worker) processOne(ctx context.Context, d amqp.Delivery) error {
	var msg domain.FulfillmentMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.lg.Error("message_unparseable", err, map[string]any{"message_id": d.MessageId})
		return errDLQ
	}
	if msg.KitchenOrderID == 0 || msg.OrderNumber == "" {
		return errDLQ
	}
	if msg.Destination != w.cfg.Destination {
		// Wrong queue binding or a rebalanced topology; let another worker take it.
		return errRequeue
	}

	started, err := w.svc.StartPreparing(ctx, w.cfg.WorkerName, msg.KitchenOrderID)
	if err != nil {
		return w.classify(err)
	}
	if !started {
		// Redelivery of an already-claimed entry.
		return nil
	}
	w.publishStatus(ctx, msg, string(domain.KitchenPending), string(domain.KitchenPreparing))
	w.lg.Debug("preparation_started", map[string]any{
		"kitchen_order_id": msg.KitchenOrderID, "order_number": msg.OrderNumber,
	})

	if w.cfg.PrepDelay > 0 {
		select {
		case <-time.After(w.cfg.PrepDelay):
		case <-ctx.Done():
			return errRequeue
		}
	}

	if err := w.svc.MarkReady(ctx, w.cfg.WorkerName, msg.KitchenOrderID); err != nil {
		return w.classify(err)
	}
	w.publishStatus(ctx, msg, string(domain.KitchenPreparing), string(domain.KitchenReady))
	w.lg.Debug("preparation_finished", map[string]any{
		"kitchen_order_id": msg.KitchenOrderID, "order_number": msg.OrderNumber,
	})
	return nil
}

// classify maps domain errors onto delivery outcomes. Transient storage
// trouble retries; an entry that cannot exist or cannot legally move goes to
// the dead letter queue for inspection.
func (w *Worker) classify(err error) error {
	switch domain.KindOf(err) {
	case domain.KindNotFound, domain.KindInvalidState, domain.KindValidation:
		return errDLQ
	default:
		return errRequeue
	}
}

func (w *Worker) publishStatus(ctx context.Context, msg domain.FulfillmentMessage, oldStatus, newStatus string) {
	change := domain.StatusChange{
		OrderID:     msg.OrderID,
		OrderNumber: msg.OrderNumber,
		Destination: msg.Destination,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedBy:   w.cfg.WorkerName,
		Timestamp:   time.Now().UTC(),
	}
	if err := w.publisher.PublishStatusChange(ctx, change); err != nil {
		w.lg.Error("status_publish_failed", err, map[string]any{
			"order_number": msg.OrderNumber, "new_status": newStatus,
		})
	}
}

package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/repository"
)

type FulfillmentServiceInterface interface {
	Confirm(ctx context.Context, actor domain.Identity, draftID int64) (domain.Order, error)
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	Advance(ctx context.Context, actor domain.Identity, orderID int64, target domain.OrderStatus) (domain.Order, error)
	Void(ctx context.Context, actor domain.Identity, orderID int64, reason string) (domain.Order, error)

	// Worker-facing operations on fulfillment queue entries.
	StartPreparing(ctx context.Context, worker string, kitchenOrderID int64) (bool, error)
	MarkReady(ctx context.Context, worker string, kitchenOrderID int64) error
	MarkServed(ctx context.Context, worker string, kitchenOrderID int64) error
}

type FulfillmentService struct {
	orders      repository.OrderRepositoryInterface
	drafts      repository.DraftRepositoryInterface
	products    repository.ProductRepositoryInterface
	fulfillment repository.FulfillmentRepositoryInterface
	publisher   FulfillmentPublisherInterface
	notifier    NotifierInterface
	lg          *logger.Logger
	timeout     time.Duration
}

func NewFulfillmentService(
	orders repository.OrderRepositoryInterface,
	drafts repository.DraftRepositoryInterface,
	products repository.ProductRepositoryInterface,
	fulfillment repository.FulfillmentRepositoryInterface,
	publisher FulfillmentPublisherInterface,
	notifier NotifierInterface,
	lg *logger.Logger,
	timeout time.Duration,
) FulfillmentServiceInterface {
	return &FulfillmentService{
		orders: orders, drafts: drafts, products: products,
		fulfillment: fulfillment, publisher: publisher, notifier: notifier,
		lg: lg, timeout: timeout,
	}
}

// Confirm promotes a draft into an immutable committed order. Validation and
// snapshot assembly happen up front; the store then applies the whole
// promotion in one transaction. The queue fan-out afterwards is a side
// effect: its failure is logged and redelivered by ops, never rolled back
// into the confirmed order.
func (s *FulfillmentService) Confirm(ctx context.Context, actor domain.Identity, draftID int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	did := strconv.FormatInt(draftID, 10)

	owner, err := s.drafts.Owner(ctx, draftID)
	if err != nil {
		return domain.Order{}, err
	}
	if owner != actor.CashierID {
		return domain.Order{}, domain.Forbiddenf("draft", did, "draft belongs to another cashier")
	}

	draft, err := s.drafts.Get(ctx, draftID, actor.CashierID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(draft.Items) == 0 {
		return domain.Order{}, domain.Validationf("draft", did, "cannot confirm a draft with no items")
	}

	number, err := s.orders.AllocateNumber(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	// Totals are re-derived from the child rows here, not read back from the
	// stored aggregate, so the committed order cannot inherit drift.
	subtotal, total := domain.DraftTotals(draft.Items, draft.Discount, draft.Tax)

	order := domain.Order{
		Number:     number,
		SessionID:  draft.SessionID,
		CashierID:  actor.CashierID,
		Status:     domain.OrderConfirmed,
		Subtotal:   subtotal,
		Discount:   draft.Discount,
		Tax:        draft.Tax,
		Total:      total,
	}
	for _, it := range draft.Items {
		product, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		snap := domain.OrderItem{
			ProductID:   it.ProductID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       domain.ItemTotal(it),
			Destination: product.Destination,
		}
		for _, ad := range it.Addons {
			snap.Addons = append(snap.Addons, domain.OrderItemAddon{
				AddonID: ad.AddonID, Name: ad.Name, PriceDelta: ad.PriceDelta, Quantity: ad.Quantity,
			})
		}
		order.Items = append(order.Items, snap)
	}

	committed, kitchenOrders, lowStock, err := s.orders.ConfirmTx(ctx, order, draftID, draft.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	for _, ko := range kitchenOrders {
		msg := domain.FulfillmentMessage{
			KitchenOrderID: ko.ID,
			OrderID:        committed.ID,
			OrderNumber:    committed.Number,
			Destination:    ko.Destination,
			Priority:       ko.Priority,
			Timestamp:      time.Now().UTC(),
		}
		for _, it := range committed.Items {
			if it.Destination == ko.Destination {
				msg.Items = append(msg.Items, domain.FulfillmentItem{
					Name:     it.Name,
					Quantity: it.Quantity.String(),
				})
			}
		}
		if err := s.publisher.PublishFulfillment(ctx, msg); err != nil {
			s.lg.Error("fulfillment_publish_failed", err, map[string]any{
				"order_id": committed.ID, "kitchen_order_id": ko.ID, "destination": ko.Destination,
			})
		}
	}

	for _, p := range lowStock {
		s.notifier.LowStock(p.ID)
	}

	s.lg.Info("order_confirmed", map[string]any{
		"order_id": committed.ID, "order_number": committed.Number,
		"total": committed.Total.String(), "destinations": len(kitchenOrders),
	})
	return committed, nil
}

func (s *FulfillmentService) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.orders.Get(ctx, id)
}

// Advance applies one forward step. The store rejects anything that is not
// the immediate next state and keeps the owning session's totals in step
// within the same transaction.
func (s *FulfillmentService) Advance(ctx context.Context, actor domain.Identity, orderID int64, target domain.OrderStatus) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.AdvanceTx(ctx, orderID, target, strconv.FormatInt(actor.CashierID, 10))
	if err != nil {
		return domain.Order{}, err
	}
	if target == domain.OrderReady {
		s.notifier.OrderReady(order.ID)
	}
	s.lg.Info("order_advanced", map[string]any{"order_id": order.ID, "status": order.Status})
	return order, nil
}

// Void is terminal from draft, confirmed or preparing. Stock already
// decremented at confirm time is not compensated here.
func (s *FulfillmentService) Void(ctx context.Context, actor domain.Identity, orderID int64, reason string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if reason == "" {
		return domain.Order{}, domain.Validationf("order", strconv.FormatInt(orderID, 10), "void reason is required")
	}
	order, err := s.orders.VoidTx(ctx, orderID, reason, strconv.FormatInt(actor.CashierID, 10))
	if err != nil {
		return domain.Order{}, err
	}
	s.lg.Info("order_voided", map[string]any{"order_id": order.ID, "reason": reason})
	return order, nil
}

// StartPreparing claims a queue entry for a worker; redeliveries are no-ops.
// The first destination to start cooking pulls the order into preparing.
func (s *FulfillmentService) StartPreparing(ctx context.Context, worker string, kitchenOrderID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started, err := s.fulfillment.StartPreparingTx(ctx, kitchenOrderID, worker)
	if err != nil || !started {
		return started, err
	}

	ko, err := s.fulfillment.GetKitchenOrder(ctx, kitchenOrderID)
	if err != nil {
		return true, err
	}
	order, err := s.orders.Get(ctx, ko.OrderID)
	if err != nil {
		return true, err
	}
	if order.Status == domain.OrderConfirmed {
		if _, err := s.orders.AdvanceTx(ctx, ko.OrderID, domain.OrderPreparing, worker); err != nil {
			// Another worker won the confirmed->preparing race; that is fine.
			if !domain.IsKind(err, domain.KindInvalidState) {
				return true, err
			}
		}
	}
	return true, nil
}

// MarkReady finishes one destination. When it was the last pending one, the
// order itself becomes ready and the food/beverage-ready notification goes
// out fire-and-forget.
func (s *FulfillmentService) MarkReady(ctx context.Context, worker string, kitchenOrderID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	remaining, orderID, err := s.fulfillment.MarkReadyTx(ctx, kitchenOrderID, worker)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == domain.OrderConfirmed {
		// The preparing step was never observed (single fast destination);
		// walk through it rather than skip it.
		if _, err := s.orders.AdvanceTx(ctx, orderID, domain.OrderPreparing, worker); err != nil &&
			!domain.IsKind(err, domain.KindInvalidState) {
			return err
		}
	}
	if _, err := s.orders.AdvanceTx(ctx, orderID, domain.OrderReady, worker); err != nil {
		if domain.IsKind(err, domain.KindInvalidState) {
			return nil
		}
		return err
	}
	s.notifier.OrderReady(orderID)
	return nil
}

func (s *FulfillmentService) MarkServed(ctx context.Context, worker string, kitchenOrderID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.fulfillment.MarkServedTx(ctx, kitchenOrderID, worker)
}

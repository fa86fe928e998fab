package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/repository"
)

type DraftServiceInterface interface {
	CreateDraft(ctx context.Context, actor domain.Identity, req domain.CreateDraftRequest) (domain.CurrentOrder, error)
	GetDraft(ctx context.Context, actor domain.Identity, draftID int64) (domain.CurrentOrder, error)
	AddItem(ctx context.Context, actor domain.Identity, draftID int64, req domain.AddItemRequest) (domain.CurrentOrderItem, error)
	AddAddon(ctx context.Context, actor domain.Identity, itemID int64, req domain.AddAddonRequest) (domain.CurrentOrderItemAddon, error)
	UpdateQuantity(ctx context.Context, actor domain.Identity, itemID int64, quantity string) error
	RemoveItem(ctx context.Context, actor domain.Identity, itemID int64) error
	SetHold(ctx context.Context, actor domain.Identity, draftID int64, hold bool) error
	// ClearAllForCashier takes no target: it always clears the caller's own
	// drafts and nothing else.
	ClearAllForCashier(ctx context.Context, actor domain.Identity) (int64, error)
}

type DraftService struct {
	drafts   repository.DraftRepositoryInterface
	products repository.ProductRepositoryInterface
	lg       *logger.Logger
	timeout  time.Duration
}

func NewDraftService(drafts repository.DraftRepositoryInterface, products repository.ProductRepositoryInterface,
	lg *logger.Logger, timeout time.Duration) DraftServiceInterface {
	return &DraftService{drafts: drafts, products: products, lg: lg, timeout: timeout}
}

func (s *DraftService) CreateDraft(ctx context.Context, actor domain.Identity, req domain.CreateDraftRequest) (domain.CurrentOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	draft, err := s.drafts.Create(ctx, domain.CurrentOrder{
		CashierID: actor.CashierID,
		TableID:   req.TableID,
		SessionID: req.SessionID,
		Notes:     req.Notes,
	})
	if err != nil {
		return domain.CurrentOrder{}, err
	}
	s.lg.Debug("draft_created", map[string]any{"draft_id": draft.ID, "cashier_id": actor.CashierID})
	return draft, nil
}

func (s *DraftService) GetDraft(ctx context.Context, actor domain.Identity, draftID int64) (domain.CurrentOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.drafts.Get(ctx, draftID, actor.CashierID)
}

// AddItem snapshots the product name and current price into the item and
// recomputes the draft totals in the same transaction, so no caller ever
// reads a total that does not reflect the new item.
func (s *DraftService) AddItem(ctx context.Context, actor domain.Identity, draftID int64, req domain.AddItemRequest) (domain.CurrentOrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	qty, err := domain.QuantityFromString(req.Quantity)
	if err != nil {
		return domain.CurrentOrderItem{}, err
	}
	if !qty.Valid() {
		return domain.CurrentOrderItem{}, domain.Validationf("draft_item", "", "quantity must be at least 0.001")
	}

	if _, err := s.drafts.Get(ctx, draftID, actor.CashierID); err != nil {
		return domain.CurrentOrderItem{}, err
	}

	product, err := s.products.Get(ctx, req.ProductID)
	if err != nil {
		return domain.CurrentOrderItem{}, err
	}
	if !product.IsActive {
		return domain.CurrentOrderItem{}, domain.Validationf("product", strconv.FormatInt(product.ID, 10), "product is inactive")
	}

	price := product.Price
	if req.UnitPriceOverride != nil {
		if actor.Role != domain.RoleManager {
			return domain.CurrentOrderItem{}, domain.Forbiddenf("draft_item", "", "price override requires manager role")
		}
		price, err = domain.MoneyFromString(*req.UnitPriceOverride)
		if err != nil {
			return domain.CurrentOrderItem{}, err
		}
		if price.IsNegative() {
			return domain.CurrentOrderItem{}, domain.Validationf("draft_item", "", "price override cannot be negative")
		}
	}

	item, err := s.drafts.AddItemTx(ctx, draftID, domain.CurrentOrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  qty,
		UnitPrice: price,
	})
	if err != nil {
		return domain.CurrentOrderItem{}, err
	}
	s.lg.Debug("draft_item_added", map[string]any{"draft_id": draftID, "item_id": item.ID, "product_id": product.ID})
	return item, nil
}

func (s *DraftService) AddAddon(ctx context.Context, actor domain.Identity, itemID int64, req domain.AddAddonRequest) (domain.CurrentOrderItemAddon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	qty, err := domain.QuantityFromString(req.Quantity)
	if err != nil {
		return domain.CurrentOrderItemAddon{}, err
	}
	if !qty.Valid() {
		return domain.CurrentOrderItemAddon{}, domain.Validationf("draft_item", "", "quantity must be at least 0.001")
	}

	if err := s.checkItemOwnership(ctx, actor, itemID); err != nil {
		return domain.CurrentOrderItemAddon{}, err
	}

	addon, err := s.products.GetAddon(ctx, req.AddonID)
	if err != nil {
		return domain.CurrentOrderItemAddon{}, err
	}
	if !addon.IsActive {
		return domain.CurrentOrderItemAddon{}, domain.Validationf("addon", strconv.FormatInt(addon.ID, 10), "addon is inactive")
	}

	return s.drafts.AddAddonTx(ctx, itemID, domain.CurrentOrderItemAddon{
		AddonID:    addon.ID,
		Name:       addon.Name,
		PriceDelta: addon.PriceDelta,
		Quantity:   qty,
	})
}

func (s *DraftService) UpdateQuantity(ctx context.Context, actor domain.Identity, itemID int64, quantity string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	qty, err := domain.QuantityFromString(quantity)
	if err != nil {
		return err
	}
	if !qty.Valid() {
		return domain.Validationf("draft_item", strconv.FormatInt(itemID, 10), "quantity must be at least 0.001")
	}
	if err := s.checkItemOwnership(ctx, actor, itemID); err != nil {
		return err
	}
	return s.drafts.UpdateQuantityTx(ctx, itemID, qty)
}

func (s *DraftService) RemoveItem(ctx context.Context, actor domain.Identity, itemID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.checkItemOwnership(ctx, actor, itemID); err != nil {
		return err
	}
	return s.drafts.RemoveItemTx(ctx, itemID)
}

func (s *DraftService) SetHold(ctx context.Context, actor domain.Identity, draftID int64, hold bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.drafts.Get(ctx, draftID, actor.CashierID); err != nil {
		return err
	}
	return s.drafts.SetHold(ctx, draftID, hold)
}

// ClearAllForCashier deletes only the caller's drafts. Zero deletions is an
// explicit zero-count success, never an ambiguous no-op.
func (s *DraftService) ClearAllForCashier(ctx context.Context, actor domain.Identity) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.drafts.DeleteAllForCashier(ctx, actor.CashierID)
	if err != nil {
		return 0, err
	}
	s.lg.Info("drafts_cleared", map[string]any{"cashier_id": actor.CashierID, "deleted_count": count})
	return count, nil
}

// checkItemOwnership resolves the item's draft and applies the same
// ownership filter every draft read uses.
func (s *DraftService) checkItemOwnership(ctx context.Context, actor domain.Identity, itemID int64) error {
	draftID, err := s.drafts.ItemDraft(ctx, itemID)
	if err != nil {
		return err
	}
	if _, err := s.drafts.Get(ctx, draftID, actor.CashierID); err != nil {
		return err
	}
	return nil
}

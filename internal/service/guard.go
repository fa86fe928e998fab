package service

import (
	"context"
	"strconv"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/repository"
)

// OwnershipGuard decorates the draft service with the mandatory ownership
// check: the acting identity must equal the draft's owning cashier, role
// notwithstanding. It is applied at wiring time so no route reaches the
// inner service directly, and it distinguishes Forbidden (exists, not yours)
// from NotFound (does not exist), which the query-level filter alone cannot.
type OwnershipGuard struct {
	inner  DraftServiceInterface
	drafts repository.DraftRepositoryInterface
}

func NewOwnershipGuard(inner DraftServiceInterface, drafts repository.DraftRepositoryInterface) DraftServiceInterface {
	return &OwnershipGuard{inner: inner, drafts: drafts}
}

func (g *OwnershipGuard) checkDraft(ctx context.Context, actor domain.Identity, draftID int64) error {
	owner, err := g.drafts.Owner(ctx, draftID)
	if err != nil {
		return err
	}
	if owner != actor.CashierID {
		return domain.Forbiddenf("draft", strconv.FormatInt(draftID, 10), "draft belongs to another cashier")
	}
	return nil
}

func (g *OwnershipGuard) checkItem(ctx context.Context, actor domain.Identity, itemID int64) error {
	draftID, err := g.drafts.ItemDraft(ctx, itemID)
	if err != nil {
		return err
	}
	return g.checkDraft(ctx, actor, draftID)
}

func (g *OwnershipGuard) CreateDraft(ctx context.Context, actor domain.Identity, req domain.CreateDraftRequest) (domain.CurrentOrder, error) {
	// Creation establishes ownership; nothing to check yet.
	return g.inner.CreateDraft(ctx, actor, req)
}

func (g *OwnershipGuard) GetDraft(ctx context.Context, actor domain.Identity, draftID int64) (domain.CurrentOrder, error) {
	if err := g.checkDraft(ctx, actor, draftID); err != nil {
		return domain.CurrentOrder{}, err
	}
	return g.inner.GetDraft(ctx, actor, draftID)
}

func (g *OwnershipGuard) AddItem(ctx context.Context, actor domain.Identity, draftID int64, req domain.AddItemRequest) (domain.CurrentOrderItem, error) {
	if err := g.checkDraft(ctx, actor, draftID); err != nil {
		return domain.CurrentOrderItem{}, err
	}
	return g.inner.AddItem(ctx, actor, draftID, req)
}

func (g *OwnershipGuard) AddAddon(ctx context.Context, actor domain.Identity, itemID int64, req domain.AddAddonRequest) (domain.CurrentOrderItemAddon, error) {
	if err := g.checkItem(ctx, actor, itemID); err != nil {
		return domain.CurrentOrderItemAddon{}, err
	}
	return g.inner.AddAddon(ctx, actor, itemID, req)
}

func (g *OwnershipGuard) UpdateQuantity(ctx context.Context, actor domain.Identity, itemID int64, quantity string) error {
	if err := g.checkItem(ctx, actor, itemID); err != nil {
		return err
	}
	return g.inner.UpdateQuantity(ctx, actor, itemID, quantity)
}

func (g *OwnershipGuard) RemoveItem(ctx context.Context, actor domain.Identity, itemID int64) error {
	if err := g.checkItem(ctx, actor, itemID); err != nil {
		return err
	}
	return g.inner.RemoveItem(ctx, actor, itemID)
}

func (g *OwnershipGuard) SetHold(ctx context.Context, actor domain.Identity, draftID int64, hold bool) error {
	if err := g.checkDraft(ctx, actor, draftID); err != nil {
		return err
	}
	return g.inner.SetHold(ctx, actor, draftID, hold)
}

// ClearAllForCashier passes straight through: the operation is scoped to the
// caller by construction, so there is no foreign draft to protect, and no
// elevated role can widen it.
func (g *OwnershipGuard) ClearAllForCashier(ctx context.Context, actor domain.Identity) (int64, error) {
	return g.inner.ClearAllForCashier(ctx, actor)
}

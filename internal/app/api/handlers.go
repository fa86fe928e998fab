package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/metrics"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/service"
)

type Handler struct {
	sessions    service.SessionServiceInterface
	drafts      service.DraftServiceInterface
	fulfillment service.FulfillmentServiceInterface
	tables      *service.TableCoordinator
	lg          *logger.Logger
}

func NewHandler(
	sessions service.SessionServiceInterface,
	drafts service.DraftServiceInterface,
	fulfillment service.FulfillmentServiceInterface,
	tables *service.TableCoordinator,
	lg *logger.Logger,
) *Handler {
	return &Handler{sessions: sessions, drafts: drafts, fulfillment: fulfillment, tables: tables, lg: lg}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// ---- sessions ----

func (h *Handler) openSession(c *gin.Context) {
	var req domain.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "table_id is required")
		return
	}
	sess, err := h.sessions.OpenSession(c.Request.Context(), identity(c), req.TableID, req.CustomerID)
	metrics.RecordOperation("open_session", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse(sess))
}

func (h *Handler) getSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sess, err := h.sessions.GetSession(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

func (h *Handler) closeSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payment_method and amount_paid are required")
		return
	}
	sess, err := h.sessions.CloseSession(c.Request.Context(), identity(c), id, req.PaymentMethod, req.AmountPaid)
	metrics.RecordOperation("close_session", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

func (h *Handler) abandonSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sess, err := h.sessions.AbandonSession(c.Request.Context(), identity(c), id)
	metrics.RecordOperation("abandon_session", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

// ---- drafts ----

func (h *Handler) createDraft(c *gin.Context) {
	var req domain.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	draft, err := h.drafts.CreateDraft(c.Request.Context(), identity(c), req)
	metrics.RecordOperation("create_draft", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, draftResponse(draft))
}

func (h *Handler) getDraft(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	draft, err := h.drafts.GetDraft(c.Request.Context(), identity(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse(draft))
}

func (h *Handler) addItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id and quantity are required")
		return
	}
	item, err := h.drafts.AddItem(c.Request.Context(), identity(c), id, req)
	metrics.RecordOperation("add_item", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id": item.ID, "product_id": item.ProductID, "name": item.Name,
		"quantity": item.Quantity.String(), "unit_price": item.UnitPrice.String(),
	})
}

func (h *Handler) addAddon(c *gin.Context) {
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}
	var req domain.AddAddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "addon_id and quantity are required")
		return
	}
	addon, err := h.drafts.AddAddon(c.Request.Context(), identity(c), itemID, req)
	metrics.RecordOperation("add_addon", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id": addon.ID, "addon_id": addon.AddonID, "name": addon.Name,
		"price_delta": addon.PriceDelta.String(), "quantity": addon.Quantity.String(),
	})
}

func (h *Handler) updateQuantity(c *gin.Context) {
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}
	var req domain.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	err := h.drafts.UpdateQuantity(c.Request.Context(), identity(c), itemID, req.Quantity)
	metrics.RecordOperation("update_quantity", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeItem(c *gin.Context) {
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}
	err := h.drafts.RemoveItem(c.Request.Context(), identity(c), itemID)
	metrics.RecordOperation("remove_item", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setHold(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		OnHold *bool `json:"on_hold" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "on_hold is required")
		return
	}
	if err := h.drafts.SetHold(c.Request.Context(), identity(c), id, *req.OnHold); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// clearDrafts removes every draft owned by the caller and reports the count.
// The route has no target parameter on purpose.
func (h *Handler) clearDrafts(c *gin.Context) {
	count, err := h.drafts.ClearAllForCashier(c.Request.Context(), identity(c))
	metrics.RecordOperation("clear_drafts", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.ClearDraftsResponse{DeletedCount: count})
}

func (h *Handler) confirmDraft(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.fulfillment.Confirm(c.Request.Context(), identity(c), id)
	metrics.RecordOperation("confirm_order", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderResponse(order))
}

// ---- orders ----

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.fulfillment.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *Handler) advanceOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target_status is required")
		return
	}
	order, err := h.fulfillment.Advance(c.Request.Context(), identity(c), id, domain.OrderStatus(req.TargetStatus))
	metrics.RecordOperation("advance_order", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *Handler) voidOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.VoidOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "reason is required")
		return
	}
	order, err := h.fulfillment.Void(c.Request.Context(), identity(c), id, req.Reason)
	metrics.RecordOperation("void_order", err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

// ---- tables ----

func (h *Handler) listTables(c *gin.Context) {
	tables, err := h.tables.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(tables))
	for _, t := range tables {
		row := gin.H{"id": t.ID, "label": t.Label, "status": string(t.Status)}
		if t.CurrentSessionID != nil {
			row["current_session_id"] = *t.CurrentSessionID
		}
		out = append(out, row)
	}
	c.JSON(http.StatusOK, out)
}

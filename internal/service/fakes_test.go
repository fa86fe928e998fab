package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/repository"
)

// fakeStore is a single in-memory backing store shared by the per-interface
// adapters below. One mutex guards everything, which mirrors the atomicity
// the real store gets from transactions.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	seq    map[string]int

	sessions map[int64]*domain.OrderSession
	drafts   map[int64]*domain.CurrentOrder
	itemOf   map[int64]int64 // item id -> draft id
	orders   map[int64]*domain.Order
	kitchen  map[int64]*domain.KitchenOrder
	tables   map[int64]*domain.RestaurantTable
	products map[int64]domain.Product
	addons   map[int64]domain.Addon
	workers  map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		seq:      make(map[string]int),
		sessions: make(map[int64]*domain.OrderSession),
		drafts:   make(map[int64]*domain.CurrentOrder),
		itemOf:   make(map[int64]int64),
		orders:   make(map[int64]*domain.Order),
		kitchen:  make(map[int64]*domain.KitchenOrder),
		tables:   make(map[int64]*domain.RestaurantTable),
		products: make(map[int64]domain.Product),
		addons:   make(map[int64]domain.Addon),
		workers:  make(map[string]string),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// recomputeSessionLocked mirrors the store-side totals refresh that runs in
// the same transaction as every order membership change. Caller holds mu.
func (f *fakeStore) recomputeSessionLocked(sessionID int64) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return
	}
	sub, disc, tax, total := domain.ZeroMoney(), domain.ZeroMoney(), domain.ZeroMoney(), domain.ZeroMoney()
	for _, o := range f.orders {
		if o.SessionID != nil && *o.SessionID == sessionID && o.Status != domain.OrderVoided {
			sub = sub.Add(o.Subtotal)
			disc = disc.Add(o.Discount)
			tax = tax.Add(o.Tax)
			total = total.Add(o.Total)
		}
	}
	sess.Subtotal, sess.Discount, sess.Tax, sess.Total = sub, disc, tax, total
}

func (f *fakeStore) addTable(label string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.tables[id] = &domain.RestaurantTable{ID: id, Label: label, Status: domain.TableAvailable}
	return id
}

func (f *fakeStore) addProduct(p domain.Product) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.id()
	f.products[p.ID] = p
	return p.ID
}

func (f *fakeStore) addAddon(a domain.Addon) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.id()
	f.addons[a.ID] = a
	return a.ID
}

func mustMoney(t interface{ Fatalf(string, ...any) }, s string) domain.Money {
	m, err := domain.MoneyFromString(s)
	if err != nil {
		t.Fatalf("bad money %q: %v", s, err)
	}
	return m
}

// ---- sessions ----

type fakeSessionRepo struct{ s *fakeStore }

func (r *fakeSessionRepo) OpenTx(_ context.Context, tableID int64, customerID *int64, openerID int64) (domain.OrderSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tbl, ok := r.s.tables[tableID]
	if !ok {
		return domain.OrderSession{}, domain.NotFoundf("table", strconv.FormatInt(tableID, 10))
	}
	for _, sess := range r.s.sessions {
		if sess.TableID == tableID && sess.Status == domain.SessionOpen {
			return domain.OrderSession{}, domain.Conflictf("table", strconv.FormatInt(tableID, 10), "table already has an open session")
		}
	}
	r.s.seq["session"]++
	id := r.s.id()
	sess := &domain.OrderSession{
		ID:         id,
		Number:     fmt.Sprintf("TAB-%s-%03d", time.Now().Format("20060102"), r.s.seq["session"]),
		TableID:    tableID,
		CustomerID: customerID,
		Status:     domain.SessionOpen,
		OpenedBy:   openerID,
		OpenedAt:   time.Now(),
	}
	r.s.sessions[id] = sess
	tbl.Status = domain.TableOccupied
	tbl.CurrentSessionID = &id
	return *sess, nil
}

func (r *fakeSessionRepo) Get(_ context.Context, id int64) (domain.OrderSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return domain.OrderSession{}, domain.NotFoundf("session", strconv.FormatInt(id, 10))
	}
	return *sess, nil
}

func (r *fakeSessionRepo) CloseTx(_ context.Context, id int64, _ string, _ domain.Money) (domain.OrderSession, error) {
	return r.terminate(id, domain.SessionClosed, true)
}

func (r *fakeSessionRepo) AbandonTx(_ context.Context, id int64) (domain.OrderSession, error) {
	return r.terminate(id, domain.SessionAbandoned, false)
}

func (r *fakeSessionRepo) terminate(id int64, target domain.SessionStatus, checkOrders bool) (domain.OrderSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sid := strconv.FormatInt(id, 10)
	sess, ok := r.s.sessions[id]
	if !ok {
		return domain.OrderSession{}, domain.NotFoundf("session", sid)
	}
	if sess.Status != domain.SessionOpen {
		return domain.OrderSession{}, domain.InvalidStatef("session", sid, "session is %s, not open", sess.Status)
	}
	if checkOrders {
		for _, o := range r.s.orders {
			if o.SessionID != nil && *o.SessionID == id && !o.Status.Terminal() {
				return domain.OrderSession{}, domain.InvalidStatef("session", sid, "orders still in progress")
			}
		}
		r.s.recomputeSessionLocked(id)
	}
	now := time.Now()
	sess.Status = target
	sess.ClosedAt = &now
	return *sess, nil
}

// ---- drafts ----

type fakeDraftRepo struct{ s *fakeStore }

func (r *fakeDraftRepo) recompute(d *domain.CurrentOrder) {
	for i := range d.Items {
		it := &d.Items[i]
		it.Subtotal = it.UnitPrice.MulQty(it.Quantity)
		it.Total = domain.ItemTotal(*it)
	}
	d.Subtotal, d.Total = domain.DraftTotals(d.Items, d.Discount, d.Tax)
	d.UpdatedAt = time.Now()
}

func (r *fakeDraftRepo) Create(_ context.Context, draft domain.CurrentOrder) (domain.CurrentOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	draft.ID = r.s.id()
	draft.CreatedAt = time.Now()
	draft.UpdatedAt = draft.CreatedAt
	r.s.drafts[draft.ID] = &draft
	return draft, nil
}

func (r *fakeDraftRepo) Get(_ context.Context, draftID, cashierID int64) (domain.CurrentOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drafts[draftID]
	if !ok || d.CashierID != cashierID {
		return domain.CurrentOrder{}, domain.NotFoundf("draft", strconv.FormatInt(draftID, 10))
	}
	out := *d
	out.Items = append([]domain.CurrentOrderItem(nil), d.Items...)
	return out, nil
}

func (r *fakeDraftRepo) Owner(_ context.Context, draftID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drafts[draftID]
	if !ok {
		return 0, domain.NotFoundf("draft", strconv.FormatInt(draftID, 10))
	}
	return d.CashierID, nil
}

func (r *fakeDraftRepo) ItemDraft(_ context.Context, itemID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	draftID, ok := r.s.itemOf[itemID]
	if !ok {
		return 0, domain.NotFoundf("draft_item", strconv.FormatInt(itemID, 10))
	}
	return draftID, nil
}

func (r *fakeDraftRepo) AddItemTx(_ context.Context, draftID int64, item domain.CurrentOrderItem) (domain.CurrentOrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drafts[draftID]
	if !ok {
		return domain.CurrentOrderItem{}, domain.NotFoundf("draft", strconv.FormatInt(draftID, 10))
	}
	item.ID = r.s.id()
	item.OrderID = draftID
	d.Items = append(d.Items, item)
	r.s.itemOf[item.ID] = draftID
	r.recompute(d)
	return d.Items[len(d.Items)-1], nil
}

func (r *fakeDraftRepo) AddAddonTx(_ context.Context, itemID int64, addon domain.CurrentOrderItemAddon) (domain.CurrentOrderItemAddon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	draftID, ok := r.s.itemOf[itemID]
	if !ok {
		return domain.CurrentOrderItemAddon{}, domain.NotFoundf("draft_item", strconv.FormatInt(itemID, 10))
	}
	d := r.s.drafts[draftID]
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			addon.ID = r.s.id()
			addon.ItemID = itemID
			d.Items[i].Addons = append(d.Items[i].Addons, addon)
			r.recompute(d)
			return addon, nil
		}
	}
	return domain.CurrentOrderItemAddon{}, domain.NotFoundf("draft_item", strconv.FormatInt(itemID, 10))
}

func (r *fakeDraftRepo) UpdateQuantityTx(_ context.Context, itemID int64, qty domain.Quantity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	draftID, ok := r.s.itemOf[itemID]
	if !ok {
		return domain.NotFoundf("draft_item", strconv.FormatInt(itemID, 10))
	}
	d := r.s.drafts[draftID]
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			d.Items[i].Quantity = qty
			r.recompute(d)
			return nil
		}
	}
	return domain.NotFoundf("draft_item", strconv.FormatInt(itemID, 10))
}

func (r *fakeDraftRepo) RemoveItemTx(_ context.Context, itemID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	draftID, ok := r.s.itemOf[itemID]
	if !ok {
		return domain.NotFoundf("draft_item", strconv.FormatInt(itemID, 10))
	}
	d := r.s.drafts[draftID]
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			delete(r.s.itemOf, itemID)
			r.recompute(d)
			return nil
		}
	}
	return domain.NotFoundf("draft_item", strconv.FormatInt(itemID, 10))
}

func (r *fakeDraftRepo) SetHold(_ context.Context, draftID int64, hold bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drafts[draftID]
	if !ok {
		return domain.NotFoundf("draft", strconv.FormatInt(draftID, 10))
	}
	d.IsOnHold = hold
	d.UpdatedAt = time.Now()
	return nil
}

func (r *fakeDraftRepo) DeleteAllForCashier(_ context.Context, cashierID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, d := range r.s.drafts {
		if d.CashierID == cashierID {
			for _, it := range d.Items {
				delete(r.s.itemOf, it.ID)
			}
			delete(r.s.drafts, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeDraftRepo) Delete(_ context.Context, draftID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.drafts[draftID]; !ok {
		return domain.NotFoundf("draft", strconv.FormatInt(draftID, 10))
	}
	delete(r.s.drafts, draftID)
	return nil
}

// ---- orders ----

type fakeOrderRepo struct{ s *fakeStore }

func (r *fakeOrderRepo) AllocateNumber(_ context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq["order"]++
	return fmt.Sprintf("ORD-%s-%03d", time.Now().Format("20060102"), r.s.seq["order"]), nil
}

func (r *fakeOrderRepo) ConfirmTx(_ context.Context, order domain.Order, draftID int64, draftUpdatedAt time.Time) (domain.Order, []domain.KitchenOrder, []domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	did := strconv.FormatInt(draftID, 10)
	d, ok := r.s.drafts[draftID]
	if !ok || !d.UpdatedAt.Equal(draftUpdatedAt) {
		return domain.Order{}, nil, nil, domain.Conflictf("draft", did, "draft changed, confirmed or cleared concurrently")
	}

	order.ID = r.s.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := order
	r.s.orders[order.ID] = &stored

	var lowStock []domain.Product
	destinations := make(map[domain.Destination]bool)
	for _, it := range order.Items {
		destinations[it.Destination] = true
		if p, ok := r.s.products[it.ProductID]; ok {
			p.StockQuantity = domain.NewQuantity(p.StockQuantity.Decimal.Sub(it.Quantity.Decimal))
			r.s.products[it.ProductID] = p
			if p.StockQuantity.Decimal.LessThanOrEqual(p.LowStockThreshold.Decimal) {
				lowStock = append(lowStock, p)
			}
		}
	}

	var kitchenOrders []domain.KitchenOrder
	for dest := range destinations {
		ko := domain.KitchenOrder{
			ID: r.s.id(), OrderID: order.ID, Destination: dest,
			Status: domain.KitchenPending, Priority: order.Priority(), CreatedAt: time.Now(),
		}
		stored := ko
		r.s.kitchen[ko.ID] = &stored
		kitchenOrders = append(kitchenOrders, ko)
	}

	for _, it := range d.Items {
		delete(r.s.itemOf, it.ID)
	}
	delete(r.s.drafts, draftID)
	if order.SessionID != nil {
		r.s.recomputeSessionLocked(*order.SessionID)
	}
	return order, kitchenOrders, lowStock, nil
}

func (r *fakeOrderRepo) Get(_ context.Context, id int64) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFoundf("order", strconv.FormatInt(id, 10))
	}
	return *o, nil
}

func (r *fakeOrderRepo) AdvanceTx(_ context.Context, id int64, target domain.OrderStatus, _ string) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	oid := strconv.FormatInt(id, 10)
	o, ok := r.s.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFoundf("order", oid)
	}
	if !o.Status.CanTransitionTo(target) {
		return domain.Order{}, domain.InvalidStatef("order", oid, "cannot advance from %s to %s", o.Status, target)
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	if o.SessionID != nil {
		r.s.recomputeSessionLocked(*o.SessionID)
	}
	return *o, nil
}

func (r *fakeOrderRepo) VoidTx(_ context.Context, id int64, reason, _ string) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	oid := strconv.FormatInt(id, 10)
	o, ok := r.s.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFoundf("order", oid)
	}
	if !o.Status.CanTransitionTo(domain.OrderVoided) {
		return domain.Order{}, domain.InvalidStatef("order", oid, "cannot void from %s", o.Status)
	}
	o.Status = domain.OrderVoided
	o.VoidReason = reason
	if o.SessionID != nil {
		r.s.recomputeSessionLocked(*o.SessionID)
	}
	return *o, nil
}

// ---- fulfillment queue ----

type fakeFulfillmentRepo struct{ s *fakeStore }

func (r *fakeFulfillmentRepo) GetKitchenOrder(_ context.Context, id int64) (domain.KitchenOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ko, ok := r.s.kitchen[id]
	if !ok {
		return domain.KitchenOrder{}, domain.NotFoundf("kitchen_order", strconv.FormatInt(id, 10))
	}
	return *ko, nil
}

func (r *fakeFulfillmentRepo) StartPreparingTx(_ context.Context, id int64, worker string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ko, ok := r.s.kitchen[id]
	if !ok {
		return false, domain.NotFoundf("kitchen_order", strconv.FormatInt(id, 10))
	}
	if ko.Status != domain.KitchenPending {
		return false, nil
	}
	ko.Status = domain.KitchenPreparing
	ko.ProcessedBy = &worker
	return true, nil
}

func (r *fakeFulfillmentRepo) MarkReadyTx(_ context.Context, id int64, _ string) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kid := strconv.FormatInt(id, 10)
	ko, ok := r.s.kitchen[id]
	if !ok {
		return 0, 0, domain.NotFoundf("kitchen_order", kid)
	}
	if !ko.Status.CanTransitionTo(domain.KitchenReady) {
		return 0, 0, domain.InvalidStatef("kitchen_order", kid, "cannot mark ready from %s", ko.Status)
	}
	ko.Status = domain.KitchenReady
	var remaining int64
	for _, other := range r.s.kitchen {
		if other.OrderID == ko.OrderID &&
			(other.Status == domain.KitchenPending || other.Status == domain.KitchenPreparing) {
			remaining++
		}
	}
	return remaining, ko.OrderID, nil
}

func (r *fakeFulfillmentRepo) MarkServedTx(_ context.Context, id int64, _ string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kid := strconv.FormatInt(id, 10)
	ko, ok := r.s.kitchen[id]
	if !ok {
		return domain.NotFoundf("kitchen_order", kid)
	}
	if !ko.Status.CanTransitionTo(domain.KitchenServed) {
		return domain.InvalidStatef("kitchen_order", kid, "cannot mark served from %s", ko.Status)
	}
	ko.Status = domain.KitchenServed
	return nil
}

func (r *fakeFulfillmentRepo) RegisterOrFail(_ context.Context, name string, _ domain.Destination) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.workers[name] == "online" {
		return domain.Conflictf("worker", name, "worker already online")
	}
	r.s.workers[name] = "online"
	return nil
}

func (r *fakeFulfillmentRepo) Heartbeat(_ context.Context, _ string) error { return nil }

func (r *fakeFulfillmentRepo) SetOffline(_ context.Context, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.workers[name] = "offline"
	return nil
}

// ---- tables ----

type fakeTableRepo struct{ s *fakeStore }

func (r *fakeTableRepo) Get(_ context.Context, id int64) (domain.RestaurantTable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tables[id]
	if !ok {
		return domain.RestaurantTable{}, domain.NotFoundf("table", strconv.FormatInt(id, 10))
	}
	return *t, nil
}

func (r *fakeTableRepo) List(_ context.Context) ([]domain.RestaurantTable, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.RestaurantTable, 0, len(r.s.tables))
	for _, t := range r.s.tables {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTableRepo) CountOpenSessions(_ context.Context, tableID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, sess := range r.s.sessions {
		if sess.TableID == tableID && sess.Status == domain.SessionOpen {
			n++
		}
	}
	return n, nil
}

func (r *fakeTableRepo) Release(_ context.Context, tableID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tables[tableID]
	if !ok {
		return domain.NotFoundf("table", strconv.FormatInt(tableID, 10))
	}
	t.Status = domain.TableAvailable
	t.CurrentSessionID = nil
	return nil
}

// ---- catalog ----

type fakeProductRepo struct{ s *fakeStore }

func (r *fakeProductRepo) Get(_ context.Context, id int64) (domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.Product{}, domain.NotFoundf("product", strconv.FormatInt(id, 10))
	}
	return p, nil
}

func (r *fakeProductRepo) GetAddon(_ context.Context, id int64) (domain.Addon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addons[id]
	if !ok {
		return domain.Addon{}, domain.NotFoundf("addon", strconv.FormatInt(id, 10))
	}
	return a, nil
}

// ---- collaborators ----

type recordingNotifier struct {
	mu      sync.Mutex
	ready   []int64
	low     []int64
	closed  []int64
}

func (n *recordingNotifier) OrderReady(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready = append(n.ready, id)
}

func (n *recordingNotifier) LowStock(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.low = append(n.low, id)
}

func (n *recordingNotifier) SessionClosed(id int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, id)
}

type recordingPublisher struct {
	mu      sync.Mutex
	msgs    []domain.FulfillmentMessage
	changes []domain.StatusChange
	err     error
}

func (p *recordingPublisher) PublishFulfillment(_ context.Context, msg domain.FulfillmentMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) PublishStatusChange(_ context.Context, change domain.StatusChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.changes = append(p.changes, change)
	return nil
}

// testEnv wires every service against one shared fake store.
type testEnv struct {
	store     *fakeStore
	notifier  *recordingNotifier
	publisher *recordingPublisher

	sessions    SessionServiceInterface
	drafts      DraftServiceInterface
	fulfillment FulfillmentServiceInterface
	coordinator *TableCoordinator
	draftRepo   *fakeDraftRepo
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	lg := logger.New("test")
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	timeout := 5 * time.Second

	sessionRepo := &fakeSessionRepo{s: store}
	draftRepo := &fakeDraftRepo{s: store}
	orderRepo := &fakeOrderRepo{s: store}
	fulfillRepo := &fakeFulfillmentRepo{s: store}
	tableRepo := &fakeTableRepo{s: store}
	productRepo := &fakeProductRepo{s: store}

	coordinator := NewTableCoordinator(tableRepo, lg)
	return &testEnv{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		sessions:  NewSessionService(sessionRepo, coordinator, notifier, lg, timeout),
		drafts: NewOwnershipGuard(
			NewDraftService(draftRepo, productRepo, lg, timeout),
			draftRepo,
		),
		fulfillment: NewFulfillmentService(
			orderRepo, draftRepo, productRepo, fulfillRepo,
			publisher, notifier, lg, timeout,
		),
		coordinator: coordinator,
		draftRepo:   draftRepo,
	}
}

// fulfillmentWith rebuilds the fulfillment service over the same store with a
// substitute draft repository, for tests that interpose on draft reads.
func (e *testEnv) fulfillmentWith(drafts repository.DraftRepositoryInterface) FulfillmentServiceInterface {
	return NewFulfillmentService(
		&fakeOrderRepo{s: e.store}, drafts, &fakeProductRepo{s: e.store},
		&fakeFulfillmentRepo{s: e.store}, e.publisher, e.notifier,
		logger.New("test"), 5*time.Second,
	)
}

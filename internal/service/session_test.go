package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

func TestOpenSession_NumbersAreUniqueAndIncreasing(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	t1 := env.store.addTable("T1")
	t2 := env.store.addTable("T2")

	s1, err := env.sessions.OpenSession(context.Background(), actor, t1, nil)
	require.NoError(t, err)
	s2, err := env.sessions.OpenSession(context.Background(), actor, t2, nil)
	require.NoError(t, err)

	assert.Regexp(t, `^TAB-\d{8}-001$`, s1.Number)
	assert.Regexp(t, `^TAB-\d{8}-002$`, s2.Number)
	assert.NotEqual(t, s1.Number, s2.Number)
}

func TestOpenSession_OccupiesTable(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")

	sess, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)

	tbl := env.store.tables[tableID]
	assert.Equal(t, domain.TableOccupied, tbl.Status)
	require.NotNil(t, tbl.CurrentSessionID)
	assert.Equal(t, sess.ID, *tbl.CurrentSessionID)
}

func TestOpenSession_SecondOpenOnSameTableConflicts(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")

	_, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)

	_, err = env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	assert.True(t, domain.IsKind(err, domain.KindConflict), "got %v", err)
}

func TestOpenSession_ConcurrentOpensYieldOneWinner(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.sessions.OpenSession(context.Background(), actor, tableID, nil)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case domain.IsKind(err, domain.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestCloseSession_ReleasesTableAndNotifies(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")

	sess, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)

	closed, err := env.sessions.CloseSession(context.Background(), actor, sess.ID, "cash", "0.00")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	tbl := env.store.tables[tableID]
	assert.Equal(t, domain.TableAvailable, tbl.Status)
	assert.Nil(t, tbl.CurrentSessionID)
	assert.Equal(t, []int64{sess.ID}, env.notifier.closed)
}

func TestCloseSession_TwiceIsInvalidState(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")

	sess, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)
	_, err = env.sessions.CloseSession(context.Background(), actor, sess.ID, "cash", "0.00")
	require.NoError(t, err)

	_, err = env.sessions.CloseSession(context.Background(), actor, sess.ID, "cash", "0.00")
	assert.True(t, domain.IsKind(err, domain.KindInvalidState), "got %v", err)
}

func TestCloseSession_NegativeAmountRejected(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")

	sess, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)

	_, err = env.sessions.CloseSession(context.Background(), actor, sess.ID, "cash", "-1.00")
	assert.True(t, domain.IsKind(err, domain.KindValidation), "got %v", err)
}

func TestCloseSession_BlockedByInProgressOrders(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")
	productID := env.store.addProduct(domain.Product{
		Name: "Pale Ale", Price: mustMoney(t, "6.50"),
		Destination: domain.DestBartender, StockQuantity: domain.QuantityFromInt(100), IsActive: true,
	})

	sess, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)

	draft, err := env.drafts.CreateDraft(context.Background(), actor, domain.CreateDraftRequest{SessionID: &sess.ID})
	require.NoError(t, err)
	_, err = env.drafts.AddItem(context.Background(), actor, draft.ID, domain.AddItemRequest{ProductID: productID, Quantity: "1"})
	require.NoError(t, err)
	_, err = env.fulfillment.Confirm(context.Background(), actor, draft.ID)
	require.NoError(t, err)

	_, err = env.sessions.CloseSession(context.Background(), actor, sess.ID, "cash", "6.50")
	assert.True(t, domain.IsKind(err, domain.KindInvalidState), "got %v", err)
}

func TestAbandonSession_TerminalAndReleasesTable(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")

	sess, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)

	abandoned, err := env.sessions.AbandonSession(context.Background(), actor, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionAbandoned, abandoned.Status)
	assert.True(t, abandoned.Status.Terminal())
	assert.Equal(t, domain.TableAvailable, env.store.tables[tableID].Status)

	// A new tab on the freed table starts clean.
	again, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, again.ID)
}

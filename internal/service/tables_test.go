package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

func TestCoordinator_ReleaseRefusesWhileSessionOpen(t *testing.T) {
	env := newTestEnv()
	actor := domain.Identity{CashierID: 1, Role: domain.RoleCashier}
	tableID := env.store.addTable("T1")

	_, err := env.sessions.OpenSession(context.Background(), actor, tableID, nil)
	require.NoError(t, err)

	err = env.coordinator.Release(context.Background(), tableID)
	assert.True(t, domain.IsKind(err, domain.KindConflict), "got %v", err)
	assert.Equal(t, domain.TableOccupied, env.store.tables[tableID].Status)
}

func TestCoordinator_ReleaseFreesIdleTable(t *testing.T) {
	env := newTestEnv()
	tableID := env.store.addTable("T1")
	env.store.tables[tableID].Status = domain.TableCleaning

	require.NoError(t, env.coordinator.Release(context.Background(), tableID))
	assert.Equal(t, domain.TableAvailable, env.store.tables[tableID].Status)
}

func TestCoordinator_List(t *testing.T) {
	env := newTestEnv()
	env.store.addTable("T1")
	env.store.addTable("T2")

	tables, err := env.coordinator.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

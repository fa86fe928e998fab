package service

import (
	"context"
	"strconv"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/repository"
)

// TableCoordinator keeps a table's availability flag consistent with its
// sessions. Occupation happens inside the session-open transaction; release
// runs here with a defensive recount instead of trusting the invariant.
type TableCoordinator struct {
	tables repository.TableRepositoryInterface
	lg     *logger.Logger
}

func NewTableCoordinator(tables repository.TableRepositoryInterface, lg *logger.Logger) *TableCoordinator {
	return &TableCoordinator{tables: tables, lg: lg}
}

// Release frees the table after a session terminates, provided no open
// session still references it. Finding any open session at this point means
// the one-open-session-per-table invariant was broken; that is reported
// loudly, not repaired silently.
func (c *TableCoordinator) Release(ctx context.Context, tableID int64) error {
	open, err := c.tables.CountOpenSessions(ctx, tableID)
	if err != nil {
		return err
	}
	if open > 0 {
		err := domain.Conflictf("table", strconv.FormatInt(tableID, 10),
			"invariant violation: %d open sessions remain after terminating one", open)
		c.lg.Error("table_invariant_violation", err, map[string]any{"table_id": tableID, "open_sessions": open})
		return err
	}
	return c.tables.Release(ctx, tableID)
}

func (c *TableCoordinator) List(ctx context.Context) ([]domain.RestaurantTable, error) {
	return c.tables.List(ctx)
}

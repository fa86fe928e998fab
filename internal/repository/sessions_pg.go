package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) SessionRepositoryInterface {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, session_number, table_id, customer_id, status, opened_by,
	opened_at, closed_at, subtotal, discount, tax, total`

func scanSession(row pgx.Row) (domain.OrderSession, error) {
	var s domain.OrderSession
	err := row.Scan(&s.ID, &s.Number, &s.TableID, &s.CustomerID, &s.Status, &s.OpenedBy,
		&s.OpenedAt, &s.ClosedAt, &s.Subtotal, &s.Discount, &s.Tax, &s.Total)
	return s, err
}

// allocateDaySeq is the single round trip that both reads and advances the
// day's sequence. Read-then-increment would hand out duplicates under
// concurrent opens.
func allocateDaySeq(ctx context.Context, tx pgx.Tx, scope string, day time.Time) (int, error) {
	var seq int
	err := tx.QueryRow(ctx, `
		INSERT INTO day_counters (scope, day, seq) VALUES ($1, $2, 1)
		ON CONFLICT (scope, day) DO UPDATE SET seq = day_counters.seq + 1
		RETURNING seq
	`, scope, day.Format("2006-01-02")).Scan(&seq)
	return seq, err
}

func (r *SessionRepository) OpenTx(ctx context.Context, tableID int64, customerID *int64, openerID int64) (domain.OrderSession, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.OrderSession{}, wrapErr("session", "", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var tableStatus domain.TableStatus
	err = tx.QueryRow(ctx, `SELECT status FROM restaurant_tables WHERE id = $1 FOR UPDATE`, tableID).Scan(&tableStatus)
	if err != nil {
		return domain.OrderSession{}, wrapErr("table", strconv.FormatInt(tableID, 10), err)
	}

	now := time.Now()
	seq, err := allocateDaySeq(ctx, tx, "session", now)
	if err != nil {
		return domain.OrderSession{}, wrapErr("session", "", err)
	}
	number := fmt.Sprintf("TAB-%s-%03d", now.Format("20060102"), seq)

	// The partial unique index ux_open_session_per_table turns the second of
	// two racing opens into a 23505, surfaced as Conflict.
	s, err := scanSession(tx.QueryRow(ctx, `
		INSERT INTO order_sessions
			(session_number, table_id, customer_id, status, opened_by, opened_at,
			 subtotal, discount, tax, total)
		VALUES ($1, $2, $3, 'open', $4, now(), 0, 0, 0, 0)
		RETURNING `+sessionColumns,
		number, tableID, customerID, openerID))
	if err != nil {
		if domain.IsKind(wrapErr("session", "", err), domain.KindConflict) {
			return domain.OrderSession{}, domain.Conflictf("table", strconv.FormatInt(tableID, 10), "table already has an open session")
		}
		return domain.OrderSession{}, wrapErr("session", "", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE restaurant_tables SET status = 'occupied', current_session_id = $2, updated_at = now()
		WHERE id = $1
	`, tableID, s.ID); err != nil {
		return domain.OrderSession{}, wrapErr("table", strconv.FormatInt(tableID, 10), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.OrderSession{}, wrapErr("session", "", err)
	}
	return s, nil
}

func (r *SessionRepository) Get(ctx context.Context, id int64) (domain.OrderSession, error) {
	s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM order_sessions WHERE id = $1`, id))
	if err != nil {
		return domain.OrderSession{}, wrapErr("session", strconv.FormatInt(id, 10), err)
	}
	return s, nil
}

func (r *SessionRepository) CloseTx(ctx context.Context, id int64, paymentMethod string, amountPaid domain.Money) (domain.OrderSession, error) {
	return r.terminate(ctx, id, domain.SessionClosed, &paymentMethod, &amountPaid)
}

func (r *SessionRepository) AbandonTx(ctx context.Context, id int64) (domain.OrderSession, error) {
	return r.terminate(ctx, id, domain.SessionAbandoned, nil, nil)
}

func (r *SessionRepository) terminate(ctx context.Context, id int64, target domain.SessionStatus, paymentMethod *string, amountPaid *domain.Money) (domain.OrderSession, error) {
	sid := strconv.FormatInt(id, 10)
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.OrderSession{}, wrapErr("session", sid, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status domain.SessionStatus
	err = tx.QueryRow(ctx, `SELECT status FROM order_sessions WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		return domain.OrderSession{}, wrapErr("session", sid, err)
	}
	// A second close of an already-closed session is an InvalidState, never
	// a silent success.
	if status != domain.SessionOpen {
		return domain.OrderSession{}, domain.InvalidStatef("session", sid, "session is %s, not open", status)
	}

	if target == domain.SessionClosed {
		var pending int64
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM orders
			WHERE session_id = $1 AND status NOT IN ('completed', 'voided')
		`, id).Scan(&pending)
		if err != nil {
			return domain.OrderSession{}, wrapErr("session", sid, err)
		}
		if pending > 0 {
			return domain.OrderSession{}, domain.InvalidStatef("session", sid, "%d orders still in progress", pending)
		}
		// Settle on freshly derived totals, never on whatever the row holds.
		if err := recomputeSessionTotals(ctx, tx, id); err != nil {
			return domain.OrderSession{}, wrapErr("session", sid, err)
		}
	}

	s, err := scanSession(tx.QueryRow(ctx, `
		UPDATE order_sessions
		SET status = $2, closed_at = now(), payment_method = $3, amount_paid = $4
		WHERE id = $1
		RETURNING `+sessionColumns,
		id, target, paymentMethod, amountPaid))
	if err != nil {
		return domain.OrderSession{}, wrapErr("session", sid, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.OrderSession{}, wrapErr("session", sid, err)
	}
	return s, nil
}

// recomputeSessionTotals re-derives aggregate totals from all non-voided
// committed orders under the session, inside the caller's transaction. Pure
// function of current rows, not a delta patch. Every transaction that changes
// an order's membership in the session runs this before committing, so the
// stored totals can never outlive the orders they were derived from.
func recomputeSessionTotals(ctx context.Context, tx pgx.Tx, sessionID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE order_sessions os SET
			subtotal = t.subtotal,
			discount = t.discount,
			tax      = t.tax,
			total    = t.total
		FROM (
			SELECT COALESCE(SUM(o.subtotal), 0) AS subtotal,
			       COALESCE(SUM(o.discount), 0) AS discount,
			       COALESCE(SUM(o.tax), 0)      AS tax,
			       COALESCE(SUM(o.total), 0)    AS total
			FROM orders o
			WHERE o.session_id = $1 AND o.status <> 'voided'
		) t
		WHERE os.id = $1
	`, sessionID)
	return err
}

package service

import (
	"context"
	"time"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/repository"
)

type SessionServiceInterface interface {
	OpenSession(ctx context.Context, actor domain.Identity, tableID int64, customerID *int64) (domain.OrderSession, error)
	GetSession(ctx context.Context, id int64) (domain.OrderSession, error)
	CloseSession(ctx context.Context, actor domain.Identity, id int64, paymentMethod, amountPaid string) (domain.OrderSession, error)
	AbandonSession(ctx context.Context, actor domain.Identity, id int64) (domain.OrderSession, error)
}

type SessionService struct {
	sessions    repository.SessionRepositoryInterface
	coordinator *TableCoordinator
	notifier    NotifierInterface
	lg          *logger.Logger
	timeout     time.Duration
}

func NewSessionService(sessions repository.SessionRepositoryInterface, coordinator *TableCoordinator,
	notifier NotifierInterface, lg *logger.Logger, timeout time.Duration) SessionServiceInterface {
	return &SessionService{sessions: sessions, coordinator: coordinator, notifier: notifier, lg: lg, timeout: timeout}
}

// OpenSession opens a tab on a table. The sequence allocation and the
// one-open-session-per-table check both happen atomically in the store, so
// two racing opens produce exactly one success and one Conflict.
func (s *SessionService) OpenSession(ctx context.Context, actor domain.Identity, tableID int64, customerID *int64) (domain.OrderSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.sessions.OpenTx(ctx, tableID, customerID, actor.CashierID)
	if err != nil {
		return domain.OrderSession{}, err
	}
	s.lg.Info("session_opened", map[string]any{
		"session_id": sess.ID, "session_number": sess.Number, "table_id": tableID, "opened_by": actor.CashierID,
	})
	return sess, nil
}

func (s *SessionService) GetSession(ctx context.Context, id int64) (domain.OrderSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.sessions.Get(ctx, id)
}

func (s *SessionService) CloseSession(ctx context.Context, actor domain.Identity, id int64, paymentMethod, amountPaid string) (domain.OrderSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	paid, err := domain.MoneyFromString(amountPaid)
	if err != nil {
		return domain.OrderSession{}, err
	}
	if paid.IsNegative() {
		return domain.OrderSession{}, domain.Validationf("session", "", "amount paid cannot be negative")
	}

	sess, err := s.sessions.CloseTx(ctx, id, paymentMethod, paid)
	if err != nil {
		return domain.OrderSession{}, err
	}
	if err := s.coordinator.Release(ctx, sess.TableID); err != nil {
		return domain.OrderSession{}, err
	}

	// Notification delivery is the collaborator's problem; its failure never
	// unwinds a closed session.
	s.notifier.SessionClosed(sess.ID)
	s.lg.Info("session_closed", map[string]any{
		"session_id": sess.ID, "session_number": sess.Number, "total": sess.Total.String(), "closed_by": actor.CashierID,
	})
	return sess, nil
}

// AbandonSession is the administrative path for walked-out tables: terminal
// and table-releasing like close, but without payment.
func (s *SessionService) AbandonSession(ctx context.Context, actor domain.Identity, id int64) (domain.OrderSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.sessions.AbandonTx(ctx, id)
	if err != nil {
		return domain.OrderSession{}, err
	}
	if err := s.coordinator.Release(ctx, sess.TableID); err != nil {
		return domain.OrderSession{}, err
	}
	s.lg.Info("session_abandoned", map[string]any{
		"session_id": sess.ID, "session_number": sess.Number, "abandoned_by": actor.CashierID,
	})
	return sess, nil
}

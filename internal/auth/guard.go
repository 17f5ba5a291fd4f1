// Package auth implements the PIN-retry state machine that stands between a
// presented card and the ledger. Attempts strictly decrease on each failure
// until the card locks; a correct PIN restores the full budget.
package auth

import (
	"log/slog"

	"atm-ledger/internal/domain"
	"atm-ledger/internal/errors"
)

type Guard struct {
	ledger domain.LedgerStore
	logger *slog.Logger
}

func NewGuard(ledger domain.LedgerStore, logger *slog.Logger) *Guard {
	return &Guard{
		ledger: ledger,
		logger: logger,
	}
}

// Authenticate checks pin against the account behind cardNumber and returns
// a session on success. The whole transition runs inside one store
// transaction with the account row locked, so an attempt can never be
// consumed without being persisted, and concurrent attempts cannot stretch
// the retry budget.
//
// A failed attempt still commits: the rejection is captured outside the
// closure instead of being returned from it, which would roll the decrement
// back.
func (g *Guard) Authenticate(cardNumber, pin string) (*domain.Session, error) {
	var (
		session *domain.Session
		denied  *errors.AppError
	)

	err := g.ledger.WithTransaction(func(tx domain.LedgerStore) error {
		account, err := tx.FindByCardForUpdate(cardNumber)
		if err != nil {
			return err
		}

		if account.LockState == domain.Locked {
			denied = errors.ErrCardLocked
			return nil
		}

		if pin == account.PINCode {
			if err := tx.SetLockState(account.ID, domain.MaxPINAttempts, domain.Open); err != nil {
				return err
			}
			session = domain.NewSession(account.ID, account.CardNumber)
			return nil
		}

		attempts := account.RemainingAttempts - 1
		if attempts <= 0 {
			if err := tx.SetLockState(account.ID, 0, domain.Locked); err != nil {
				return err
			}
			denied = errors.NewAppError(errors.AuthRejected, "incorrect pin, card has been locked").
				WithMeta("attempts_remaining", 0).
				WithMeta("locked", true)
			return nil
		}

		if err := tx.SetLockState(account.ID, attempts, domain.Open); err != nil {
			return err
		}
		denied = errors.NewAppError(errors.AuthRejected, "incorrect pin").
			WithMeta("attempts_remaining", attempts)
		return nil
	})

	if err != nil {
		return nil, err
	}
	if denied != nil {
		g.logger.Warn("Authentication denied", "card_number", cardNumber, "code", denied.Code)
		return nil, denied
	}

	g.logger.Info("Authentication succeeded", "card_number", cardNumber, "session_id", session.ID)
	return session, nil
}

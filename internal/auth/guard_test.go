package auth

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atm-ledger/internal/domain"
	"atm-ledger/internal/errors"
	"atm-ledger/internal/ledgertest"
)

func newGuard(t *testing.T) (*Guard, *ledgertest.Store) {
	t.Helper()
	store := ledgertest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGuard(store, logger), store
}

func seedCard(store *ledgertest.Store) int64 {
	return store.Seed("1234", "1111", domain.Balances{
		domain.RUB: decimal.NewFromInt(10000),
	})
}

func TestAuthenticateSuccess(t *testing.T) {
	guard, store := newGuard(t)
	id := seedCard(store)

	session, err := guard.Authenticate("1234", "1111")
	require.NoError(t, err)
	assert.Equal(t, id, session.AccountID)
	assert.Equal(t, "1234", session.CardNumber)
	assert.NotEqual(t, session.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestAuthenticateUnknownCard(t *testing.T) {
	guard, _ := newGuard(t)

	_, err := guard.Authenticate("9999", "1111")
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.AccountNotFound, appErr.Code)
}

func TestLockoutDeterminism(t *testing.T) {
	guard, store := newGuard(t)
	id := seedCard(store)

	// Three consecutive wrong PINs yield, in order, 2 and 1 attempts
	// remaining, then a lockout.
	for i, wantRemaining := range []int{2, 1} {
		_, err := guard.Authenticate("1234", "0000")
		require.Error(t, err, "attempt %d", i+1)
		appErr := err.(*errors.AppError)
		assert.Equal(t, errors.AuthRejected, appErr.Code)
		assert.Equal(t, wantRemaining, appErr.Meta["attempts_remaining"])
	}

	_, err := guard.Authenticate("1234", "0000")
	require.Error(t, err)
	appErr := err.(*errors.AppError)
	assert.Equal(t, errors.AuthRejected, appErr.Code)
	assert.Equal(t, 0, appErr.Meta["attempts_remaining"])
	assert.Equal(t, true, appErr.Meta["locked"])

	account, err := store.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, domain.Locked, account.LockState)
	assert.Equal(t, 0, account.RemainingAttempts)
}

func TestCorrectPINResetsAttempts(t *testing.T) {
	guard, store := newGuard(t)
	id := seedCard(store)

	_, err := guard.Authenticate("1234", "0000")
	require.Error(t, err)
	_, err = guard.Authenticate("1234", "0000")
	require.Error(t, err)

	// Correct PIN before lockout restores the full budget.
	_, err = guard.Authenticate("1234", "1111")
	require.NoError(t, err)

	account, err := store.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPINAttempts, account.RemainingAttempts)
	assert.Equal(t, domain.Open, account.LockState)
}

func TestLockedCardRejectsEverything(t *testing.T) {
	guard, store := newGuard(t)
	id := seedCard(store)

	for i := 0; i < 3; i++ {
		guard.Authenticate("1234", "0000")
	}

	// Once locked, even the correct PIN is rejected and nothing mutates.
	for _, pin := range []string{"1111", "0000"} {
		_, err := guard.Authenticate("1234", pin)
		require.Error(t, err)
		appErr := err.(*errors.AppError)
		assert.Equal(t, errors.CardLocked, appErr.Code)
	}

	account, err := store.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, domain.Locked, account.LockState)
	assert.Equal(t, 0, account.RemainingAttempts)
}

func TestFailedAttemptPersistsDecrement(t *testing.T) {
	guard, store := newGuard(t)
	id := seedCard(store)

	_, err := guard.Authenticate("1234", "0000")
	require.Error(t, err)

	account, err := store.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, 2, account.RemainingAttempts)
}

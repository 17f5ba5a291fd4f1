package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LockState tells whether a card may still be authenticated.
type LockState string

const (
	Open   LockState = "open"
	Locked LockState = "locked"
)

// MaxPINAttempts is the retry budget restored on every successful login.
const MaxPINAttempts = 3

// Balances maps a currency to its balance. A missing key means the account
// has no slot in that currency, which is different from a zero balance.
type Balances map[Currency]decimal.Decimal

// Account is the persisted unit of identity and balance. CardNumber and
// PINCode are exactly four decimal digits; PINCode is only ever changed
// through administrative provisioning, never by the terminal.
type Account struct {
	ID                int64     `json:"account_id"`
	CardNumber        string    `json:"card_number"`
	PINCode           string    `json:"-"`
	RemainingAttempts int       `json:"remaining_attempts"`
	LockState         LockState `json:"lock_state"`
	Balances          Balances  `json:"balances"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LedgerStore is the durable record of accounts. ApplyDelta and Transfer are
// the only money-mutating primitives; both validate and write as one
// indivisible unit so two concurrent withdrawals can never both observe
// sufficient funds when only one can succeed.
type LedgerStore interface {
	CreateAccount(account *Account) error
	FindByCard(cardNumber string) (*Account, error)
	// FindByCardForUpdate takes a row lock; only meaningful inside
	// WithTransaction.
	FindByCardForUpdate(cardNumber string) (*Account, error)
	GetAccount(id int64) (*Account, error)
	LoadBalances(id int64) (Balances, error)
	// ApplyDelta adds delta to the account's balance in the given currency
	// and returns the new balance. It rejects a delta that would drive the
	// balance negative and rejects when the currency slot is absent.
	ApplyDelta(id int64, currency Currency, delta decimal.Decimal) (decimal.Decimal, error)
	// Transfer debits src and credits dst as one durable unit.
	Transfer(srcID, dstID int64, currency Currency, amount decimal.Decimal) error
	// SetLockState writes the retry count and lock flag together.
	SetLockState(id int64, attempts int, state LockState) error
	WithTransaction(fn func(LedgerStore) error) error
}

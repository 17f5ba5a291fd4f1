// Package ledgertest provides an in-memory LedgerStore for exercising the
// guard and the transaction processors without a database. It honors the
// same contract as the Postgres store: conditional atomic deltas, atomic
// two-sided transfers, and rollback of a failed transaction closure.
package ledgertest

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"atm-ledger/internal/domain"
	"atm-ledger/internal/errors"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*domain.Account
}

var (
	_ domain.LedgerStore = (*Store)(nil)
	_ domain.LedgerStore = (*txView)(nil)
)

func New() *Store {
	return &Store{
		accounts: map[int64]*domain.Account{},
	}
}

// Seed inserts an account directly, bypassing validation, and returns its
// assigned id.
func (s *Store) Seed(cardNumber, pin string, balances domain.Balances) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	account := &domain.Account{
		ID:                s.nextID,
		CardNumber:        cardNumber,
		PINCode:           pin,
		RemainingAttempts: domain.MaxPINAttempts,
		LockState:         domain.Open,
		Balances:          cloneBalances(balances),
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	s.accounts[account.ID] = account
	return account.ID
}

func (s *Store) CreateAccount(account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccount(account)
}

func (s *Store) FindByCard(cardNumber string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByCard(cardNumber)
}

func (s *Store) FindByCardForUpdate(cardNumber string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByCard(cardNumber)
}

func (s *Store) GetAccount(id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAccount(id)
}

func (s *Store) LoadBalances(id int64) (domain.Balances, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return cloneBalances(account.Balances), nil
}

func (s *Store) ApplyDelta(id int64, currency domain.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyDelta(id, currency, delta)
}

func (s *Store) Transfer(srcID, dstID int64, currency domain.Currency, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if _, err := s.applyDelta(srcID, currency, amount.Neg()); err != nil {
		s.accounts = snapshot
		return err
	}
	if _, err := s.applyDelta(dstID, currency, amount); err != nil {
		s.accounts = snapshot
		return err
	}
	return nil
}

func (s *Store) SetLockState(id int64, attempts int, state domain.LockState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLockState(id, attempts, state)
}

// WithTransaction runs fn against an unsynchronized view under the store
// lock, restoring the pre-transaction state when fn fails.
func (s *Store) WithTransaction(fn func(domain.LedgerStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(&txView{store: s}); err != nil {
		s.accounts = snapshot
		return err
	}
	return nil
}

func (s *Store) createAccount(account *domain.Account) error {
	for _, existing := range s.accounts {
		if existing.CardNumber == account.CardNumber {
			return errors.ErrDuplicateCard
		}
	}
	s.nextID++
	account.ID = s.nextID
	account.RemainingAttempts = domain.MaxPINAttempts
	account.LockState = domain.Open
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt

	stored := *account
	stored.Balances = cloneBalances(account.Balances)
	s.accounts[account.ID] = &stored
	return nil
}

func (s *Store) findByCard(cardNumber string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.CardNumber == cardNumber {
			return cloneAccount(account), nil
		}
	}
	return nil, errors.ErrAccountNotFound
}

func (s *Store) getAccount(id int64) (*domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *Store) applyDelta(id int64, currency domain.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	account, ok := s.accounts[id]
	if !ok {
		return decimal.Zero, errors.ErrAccountNotFound
	}
	balance, open := account.Balances[currency]
	if !open {
		return decimal.Zero, errors.ErrCurrencyNotOpen
	}
	newBalance := balance.Add(delta).Round(4)
	if newBalance.IsNegative() {
		return decimal.Zero, errors.NewAppError(errors.InsufficientFunds, "insufficient funds").
			WithMeta("max_available", balance.String())
	}
	account.Balances[currency] = newBalance
	account.UpdatedAt = time.Now()
	return newBalance, nil
}

func (s *Store) setLockState(id int64, attempts int, state domain.LockState) error {
	account, ok := s.accounts[id]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.RemainingAttempts = attempts
	account.LockState = state
	account.UpdatedAt = time.Now()
	return nil
}

func (s *Store) snapshot() map[int64]*domain.Account {
	out := make(map[int64]*domain.Account, len(s.accounts))
	for id, account := range s.accounts {
		out[id] = cloneAccount(account)
	}
	return out
}

// txView exposes the store's unsynchronized operations to a transaction
// closure that already holds the lock.
type txView struct {
	store *Store
}

func (v *txView) CreateAccount(account *domain.Account) error {
	return v.store.createAccount(account)
}

func (v *txView) FindByCard(cardNumber string) (*domain.Account, error) {
	return v.store.findByCard(cardNumber)
}

func (v *txView) FindByCardForUpdate(cardNumber string) (*domain.Account, error) {
	return v.store.findByCard(cardNumber)
}

func (v *txView) GetAccount(id int64) (*domain.Account, error) {
	return v.store.getAccount(id)
}

func (v *txView) LoadBalances(id int64) (domain.Balances, error) {
	account, err := v.store.getAccount(id)
	if err != nil {
		return nil, err
	}
	return account.Balances, nil
}

func (v *txView) ApplyDelta(id int64, currency domain.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	return v.store.applyDelta(id, currency, delta)
}

func (v *txView) Transfer(srcID, dstID int64, currency domain.Currency, amount decimal.Decimal) error {
	if _, err := v.store.applyDelta(srcID, currency, amount.Neg()); err != nil {
		return err
	}
	_, err := v.store.applyDelta(dstID, currency, amount)
	return err
}

func (v *txView) SetLockState(id int64, attempts int, state domain.LockState) error {
	return v.store.setLockState(id, attempts, state)
}

func (v *txView) WithTransaction(fn func(domain.LedgerStore) error) error {
	return errors.ErrCannotBeginTransaction
}

func cloneAccount(account *domain.Account) *domain.Account {
	out := *account
	out.Balances = cloneBalances(account.Balances)
	return &out
}

func cloneBalances(balances domain.Balances) domain.Balances {
	out := make(domain.Balances, len(balances))
	for currency, amount := range balances {
		out[currency] = amount
	}
	return out
}

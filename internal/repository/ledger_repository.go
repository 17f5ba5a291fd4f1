package repository

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"atm-ledger/internal/domain"
	"atm-ledger/internal/errors"
)

// balanceColumns maps the closed currency set to its schema column. Column
// names are taken from this table only, never from caller input.
var balanceColumns = map[domain.Currency]string{
	domain.RUB: "balance_rub",
	domain.USD: "balance_usd",
	domain.EUR: "balance_eur",
}

type ledgerRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

// NewLedger creates the Postgres-backed LedgerStore.
func NewLedger(db SQLExecutor, logger *slog.Logger) domain.LedgerStore {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ledgerRepository) CreateAccount(account *domain.Account) error {
	query := `
		INSERT INTO accounts
		(card_number, pin_code, remaining_attempts, lock_state, balance_rub, balance_usd, balance_eur, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		account.CardNumber,
		account.PINCode,
		domain.MaxPINAttempts,
		domain.Open,
		balanceArg(account.Balances, domain.RUB),
		balanceArg(account.Balances, domain.USD),
		balanceArg(account.Balances, domain.EUR),
		now,
		now,
	).Scan(&account.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Duplicate card number on account creation", "card_number", account.CardNumber)
				return errors.ErrDuplicateCard
			}
		}
		r.logger.Error("Failed to create account", "card_number", account.CardNumber, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	account.RemainingAttempts = domain.MaxPINAttempts
	account.LockState = domain.Open
	account.CreatedAt = now
	account.UpdatedAt = now
	r.logger.Info("Account created", "account_id", account.ID, "card_number", account.CardNumber)
	return nil
}

// balanceArg renders an optional currency slot for insertion: NULL when the
// slot is absent, otherwise the amount rounded to four fractional digits.
func balanceArg(balances domain.Balances, c domain.Currency) interface{} {
	amount, ok := balances[c]
	if !ok {
		return nil
	}
	return amount.Round(4).String()
}

const accountColumns = `
	id, card_number, pin_code, remaining_attempts, lock_state,
	balance_rub, balance_usd, balance_eur, created_at, updated_at
`

func (r *ledgerRepository) FindByCard(cardNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE card_number = $1`
	return r.scanAccount(query, cardNumber)
}

func (r *ledgerRepository) FindByCardForUpdate(cardNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE card_number = $1 FOR UPDATE`
	return r.scanAccount(query, cardNumber)
}

func (r *ledgerRepository) GetAccount(id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(query, id)
}

func (r *ledgerRepository) scanAccount(query string, arg interface{}) (*domain.Account, error) {
	var (
		account       domain.Account
		rub, usd, eur sql.NullString
	)

	err := r.db.QueryRow(query, arg).Scan(
		&account.ID,
		&account.CardNumber,
		&account.PINCode,
		&account.RemainingAttempts,
		&account.LockState,
		&rub,
		&usd,
		&eur,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to load account", "arg", arg, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to load account").WithDetails(err.Error())
	}

	balances, err := parseBalances(rub, usd, eur)
	if err != nil {
		r.logger.Error("Failed to parse balances", "account_id", account.ID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balances").WithDetails(err.Error())
	}
	account.Balances = balances

	return &account, nil
}

func parseBalances(rub, usd, eur sql.NullString) (domain.Balances, error) {
	balances := domain.Balances{}
	for c, raw := range map[domain.Currency]sql.NullString{
		domain.RUB: rub,
		domain.USD: usd,
		domain.EUR: eur,
	} {
		if !raw.Valid {
			continue
		}
		amount, err := decimal.NewFromString(raw.String)
		if err != nil {
			return nil, err
		}
		balances[c] = amount
	}
	return balances, nil
}

func (r *ledgerRepository) LoadBalances(id int64) (domain.Balances, error) {
	account, err := r.GetAccount(id)
	if err != nil {
		return nil, err
	}
	return account.Balances, nil
}

// ApplyDelta validates and writes in a single conditional UPDATE, so the
// balance check and its mutation cannot be separated by a concurrent writer.
func (r *ledgerRepository) ApplyDelta(id int64, currency domain.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	col, ok := balanceColumns[currency]
	if !ok {
		return decimal.Zero, errors.NewAppErrorf(errors.InvalidInput, "unsupported currency %s", currency)
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = ROUND(%[1]s + $1, 4), updated_at = $2
		WHERE id = $3 AND %[1]s IS NOT NULL AND %[1]s + $1 >= 0
		RETURNING %[1]s
	`, col)

	var newBalanceStr string
	err := r.db.QueryRow(query, delta.String(), time.Now(), id).Scan(&newBalanceStr)
	if err == sql.ErrNoRows {
		return decimal.Zero, r.classifyDeltaRejection(id, currency)
	}
	if err != nil {
		r.logger.Error("Failed to apply balance delta",
			"account_id", id, "currency", currency, "delta", delta, "error", err)
		return decimal.Zero, errors.NewAppError(errors.InternalError, "failed to apply balance delta").WithDetails(err.Error())
	}

	newBalance, err := decimal.NewFromString(newBalanceStr)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	r.logger.Info("Balance delta applied",
		"account_id", id, "currency", currency, "delta", delta, "new_balance", newBalance)
	return newBalance, nil
}

// classifyDeltaRejection distinguishes why the conditional UPDATE matched no
// row: missing account, closed currency slot, or insufficient funds.
func (r *ledgerRepository) classifyDeltaRejection(id int64, currency domain.Currency) error {
	account, err := r.GetAccount(id)
	if err != nil {
		return err
	}
	balance, open := account.Balances[currency]
	if !open {
		return errors.ErrCurrencyNotOpen
	}
	return errors.NewAppError(errors.InsufficientFunds, "insufficient funds").
		WithMeta("max_available", balance.String())
}

// Transfer debits the source and credits the destination inside one database
// transaction; either both legs commit or neither does.
func (r *ledgerRepository) Transfer(srcID, dstID int64, currency domain.Currency, amount decimal.Decimal) error {
	return r.WithTransaction(func(tx domain.LedgerStore) error {
		if _, err := tx.ApplyDelta(srcID, currency, amount.Neg()); err != nil {
			return err
		}
		if _, err := tx.ApplyDelta(dstID, currency, amount); err != nil {
			return err
		}
		return nil
	})
}

func (r *ledgerRepository) SetLockState(id int64, attempts int, state domain.LockState) error {
	query := `
		UPDATE accounts
		SET remaining_attempts = $1, lock_state = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(query, attempts, state, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to set lock state", "account_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to set lock state").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}

	r.logger.Info("Lock state updated", "account_id", id, "remaining_attempts", attempts, "lock_state", state)
	return nil
}

// WithTransaction runs fn against a transaction-bound ledger. Only the
// top-level *sql.DB executor can begin one; the error from fn rolls
// everything back.
func (r *ledgerRepository) WithTransaction(fn func(domain.LedgerStore) error) error {
	db, ok := r.db.(DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	txLedger := &ledgerRepository{
		db:     &TxWrapper{Tx: tx},
		logger: r.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txLedger); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

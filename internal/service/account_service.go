package service

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"atm-ledger/internal/domain"
	"atm-ledger/internal/errors"
)

// maxStoredBalance caps any single currency slot at provisioning time.
var maxStoredBalance = decimal.NewFromInt(1_000_000_000_000) // 1e12

type AccountService struct {
	ledger domain.LedgerStore
	logger *slog.Logger
}

func NewAccountService(ledger domain.LedgerStore, logger *slog.Logger) *AccountService {
	return &AccountService{
		ledger: ledger,
		logger: logger,
	}
}

// CreateAccount provisions a new account. Card number and PIN must be
// exactly four decimal digits; each balance is either absent or within
// [0, 1e12] and is rounded to four fractional digits at write time.
func (s *AccountService) CreateAccount(cardNumber, pinCode string, balances domain.Balances) (*domain.Account, error) {
	s.logger.Info("Creating account", "card_number", cardNumber)

	if !isFourDigits(cardNumber) {
		return nil, errors.NewAppError(errors.InvalidInput, "card number must be exactly 4 digits")
	}
	if !isFourDigits(pinCode) {
		return nil, errors.NewAppError(errors.InvalidInput, "pin code must be exactly 4 digits")
	}

	rounded := domain.Balances{}
	for currency, amount := range balances {
		if amount.IsNegative() || amount.GreaterThan(maxStoredBalance) {
			return nil, errors.NewAppErrorf(errors.InvalidAmount,
				"%s balance must be within [0, 1e12]", currency)
		}
		rounded[currency] = amount.Round(4)
	}

	account := &domain.Account{
		CardNumber: cardNumber,
		PINCode:    pinCode,
		Balances:   rounded,
	}

	if err := s.ledger.CreateAccount(account); err != nil {
		return nil, err
	}

	s.logger.Info("Account created", "account_id", account.ID, "card_number", cardNumber)
	return account, nil
}

// GetBalances returns the open currency slots for an account. Currencies
// the account never opened are not in the result.
func (s *AccountService) GetBalances(accountID int64) (domain.Balances, error) {
	return s.ledger.LoadBalances(accountID)
}

// Unlock is the administrative path that clears a lockout, restoring the
// full retry budget. The terminal itself never calls this.
func (s *AccountService) Unlock(cardNumber string) (*domain.Account, error) {
	account, err := s.ledger.FindByCard(cardNumber)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.SetLockState(account.ID, domain.MaxPINAttempts, domain.Open); err != nil {
		return nil, err
	}

	account.RemainingAttempts = domain.MaxPINAttempts
	account.LockState = domain.Open
	s.logger.Info("Card unlocked", "account_id", account.ID, "card_number", cardNumber)
	return account, nil
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

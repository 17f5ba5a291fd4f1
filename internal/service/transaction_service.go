package service

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"atm-ledger/internal/domain"
	"atm-ledger/internal/errors"
	"atm-ledger/internal/policy"
)

// Operation result states reported to the terminal layer.
const (
	StatusCompleted            = "completed"
	StatusConfirmationRequired = "confirmation_required"
)

// TransactionService validates and applies withdrawals, deposits and
// transfers. One code path serves every currency; all per-currency
// differences live in the policy tables.
type TransactionService struct {
	ledger domain.LedgerStore
	logger *slog.Logger
}

func NewTransactionService(ledger domain.LedgerStore, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		ledger: ledger,
		logger: logger,
	}
}

type WithdrawRequest struct {
	AccountID int64
	Currency  domain.Currency
	Amount    int64
	// AcceptRounded confirms a previously offered rounded amount. Nothing
	// is written for a rounding-required request until the caller resubmits
	// with this set.
	AcceptRounded bool
}

type WithdrawResult struct {
	Status          string          `json:"status"`
	Currency        domain.Currency `json:"currency"`
	RequestedAmount int64           `json:"requested_amount"`
	RoundedAmount   int64           `json:"rounded_amount,omitempty"`
	DispensedAmount int64           `json:"dispensed_amount,omitempty"`
	NewBalance      decimal.Decimal `json:"new_balance,omitempty"`
}

// Withdraw dispenses cash. The requested amount is floored to the currency's
// note denomination; a rounded-down offer must be explicitly confirmed
// before any mutation, and declining leaves the balance untouched.
func (s *TransactionService) Withdraw(req *WithdrawRequest) (*WithdrawResult, error) {
	s.logger.Info("Processing withdrawal",
		"account_id", req.AccountID, "currency", req.Currency, "amount", req.Amount)

	limits := policy.Withdraw(req.Currency)

	balances, err := s.ledger.LoadBalances(req.AccountID)
	if err != nil {
		return nil, err
	}
	balance, open := balances[req.Currency]
	if !open {
		return nil, errors.ErrCurrencyNotOpen
	}

	capacity := policy.DispensableCapacity(balance, limits.Denomination)

	// Balance below the currency minimum means withdrawals in it are not
	// offered at all, as opposed to being insufficient for this amount.
	if balance.LessThan(decimal.NewFromInt(limits.Min)) {
		return nil, errors.NewAppErrorf(errors.InsufficientFunds,
			"withdrawals below %d %s are not dispensable", limits.Min, req.Currency).
			WithMeta("max_available", "0")
	}

	if req.Amount < limits.Min || req.Amount > limits.Max {
		return nil, errors.NewAppErrorf(errors.InvalidAmount,
			"amount must be between %d and %d %s", limits.Min, limits.Max, req.Currency).
			WithMeta("min", limits.Min).
			WithMeta("max", limits.Max)
	}

	if decimal.NewFromInt(req.Amount).GreaterThan(capacity) {
		return nil, errors.NewAppError(errors.InsufficientFunds, "insufficient funds for this withdrawal").
			WithMeta("max_available", capacity.String())
	}

	rounded := policy.RoundToDenomination(req.Amount, limits.Denomination)
	if rounded != req.Amount && !req.AcceptRounded {
		return &WithdrawResult{
			Status:          StatusConfirmationRequired,
			Currency:        req.Currency,
			RequestedAmount: req.Amount,
			RoundedAmount:   rounded,
		}, nil
	}

	newBalance, err := s.ledger.ApplyDelta(req.AccountID, req.Currency, decimal.NewFromInt(rounded).Neg())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal completed",
		"account_id", req.AccountID, "currency", req.Currency, "dispensed", rounded, "new_balance", newBalance)
	return &WithdrawResult{
		Status:          StatusCompleted,
		Currency:        req.Currency,
		RequestedAmount: req.Amount,
		RoundedAmount:   rounded,
		DispensedAmount: rounded,
		NewBalance:      newBalance,
	}, nil
}

type DepositRequest struct {
	AccountID int64
	Currency  domain.Currency
	Amount    int64
}

type DepositResult struct {
	Status     string          `json:"status"`
	Currency   domain.Currency `json:"currency"`
	Amount     int64           `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// Deposit accepts cash. Unlike withdrawals there is no rounding offer: an
// amount that is not an exact multiple of the deposit denomination is
// rejected with a suggested valid amount and the caller must resubmit.
func (s *TransactionService) Deposit(req *DepositRequest) (*DepositResult, error) {
	s.logger.Info("Processing deposit",
		"account_id", req.AccountID, "currency", req.Currency, "amount", req.Amount)

	limits := policy.Deposit(req.Currency)

	balances, err := s.ledger.LoadBalances(req.AccountID)
	if err != nil {
		return nil, err
	}
	if _, open := balances[req.Currency]; !open {
		return nil, errors.ErrCurrencyNotOpen
	}

	if req.Amount < limits.Min || req.Amount > limits.Max {
		return nil, errors.NewAppErrorf(errors.InvalidAmount,
			"amount must be between %d and %d %s", limits.Min, limits.Max, req.Currency).
			WithMeta("min", limits.Min).
			WithMeta("max", limits.Max)
	}

	if suggested := policy.RoundToDenomination(req.Amount, limits.Denomination); suggested != req.Amount {
		return nil, errors.NewAppErrorf(errors.InvalidAmount,
			"the machine only accepts %s notes of %d and above", req.Currency, limits.Denomination).
			WithMeta("suggested_amount", suggested)
	}

	newBalance, err := s.ledger.ApplyDelta(req.AccountID, req.Currency, decimal.NewFromInt(req.Amount))
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deposit completed",
		"account_id", req.AccountID, "currency", req.Currency, "amount", req.Amount, "new_balance", newBalance)
	return &DepositResult{
		Status:     StatusCompleted,
		Currency:   req.Currency,
		Amount:     req.Amount,
		NewBalance: newBalance,
	}, nil
}

type TransferRequest struct {
	AccountID       int64
	DestinationCard string
	Currency        domain.Currency
	Amount          decimal.Decimal
}

type TransferResult struct {
	Status          string          `json:"status"`
	Currency        domain.Currency `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	DestinationCard string          `json:"destination_card"`
	NewBalance      decimal.Decimal `json:"new_balance"`
}

// Transfer moves funds to another card. Transfers are not cash constrained:
// any positive amount with at most four fractional digits is accepted, up to
// the source balance. Both legs apply atomically or not at all.
func (s *TransactionService) Transfer(req *TransferRequest) (*TransferResult, error) {
	s.logger.Info("Processing transfer",
		"account_id", req.AccountID, "destination_card", req.DestinationCard,
		"currency", req.Currency, "amount", req.Amount)

	destination, err := s.ledger.FindByCard(req.DestinationCard)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.AccountNotFound {
			return nil, errors.ErrDestinationNotFound
		}
		return nil, err
	}
	if destination.ID == req.AccountID {
		return nil, errors.ErrSelfTransfer
	}

	balances, err := s.ledger.LoadBalances(req.AccountID)
	if err != nil {
		return nil, err
	}
	balance, open := balances[req.Currency]
	if !open || !balance.IsPositive() {
		if !open {
			return nil, errors.ErrCurrencyNotOpen
		}
		return nil, errors.NewAppError(errors.InsufficientFunds, "no funds available to transfer").
			WithMeta("max_available", balance.String())
	}
	if _, destOpen := destination.Balances[req.Currency]; !destOpen {
		return nil, errors.NewAppErrorf(errors.CurrencyNotOpen,
			"destination has no %s account", req.Currency).
			WithMeta("side", "destination")
	}

	if !policy.ValidTransferPrecision(req.Amount) {
		return nil, errors.NewAppError(errors.InvalidAmount,
			"amount may carry at most 4 fractional digits")
	}
	if req.Amount.LessThan(policy.TransferMinimum) {
		return nil, errors.NewAppErrorf(errors.InvalidAmount,
			"amount may not be below %s", policy.TransferMinimum)
	}
	if req.Amount.GreaterThan(balance) {
		return nil, errors.NewAppError(errors.InsufficientFunds, "insufficient funds for this transfer").
			WithMeta("max_available", balance.String())
	}

	if err := s.ledger.Transfer(req.AccountID, destination.ID, req.Currency, req.Amount); err != nil {
		return nil, err
	}

	newBalances, err := s.ledger.LoadBalances(req.AccountID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transfer completed",
		"account_id", req.AccountID, "destination_id", destination.ID,
		"currency", req.Currency, "amount", req.Amount)
	return &TransferResult{
		Status:          StatusCompleted,
		Currency:        req.Currency,
		Amount:          req.Amount,
		DestinationCard: req.DestinationCard,
		NewBalance:      newBalances[req.Currency],
	}, nil
}

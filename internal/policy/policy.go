// Package policy holds the per-currency cash handling rules: how much a
// single operation may move, and the smallest note the machine dispenses or
// accepts. The rules are domain constants with no error path.
package policy

import (
	"github.com/shopspring/decimal"

	"atm-ledger/internal/domain"
)

// Limits bounds one operation kind for one currency. Min and Max are
// inclusive; violating either is a validation failure, never a clamp.
type Limits struct {
	Min          int64
	Max          int64
	Denomination int64
}

var withdrawLimits = map[domain.Currency]Limits{
	domain.RUB: {Min: 50, Max: 1_000_000, Denomination: 50},
	domain.USD: {Min: 5, Max: 100_000, Denomination: 5},
	domain.EUR: {Min: 5, Max: 100_000, Denomination: 5},
}

// Deposits take smaller notes than withdrawals for RUB, so the two tables
// are configured independently.
var depositLimits = map[domain.Currency]Limits{
	domain.RUB: {Min: 10, Max: 1_000_000, Denomination: 10},
	domain.USD: {Min: 5, Max: 100_000, Denomination: 5},
	domain.EUR: {Min: 5, Max: 100_000, Denomination: 5},
}

// Withdraw returns the withdrawal limits for a currency.
func Withdraw(c domain.Currency) Limits {
	return withdrawLimits[c]
}

// Deposit returns the deposit limits for a currency.
func Deposit(c domain.Currency) Limits {
	return depositLimits[c]
}

// RoundToDenomination floors amount to a multiple of denom. Withdrawals
// only; deposits and transfers are never rounded.
func RoundToDenomination(amount, denom int64) int64 {
	return amount / denom * denom
}

// DispensableCapacity floors a balance to a multiple of the withdrawal
// denomination, which is the most that can physically leave the machine.
func DispensableCapacity(balance decimal.Decimal, denom int64) decimal.Decimal {
	d := decimal.NewFromInt(denom)
	return balance.Sub(balance.Mod(d))
}

// TransferMinimum is the smallest transferable amount. Transfers are not
// cash constrained, so there is no denomination, only a precision floor.
var TransferMinimum = decimal.New(1, -4)

// ValidTransferPrecision reports whether amount carries at most four
// fractional digits.
func ValidTransferPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(4))
}

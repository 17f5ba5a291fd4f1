package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"atm-ledger/internal/domain"
)

func TestWithdrawLimits(t *testing.T) {
	tests := []struct {
		currency domain.Currency
		want     Limits
	}{
		{domain.RUB, Limits{Min: 50, Max: 1_000_000, Denomination: 50}},
		{domain.USD, Limits{Min: 5, Max: 100_000, Denomination: 5}},
		{domain.EUR, Limits{Min: 5, Max: 100_000, Denomination: 5}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Withdraw(tt.currency), "withdraw limits for %s", tt.currency)
	}
}

func TestDepositLimits(t *testing.T) {
	// RUB deposits take smaller notes than RUB withdrawals.
	assert.Equal(t, Limits{Min: 10, Max: 1_000_000, Denomination: 10}, Deposit(domain.RUB))
	assert.Equal(t, Limits{Min: 5, Max: 100_000, Denomination: 5}, Deposit(domain.USD))
	assert.Equal(t, Limits{Min: 5, Max: 100_000, Denomination: 5}, Deposit(domain.EUR))
}

func TestRoundToDenomination(t *testing.T) {
	tests := []struct {
		amount, denom, want int64
	}{
		{237, 50, 200},
		{250, 50, 250},
		{49, 50, 0},
		{7, 5, 5},
		{10, 5, 10},
		{999_999, 50, 999_950},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundToDenomination(tt.amount, tt.denom),
			"%d floored to %d", tt.amount, tt.denom)
	}
}

func TestDispensableCapacity(t *testing.T) {
	tests := []struct {
		balance string
		denom   int64
		want    string
	}{
		{"1000", 50, "1000"},
		{"1037.25", 50, "1000"},
		{"49.9999", 50, "0"},
		{"5", 5, "5"},
	}
	for _, tt := range tests {
		balance := decimal.RequireFromString(tt.balance)
		got := DispensableCapacity(balance, tt.denom)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"capacity of %s at denom %d: got %s", tt.balance, tt.denom, got)
	}
}

func TestValidTransferPrecision(t *testing.T) {
	valid := []string{"10.5", "0.0001", "10", "99.9999", "10.50000"}
	for _, s := range valid {
		assert.True(t, ValidTransferPrecision(decimal.RequireFromString(s)), "%s should be valid", s)
	}

	invalid := []string{"10.00005", "0.00001", "1.123456"}
	for _, s := range invalid {
		assert.False(t, ValidTransferPrecision(decimal.RequireFromString(s)), "%s should be invalid", s)
	}
}

package domain

import (
	"fmt"
	"strings"
)

// Currency is a closed set of currencies the terminal serves.
type Currency string

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// Currencies returns every supported currency in display order.
func Currencies() []Currency {
	return []Currency{RUB, USD, EUR}
}

// ParseCurrency normalizes free-form terminal input ("1", "RUB", "rub")
// into a Currency. This is the only place loose input is interpreted;
// everything past the boundary works with the typed value.
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "RUB":
		return RUB, nil
	case "2", "USD":
		return USD, nil
	case "3", "EUR":
		return EUR, nil
	}
	return "", fmt.Errorf("unknown currency %q", s)
}

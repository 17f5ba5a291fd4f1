package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want Currency
	}{
		{"RUB", RUB},
		{"rub", RUB},
		{"1", RUB},
		{"USD", USD},
		{"usd", USD},
		{"2", USD},
		{"EUR", EUR},
		{" eur ", EUR},
		{"3", EUR},
	}
	for _, tt := range tests {
		got, err := ParseCurrency(tt.in)
		assert.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	for _, bad := range []string{"", "GBP", "4", "00", "rubles"} {
		_, err := ParseCurrency(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

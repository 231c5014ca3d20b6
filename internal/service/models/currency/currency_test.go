package currency

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	if c, err := ParseCurrency("INR"); err != nil || c != CurrencyINR {
		t.Errorf("ParseCurrency(INR) = (%s, %v)", c, err)
	}
	if _, err := ParseCurrency("USD"); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("ParseCurrency(USD) error = %v, want ErrInvalidCurrency", err)
	}
}

func TestFormat(t *testing.T) {
	if got := CurrencyINR.Format(decimal.RequireFromString("70.75")); got != "70.75 INR" {
		t.Errorf("Format = %q", got)
	}
	if got := CurrencyINR.Format(decimal.NewFromInt(40)); got != "40.00 INR" {
		t.Errorf("Format = %q", got)
	}
}

package currency

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. Orders are priced in rupees only.
type Currency string

const CurrencyINR Currency = "INR"

var ErrInvalidCurrency = errors.New("invalid currency")

func (c Currency) String() string {
	return string(c)
}

// Format renders amount with two decimals followed by the code, e.g. "70.75 INR".
func (c Currency) Format(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " " + string(c)
}

// ParseCurrency accepts the codes orders can be stored with.
func ParseCurrency(s string) (Currency, error) {
	if Currency(s) != CurrencyINR {
		return "", ErrInvalidCurrency
	}

	return CurrencyINR, nil
}

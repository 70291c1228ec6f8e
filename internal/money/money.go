package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a caller does not name one.
const DefaultCurrency = "USD"

// Scale is the number of fraction digits a Money amount may carry.
const Scale = 2

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Money is a decimal amount tagged with its currency code.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: normalizeCurrency(currency)}
}

func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: normalizeCurrency(currency)}
}

// Parse reads a signed decimal with at most two fraction digits.
// Exponent notation is rejected.
func Parse(text, currency string) (Money, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.ContainsAny(s, "eE") {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if d.Exponent() < -Scale {
		return Money{}, fmt.Errorf("%w: %q has more than %d fraction digits", ErrInvalidAmount, text, Scale)
	}

	return New(d, currency), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(text, currency string) Money {
	m, err := Parse(text, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Cmp(other Money) (int, error) {
	if m.Currency != other.Currency {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return m.Amount.Cmp(other.Amount), nil
}

// GreaterThan reports whether m is strictly greater than other.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) String() string {
	return m.Currency + " " + m.Amount.StringFixed(Scale)
}

func normalizeCurrency(currency string) string {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

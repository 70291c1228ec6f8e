package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"card_fraud_detector/internal/diag"
	"card_fraud_detector/internal/money"
)

// TimestampLayout is the only accepted timestamp shape once the date/time
// separator has been normalized to a single space.
const TimestampLayout = "2006-01-02 15:04:05"

const DayLayout = "2006-01-02"

const fieldCount = 3

var (
	ErrMalformedRecord    = errors.New("malformed record")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrMalformedAmount    = errors.New("malformed amount")
)

// Transaction holds the three fields of one record exactly as they were read.
// Contents are validated only when the transaction is parsed.
type Transaction struct {
	CardHash  string
	Timestamp string
	Amount    string
}

func (t Transaction) String() string {
	return strings.Join([]string{t.CardHash, t.Timestamp, t.Amount}, ", ")
}

// Parse returns the typed timestamp and amount of t.
func (t Transaction) Parse(currency string) (time.Time, money.Money, error) {
	ts, err := ParseTimestamp(t.Timestamp)
	if err != nil {
		return time.Time{}, money.Money{}, err
	}

	amount, err := ParseMoney(t.Amount, currency)
	if err != nil {
		return time.Time{}, money.Money{}, err
	}

	return ts, amount, nil
}

// ParseTransactions splits each line on commas into card hash, timestamp and
// amount. Lines that do not yield exactly three fields are reported to sink and
// left out.
func ParseTransactions(lines []string, sink diag.Sink) []Transaction {
	sink = diag.OrDiscard(sink)
	transactions := make([]Transaction, 0, len(lines))

	for _, line := range lines {
		fields := strings.Split(line, ",")
		if len(fields) != fieldCount {
			sink.Skipped(fmt.Errorf("%w: want %d fields, got %d", ErrMalformedRecord, fieldCount, len(fields)), line)
			continue
		}

		transactions = append(transactions, Transaction{
			CardHash:  strings.TrimSpace(fields[0]),
			Timestamp: strings.TrimSpace(fields[1]),
			Amount:    strings.TrimSpace(fields[2]),
		})
	}

	return transactions
}

// ParseTimestamp accepts "YYYY-MM-DD HH:MM:SS" where the date and time may also
// be joined by a 'T' or by any run of whitespace. Every field must be two digits
// (four for the year) and nothing may follow the seconds.
func ParseTimestamp(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrMalformedTimestamp)
	}

	s = strings.Replace(s, "T", " ", 1)
	if fields := strings.Fields(s); len(fields) == 2 {
		s = fields[0] + " " + fields[1]
	}

	// time.Parse accepts fractional seconds and single digit hours
	if len(s) != len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
	}

	ts, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
	}
	return ts, nil
}

// ParseDay accepts a full timestamp or a bare YYYY-MM-DD date.
func ParseDay(text string) (time.Time, error) {
	if ts, err := ParseTimestamp(text); err == nil {
		return ts, nil
	}

	day, err := time.Parse(DayLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
	}
	return day, nil
}

// ParseMoney reads text as an amount in currency. Empty text is malformed, the
// same as an empty timestamp.
func ParseMoney(text, currency string) (money.Money, error) {
	m, err := money.Parse(text, currency)
	if err != nil {
		return money.Money{}, fmt.Errorf("%w: %w", ErrMalformedAmount, err)
	}
	return m, nil
}

// SameDay compares year, month and day only. A zero time counts as absent: two
// absent values are the same day, one absent value never is. Note that
// "0001-01-01 00:00:00" parses to the zero time and so reads as absent.
func SameDay(a, b time.Time) bool {
	if a.IsZero() && b.IsZero() {
		return true
	}
	if a.IsZero() || b.IsZero() {
		return false
	}

	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

package detector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"card_fraud_detector/internal/diag"
	"card_fraud_detector/internal/logger"
	"card_fraud_detector/internal/money"
	"card_fraud_detector/internal/transaction"
)

var ErrMissingInput = errors.New("missing input")

// DailyTotalProcessor flags cards whose summed amount on Day is strictly greater
// than Threshold. Cards are returned in the order they were first seen on Day.
type DailyTotalProcessor struct {
	Day       time.Time
	Threshold *money.Money
	// Sink receives skip notices. When nil, the logger carried by the context is used.
	Sink diag.Sink
}

func NewDailyTotalProcessor(day time.Time, threshold money.Money, sink diag.Sink) DailyTotalProcessor {
	return DailyTotalProcessor{
		Day:       day,
		Threshold: &threshold,
		Sink:      sink,
	}
}

// cardTotals is one day's running sum per card, with first-seen order.
type cardTotals struct {
	order  []string
	totals map[string]money.Money
}

// Process never returns nil. A nil transaction slice, a zero Day or a nil
// Threshold yields an empty result. The zero Day is also what
// "0001-01-01 00:00:00" parses to, so that date is treated as missing.
func (p DailyTotalProcessor) Process(ctx context.Context, transactions []transaction.Transaction) []string {
	sink := p.sink(ctx)

	switch {
	case transactions == nil:
		sink.Skipped(fmt.Errorf("%w: transactions", ErrMissingInput), "")
		return []string{}
	case p.Day.IsZero():
		sink.Skipped(fmt.Errorf("%w: day", ErrMissingInput), "")
		return []string{}
	case p.Threshold == nil:
		sink.Skipped(fmt.Errorf("%w: threshold", ErrMissingInput), "")
		return []string{}
	}

	totals := p.sumDay(transactions, sink)

	return p.overThreshold(totals, sink)
}

// sumDay adds up the amounts of every well-formed transaction on p.Day.
func (p DailyTotalProcessor) sumDay(transactions []transaction.Transaction, sink diag.Sink) cardTotals {
	currency := p.Threshold.Currency
	totals := cardTotals{totals: make(map[string]money.Money)}

	for _, tx := range transactions {
		ts, amount, err := tx.Parse(currency)
		if err != nil {
			sink.Skipped(err, tx.String())
			continue
		}

		if !transaction.SameDay(ts, p.Day) {
			continue
		}

		current, seen := totals.totals[tx.CardHash]
		if !seen {
			current = money.Zero(currency)
		}

		// amounts share the threshold currency; this only guards Money built by hand
		sum, err := current.Add(amount)
		if err != nil {
			sink.Skipped(err, tx.String())
			continue
		}

		if !seen {
			totals.order = append(totals.order, tx.CardHash)
		}
		totals.totals[tx.CardHash] = sum
	}

	return totals
}

func (p DailyTotalProcessor) overThreshold(totals cardTotals, sink diag.Sink) []string {
	flaggedCards := make([]string, 0)

	for _, card := range totals.order {
		// sums carry the threshold currency; see sumDay
		exceeded, err := totals.totals[card].GreaterThan(*p.Threshold)
		if err != nil {
			sink.Skipped(err, card)
			continue
		}

		if exceeded {
			flaggedCards = append(flaggedCards, card)
		}
	}

	return flaggedCards
}

func (p DailyTotalProcessor) sink(ctx context.Context) diag.Sink {
	if p.Sink != nil {
		return p.Sink
	}
	return diag.NewLogSink(logger.FromContext(ctx))
}

// DetectFraudulentCards runs a DailyTotalProcessor over already split transactions.
func DetectFraudulentCards(ctx context.Context, transactions []transaction.Transaction, day time.Time, threshold *money.Money, sink diag.Sink) []string {
	processor := DailyTotalProcessor{Day: day, Threshold: threshold, Sink: sink}
	return processor.Process(ctx, transactions)
}

// DetectFromRecords parses raw "card, timestamp, amount" lines plus the date and
// threshold text, then detects as DetectFraudulentCards does. Empty or
// unparseable date and threshold text yield an empty result.
func DetectFromRecords(ctx context.Context, lines []string, date, threshold, currency string, sink diag.Sink) []string {
	if sink == nil {
		sink = diag.NewLogSink(logger.FromContext(ctx))
	}

	switch {
	case lines == nil:
		sink.Skipped(fmt.Errorf("%w: transactions", ErrMissingInput), "")
		return []string{}
	case date == "":
		sink.Skipped(fmt.Errorf("%w: date", ErrMissingInput), "")
		return []string{}
	case threshold == "":
		sink.Skipped(fmt.Errorf("%w: threshold", ErrMissingInput), "")
		return []string{}
	}

	day, err := transaction.ParseTimestamp(date)
	if err != nil {
		sink.Skipped(err, date)
		return []string{}
	}

	limit, err := transaction.ParseMoney(threshold, currency)
	if err != nil {
		sink.Skipped(err, threshold)
		return []string{}
	}

	transactions := transaction.ParseTransactions(lines, sink)

	return DetectFraudulentCards(ctx, transactions, day, &limit, sink)
}

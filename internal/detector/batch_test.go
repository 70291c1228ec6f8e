package detector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"card_fraud_detector/internal/diag"
	"card_fraud_detector/internal/money"
	"card_fraud_detector/internal/transaction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func benchRecord(card, n int) string {
	ts := time.Date(2014, time.April, 28, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Hour)
	return fmt.Sprintf("card-%04d, %s, %d.00", card, ts.Format("2006-01-02T15:04:05"), n)
}

func TestBatchProcessor_Process(t *testing.T) {
	records := []string{
		"e1, 2014-04-28T10:00:00, 30.00",
		"e2, 2014-04-29T10:00:00, 30.00",
		"e1, 2014-04-29T11:00:00, 5.00",
		"e3, 2014-04-30T10:00:00, 5.00",
		"e2, 2014-04-30T10:00:00, 25.00",
		"e1, bad, 25.00",
	}
	txs := transaction.ParseTransactions(records, nil)

	days := []time.Time{
		time.Date(2014, time.April, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2014, time.April, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2014, time.April, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2014, time.May, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name        string
		workerCount int
	}{
		{name: "single worker", workerCount: 1},
		{name: "more workers than days", workerCount: 8},
		{name: "default workers", workerCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &diag.Counter{}
			processor := NewBatchProcessor(money.MustParse("20", "USD"), tt.workerCount, counter)

			results := processor.Process(context.Background(), txs, days)

			require.Len(t, results, len(days))
			for i, result := range results {
				assert.Equal(t, days[i], result.Day)
			}
			assert.Equal(t, []string{"e2"}, results[0].Cards)
			assert.Equal(t, []string{"e1"}, results[1].Cards)
			assert.Equal(t, []string{"e2"}, results[2].Cards)
			assert.Equal(t, []string{}, results[3].Cards)

			// the bad timestamp is reported once per day
			assert.Equal(t, len(days), counter.Count(transaction.ErrMalformedTimestamp))
		})
	}
}

func TestBatchProcessor_MatchesSingleDay(t *testing.T) {
	records := make([]string, 0, 200)
	for card := 0; card < 20; card++ {
		for n := 0; n < 10; n++ {
			records = append(records, benchRecord(card, n*card))
		}
	}
	txs := transaction.ParseTransactions(records, nil)
	threshold := money.MustParse("15", "USD")

	var days []time.Time
	for d := 0; d < 10; d++ {
		days = append(days, time.Date(2014, time.April, 28+d, 0, 0, 0, 0, time.UTC))
	}

	results := NewBatchProcessor(threshold, 3, diag.Discard).Process(context.Background(), txs, days)
	require.Len(t, results, len(days))

	for _, result := range results {
		want := NewDailyTotalProcessor(result.Day, threshold, diag.Discard).Process(context.Background(), txs)
		assert.Equal(t, want, result.Cards, "day %s", result.Day.Format(transaction.DayLayout))
	}
}

func TestBatchProcessor_NoDays(t *testing.T) {
	results := NewBatchProcessor(money.Zero("USD"), 2, diag.Discard).Process(context.Background(), nil, nil)
	assert.Empty(t, results)
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	days := []time.Time{time.Date(2014, time.April, 29, 0, 0, 0, 0, time.UTC)}
	txs := transaction.ParseTransactions([]string{"e1, 2014-04-29T10:00:00, 30.00"}, nil)

	results := NewBatchProcessor(money.Zero("USD"), 1, diag.Discard).Process(ctx, txs, days)

	// a job may still be picked before the worker sees cancellation
	assert.LessOrEqual(t, len(results), len(days))
	for _, result := range results {
		assert.Equal(t, []string{"e1"}, result.Cards)
	}
}

func BenchmarkBatchProcessor_Process_DifferentWorkerCounts(b *testing.B) {
	cardCount := 1000
	transactionsPerCard := 50
	records := make([]string, 0, cardCount*transactionsPerCard)
	for i := 0; i < cardCount; i++ {
		for j := 0; j < transactionsPerCard; j++ {
			records = append(records, benchRecord(i, j))
		}
	}
	txs := transaction.ParseTransactions(records, nil)

	var days []time.Time
	for d := 0; d < 7; d++ {
		days = append(days, time.Date(2014, time.April, 28+d, 0, 0, 0, 0, time.UTC))
	}

	workerCounts := []int{1, 2, 4, 8}
	for _, workerCount := range workerCounts {
		b.Run(fmt.Sprintf("Workers_%d", workerCount), func(b *testing.B) {
			processor := NewBatchProcessor(money.MustParse("100", "USD"), workerCount, diag.Discard)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				processor.Process(context.Background(), txs, days)
			}
		})
	}
}

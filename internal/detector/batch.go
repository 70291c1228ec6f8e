// Worker Pool Pattern:
// Fixed workload size: one job per requested day
// Every job reads the same transaction slice and builds its own totals
// Results are written by job index, so output order follows the requested days

package detector

import (
	"context"
	"sync"
	"time"

	"card_fraud_detector/internal/diag"
	"card_fraud_detector/internal/money"
	"card_fraud_detector/internal/transaction"
)

const defaultWorkerCount = 4

// DayResult holds the flagged cards for one requested day.
type DayResult struct {
	Day   time.Time
	Cards []string
}

type dayJob struct {
	index int
	day   time.Time
}

type dayOutcome struct {
	index int
	cards []string
}

// BatchProcessor runs a DailyTotalProcessor per day on a worker pool.
type BatchProcessor struct {
	Threshold   money.Money
	WorkerCount int
	// Sink must be safe for concurrent use.
	Sink diag.Sink
}

// NewBatchProcessor creates a new worker pool processor
func NewBatchProcessor(threshold money.Money, workerCount int, sink diag.Sink) BatchProcessor {
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	return BatchProcessor{
		Threshold:   threshold,
		WorkerCount: workerCount,
		Sink:        sink,
	}
}

// Process returns one DayResult per day in the order of days. Days not yet
// processed when ctx is cancelled are left out.
func (b BatchProcessor) Process(ctx context.Context, transactions []transaction.Transaction, days []time.Time) []DayResult {
	workerCount := b.WorkerCount
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}

	jobs := make(chan dayJob, len(days))
	outcomes := make(chan dayOutcome, len(days))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go b.worker(ctx, &wg, transactions, jobs, outcomes)
	}

	go func() {
		defer close(jobs)
		for i, day := range days {
			select {
			case jobs <- dayJob{index: i, day: day}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	byIndex := make([][]string, len(days))
	done := make([]bool, len(days))
	for outcome := range outcomes {
		byIndex[outcome.index] = outcome.cards
		done[outcome.index] = true
	}

	results := make([]DayResult, 0, len(days))
	for i, day := range days {
		if done[i] {
			results = append(results, DayResult{Day: day, Cards: byIndex[i]})
		}
	}

	return results
}

func (b BatchProcessor) worker(ctx context.Context, wg *sync.WaitGroup, transactions []transaction.Transaction, jobs <-chan dayJob, outcomes chan<- dayOutcome) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
			processor := NewDailyTotalProcessor(job.day, b.Threshold, b.Sink)
			cards := processor.Process(ctx, transactions)

			select {
			case outcomes <- dayOutcome{index: job.index, cards: cards}:
			case <-ctx.Done():
				return
			}
		}
	}
}

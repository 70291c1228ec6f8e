package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"card_fraud_detector/internal/config"
	"card_fraud_detector/internal/detector"
	"card_fraud_detector/internal/diag"
	"card_fraud_detector/internal/logger"
	"card_fraud_detector/internal/money"
	"card_fraud_detector/internal/transaction"
)

var errUsage = errors.New("usage")

type options struct {
	input     string
	dates     string
	threshold string
	currency  string
	workers   int
}

func main() {
	log := logger.New()
	cfg := config.Load(log)

	fs := flag.NewFlagSet("fraudcheck", flag.ExitOnError)
	input := fs.String("input", cfg.Input, "File of 'card, timestamp, amount' records, '-' for stdin")
	dates := fs.String("date", cfg.Dates, "Day to check (YYYY-MM-DD or timestamp); comma separate several days")
	threshold := fs.String("threshold", cfg.Threshold, "Daily total a card must exceed to be flagged")
	currency := fs.String("currency", cfg.Currency, "Currency of all amounts")
	workers := fs.Int("workers", cfg.Workers, "Worker count when checking several days")
	logLevel := fs.String("log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", cfg.Log.Format, "Log format (console, json)")
	fs.Parse(os.Args[1:])

	log = logger.NewWithOptions(os.Stderr, logger.Format(*logFormat), logger.ParseLevel(*logLevel)).
		With().Str("run_id", uuid.New().String()).Logger()
	ctx := logger.WithContext(context.Background(), log)

	opts := options{
		input:     *input,
		dates:     *dates,
		threshold: *threshold,
		currency:  *currency,
		workers:   *workers,
	}

	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			fs.Usage()
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("Fraud check failed")
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	log := logger.FromContext(ctx)

	if opts.threshold == "" {
		return fmt.Errorf("%w: -threshold is required", errUsage)
	}
	limit, err := transaction.ParseMoney(opts.threshold, opts.currency)
	if err != nil {
		return fmt.Errorf("%w: -threshold: %v", errUsage, err)
	}

	days, err := parseDays(opts.dates)
	if err != nil {
		return fmt.Errorf("%w: -date: %v", errUsage, err)
	}

	lines, err := readInput(opts.input, stdin)
	if err != nil {
		return err
	}

	counter := &diag.Counter{}
	sink := diag.Multi{counter, diag.NewLogSink(log)}

	transactions := transaction.ParseTransactions(lines, sink)
	log.Info().
		Int("records", len(lines)).
		Int("transactions", len(transactions)).
		Str("threshold", limit.String()).
		Int("days", len(days)).
		Msg("Starting fraud check")

	w := bufio.NewWriter(stdout)
	if len(days) == 1 {
		processor := detector.NewDailyTotalProcessor(days[0], limit, sink)
		for _, card := range processor.Process(ctx, transactions) {
			fmt.Fprintln(w, card)
		}
	} else {
		processor := detector.NewBatchProcessor(limit, opts.workers, sink)
		for _, result := range processor.Process(ctx, transactions, days) {
			for _, card := range result.Cards {
				fmt.Fprintf(w, "%s\t%s\n", result.Day.Format(transaction.DayLayout), card)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	logSummary(log, counter)

	return ctx.Err()
}

func logSummary(log zerolog.Logger, counter *diag.Counter) {
	level := zerolog.InfoLevel
	if counter.Total() > 0 {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).
		Int("malformed_records", counter.Count(transaction.ErrMalformedRecord)).
		Int("malformed_timestamps", counter.Count(transaction.ErrMalformedTimestamp)).
		Int("malformed_amounts", counter.Count(transaction.ErrMalformedAmount)).
		Int("currency_mismatches", counter.Count(money.ErrCurrencyMismatch)).
		Msg("Fraud check completed")
}

// parseDays splits a comma separated list of days. Duplicates are kept once.
func parseDays(text string) ([]time.Time, error) {
	var days []time.Time
	seen := make(map[string]struct{})

	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		day, err := transaction.ParseDay(part)
		if err != nil {
			return nil, err
		}

		key := day.Format(transaction.DayLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, day)
	}

	if len(days) == 0 {
		return nil, errors.New("at least one day is required")
	}
	return days, nil
}

func readInput(path string, stdin io.Reader) ([]string, error) {
	if path == "" || path == "-" {
		return readRecords(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

// readRecords returns every non-blank line of r.
func readRecords(r io.Reader) ([]string, error) {
	lines := make([]string, 0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return lines, nil
}

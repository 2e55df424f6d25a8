package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/parquet"
)

// ErrNoRuns is returned when the ledger holds nothing to export.
var ErrNoRuns = errors.New("no run data found to export")

// ExportRuns writes the run ledger to three Parquet files sharing the outputFile prefix.
func ExportRuns(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run ledger is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrNoRuns
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	outcomes, err := store.GetAllRepoOutcomes()
	if err != nil {
		return fmt.Errorf("failed to retrieve repo outcomes: %w", err)
	}
	outcomesFile := outputFile + ".repo_outcomes.parquet"
	if err := parquet.WriteRepoOutcomesParquet(parquet.ConvertRepoOutcomeRecords(outcomes), outcomesFile); err != nil {
		return fmt.Errorf("failed to write repo outcomes: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d repository outcomes to: %s\n", len(outcomes), outcomesFile)

	stats, err := store.GetAllMonthlyStats()
	if err != nil {
		return fmt.Errorf("failed to retrieve monthly stats: %w", err)
	}
	statsFile := outputFile + ".monthly_stats.parquet"
	if err := parquet.WriteMonthlyStatsParquet(parquet.ConvertMonthlyStatRecords(stats), statsFile); err != nil {
		return fmt.Errorf("failed to write monthly stats: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d monthly stat rows to: %s\n", len(stats), statsFile)
	return nil
}

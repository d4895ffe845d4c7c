package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/parquet"
)

// ExecuteRunsExport exports the run history to <outputFile>.derive_runs.parquet
// and <outputFile>.run_rows.parquet.
func ExecuteRunsExport(store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is disabled; set --runs-backend")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total row records: %d\n", status.TableSizes[runRowsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	rows, err := store.GetRunRows(0)
	if err != nil {
		return fmt.Errorf("failed to retrieve run rows: %w", err)
	}

	runsFile := outputFile + ".derive_runs.parquet"
	if err := parquet.WriteDeriveRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)

	rowsFile := outputFile + ".run_rows.parquet"
	if err := parquet.WriteRunRowsParquet(parquet.ConvertRunRowRecords(rows), rowsFile); err != nil {
		return fmt.Errorf("failed to write run rows: %w", err)
	}
	fmt.Printf("Exported %d row records to: %s\n", len(rows), rowsFile)
	return nil
}

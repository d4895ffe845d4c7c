// Package parquet reads and writes hazardtable data as Parquet files using
// github.com/parquet-go/parquet-go: the persisted hazard dataset, published
// parameter tables, spectra and the run history export.
package parquet

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/hazardtable/schema"
)

// DeriveRun represents a single derive run with metadata.
// This struct maps to the hazardtable_derive_runs database table.
type DeriveRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	DatasetPath string `parquet:"dataset_path,snappy"`
	TotalRows   int32  `parquet:"total_rows,snappy"`

	// SettingsParams contains the JSON-encoded derivation settings (nullable)
	SettingsParams *string `parquet:"settings_params,optional,snappy"`
}

// RunRow is one published parameter row recorded for a run.
// This struct maps to the hazardtable_run_rows database table.
// Parameters that could not be derived are null.
type RunRow struct {
	RunID        int64    `parquet:"run_id,snappy"`
	Location     string   `parquet:"location,dict,snappy"`
	ReturnPeriod int32    `parquet:"return_period,snappy"`
	SiteClass    string   `parquet:"site_class,dict,snappy"`
	PGA          *float64 `parquet:"pga,optional,snappy"`
	Sas          *float64 `parquet:"sas,optional,snappy"`
	PSV          *float64 `parquet:"psv,optional,snappy"`
	Tc           *float64 `parquet:"tc,optional,snappy"`
	Td           *float64 `parquet:"td,optional,snappy"`
	PGAFloor     bool     `parquet:"pga_floor,snappy"`
	SasFloor     bool     `parquet:"sas_floor,snappy"`
	PSVFloor     bool     `parquet:"psv_floor,snappy"`
	TdFloor      bool     `parquet:"td_floor,snappy"`
}

// writeRows writes rows of T to outputPath, replacing any existing file.
func writeRows[T any](data []T, outputPath string, options ...parquet.WriterOption) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file, options...)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// WriteDeriveRunsParquet writes a slice of DeriveRun structs to a Parquet file.
func WriteDeriveRunsParquet(data []DeriveRun, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteRunRowsParquet writes a slice of RunRow structs to a Parquet file.
func WriteRunRowsParquet(data []RunRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to DeriveRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []DeriveRun {
	result := make([]DeriveRun, len(records))
	for i, record := range records {
		result[i] = DeriveRun{
			RunID:          record.RunID,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			DatasetPath:    record.DatasetPath,
			TotalRows:      record.TotalRows,
			SettingsParams: record.SettingsParams,
		}
	}
	return result
}

// ConvertRunRowRecords converts schema.RunRowRecord to RunRow for Parquet export.
func ConvertRunRowRecords(records []schema.RunRowRecord) []RunRow {
	result := make([]RunRow, len(records))
	for i, record := range records {
		result[i] = RunRow{
			RunID:        record.RunID,
			Location:     record.Location,
			ReturnPeriod: record.ReturnPeriod,
			SiteClass:    record.SiteClass,
			PGA:          optionalFloat(record.PGA),
			Sas:          optionalFloat(record.Sas),
			PSV:          optionalFloat(record.PSV),
			Tc:           optionalFloat(record.Tc),
			Td:           optionalFloat(record.Td),
			PGAFloor:     record.PGAFloor,
			SasFloor:     record.SasFloor,
			PSVFloor:     record.PSVFloor,
			TdFloor:      record.TdFloor,
		}
	}
	return result
}

// optionalFloat maps NaN to a null column value.
func optionalFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/parquet"
	"github.com/huangsam/hazardtable/schema"
)

// WriteTableResults outputs the published rows, dispatching based on the output format configured.
func WriteTableResults(rows []schema.FlatRow, cfg *contract.Config, duration time.Duration) error {
	fmtValue := tableFormatter(cfg, "")

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteJSONTable(w, rows, cfg.Diagnostics)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVTable(w, rows, cfg.Diagnostics, fmtValue)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteTableParquet(rows, cfg.Diagnostics, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		reportFile(cfg.OutputFile, "Wrote Parquet")
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTextTable(w, rows, cfg, tableFormatter(cfg, "-"), duration)
		}, "Wrote table")
	}
	return nil
}

// tableFormatter prints rounded tables exactly and unrounded tables at the configured precision.
func tableFormatter(cfg *contract.Config, missing string) func(float64) string {
	if cfg.Settings.ApplyRounding {
		return createFormatter(-1, missing)
	}
	return createFormatter(cfg.Precision, missing)
}

// writeTextTable generates and writes the human-readable table.
func writeTextTable(writer io.Writer, rows []schema.FlatRow, cfg *contract.Config, fmtValue func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(writer)

	headers := []string{"Location", "APoE", "Site Class", "PGA", "Sas", "Tc", "Td"}
	if cfg.Diagnostics {
		headers = append(headers, "PSV", "Floor", "Flags")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxWidth := getMaxTableLocationWidth(cfg)
	locations := make(map[string]struct{})
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		locations[r.Location] = struct{}{}
		row := []string{
			contract.TruncateLocation(r.Location, maxWidth),
			schema.APoELabel(r.ReturnPeriod),
			schema.SiteClassLabel(r.SiteClass),
			fmtValue(r.PGA),
			fmtValue(r.Sas),
			fmtValue(r.Tc),
			fmtValue(r.Td),
		}
		if cfg.Diagnostics {
			label := contract.GetPlainFloorLabel(r)
			if cfg.UseColors {
				label = contract.GetColorFloorLabel(r)
			}
			row = append(row, fmtValue(r.PSV), label, contract.FloorFlags(r))
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Showing %d rows for %d locations\n", len(rows), len(locations)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Derived in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, displayBackend(cfg.CacheBackend)); err != nil {
		return err
	}
	return nil
}

func displayBackend(b schema.DatabaseBackend) string {
	if b == "" {
		return string(schema.NoneBackend)
	}
	return string(b)
}

// tableCSVHeader lists the published CSV columns.
var tableCSVHeader = []string{"Location", "APoE (1/n)", "Site Class", "PGA", "Sas", "Tc", "Td"}

// writeCSVTable writes the published rows in CSV format. Missing values are empty cells.
func writeCSVTable(w io.Writer, rows []schema.FlatRow, diagnostics bool, fmtValue func(float64) string) error {
	header := tableCSVHeader
	if diagnostics {
		header = append(append([]string(nil), tableCSVHeader...), "PSV", "PGA Floor", "Sas Floor", "PSV Floor", "Td Floor")
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.Location,
				strconv.Itoa(r.ReturnPeriod),
				schema.SiteClassLabel(r.SiteClass),
				fmtValue(r.PGA),
				fmtValue(r.Sas),
				fmtValue(r.Tc),
				fmtValue(r.Td),
			}
			if diagnostics {
				rec = append(rec,
					fmtValue(r.PSV),
					strconv.FormatBool(r.PGAFloor),
					strconv.FormatBool(r.SasFloor),
					strconv.FormatBool(r.PSVFloor),
					strconv.FormatBool(r.TdFloor),
				)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// jsonRow is the JSON form of a published row. Missing parameters are null.
type jsonRow struct {
	Location     string   `json:"Location"`
	ReturnPeriod int      `json:"APoE (1/n)"`
	SiteClass    string   `json:"Site Class"`
	PGA          *float64 `json:"PGA"`
	Sas          *float64 `json:"Sas"`
	Tc           *float64 `json:"Tc"`
	Td           *float64 `json:"Td"`

	PSV        *float64 `json:"PSV,omitempty"`
	Floor      string   `json:"Floor,omitempty"`
	FloorFlags string   `json:"Floor Flags,omitempty"`
}

// WriteJSONTable writes the published rows in JSON format, missing values as null.
func WriteJSONTable(w io.Writer, rows []schema.FlatRow, diagnostics bool) error {
	output := make([]jsonRow, len(rows))
	for i, r := range rows {
		row := jsonRow{
			Location:     r.Location,
			ReturnPeriod: r.ReturnPeriod,
			SiteClass:    schema.SiteClassLabel(r.SiteClass),
			PGA:          jsonFloat(r.PGA),
			Sas:          jsonFloat(r.Sas),
			Tc:           jsonFloat(r.Tc),
			Td:           jsonFloat(r.Td),
		}
		if diagnostics {
			row.PSV = jsonFloat(r.PSV)
			row.Floor = contract.GetPlainFloorLabel(r)
			row.FloorFlags = contract.FloorFlags(r)
		}
		output[i] = row
	}
	return writeJSON(w, output)
}

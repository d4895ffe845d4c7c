package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/schema"
)

// WriteDiagnosticsResults lists the hazard curves that could not be inverted.
func WriteDiagnosticsResults(malformed []schema.MalformedCurve, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if malformed == nil {
				malformed = []schema.MalformedCurve{}
			}
			return writeJSON(w, malformed)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVDiagnostics(w, malformed)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for diagnostics")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTextDiagnostics(w, malformed)
		}, "Wrote diagnostics")
	}
	return nil
}

func diagnosticRecord(m schema.MalformedCurve) []string {
	return []string{strconv.FormatFloat(m.Vs30, 'f', -1, 64), m.Site, m.IMT, m.Stat, m.Reason}
}

func writeTextDiagnostics(w io.Writer, malformed []schema.MalformedCurve) error {
	if len(malformed) == 0 {
		_, err := fmt.Fprintln(w, "All hazard curves are well formed")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Vs30", "Site", "IMT", "Stat", "Reason"})
	data := make([][]string, len(malformed))
	for i, m := range malformed {
		data[i] = diagnosticRecord(m)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Found %d malformed hazard curves\n", len(malformed))
	return err
}

func writeCSVDiagnostics(w io.Writer, malformed []schema.MalformedCurve) error {
	return writeCSVWithHeader(w, []string{"vs30", "site", "imt", "stat", "reason"}, func(cw *csv.Writer) error {
		for _, m := range malformed {
			if err := cw.Write(diagnosticRecord(m)); err != nil {
				return err
			}
		}
		return nil
	})
}

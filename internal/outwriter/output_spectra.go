package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/parquet"
	"github.com/huangsam/hazardtable/schema"
)

// WriteSpectraResults outputs one or more spectra over a common period grid.
func WriteSpectraResults(spectra *schema.EnvelopedSpectra, cfg *contract.Config) error {
	if spectra == nil {
		return fmt.Errorf("no spectra to write")
	}
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteJSONSpectra(w, spectra)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVSpectra(w, spectra, createFormatter(cfg.Precision, ""))
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteSpectraParquet(spectra, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		reportFile(cfg.OutputFile, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTextSpectra(w, spectra, createFormatter(cfg.Precision, "-"))
		}, "Wrote spectra")
	}
	return nil
}

// spectraColumns returns the series labels, followed by the envelope when present.
func spectraColumns(s *schema.EnvelopedSpectra) ([]string, [][]float64) {
	labels := make([]string, 0, len(s.Series)+1)
	values := make([][]float64, 0, len(s.Series)+1)
	for _, series := range s.Series {
		labels = append(labels, series.Label)
		values = append(values, series.Values)
	}
	if len(s.Envelope) > 0 {
		labels = append(labels, parquet.EnvelopeLabel)
		values = append(values, s.Envelope)
	}
	return labels, values
}

func writeTextSpectra(writer io.Writer, s *schema.EnvelopedSpectra, fmtValue func(float64) string) error {
	labels, values := spectraColumns(s)

	title := s.Location
	if s.ReturnPeriod > 0 {
		title += ", " + schema.APoELabel(s.ReturnPeriod)
	}
	if _, err := fmt.Fprintln(writer, title); err != nil {
		return err
	}
	table := tablewriter.NewWriter(writer)
	table.Header(append([]string{"Period (s)"}, labels...))
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, len(s.Periods))
	for i, period := range s.Periods {
		row := []string{strconv.FormatFloat(period, 'f', -1, 64)}
		for _, v := range values {
			row = append(row, fmtValue(v[i]))
		}
		data[i] = row
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeCSVSpectra(w io.Writer, s *schema.EnvelopedSpectra, fmtValue func(float64) string) error {
	labels, values := spectraColumns(s)
	header := append([]string{"Location", "APoE (1/n)", "Period"}, labels...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, period := range s.Periods {
			rec := []string{s.Location, strconv.Itoa(s.ReturnPeriod), strconv.FormatFloat(period, 'f', -1, 64)}
			for _, v := range values {
				rec = append(rec, fmtValue(v[i]))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

type jsonSeries struct {
	Label  string     `json:"label"`
	Values []*float64 `json:"values"`
}

type jsonSpectra struct {
	Location     string       `json:"location"`
	ReturnPeriod int          `json:"return_period"`
	Periods      []float64    `json:"periods"`
	Series       []jsonSeries `json:"series"`
	Envelope     []*float64   `json:"envelope,omitempty"`
}

// WriteJSONSpectra writes spectra in JSON format, missing values as null.
func WriteJSONSpectra(w io.Writer, s *schema.EnvelopedSpectra) error {
	out := jsonSpectra{
		Location:     s.Location,
		ReturnPeriod: s.ReturnPeriod,
		Periods:      s.Periods,
		Series:       make([]jsonSeries, len(s.Series)),
	}
	for i, series := range s.Series {
		out.Series[i] = jsonSeries{Label: series.Label, Values: jsonFloats(series.Values)}
	}
	if len(s.Envelope) > 0 {
		out.Envelope = jsonFloats(s.Envelope)
	}
	return writeJSON(w, out)
}

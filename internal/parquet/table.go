package parquet

import (
	"github.com/huangsam/hazardtable/schema"
)

// TableRow is one published row of a parameter table.
type TableRow struct {
	Location     string   `parquet:"location,dict,snappy"`
	APoE         string   `parquet:"apoe,dict,snappy"`
	ReturnPeriod int32    `parquet:"return_period,snappy"`
	SiteClass    string   `parquet:"site_class,dict,snappy"`
	PGA          *float64 `parquet:"pga,optional,snappy"`
	Sas          *float64 `parquet:"sas,optional,snappy"`
	Tc           *float64 `parquet:"tc,optional,snappy"`
	Td           *float64 `parquet:"td,optional,snappy"`

	// Only filled when diagnostics are requested
	PSV      *float64 `parquet:"psv,optional,snappy"`
	PGAFloor *bool    `parquet:"pga_floor,optional,snappy"`
	SasFloor *bool    `parquet:"sas_floor,optional,snappy"`
	PSVFloor *bool    `parquet:"psv_floor,optional,snappy"`
	TdFloor  *bool    `parquet:"td_floor,optional,snappy"`
}

// SpectrumPoint is one ordinate of a labelled spectrum.
type SpectrumPoint struct {
	Location     string   `parquet:"location,dict,snappy"`
	ReturnPeriod int32    `parquet:"return_period,snappy"`
	Label        string   `parquet:"label,dict,snappy"`
	Period       float64  `parquet:"period,snappy"`
	Value        *float64 `parquet:"value,optional,snappy"`
}

// EnvelopeLabel labels the point-wise maximum in spectra exports.
const EnvelopeLabel = "Envelope"

// ConvertFlatRows converts published rows for Parquet export.
// The floor flags and PSV are kept only when diagnostics is set.
func ConvertFlatRows(rows []schema.FlatRow, diagnostics bool) []TableRow {
	result := make([]TableRow, len(rows))
	for i, r := range rows {
		row := TableRow{
			Location:     r.Location,
			APoE:         schema.APoELabel(r.ReturnPeriod),
			ReturnPeriod: int32(r.ReturnPeriod),
			SiteClass:    schema.SiteClassLabel(r.SiteClass),
			PGA:          optionalFloat(r.PGA),
			Sas:          optionalFloat(r.Sas),
			Tc:           optionalFloat(r.Tc),
			Td:           optionalFloat(r.Td),
		}
		if diagnostics {
			row.PSV = optionalFloat(r.PSV)
			row.PGAFloor = &r.PGAFloor
			row.SasFloor = &r.SasFloor
			row.PSVFloor = &r.PSVFloor
			row.TdFloor = &r.TdFloor
		}
		result[i] = row
	}
	return result
}

// ConvertSpectra flattens enveloped spectra into long-form points, the
// envelope last.
func ConvertSpectra(s *schema.EnvelopedSpectra) []SpectrumPoint {
	series := append([]schema.SpectrumSeries(nil), s.Series...)
	if len(s.Envelope) > 0 {
		series = append(series, schema.SpectrumSeries{Label: EnvelopeLabel, Values: s.Envelope})
	}
	result := make([]SpectrumPoint, 0, len(series)*len(s.Periods))
	for _, ser := range series {
		for i, period := range s.Periods {
			if i >= len(ser.Values) {
				break
			}
			result = append(result, SpectrumPoint{
				Location:     s.Location,
				ReturnPeriod: int32(s.ReturnPeriod),
				Label:        ser.Label,
				Period:       period,
				Value:        optionalFloat(ser.Values[i]),
			})
		}
	}
	return result
}

// WriteTableParquet writes published rows to a Parquet file.
func WriteTableParquet(rows []schema.FlatRow, diagnostics bool, outputPath string) error {
	return writeRows(ConvertFlatRows(rows, diagnostics), outputPath)
}

// WriteSpectraParquet writes enveloped spectra to a Parquet file.
func WriteSpectraParquet(s *schema.EnvelopedSpectra, outputPath string) error {
	return writeRows(ConvertSpectra(s), outputPath)
}

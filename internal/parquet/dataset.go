package parquet

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/hazardtable/schema"
)

// Groups of rows in a dataset file.
const (
	CurvesGroup  = "hcurves"
	SpectraGroup = "hazard_design/acc"
)

// Metadata keys of a dataset file. Entries of HazardDataset.Meta are stored
// under metaPrefix.
const (
	keyVersion       = "hazardtable.version"
	keyVs30s         = "hazardtable.vs30s"
	keySites         = "hazardtable.sites"
	keyIMTs          = "hazardtable.imts"
	keyLevels        = "hazardtable.levels"
	keyQuantiles     = "hazardtable.quantiles"
	keyReturnPeriods = "hazardtable.return_periods"
	keySpectraIMTs   = "hazardtable.spectra_imts"
	keySpectraRPs    = "hazardtable.spectra_return_periods"
	metaPrefix       = "meta."

	datasetVersion = "1"
	readBatchSize  = 4096
)

// DatasetRow is one stored value: an annual rate of exceedance of a hazard
// curve, or a uniform hazard spectrum acceleration.
type DatasetRow struct {
	Group        string  `parquet:"group,dict,snappy"`
	Vs30         float64 `parquet:"vs30,snappy"`
	Site         string  `parquet:"site,dict,snappy"`
	IMT          string  `parquet:"imt,dict,snappy"`
	Stat         string  `parquet:"stat,dict,snappy"`
	Level        float64 `parquet:"level,snappy"`         // intensity level of a curve point
	ReturnPeriod int32   `parquet:"return_period,snappy"` // return period of a spectrum point
	Value        float64 `parquet:"value,snappy"`
}

// WriteDataset persists a hazard dataset. Missing (NaN) values are not stored.
func WriteDataset(ds *schema.HazardDataset, outputPath string) error {
	if ds == nil || ds.Curves == nil {
		return errors.New("dataset has no hazard curves")
	}
	meta, err := datasetMetadata(ds)
	if err != nil {
		return err
	}
	options := make([]parquet.WriterOption, 0, len(meta))
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		options = append(options, parquet.KeyValueMetadata(k, meta[k]))
	}
	return writeRows(datasetRows(ds), outputPath, options...)
}

func datasetMetadata(ds *schema.HazardDataset) (map[string]string, error) {
	h := ds.Curves
	meta := map[string]string{keyVersion: datasetVersion}
	values := map[string]any{
		keyVs30s:         h.Vs30s,
		keySites:         h.Sites,
		keyIMTs:          h.IMTs,
		keyLevels:        h.Levels,
		keyQuantiles:     h.Quantiles,
		keyReturnPeriods: ds.ReturnPeriods,
	}
	if ds.Spectra != nil {
		values[keySpectraIMTs] = ds.Spectra.IMTs
		values[keySpectraRPs] = ds.Spectra.ReturnPeriods
	}
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", k, err)
		}
		meta[k] = string(b)
	}
	for k, v := range ds.Meta {
		meta[metaPrefix+k] = v
	}
	return meta, nil
}

func datasetRows(ds *schema.HazardDataset) []DatasetRow {
	h := ds.Curves
	stats := h.StatLabels()
	var rows []DatasetRow
	for iv, vs30 := range h.Vs30s {
		for is, site := range h.Sites {
			for im, imt := range h.IMTs {
				for il, level := range h.Levels[im] {
					for ist, stat := range stats {
						rate := h.Rates.At(iv, is, im, il, ist)
						if math.IsNaN(rate) {
							continue
						}
						rows = append(rows, DatasetRow{
							Group: CurvesGroup, Vs30: vs30, Site: site.Name,
							IMT: imt, Stat: stat, Level: level, Value: rate,
						})
					}
				}
			}
		}
	}

	sp := ds.Spectra
	if sp == nil || sp.Acc == nil {
		return rows
	}
	for iv, vs30 := range h.Vs30s {
		for is, site := range h.Sites {
			for ip, imt := range sp.IMTs {
				for ir, rp := range sp.ReturnPeriods {
					for ist, stat := range stats {
						acc := sp.Acc.At(iv, is, ip, ir, ist)
						if math.IsNaN(acc) {
							continue
						}
						rows = append(rows, DatasetRow{
							Group: SpectraGroup, Vs30: vs30, Site: site.Name,
							IMT: imt, Stat: stat, ReturnPeriod: int32(rp), Value: acc,
						})
					}
				}
			}
		}
	}
	return rows
}

// Reader loads persisted hazard datasets.
type Reader struct{}

// NewReader returns a dataset reader.
func NewReader() *Reader {
	return &Reader{}
}

// DatasetHash returns the hex SHA-256 of the dataset file contents.
func (r *Reader) DatasetHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// ReadDataset loads the curves, and the stored acceleration spectra when
// present. Velocity and displacement spectra are not stored.
func (r *Reader) ReadDataset(ctx context.Context, path string) (*schema.HazardDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s is not a parquet file: %w", path, err)
	}
	ds, idx, err := datasetFromMetadata(pf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	reader := parquet.NewGenericReader[DatasetRow](f)
	defer func() { _ = reader.Close() }()
	batch := make([]DatasetRow, readBatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := reader.Read(batch)
		for _, row := range batch[:n] {
			if err := idx.store(ds, row); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if n == 0 {
			break
		}
	}
	return ds, nil
}

// axisIndex maps stored labels back to tensor positions.
type axisIndex struct {
	vs30s  map[float64]int
	sites  map[string]int
	imts   map[string]int
	levels []map[float64]int
	stats  map[string]int
	spIMTs map[string]int
	spRPs  map[int32]int
}

func datasetFromMetadata(pf *parquet.File) (*schema.HazardDataset, *axisIndex, error) {
	if v, _ := pf.Lookup(keyVersion); v != datasetVersion {
		return nil, nil, fmt.Errorf("unsupported dataset version %q", v)
	}
	var (
		vs30s     []float64
		sites     []schema.Site
		imts      []string
		levels    [][]float64
		quantiles []float64
		rps       []int
	)
	required := []struct {
		key string
		dst any
	}{
		{keyVs30s, &vs30s},
		{keySites, &sites},
		{keyIMTs, &imts},
		{keyLevels, &levels},
		{keyQuantiles, &quantiles},
		{keyReturnPeriods, &rps},
	}
	for _, r := range required {
		if err := lookupJSON(pf, r.key, r.dst); err != nil {
			return nil, nil, err
		}
	}
	curves, err := schema.NewHazardTensor(vs30s, sites, imts, levels, quantiles)
	if err != nil {
		return nil, nil, err
	}
	ds := &schema.HazardDataset{Curves: curves, ReturnPeriods: rps, Meta: map[string]string{}}
	for _, kv := range pf.Metadata().KeyValueMetadata {
		if k, ok := strings.CutPrefix(kv.Key, metaPrefix); ok {
			ds.Meta[k] = kv.Value
		}
	}

	idx := &axisIndex{
		vs30s:  make(map[float64]int, len(vs30s)),
		sites:  make(map[string]int, len(sites)),
		imts:   make(map[string]int, len(imts)),
		levels: make([]map[float64]int, len(imts)),
		stats:  make(map[string]int),
	}
	for i, v := range vs30s {
		idx.vs30s[v] = i
	}
	for i, s := range sites {
		idx.sites[s.Name] = i
	}
	for i, imt := range imts {
		idx.imts[imt] = i
		idx.levels[i] = make(map[float64]int, len(levels[i]))
		for il, l := range levels[i] {
			idx.levels[i][l] = il
		}
	}
	for i, s := range curves.StatLabels() {
		idx.stats[s] = i
	}

	if _, ok := pf.Lookup(keySpectraIMTs); ok {
		sp, err := spectraFromMetadata(pf, curves)
		if err != nil {
			return nil, nil, err
		}
		ds.Spectra = sp
		idx.spIMTs = make(map[string]int, len(sp.IMTs))
		for i, imt := range sp.IMTs {
			idx.spIMTs[imt] = i
		}
		idx.spRPs = make(map[int32]int, len(sp.ReturnPeriods))
		for i, rp := range sp.ReturnPeriods {
			idx.spRPs[int32(rp)] = i
		}
	}
	return ds, idx, nil
}

func spectraFromMetadata(pf *parquet.File, curves *schema.HazardTensor) (*schema.SpectraSet, error) {
	sp := &schema.SpectraSet{}
	if err := lookupJSON(pf, keySpectraIMTs, &sp.IMTs); err != nil {
		return nil, err
	}
	if err := lookupJSON(pf, keySpectraRPs, &sp.ReturnPeriods); err != nil {
		return nil, err
	}
	sp.Periods = make([]float64, len(sp.IMTs))
	for i, imt := range sp.IMTs {
		p, err := periodOf(imt)
		if err != nil {
			return nil, err
		}
		sp.Periods[i] = p
	}
	sp.Acc = schema.NewTensor(math.NaN(), len(curves.Vs30s), len(curves.Sites), len(sp.IMTs), len(sp.ReturnPeriods), curves.NumStats())
	return sp, nil
}

// periodOf reads the period of a stored spectrum label: PGA or SA(x).
func periodOf(imt string) (float64, error) {
	if imt == schema.PGAIMT || imt == "PGD" {
		return 0, nil
	}
	inner, ok := strings.CutPrefix(imt, "SA(")
	if ok {
		inner, ok = strings.CutSuffix(inner, ")")
	}
	if !ok {
		return 0, fmt.Errorf("unrecognised spectrum label %q", imt)
	}
	return strconv.ParseFloat(inner, 64)
}

func lookupJSON(pf *parquet.File, key string, dst any) error {
	v, ok := pf.Lookup(key)
	if !ok {
		return fmt.Errorf("missing metadata %s", key)
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return fmt.Errorf("decoding metadata %s: %w", key, err)
	}
	return nil
}

func (idx *axisIndex) store(ds *schema.HazardDataset, row DatasetRow) error {
	iv, ok := idx.vs30s[row.Vs30]
	if !ok {
		return fmt.Errorf("row references unknown vs30 %g", row.Vs30)
	}
	is, ok := idx.sites[row.Site]
	if !ok {
		return fmt.Errorf("row references unknown site %q", row.Site)
	}
	ist, ok := idx.stats[row.Stat]
	if !ok {
		return fmt.Errorf("row references unknown statistic %q", row.Stat)
	}

	switch row.Group {
	case CurvesGroup:
		im, ok := idx.imts[row.IMT]
		if !ok {
			return fmt.Errorf("row references unknown intensity measure %q", row.IMT)
		}
		il, ok := idx.levels[im][row.Level]
		if !ok {
			return fmt.Errorf("row references unknown level %g of %s", row.Level, row.IMT)
		}
		ds.Curves.Rates.Set(row.Value, iv, is, im, il, ist)
	case SpectraGroup:
		if ds.Spectra == nil {
			return errors.New("spectrum rows without spectrum metadata")
		}
		ip, ok := idx.spIMTs[row.IMT]
		if !ok {
			return fmt.Errorf("row references unknown spectrum period %q", row.IMT)
		}
		ir, ok := idx.spRPs[row.ReturnPeriod]
		if !ok {
			return fmt.Errorf("row references unknown return period %d", row.ReturnPeriod)
		}
		ds.Spectra.Acc.Set(row.Value, iv, is, ip, ir, ist)
	default:
		return fmt.Errorf("unknown row group %q", row.Group)
	}
	return nil
}

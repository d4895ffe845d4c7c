package parquet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/hazardtable/schema"
)

// CurveCSVHeader is the expected header of a long-form hazard curve CSV.
var CurveCSVHeader = []string{"vs30", "site", "lat", "lon", "imt", "stat", "level", "rate"}

type curvePoint struct {
	vs30  float64
	site  string
	imt   string
	stat  string
	level float64
	rate  float64
}

// ImportCurvesCSV reads long-form hazard curves into a dataset. Axes keep
// their first-appearance order, except intensity levels and quantiles which
// are sorted. Points absent from the CSV are left missing.
func ImportCurvesCSV(r io.Reader, returnPeriods []int) (*schema.HazardDataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	if !slices.Equal(header, CurveCSVHeader) {
		return nil, fmt.Errorf("unexpected header %v, want %v", header, CurveCSVHeader)
	}

	var (
		points    []curvePoint
		vs30s     []float64
		sites     []schema.Site
		imts      []string
		siteSeen  = map[string]bool{}
		levelSets = map[string]map[float64]bool{}
		quantSet  = map[float64]bool{}
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, site, err := parseCurveRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !slices.Contains(vs30s, p.vs30) {
			vs30s = append(vs30s, p.vs30)
		}
		if !siteSeen[site.Name] {
			siteSeen[site.Name] = true
			sites = append(sites, site)
		}
		if _, ok := levelSets[p.imt]; !ok {
			imts = append(imts, p.imt)
			levelSets[p.imt] = map[float64]bool{}
		}
		levelSets[p.imt][p.level] = true
		if p.stat != schema.MeanStat {
			q, err := strconv.ParseFloat(p.stat, 64)
			if err != nil || q <= 0 || q >= 1 {
				return nil, fmt.Errorf("line %d: invalid statistic %q", line, p.stat)
			}
			quantSet[q] = true
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, errors.New("no hazard curve rows")
	}

	levels := make([][]float64, len(imts))
	for i, imt := range imts {
		levels[i] = slices.Sorted(maps.Keys(levelSets[imt]))
	}
	quantiles := slices.Sorted(maps.Keys(quantSet))
	curves, err := schema.NewHazardTensor(vs30s, sites, imts, levels, quantiles)
	if err != nil {
		return nil, err
	}

	for _, p := range points {
		iv := curves.Vs30Index(p.vs30)
		is := curves.SiteIndex(p.site)
		im := slices.Index(imts, p.imt)
		il := slices.Index(levels[im], p.level)
		ist := 0
		if p.stat != schema.MeanStat {
			q, _ := strconv.ParseFloat(p.stat, 64)
			ist = curves.StatIndex(q)
		}
		curves.Rates.Set(p.rate, iv, is, im, il, ist)
	}
	return &schema.HazardDataset{
		Curves:        curves,
		ReturnPeriods: slices.Clone(returnPeriods),
		Meta:          map[string]string{},
	}, nil
}

func parseCurveRecord(rec []string) (curvePoint, schema.Site, error) {
	if len(rec) != len(CurveCSVHeader) {
		return curvePoint{}, schema.Site{}, fmt.Errorf("got %d fields, want %d", len(rec), len(CurveCSVHeader))
	}
	nums := make([]float64, 0, 5)
	for _, i := range []int{0, 2, 3, 6, 7} {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return curvePoint{}, schema.Site{}, fmt.Errorf("%s: %w", CurveCSVHeader[i], err)
		}
		nums = append(nums, v)
	}
	site := schema.Site{Name: strings.TrimSpace(rec[1]), Lat: nums[1], Lon: nums[2]}
	if site.Name == "" {
		return curvePoint{}, schema.Site{}, errors.New("empty site")
	}
	p := curvePoint{
		vs30:  nums[0],
		site:  site.Name,
		imt:   strings.TrimSpace(rec[4]),
		stat:  strings.TrimSpace(rec[5]),
		level: nums[3],
		rate:  nums[4],
	}
	return p, site, nil
}

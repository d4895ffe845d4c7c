package parquet

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hazardtable/schema"
)

func testDataset(t *testing.T) *schema.HazardDataset {
	t.Helper()
	sites := []schema.Site{
		{Name: "Auckland", Lat: -36.85, Lon: 174.76},
		{Name: "-41.3~174.8", Lat: -41.3, Lon: 174.8},
	}
	levels := [][]float64{{0.1, 0.2, 0.4}, {0.1, 0.2, 0.4}}
	h, err := schema.NewHazardTensor([]float64{750, 275}, sites, []string{"PGA", "SA(1.0)"}, levels, []float64{0.1, 0.9})
	require.NoError(t, err)
	for iv := range h.Vs30s {
		for is := range h.Sites {
			for im := range h.IMTs {
				for il, level := range levels[im] {
					for ist := range h.NumStats() {
						rate := 1e-3 * math.Pow(level, -2) * float64(1+iv+is+ist)
						h.Rates.Set(rate, iv, is, im, il, ist)
					}
				}
			}
		}
	}
	// a missing point on the grid site
	h.Rates.Set(math.NaN(), 1, 1, 1, 2, 0)

	acc := schema.NewTensor(math.NaN(), 2, 2, 2, 1, 3)
	for i := range acc.Data {
		acc.Data[i] = 0.01 * float64(i+1)
	}
	return &schema.HazardDataset{
		Curves:        h,
		ReturnPeriods: []int{500, 2500},
		Spectra: &schema.SpectraSet{
			Periods:       []float64{0, 1},
			IMTs:          []string{"PGA", "SA(1.0)"},
			ReturnPeriods: []int{500},
			Acc:           acc,
		},
		Meta: map[string]string{"source": "unit test"},
	}
}

func TestWriteReadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.parquet")
	ds := testDataset(t)
	require.NoError(t, WriteDataset(ds, path))

	got, err := NewReader().ReadDataset(context.Background(), path)
	require.NoError(t, err)

	opts := cmp.Options{cmpopts.EquateNaNs(), cmpopts.IgnoreUnexported(schema.Tensor{})}
	if diff := cmp.Diff(ds.Curves, got.Curves, opts); diff != "" {
		t.Errorf("curves mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ds.ReturnPeriods, got.ReturnPeriods)
	assert.Equal(t, ds.Meta, got.Meta)

	require.NotNil(t, got.Spectra)
	assert.Equal(t, ds.Spectra.Periods, got.Spectra.Periods)
	assert.Equal(t, ds.Spectra.ReturnPeriods, got.Spectra.ReturnPeriods)
	if diff := cmp.Diff(ds.Spectra.Acc.Data, got.Spectra.Acc.Data, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("spectra mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, got.Spectra.Vel, "velocity spectra are not stored")

	// the tensor remains addressable after the round trip
	assert.True(t, math.IsNaN(got.Curves.Rates.At(1, 1, 1, 2, 0)))
}

func TestWriteReadDatasetWithoutSpectra(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curves.parquet")
	ds := testDataset(t)
	ds.Spectra = nil
	require.NoError(t, WriteDataset(ds, path))

	got, err := NewReader().ReadDataset(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, got.Spectra)
	assert.Equal(t, ds.Curves.SiteNames(), got.Curves.SiteNames())
}

func TestWriteDatasetRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	assert.Error(t, WriteDataset(nil, path))
	assert.Error(t, WriteDataset(&schema.HazardDataset{}, path))
}

func TestReadDatasetErrors(t *testing.T) {
	dir := t.TempDir()

	notParquet := filepath.Join(dir, "curves.csv")
	require.NoError(t, os.WriteFile(notParquet, []byte("vs30,site\n"), 0o644))

	// a valid parquet file that is not a dataset
	runs := filepath.Join(dir, "runs.parquet")
	require.NoError(t, WriteDeriveRunsParquet([]DeriveRun{{RunID: 1}}, runs))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing file", filepath.Join(dir, "absent.parquet"), "no such file"},
		{"not parquet", notParquet, "not a parquet file"},
		{"not a dataset", runs, "unsupported dataset version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader().ReadDataset(context.Background(), tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadDatasetCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.parquet")
	require.NoError(t, WriteDataset(testDataset(t), path))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader().ReadDataset(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDatasetHash(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.parquet")
	b := filepath.Join(dir, "b.parquet")
	ds := testDataset(t)
	require.NoError(t, WriteDataset(ds, a))
	require.NoError(t, WriteDataset(ds, b))

	r := NewReader()
	hashA, err := r.DatasetHash(a)
	require.NoError(t, err)
	hashB, err := r.DatasetHash(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB, "identical datasets hash identically")
	assert.Len(t, hashA, 64)

	ds.Curves.Rates.Set(0.5, 0, 0, 0, 0, 0)
	require.NoError(t, WriteDataset(ds, b))
	hashB, err = r.DatasetHash(b)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB)

	_, err = r.DatasetHash(filepath.Join(dir, "absent.parquet"))
	assert.Error(t, err)
}

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		imt     string
		want    float64
		wantErr bool
	}{
		{"PGA", 0, false},
		{"SA(0.5)", 0.5, false},
		{"SA(10.0)", 10, false},
		{"SA0.5", 0, true},
		{"SA(x)", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.imt, func(t *testing.T) {
			got, err := periodOf(tt.imt)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testDataset(t))
	assert.Equal(t, 1, s.NamedSites)
	assert.Equal(t, 1, s.GridSites)
	assert.Equal(t, 3, s.LevelsPerIMT)
	assert.Equal(t, 1, s.MissingRates)
	assert.Equal(t, 2*2*2*3*3, s.TotalRates)
	assert.Equal(t, []int{500}, s.StoredSpectra)
	assert.True(t, strings.HasPrefix(s.Meta["source"], "unit"))
}

func TestPrintSummary(t *testing.T) {
	var buf strings.Builder
	PrintSummary(&buf, "nz.parquet", Summarize(testDataset(t)))
	out := buf.String()
	assert.Contains(t, out, "Dataset: nz.parquet")
	assert.Contains(t, out, "Sites: 1 named, 1 grid")
	assert.Contains(t, out, "Intensity Measures: PGA, SA(1.0)")
	assert.Contains(t, out, "Stored Spectra: [500]")
	assert.Contains(t, out, "Missing Rates: 1 of 72")
	assert.Contains(t, out, "  source: unit test")
}

//go:build basic

// Package integration contains end-to-end tests for the hazardtable CLI.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hazardtable/core"
	"github.com/huangsam/hazardtable/schema"
)

// noStores keeps the tests away from the user's cache and run history.
var noStores = []string{"HAZARDTABLE_CACHE_BACKEND=none", "HAZARDTABLE_RUNS_BACKEND=none"}

type publishedRow struct {
	Location     string   `json:"Location"`
	ReturnPeriod int      `json:"APoE (1/n)"`
	SiteClass    string   `json:"Site Class"`
	PGA          *float64 `json:"PGA"`
	Sas          *float64 `json:"Sas"`
	Tc           *float64 `json:"Tc"`
	Td           *float64 `json:"Td"`
}

// TestDeriveMatchesInProcess derives the demo table through the CLI and
// compares it with the same derivation run in process.
func TestDeriveMatchesInProcess(t *testing.T) {
	dir := t.TempDir()
	path := writeDemoDataset(t, dir, noStores)

	out, err := runCommand(t, dir, noStores, "derive", "--dataset", path, "--output", "json")
	require.NoError(t, err)

	var got []publishedRow
	require.NoError(t, json.Unmarshal(out, &got))

	d, err := core.DeriveTable(context.Background(), core.SyntheticDataset(), schema.DefaultDerivationSettings(), 2, core.NewMetrics())
	require.NoError(t, err)
	want := d.Rows()
	require.Len(t, got, len(want))

	for i, w := range want {
		g := got[i]
		assert.Equal(t, w.Location, g.Location)
		assert.Equal(t, w.ReturnPeriod, g.ReturnPeriod)
		assert.Equal(t, schema.SiteClassLabel(w.SiteClass), g.SiteClass)
		for _, pair := range []struct {
			name string
			want float64
			got  *float64
		}{{"PGA", w.PGA, g.PGA}, {"Sas", w.Sas, g.Sas}, {"Tc", w.Tc, g.Tc}, {"Td", w.Td, g.Td}} {
			require.NotNil(t, pair.got, "%s of %s", pair.name, w.Location)
			assert.InDelta(t, pair.want, *pair.got, 1e-9, "%s of %s", pair.name, w.Location)
		}
	}
}

func TestDeriveLocationKinds(t *testing.T) {
	dir := t.TempDir()
	path := writeDemoDataset(t, dir, noStores)

	out, err := runCommand(t, dir, noStores, "derive", "--dataset", path, "--output", "json", "--location-kind", "grid", "--return-periods", "500")
	require.NoError(t, err)

	var rows []publishedRow
	require.NoError(t, json.Unmarshal(out, &rows))
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Contains(t, r.Location, "~")
		assert.Equal(t, 500, r.ReturnPeriod)
	}
}

func TestSpectrumCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeDemoDataset(t, dir, noStores)

	out, err := runCommand(t, dir, noStores, "spectrum", "--dataset", path, "--location", "Wellington", "--apoe", "1/500", "--periods", "0,0.5,1", "--output", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4, "header plus one line per period")
	assert.True(t, strings.HasPrefix(lines[0], "Location,APoE (1/n),Period"))
	assert.True(t, strings.HasSuffix(lines[0], "Envelope"))

	out, err = runCommand(t, dir, noStores, "spectrum", "params", "--pga", "0.4", "--sas", "0.9", "--tc", "0.45", "--td", "3", "--periods", "0,0.2,1", "--output", "json")
	require.NoError(t, err)
	var resp struct {
		Periods []float64 `json:"periods"`
		Series  []struct {
			Values []float64 `json:"values"`
		} `json:"series"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Len(t, resp.Series, 1)
	want := core.SpectrumFromParameters(0.4, 0.9, 0.45, 3, []float64{0, 0.2, 1}, 3)
	assert.InDeltaSlice(t, want, resp.Series[0].Values, 1e-12)
}

func TestDatasetInspectAndDiagnostics(t *testing.T) {
	dir := t.TempDir()
	path := writeDemoDataset(t, dir, noStores)

	out, err := runCommand(t, dir, noStores, "dataset", "inspect", "--dataset", path, "--output", "json")
	require.NoError(t, err)
	var summary struct {
		NamedSites    int   `json:"named_sites"`
		GridSites     int   `json:"grid_sites"`
		StoredSpectra []int `json:"stored_spectra_return_periods"`
	}
	require.NoError(t, json.Unmarshal(out, &summary))
	assert.Equal(t, 3, summary.NamedSites)
	assert.Equal(t, 1, summary.GridSites)
	assert.True(t, slices.Equal(schema.DefaultReturnPeriods, summary.StoredSpectra))

	out, err = runCommand(t, dir, noStores, "diagnostics", "--dataset", path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "All hazard curves are well formed")
}

func TestInvalidFlagsFail(t *testing.T) {
	dir := t.TempDir()
	_, err := runCommand(t, dir, noStores, "derive", "--output", "xml")
	assert.Error(t, err)
	_, err = runCommand(t, dir, noStores, "derive", "--dataset", "absent.parquet")
	assert.Error(t, err)
}

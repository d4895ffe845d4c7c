package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hazardtable/core"
	"github.com/huangsam/hazardtable/internal/contract"
	mcp_internal "github.com/huangsam/hazardtable/internal/mcp"
	"github.com/huangsam/hazardtable/internal/parquet"
	"github.com/huangsam/hazardtable/schema"
)

const datasetPath = "nz.parquet"

func newTestServer(t *testing.T, reader contract.DatasetReader) func(name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	baseCfg := &contract.Config{
		DatasetPath: datasetPath,
		Workers:     2,
		Precision:   3,
		Settings:    schema.DefaultDerivationSettings(),
		Spectrum:    contract.SpectrumConfig{Periods: []float64{0, 0.5, 1, 3}},
	}
	s := mcp_internal.NewMCPServer(baseCfg, reader, nil)

	return func(name string, args map[string]any) *mcp.CallToolResult {
		tool := s.GetTool(name)
		require.NotNil(t, tool, "Tool %s should exist", name)
		res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{Name: name, Arguments: args},
		})
		require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
		require.NotNil(t, res)
		return res
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func demoReader() *parquet.MockDatasetReader {
	reader := &parquet.MockDatasetReader{}
	reader.On("ReadDataset", mock.Anything, datasetPath).Return(core.SyntheticDataset(), nil)
	return reader
}

func TestGetSiteParameters(t *testing.T) {
	call := newTestServer(t, demoReader())
	res := call("get_site_parameters", map[string]any{
		"locations":     "Wellington",
		"site_classes":  "IV",
		"return_period": 500.0,
	})
	require.False(t, res.IsError, resultText(t, res))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Wellington", rows[0]["Location"])
	assert.Equal(t, "Site Class IV", rows[0]["Site Class"])
	assert.NotNil(t, rows[0]["Td"])
}

func TestGetSiteParametersGrid(t *testing.T) {
	call := newTestServer(t, demoReader())
	res := call("get_site_parameters", map[string]any{"location_kind": "grid", "return_period": 2500.0})
	require.False(t, res.IsError)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rows))
	assert.Len(t, rows, 6)
}

func TestCreateSpectrum(t *testing.T) {
	call := newTestServer(t, nil)
	res := call("create_spectrum", map[string]any{"pga": 0.4, "sas": 0.9, "tc": 0.5, "td": 3.0, "periods": "0,0.3,1"})
	require.False(t, res.IsError, resultText(t, res))

	var got struct {
		Periods []float64 `json:"periods"`
		Series  []struct {
			Values []float64 `json:"values"`
		} `json:"series"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, []float64{0, 0.3, 1}, got.Periods)
	require.Len(t, got.Series, 1)
	assert.Equal(t, []float64{0.4, 0.9, 0.45}, got.Series[0].Values)
}

func TestCreateEnvelopedSpectra(t *testing.T) {
	call := newTestServer(t, demoReader())
	res := call("create_enveloped_spectra", map[string]any{
		"location":      "Christchurch",
		"return_period": 500.0,
		"site_classes":  "I,VI",
	})
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), `"envelope"`)
	assert.Contains(t, resultText(t, res), `"label": "VI"`)
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	failing := &parquet.MockDatasetReader{}
	failing.On("ReadDataset", mock.Anything, "missing.parquet").Return(nil, errors.New("no such file"))
	call := newTestServer(t, failing)

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr string
	}{
		{"spectrum without td", "create_spectrum", map[string]any{"pga": 0.4, "sas": 0.9, "tc": 0.5}, "must be positive"},
		{"spectrum bad periods", "create_spectrum", map[string]any{"pga": 0.4, "sas": 0.9, "tc": 0.5, "td": 3.0, "periods": "0,abc"}, "invalid period"},
		{"enveloped without location", "create_enveloped_spectra", map[string]any{"return_period": 500.0, "dataset_path": "missing.parquet"}, "--location is required"},
		{"unreadable dataset", "get_site_parameters", map[string]any{"dataset_path": "missing.parquet"}, "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(t, res), tt.wantErr)
		})
	}
}

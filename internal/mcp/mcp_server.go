// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/hazardtable/internal/contract"
)

// NewMCPServer initializes and configures the hazard table MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, reader contract.DatasetReader, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Hazard Table Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		reader:  reader,
		mgr:     mgr,
	}

	// --- 1. Tool: get_site_parameters ---
	s.AddTool(mcp.NewTool("get_site_parameters",
		mcp.WithDescription("Derive seismic design parameters (PGA, Sas, Tc, Td) from the hazard dataset."),
		mcp.WithString("dataset_path", mcp.Description("Path to the hazard dataset parquet file (defaults to the configured dataset).")),
		mcp.WithString("locations", mcp.Description("Comma-separated location names or lat~lon grid ids. Defaults to every location.")),
		mcp.WithString("location_kind", mcp.Description("Restrict to named locations or grid points."), mcp.Enum("all", "named", "grid")),
		mcp.WithString("site_classes", mcp.Description("Comma-separated site class keys, e.g. 'I,IV'.")),
		mcp.WithNumber("return_period", mcp.Description("Return period in years, e.g. 500 for APoE 1/500.")),
	), h.handleGetSiteParameters)

	// --- 2. Tool: create_spectrum ---
	s.AddTool(mcp.NewTool("create_spectrum",
		mcp.WithDescription("Build the code design spectrum of a set of design parameters."),
		mcp.WithNumber("pga", mcp.Description("Peak ground acceleration (g)."), mcp.Required()),
		mcp.WithNumber("sas", mcp.Description("Short-period spectral acceleration (g)."), mcp.Required()),
		mcp.WithNumber("tc", mcp.Description("Spectral-acceleration plateau corner period (s)."), mcp.Required()),
		mcp.WithNumber("td", mcp.Description("Spectral-velocity plateau corner period (s)."), mcp.Required()),
		mcp.WithString("periods", mcp.Description("Comma-separated periods in seconds. Defaults to 0 to 10 s.")),
	), h.handleCreateSpectrum)

	// --- 3. Tool: create_enveloped_spectra ---
	s.AddTool(mcp.NewTool("create_enveloped_spectra",
		mcp.WithDescription("Build the design spectrum of each site class at one location and their envelope."),
		mcp.WithString("location", mcp.Description("Location name or lat~lon grid id."), mcp.Required()),
		mcp.WithNumber("return_period", mcp.Description("Return period in years."), mcp.Required()),
		mcp.WithString("site_classes", mcp.Description("Comma-separated site class keys. Defaults to every derived class.")),
		mcp.WithString("periods", mcp.Description("Comma-separated periods in seconds.")),
		mcp.WithString("dataset_path", mcp.Description("Path to the hazard dataset parquet file.")),
	), h.handleCreateEnvelopedSpectra)

	return s
}

// StartMCPServer starts the hazard table MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, reader contract.DatasetReader, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, reader, mgr)
	return server.ServeStdio(s)
}

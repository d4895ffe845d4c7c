package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/hazardtable/core"
	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/outwriter"
	"github.com/huangsam/hazardtable/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	reader  contract.DatasetReader
	mgr     contract.CacheManager
}

// applyCommon copies the shared dataset and site class arguments onto cfg.
func applyCommon(cfg *contract.Config, request mcp.CallToolRequest) error {
	if p := request.GetString("dataset_path", ""); p != "" {
		cfg.DatasetPath = p
	}
	if cfg.DatasetPath == "" {
		return fmt.Errorf("dataset_path is required when no dataset is configured")
	}
	if sc := request.GetString("site_classes", ""); sc != "" {
		cfg.SiteClasses = contract.ParseStringList(sc)
	}
	if p := request.GetString("periods", ""); p != "" {
		periods, err := contract.ParsePeriods(p)
		if err != nil {
			return err
		}
		cfg.Spectrum.Periods = periods
	}
	return nil
}

func (h *toolHandler) handleGetSiteParameters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyCommon(cfg, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if l := request.GetString("locations", ""); l != "" {
		cfg.Locations = contract.ParseStringList(l)
	}
	if k := request.GetString("location_kind", ""); k != "" {
		cfg.LocationKind = k
	}

	rows, err := core.GetSiteParameters(core.WithSuppressHeader(ctx), cfg, h.reader, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("derivation failed: %v", err)), nil
	}
	if rp := request.GetInt("return_period", 0); rp > 0 {
		selected := rows[:0]
		for _, r := range rows {
			if r.ReturnPeriod == rp {
				selected = append(selected, r)
			}
		}
		rows = selected
	}

	var buf bytes.Buffer
	if err := outwriter.WriteJSONTable(&buf, rows, cfg.Diagnostics); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) handleCreateSpectrum(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Spectrum = contract.SpectrumConfig{
		PGA:     request.GetFloat("pga", 0),
		Sas:     request.GetFloat("sas", 0),
		Tc:      request.GetFloat("tc", 0),
		Td:      request.GetFloat("td", 0),
		Periods: schema.DefaultSpectrumPeriods(),
	}
	if p := request.GetString("periods", ""); p != "" {
		periods, err := contract.ParsePeriods(p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
		}
		cfg.Spectrum.Periods = periods
	}

	spectra, err := core.CodeSpectrum(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	return spectraResult(spectra), nil
}

func (h *toolHandler) handleCreateEnvelopedSpectra(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := applyCommon(cfg, request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	cfg.Spectrum.Location = request.GetString("location", "")
	cfg.Spectrum.ReturnPeriod = request.GetInt("return_period", 0)
	if len(cfg.Spectrum.Periods) == 0 {
		cfg.Spectrum.Periods = schema.DefaultSpectrumPeriods()
	}

	spectra, err := core.GetEnvelopedSpectra(core.WithSuppressHeader(ctx), cfg, h.reader, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("spectra failed: %v", err)), nil
	}
	return spectraResult(spectra), nil
}

func spectraResult(spectra *schema.EnvelopedSpectra) *mcp.CallToolResult {
	var buf bytes.Buffer
	if err := outwriter.WriteJSONSpectra(&buf, spectra); err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(buf.String())
}

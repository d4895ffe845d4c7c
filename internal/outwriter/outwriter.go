// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

var _ contract.OutputWriter = &OutWriter{} // Compile-time check

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteTable prints published parameter rows using the configured output format.
func (ow *OutWriter) WriteTable(rows []schema.FlatRow, cfg *contract.Config, duration time.Duration) error {
	return WriteTableResults(rows, cfg, duration)
}

// WriteSpectra prints enveloped spectra using the configured output format.
func (ow *OutWriter) WriteSpectra(spectra *schema.EnvelopedSpectra, cfg *contract.Config) error {
	return WriteSpectraResults(spectra, cfg)
}

// WriteDiagnostics prints malformed hazard curves using the configured output format.
func (ow *OutWriter) WriteDiagnostics(malformed []schema.MalformedCurve, cfg *contract.Config) error {
	return WriteDiagnosticsResults(malformed, cfg)
}

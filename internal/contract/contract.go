// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/hazardtable/schema"
)

// DatasetReader loads the persisted hazard dataset.
// This allows the derivation pipeline to be tested without dataset files.
type DatasetReader interface {
	// ReadDataset loads curves, return periods and any stored spectra.
	ReadDataset(ctx context.Context, path string) (*schema.HazardDataset, error)

	// DatasetHash returns a content hash of the dataset, used in cache keys.
	DatasetHash(path string) (string, error)
}

// OutputWriter renders results in the configured output format.
// This allows the pipeline to be tested without touching stdout or files.
type OutputWriter interface {
	WriteTable(rows []schema.FlatRow, cfg *Config, duration time.Duration) error
	WriteSpectra(spectra *schema.EnvelopedSpectra, cfg *Config) error
	WriteDiagnostics(malformed []schema.MalformedCurve, cfg *Config) error
}

// CacheManager defines the interface for managing stores.
// This allows the store layer to be mocked for testing.
type CacheManager interface {
	GetTableStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for derived-table cache storage.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking derive runs and their published rows.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, datasetPath string, settings map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalRows int) error

	// RecordRows stores the published rows of a run
	RecordRows(runID int64, rows []schema.FlatRow) error

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetRunRows returns the rows of one run; a runID of 0 returns the rows of every run
	GetRunRows(runID int64) ([]schema.RunRowRecord, error)

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// Close closes the underlying connection
	Close() error
}

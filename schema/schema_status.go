package schema

import "time"

// CacheStatus represents the status of the derived-table cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the run history store.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRows     int              `json:"total_rows"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the derivation runs table.
type RunRecord struct {
	RunID          int64
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	DatasetPath    string
	TotalRows      int32
	SettingsParams *string
}

// RunRowRecord represents one published parameter row stored for a run.
type RunRowRecord struct {
	RunID        int64
	Location     string
	ReturnPeriod int32
	SiteClass    string
	PGA          float64
	Sas          float64
	PSV          float64
	Tc           float64
	Td           float64
	PGAFloor     bool
	SasFloor     bool
	PSVFloor     bool
	TdFloor      bool
}

package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/schema"
)

// Table names for run history.
const (
	deriveRunsTable = "hazardtable_derive_runs"
	runRowsTable    = "hazardtable_run_rows"
)

// runRowColumns lists the run row columns in insert and select order.
const runRowColumns = `run_id, location, return_period, site_class, pga, sas, psv, tc, td,
	pga_floor, sas_floor, psv_floor, td_floor`

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run history tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{deriveRunsTable, getCreateDeriveRunsQuery(backend)},
		{runRowsTable, getCreateRunRowsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateDeriveRunsQuery returns the CREATE TABLE query for hazardtable_derive_runs.
func getCreateDeriveRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(deriveRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				dataset_path VARCHAR(1024) NOT NULL,
				total_rows INT NOT NULL DEFAULT 0,
				settings_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				dataset_path TEXT NOT NULL,
				total_rows INT NOT NULL DEFAULT 0,
				settings_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				dataset_path TEXT NOT NULL,
				total_rows INTEGER NOT NULL DEFAULT 0,
				settings_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRunRowsQuery returns the CREATE TABLE query for hazardtable_run_rows.
// Parameters are nullable because missing hazard propagates as NaN.
func getCreateRunRowsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runRowsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				location VARCHAR(255) NOT NULL,
				return_period INT NOT NULL,
				site_class VARCHAR(16) NOT NULL,
				pga DOUBLE, sas DOUBLE, psv DOUBLE, tc DOUBLE, td DOUBLE,
				pga_floor BOOLEAN NOT NULL,
				sas_floor BOOLEAN NOT NULL,
				psv_floor BOOLEAN NOT NULL,
				td_floor BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, location, return_period, site_class)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				location TEXT NOT NULL,
				return_period INT NOT NULL,
				site_class TEXT NOT NULL,
				pga DOUBLE PRECISION, sas DOUBLE PRECISION, psv DOUBLE PRECISION,
				tc DOUBLE PRECISION, td DOUBLE PRECISION,
				pga_floor BOOLEAN NOT NULL,
				sas_floor BOOLEAN NOT NULL,
				psv_floor BOOLEAN NOT NULL,
				td_floor BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, location, return_period, site_class)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				location TEXT NOT NULL,
				return_period INTEGER NOT NULL,
				site_class TEXT NOT NULL,
				pga REAL, sas REAL, psv REAL, tc REAL, td REAL,
				pga_floor INTEGER NOT NULL,
				sas_floor INTEGER NOT NULL,
				psv_floor INTEGER NOT NULL,
				td_floor INTEGER NOT NULL,
				PRIMARY KEY (run_id, location, return_period, site_class)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, datasetPath string, settings map[string]any) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal settings: %w", err)
	}

	quotedTableName := quoteTableName(deriveRunsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, dataset_path, settings_params) VALUES ($1, $2, $3) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, startTime, datasetPath, string(settingsJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, dataset_path, settings_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), datasetPath, string(settingsJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		runID, err = result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalRows int) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(deriveRunsTable, rs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholders(rs.backend, 1))
	startTime, err := rs.scanTime(rs.db.QueryRow(query, runID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	var updateQuery string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_rows = $3 WHERE run_id = $4`, quotedTableName)
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_rows = ? WHERE run_id = ?`, quotedTableName)
	}
	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, totalRows, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordRows stores the published rows of a run in one transaction.
func (rs *RunStoreImpl) RecordRows(runID int64, rows []schema.FlatRow) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil || len(rows) == 0 {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(runRowsTable, rs.backend), runRowColumns, placeholders(rs.backend, 13))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		_, err := stmt.Exec(
			runID, r.Location, r.ReturnPeriod, r.SiteClass,
			nullableFloat(r.PGA), nullableFloat(r.Sas), nullableFloat(r.PSV), nullableFloat(r.Tc), nullableFloat(r.Td),
			r.PGAFloor, r.SasFloor, r.PSVFloor, r.TdFloor,
		)
		if err != nil {
			return fmt.Errorf("failed to insert row %s/%d/%s: %w", r.Location, r.ReturnPeriod, r.SiteClass, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(deriveRunsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", runsTable))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}
		last, err := rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = last
		oldest, err := rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_rows), 0) FROM %s", runsTable))
		if err := row.Scan(&status.TotalRows); err != nil {
			return status, fmt.Errorf("failed to get total rows: %w", err)
		}
	}

	for _, table := range []string{deriveRunsTable, runRowsTable} {
		var count int64
		row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, dataset_path, total_rows, settings_params
		FROM %s ORDER BY run_id`, quoteTableName(deriveRunsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord

		switch rs.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.RunID, &startTimeStr, &endTimeStr, &record.RunDurationMs, &record.DatasetPath, &record.TotalRows, &record.SettingsParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			startTime, err := time.Parse(time.RFC3339Nano, startTimeStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = startTime
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.DatasetPath, &record.TotalRows, &record.SettingsParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetRunRows retrieves the rows of one run, or of every run when runID is 0.
func (rs *RunStoreImpl) GetRunRows(runID int64) ([]schema.RunRowRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, runRowColumns, quoteTableName(runRowsTable, rs.backend))
	var args []any
	if runID != 0 {
		query += " WHERE run_id = " + placeholders(rs.backend, 1)
		args = append(args, runID)
	}
	query += " ORDER BY run_id, return_period, site_class, location"

	rows, err := rs.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRowRecord
	for rows.Next() {
		var r schema.RunRowRecord
		var pga, sas, psv, tc, td sql.NullFloat64
		if err := rows.Scan(&r.RunID, &r.Location, &r.ReturnPeriod, &r.SiteClass,
			&pga, &sas, &psv, &tc, &td,
			&r.PGAFloor, &r.SasFloor, &r.PSVFloor, &r.TdFloor); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.PGA, r.Sas, r.PSV, r.Tc, r.Td = floatOrNaN(pga), floatOrNaN(sas), floatOrNaN(psv), floatOrNaN(tc), floatOrNaN(td)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return results, nil
}

// scanTime reads a timestamp column stored as RFC3339 text (SQLite) or a native datetime.
func (rs *RunStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if rs.backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

//go:build database

package integration

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/huangsam/hazardtable/internal/iocache"
	"github.com/huangsam/hazardtable/schema"
)

func startMySQL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "hazardtable",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlC.Terminate(ctx) })

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	return fmt.Sprintf("root:secret123@tcp(%s:%s)/hazardtable?parseTime=true&multiStatements=true", host, port.Port())
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
}

// TestCLIWithMySQL runs the cache and run history commands against MySQL.
func TestCLIWithMySQL(t *testing.T) {
	exerciseCLI(t, "mysql", startMySQL(t))
}

// TestCLIWithPostgres runs the cache and run history commands against PostgreSQL.
func TestCLIWithPostgres(t *testing.T) {
	exerciseCLI(t, "postgresql", startPostgres(t))
}

func exerciseCLI(t *testing.T, backend, connStr string) {
	dir := t.TempDir()
	env := []string{
		"HAZARDTABLE_CACHE_BACKEND=" + backend,
		"HAZARDTABLE_CACHE_DB_CONNECT=" + connStr,
		"HAZARDTABLE_RUNS_BACKEND=" + backend,
		"HAZARDTABLE_RUNS_DB_CONNECT=" + connStr,
	}
	path := writeDemoDataset(t, dir, env)

	steps := [][]string{
		{"cache", "clear"},
		{"runs", "clear"},
		{"runs", "migrate"},
		{"derive", "--dataset", path, "--output", "csv"},
		{"derive", "--dataset", path, "--output", "csv"}, // served from the cache
		{"cache", "status"},
		{"runs", "status"},
		{"runs", "export", "--output-file", filepath.Join(dir, "history")},
	}
	for _, args := range steps {
		_, err := runCommand(t, dir, env, args...)
		require.NoError(t, err, "hazardtable %v", args)
	}

	for _, suffix := range []string{".derive_runs.parquet", ".run_rows.parquet"} {
		info, err := os.Stat(filepath.Join(dir, "history"+suffix))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

// TestRunStoreRoundTrip records a run directly and reads it back.
func TestRunStoreRoundTrip(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		start   func(*testing.T) string
	}{
		{schema.MySQLBackend, startMySQL},
		{schema.PostgreSQLBackend, startPostgres},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store, err := iocache.NewRunStore(tt.backend, tt.start(t))
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			runID, err := store.BeginRun(start, "demo.parquet", map[string]any{"apply_rounding": true})
			require.NoError(t, err)
			require.Positive(t, runID)

			rows := []schema.FlatRow{
				{Location: "Wellington", ReturnPeriod: 500, SiteClass: "IV", PGA: 0.55, Sas: 1.2, Tc: 0.48, Td: 3.1, PSV: 0.9, PGAFloor: true},
				{Location: "-41.3~174.8", ReturnPeriod: 500, SiteClass: "IV", PGA: math.NaN(), Sas: 1.1, Tc: 0.5, Td: 3.0, PSV: 0.8},
			}
			require.NoError(t, store.RecordRows(runID, rows))
			require.NoError(t, store.EndRun(runID, start.Add(time.Minute), len(rows)))

			got, err := store.GetRunRows(runID)
			require.NoError(t, err)
			require.Len(t, got, 2)
			// rows come back ordered by location
			assert.Equal(t, "-41.3~174.8", got[0].Location)
			assert.True(t, math.IsNaN(got[0].PGA), "missing values come back as NaN")
			assert.InDelta(t, 0.55, got[1].PGA, 1e-12)
			assert.True(t, got[1].PGAFloor)

			status, err := store.GetStatus()
			require.NoError(t, err)
			assert.Equal(t, 1, status.TotalRuns)
			assert.EqualValues(t, 2, status.TotalRows)
		})
	}
}

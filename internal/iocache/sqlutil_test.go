package iocache

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/huangsam/hazardtable/schema"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "hazardtable_table_cache", false},
		{"leading underscore", "_cache", false},
		{"mixed case with digits", "Cache2", false},
		{"empty", "", true},
		{"leading digit", "2cache", true},
		{"space", "table cache", true},
		{"quote", `cache"`, true},
		{"semicolon", "cache;", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`runs`", quoteTableName("runs", schema.MySQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 3))
	assert.Equal(t, "?", placeholders(schema.MySQLBackend, 1))
	assert.Equal(t, "$1, $2", placeholders(schema.PostgreSQLBackend, 2))
	assert.Equal(t, "", placeholders(schema.SQLiteBackend, 0))
}

func TestDriverFor(t *testing.T) {
	for backend, want := range map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	} {
		got, err := driverFor(backend)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverFor(schema.NoneBackend)
	assert.Error(t, err)
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)
	assert.Equal(t, "2026-02-03T04:05:06.000000007Z", formatTime(ts, schema.SQLiteBackend))
	assert.Equal(t, ts, formatTime(ts, schema.PostgreSQLBackend))
}

func TestNullableFloat(t *testing.T) {
	assert.False(t, nullableFloat(math.NaN()).Valid)
	assert.False(t, nullableFloat(math.Inf(1)).Valid)
	v := nullableFloat(0.25)
	assert.True(t, v.Valid)
	assert.InDelta(t, 0.25, floatOrNaN(v), 0)
	assert.True(t, math.IsNaN(floatOrNaN(nullableFloat(math.NaN()))))
}

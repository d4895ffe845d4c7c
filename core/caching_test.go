package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/internal/iocache"
	"github.com/huangsam/hazardtable/internal/parquet"
	"github.com/huangsam/hazardtable/schema"
)

const demoPath = "demo.parquet"

func useFakeClock(t *testing.T) *clockwork.FakeClock {
	t.Helper()
	fc := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	SetClock(fc)
	t.Cleanup(func() { SetClock(nil) })
	return fc
}

func testConfig() *contract.Config {
	return &contract.Config{
		DatasetPath: demoPath,
		Workers:     2,
		Precision:   3,
		Settings:    schema.DefaultDerivationSettings(),
		Spectrum:    contract.SpectrumConfig{Periods: []float64{0, 0.5, 1, 2}},
	}
}

func demoReader() *parquet.MockDatasetReader {
	reader := &parquet.MockDatasetReader{}
	reader.On("ReadDataset", mock.Anything, demoPath).Return(SyntheticDataset(), nil)
	reader.On("DatasetHash", demoPath).Return("feedface", nil)
	return reader
}

func TestCachedDeriveTableMissThenHit(t *testing.T) {
	fc := useFakeClock(t)
	cfg := testConfig()
	reader := demoReader()

	store := &iocache.MockCacheStore{}
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetTableStore").Return(store)

	key, err := generateCacheKey(cfg, reader)
	require.NoError(t, err)

	var stored []byte
	store.On("Get", key).Return(nil, 0, int64(0), errors.New("not found")).Once()
	store.On("Set", key, mock.Anything, currentCacheVersion, fc.Now().Unix()).
		Run(func(args mock.Arguments) { stored = args.Get(1).([]byte) }).
		Return(nil).Once()

	m := NewMetrics()
	first, err := cachedDeriveTable(context.Background(), cfg, reader, mgr, m)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	require.NotEmpty(t, stored)

	fc.Advance(24 * time.Hour)
	store.On("Get", key).Return(stored, currentCacheVersion, fc.Now().Add(-24*time.Hour).Unix(), nil).Once()
	second, err := cachedDeriveTable(context.Background(), cfg, reader, mgr, m)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.LowerBound, second.LowerBound)
	if diff := cmp.Diff(first.Table.Snapshot(), second.Table.Snapshot(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("cached table differs:\n%s", diff)
	}

	store.AssertExpectations(t)
	reader.AssertNumberOfCalls(t, "ReadDataset", 1)
}

func TestCheckCacheHitRejects(t *testing.T) {
	fc := useFakeClock(t)
	now := fc.Now().Unix()
	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
	}{
		{"store error", nil, 0, 0, errors.New("boom")},
		{"old version", []byte{0x80}, currentCacheVersion + 1, now, nil},
		{"stale", []byte{0x80}, currentCacheVersion, now - int64((maxCacheAge+time.Hour)/time.Second), nil},
		{"corrupt payload", []byte("not msgpack"), currentCacheVersion, now, nil},
		{"empty table", []byte{0x80}, currentCacheVersion, now, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", "k").Return(tt.data, tt.version, tt.ts, tt.err)
			assert.Nil(t, checkCacheHit(store, "k"))
		})
	}
}

func TestGenerateCacheKey(t *testing.T) {
	cfg := testConfig()
	reader := demoReader()

	a, err := generateCacheKey(cfg, reader)
	require.NoError(t, err)
	assert.Len(t, a, 64)

	again, err := generateCacheKey(cfg.Clone(), reader)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	changed := cfg.Clone()
	changed.Settings.ApplyRounding = false
	b, err := generateCacheKey(changed, reader)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "settings are part of the key")

	// output options do not invalidate the cache
	output := cfg.Clone()
	output.Output = schema.CSVOut
	c, err := generateCacheKey(output, reader)
	require.NoError(t, err)
	assert.Equal(t, a, c)

	broken := &parquet.MockDatasetReader{}
	broken.On("DatasetHash", demoPath).Return("", errors.New("no file"))
	_, err = generateCacheKey(cfg, broken)
	assert.Error(t, err)
}

func TestCachedDeriveTableWithoutStore(t *testing.T) {
	reader := demoReader()
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetTableStore").Return(nil)

	d, err := cachedDeriveTable(context.Background(), testConfig(), reader, mgr, NewMetrics())
	require.NoError(t, err)
	assert.False(t, d.CacheHit)
	reader.AssertNotCalled(t, "DatasetHash", demoPath)
}

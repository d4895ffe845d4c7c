package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/schema"
)

// currentCacheVersion defines the version of the cached derivation layout
const currentCacheVersion = 1

// maxCacheAge bounds how long a cached derivation is trusted
const maxCacheAge = 30 * 24 * time.Hour

// cachedDerivation is the msgpack form of a Derivation.
type cachedDerivation struct {
	Table      schema.TableSnapshot    `msgpack:"table"`
	Malformed  []schema.MalformedCurve `msgpack:"malformed"`
	LowerBound LowerBoundReport        `msgpack:"lower_bound"`
	Replicated []schema.LocationRule   `msgpack:"replicated"`
	Missing    []string                `msgpack:"missing"`
}

// cachedDeriveTable derives the table, going through the table cache when one is configured.
func cachedDeriveTable(ctx context.Context, cfg *contract.Config, reader contract.DatasetReader, mgr contract.CacheManager, m *Metrics) (*Derivation, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetTableStore()
	}
	if store == nil {
		// Fallback to direct computation
		return deriveFromFile(ctx, cfg, reader, m)
	}

	key, err := generateCacheKey(cfg, reader)
	if err != nil {
		contract.LogWarn("Cannot hash dataset, skipping cache", err)
		return deriveFromFile(ctx, cfg, reader, m)
	}

	// Check for cache hit
	if d := checkCacheHit(store, key); d != nil {
		m.TableCache.WithLabelValues("hit").Inc()
		return d, nil
	}

	// Cache miss: compute and store
	m.TableCache.WithLabelValues("miss").Inc()
	return computeAndStore(ctx, cfg, reader, store, key, m)
}

func deriveFromFile(ctx context.Context, cfg *contract.Config, reader contract.DatasetReader, m *Metrics) (*Derivation, error) {
	ds, err := reader.ReadDataset(ctx, cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return DeriveTable(ctx, ds, cfg.Settings, cfg.Workers, m)
}

// checkCacheHit attempts to retrieve and validate a cached derivation
func checkCacheHit(store contract.CacheStore, key string) *Derivation {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || clock.Since(time.Unix(ts, 0)) > maxCacheAge {
		return nil
	}
	var c cachedDerivation
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return nil
	}
	table := schema.FromSnapshot(c.Table)
	if table == nil || table.Len() == 0 {
		return nil
	}
	return &Derivation{
		Table:       table,
		Diagnostics: &BatchDiagnostics{Malformed: c.Malformed},
		LowerBound:  c.LowerBound,
		Replicated:  c.Replicated,
		Missing:     c.Missing,
		CacheHit:    true,
	}
}

// computeAndStore derives the table and stores it in the cache
func computeAndStore(ctx context.Context, cfg *contract.Config, reader contract.DatasetReader, store contract.CacheStore, key string, m *Metrics) (*Derivation, error) {
	d, err := deriveFromFile(ctx, cfg, reader, m)
	if err != nil {
		return nil, err
	}

	c := cachedDerivation{
		Table:      d.Table.Snapshot(),
		Malformed:  d.Diagnostics.Malformed,
		LowerBound: d.LowerBound,
		Replicated: d.Replicated,
		Missing:    d.Missing,
	}
	if data, err := msgpack.Marshal(&c); err == nil {
		if err := store.Set(key, data, currentCacheVersion, clock.Now().Unix()); err != nil {
			contract.LogWarn("Cannot store derived table", err)
		}
	}
	return d, nil
}

// generateCacheKey hashes the dataset contents together with the derivation settings.
func generateCacheKey(cfg *contract.Config, reader contract.DatasetReader) (string, error) {
	datasetHash, err := reader.DatasetHash(cfg.DatasetPath)
	if err != nil {
		return "", err
	}
	settings, err := json.Marshal(cfg.Settings)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:%d:%s", datasetHash, currentCacheVersion, settings)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}

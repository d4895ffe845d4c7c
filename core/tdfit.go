package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/huangsam/hazardtable/core/algo"
	"github.com/huangsam/hazardtable/schema"
)

// tdJob is one row of the table and the statistic whose spectrum it is fitted against.
type tdJob struct {
	key  schema.RowKey
	stat int
}

// tdResult carries the outcome of one fit back from a worker.
type tdResult struct {
	key schema.RowKey
	fit algo.TdFit
	err error
}

// FitTdTable fits Td for every row of the table against the mean spectra using
// a pool of workers. Each row is written by exactly one owner. Rows with
// missing parameters keep a NaN Td; an empty search domain is fatal.
func FitTdTable(ctx context.Context, table *schema.ParameterTable, l *Layout, search schema.TdSearch, workers int, m *Metrics) error {
	keys := table.Keys()
	jobs := make([]tdJob, len(keys))
	for i, k := range keys {
		jobs[i] = tdJob{key: k, stat: meanStat}
	}
	results := fitTdJobs(ctx, table, l, jobs, search, workers, m)

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		table.Row(r.key.Site, r.key.ReturnPeriod, r.key.SiteClass).Td = r.fit.Td
	}
	return errors.Join(errs...)
}

// fitTdJobs runs the jobs through a worker pool and returns one result per job.
func fitTdJobs(ctx context.Context, table *schema.ParameterTable, l *Layout, jobs []tdJob, search schema.TdSearch, workers int, m *Metrics) []tdResult {
	jobCh := make(chan tdJob, len(jobs))
	resultCh := make(chan tdResult, len(jobs))
	var wg sync.WaitGroup

	for range max(workers, 1) {
		wg.Go(func() {
			for job := range jobCh {
				if err := ctx.Err(); err != nil {
					resultCh <- tdResult{key: job.key, err: err}
					continue
				}
				row := *table.Row(job.key.Site, job.key.ReturnPeriod, job.key.SiteClass)
				resultCh <- fitTdRow(l, job, row, search, m)
			}
		})
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	results := make([]tdResult, 0, len(jobs))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

// fitTdRow fits a single row. The row value is a copy; callers write the result.
func fitTdRow(l *Layout, job tdJob, row schema.ParameterRow, search schema.TdSearch, m *Metrics) tdResult {
	if math.IsNaN(row.PGA) || math.IsNaN(row.Sas) || math.IsNaN(row.Tc) {
		m.TdFits.WithLabelValues("skipped").Inc()
		return tdResult{key: job.key, fit: algo.TdFit{Td: math.NaN(), Score: math.NaN()}}
	}
	iv, is, ir, err := l.index(job.key)
	if err != nil {
		return tdResult{key: job.key, err: err}
	}
	spectrum := l.Spectra.AccSpectrum(iv, is, ir, job.stat)

	start := clock.Now()
	fit, err := algo.FitTd(l.Spectra.Periods, spectrum, row.PGA, row.Sas, row.Tc, search)
	m.TdFitDuration.Observe(clock.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, algo.ErrEmptyDomain) {
			m.TdFits.WithLabelValues("empty_domain").Inc()
		}
		return tdResult{key: job.key, err: fmt.Errorf("fitting Td for %s (Tc=%.3f): %w", job.key, row.Tc, err)}
	}
	m.TdFits.WithLabelValues("fitted").Inc()
	return tdResult{key: job.key, fit: fit}
}

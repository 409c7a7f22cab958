// Package pipeline drives a batch of tables through extraction and hands
// each document to the configured sinks. One table failing never stops the
// others.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"filing_tables/pkg/core/extract"
	"filing_tables/pkg/core/table"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sink receives the document of every table that extracted successfully.
type Sink interface {
	WriteDocument(ctx context.Context, runID string, doc *extract.Document) error
}

// Stager receives every cleaned table before projection.
type Stager interface {
	WriteStaging(t *table.Table) error
}

// TableError records why one table was skipped.
type TableError struct {
	Index int
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %d: %v", e.Index, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

// Summary reports the outcome of a run.
type Summary struct {
	RunID     string
	Processed int
	Succeeded int
	// Warned counts successful tables whose document carries warnings.
	Warned   int
	Failures []*TableError
	Duration time.Duration
}

// Print writes a human readable report of the run.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Run %s finished in %v\n", s.RunID, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Tables processed: %d\n", s.Processed)
	fmt.Fprintf(w, "  Succeeded:        %d (%d with warnings)\n", s.Succeeded, s.Warned)
	fmt.Fprintf(w, "  Failed:           %d\n", len(s.Failures))
	for _, f := range s.Failures {
		fmt.Fprintf(w, "    - %v\n", f)
	}
}

const (
	defaultWorkers      = 4
	defaultTableTimeout = 30 * time.Second
)

// Runner processes tables concurrently with a bounded number of workers.
type Runner struct {
	extractor *extract.Extractor
	sinks     []Sink
	stager    Stager
	metrics   *Metrics
	workers   int
	timeout   time.Duration

	// stageMu guards stagingOpen. Dumps take the read lock, so a run can only
	// close staging once no dump is in flight.
	stageMu     sync.RWMutex
	stagingOpen bool
}

// NewRunner creates a runner writing every document to each of sinks.
func NewRunner(extractor *extract.Extractor, sinks ...Sink) *Runner {
	return &Runner{
		extractor: extractor,
		sinks:     sinks,
		workers:   defaultWorkers,
		timeout:   defaultTableTimeout,
	}
}

// SetStager enables dumping cleaned tables.
func (r *Runner) SetStager(s Stager) {
	r.stager = s
}

// SetMetrics enables outcome counting.
func (r *Runner) SetMetrics(m *Metrics) {
	r.metrics = m
}

// SetWorkers bounds concurrency. Values below one mean sequential.
func (r *Runner) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	r.workers = n
}

// SetTableTimeout bounds the time spent on one table. Zero disables it.
func (r *Runner) SetTableTimeout(d time.Duration) {
	r.timeout = d
}

type outcome struct {
	doc *extract.Document
	err error
}

// Run processes all tables and returns the summary. It only fails when ctx
// is cancelled before the batch completes; per-table problems are reported
// in the summary.
func (r *Runner) Run(ctx context.Context, tables []*table.Table) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString(), Processed: len(tables)}
	log.Printf("[Pipeline] Run %s: processing %d tables with %d workers", summary.RunID, len(tables), r.workers)

	r.setStagingOpen(true)
	// Abandoned extractions must not dump after the run, when the caller may
	// already be clearing the staging directory.
	defer r.setStagingOpen(false)

	results := make([]outcome, len(tables))
	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, t := range tables {
		if err := ctx.Err(); err != nil {
			g.Wait()
			return nil, fmt.Errorf("run cancelled: %w", err)
		}
		// Go blocks while every worker is busy.
		g.Go(func() error {
			start := time.Now()
			doc, err := r.processTable(ctx, summary.RunID, t)
			results[i] = outcome{doc: doc, err: err}
			r.metrics.observe(start, results[i])
			return nil
		})
	}
	g.Wait()

	for i, res := range results {
		if res.err != nil {
			summary.Failures = append(summary.Failures, &TableError{Index: tables[i].Index, Err: res.err})
			continue
		}
		summary.Succeeded++
		if len(res.doc.Warnings) > 0 {
			summary.Warned++
		}
	}
	sort.Slice(summary.Failures, func(a, b int) bool {
		return summary.Failures[a].Index < summary.Failures[b].Index
	})

	summary.Duration = time.Since(start)
	log.Printf("[Pipeline] Run %s: %d/%d tables succeeded", summary.RunID, summary.Succeeded, summary.Processed)
	return summary, nil
}

func (r *Runner) processTable(ctx context.Context, runID string, t *table.Table) (*extract.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// Extraction is pure CPU work; run it aside so a stuck table only costs
	// its own slot until the deadline.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("panic during extraction: %v", p)}
			}
		}()
		doc, err := r.extract(ctx, t)
		done <- outcome{doc: doc, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		log.Printf("[Pipeline] Table %d: abandoned: %v", t.Index, ctx.Err())
		return nil, ctx.Err()
	}
	if res.err != nil {
		log.Printf("[Pipeline] Table %d: skipped: %v", t.Index, res.err)
		return nil, res.err
	}

	for _, sink := range r.sinks {
		if err := sink.WriteDocument(ctx, runID, res.doc); err != nil {
			log.Printf("[Pipeline] Table %d: failed to write document: %v", t.Index, err)
			return nil, fmt.Errorf("failed to write document: %w", err)
		}
	}
	return res.doc, nil
}

func (r *Runner) extract(ctx context.Context, raw *table.Table) (*extract.Document, error) {
	cleaned := r.extractor.Clean(raw)
	r.stage(ctx, cleaned)
	return r.extractor.ExtractCleaned(cleaned)
}

func (r *Runner) setStagingOpen(open bool) {
	r.stageMu.Lock()
	defer r.stageMu.Unlock()
	r.stagingOpen = open
}

// stage dumps a cleaned table unless its time is up or the run has ended.
func (r *Runner) stage(ctx context.Context, cleaned *table.Table) {
	if r.stager == nil {
		return
	}
	r.stageMu.RLock()
	defer r.stageMu.RUnlock()
	if !r.stagingOpen || ctx.Err() != nil {
		log.Printf("[Pipeline] Table %d: skipping staging dump, table abandoned", cleaned.Index)
		return
	}
	if err := r.stager.WriteStaging(cleaned); err != nil {
		log.Printf("[Pipeline] Table %d: staging dump failed: %v", cleaned.Index, err)
	}
}

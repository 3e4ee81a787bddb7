package crossref

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchResult is an ordered association from raw query to response. Keys keep
// their first-appearance order; a repeated query keeps the later response.
type BatchResult struct {
	keys      []string
	responses map[string]*SearchResponse
}

func newBatchResult(capacity int) *BatchResult {
	return &BatchResult{
		keys:      make([]string, 0, capacity),
		responses: make(map[string]*SearchResponse, capacity),
	}
}

func (b *BatchResult) put(query string, resp *SearchResponse) {
	if _, ok := b.responses[query]; !ok {
		b.keys = append(b.keys, query)
	}
	b.responses[query] = resp
}

// Keys returns the distinct queries in first-appearance order.
func (b *BatchResult) Keys() []string {
	return b.keys
}

// Get returns the response for a query.
func (b *BatchResult) Get(query string) (*SearchResponse, bool) {
	resp, ok := b.responses[query]
	return resp, ok
}

// Len returns the number of distinct queries.
func (b *BatchResult) Len() int {
	return len(b.keys)
}

// Each calls fn for every entry in order.
func (b *BatchResult) Each(fn func(query string, resp *SearchResponse)) {
	for _, k := range b.keys {
		fn(k, b.responses[k])
	}
}

// SearchBatch runs Search for each query in order. Queries share nothing.
func (e *Engine) SearchBatch(queries []string) *BatchResult {
	out := newBatchResult(len(queries))
	for _, q := range queries {
		resp := e.Search(q)
		resp.IsBatch = true
		out.put(q, resp)
	}
	return out
}

// Searcher runs one query.
type Searcher interface {
	Search(raw string) *SearchResponse
}

// ProgressFunc reports completed and total query counts.
type ProgressFunc func(done, total int)

// BatchProcessor runs batches concurrently with a bounded worker count.
type BatchProcessor struct {
	searcher   Searcher
	maxWorkers int
	timeout    time.Duration
	progress   ProgressFunc
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(searcher Searcher, maxWorkers int, timeout time.Duration) *BatchProcessor {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BatchProcessor{
		searcher:   searcher,
		maxWorkers: maxWorkers,
		timeout:    timeout,
	}
}

// OnProgress registers a callback invoked after each query completes. It may
// be called from several goroutines.
func (bp *BatchProcessor) OnProgress(fn ProgressFunc) *BatchProcessor {
	bp.progress = fn
	return bp
}

// ProcessParallel searches all queries concurrently and assembles the same
// association SearchBatch would: the later index wins for repeated queries.
func (bp *BatchProcessor) ProcessParallel(ctx context.Context, queries []string) (*BatchResult, error) {
	if len(queries) == 0 {
		return newBatchResult(0), nil
	}

	processCtx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	responses := make([]*SearchResponse, len(queries))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(processCtx)
	g.SetLimit(bp.maxWorkers)

	for i, q := range queries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp := bp.searcher.Search(q)
			resp.IsBatch = true
			responses[i] = resp

			if bp.progress != nil {
				bp.progress(int(done.Add(1)), len(queries))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch processing aborted: %w", err)
	}
	if err := processCtx.Err(); err != nil {
		return nil, fmt.Errorf("batch processing timeout after %v: %w", bp.timeout, err)
	}

	out := newBatchResult(len(queries))
	for i, q := range queries {
		out.put(q, responses[i])
	}
	return out, nil
}

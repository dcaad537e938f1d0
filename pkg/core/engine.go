package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"rankdb/pkg/common"
	"rankdb/pkg/config"
	"rankdb/pkg/core/topk"
	"rankdb/pkg/monitor"
	"rankdb/pkg/storage"
)

// Engine runs ranking queries over one sealed IndexSet and archives each run
// in the background when a storage backend is configured.
type Engine struct {
	set     *IndexSet
	source  string
	backend storage.Backend
	stats   *monitor.WorkloadStats
	runCh   chan *storage.Run
	closeCh chan struct{}
	dropped uint64
	wg      sync.WaitGroup
	once    sync.Once
	conf    *config.Config
}

// NewEngine seals set if needed. set may be nil for an engine that only
// joins; backend may be nil to disable archiving. source names the table in
// archived runs.
func NewEngine(cfg *config.Config, set *IndexSet, source string, backend storage.Backend) *Engine {
	if set != nil {
		set.Seal()
	}
	e := &Engine{
		set:     set,
		source:  source,
		backend: backend,
		stats:   monitor.NewWorkloadStats(),
		closeCh: make(chan struct{}),
		conf:    cfg,
	}
	if backend != nil {
		e.runCh = make(chan *storage.Run, 64)
		e.wg.Add(1)
		go e.backgroundPersist()
	}
	if set != nil {
		log.Printf("[Engine] Ready: %d records, %d attributes, id index height %d",
			set.Len(), set.AttributeCount(), set.Height())
	}
	return e
}

func (e *Engine) IndexSet() *IndexSet { return e.set }

// Rank runs a ranking strategy and returns its result, best first.
func (e *Engine) Rank(ctx context.Context, strategy topk.Strategy, weights []float64, k int) (*topk.Result, error) {
	if e.set == nil {
		return nil, common.ErrNotSealed
	}
	start := time.Now()

	var (
		res *topk.Result
		err error
	)
	switch strategy {
	case topk.Threshold:
		res, err = topk.ThresholdAlgorithm(ctx, e.set, weights, k)
	case topk.Naive:
		res, err = topk.NaiveScan(ctx, e.set, weights, k, topk.Options{Workers: e.conf.Ranking.Workers})
	default:
		return nil, fmt.Errorf("%w: %v does not rank a single table", common.ErrUnknownStrategy, strategy)
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	e.stats.RecordQuery(res.Stats.Scored, res.Stats.SortedAccesses, res.Stats.EarlyStop)
	log.Printf("[Rank] %v k=%d: scored %d/%d records, %d sorted accesses, early stop %v (%v)",
		strategy, k, res.Stats.Scored, e.set.Len(), res.Stats.SortedAccesses, res.Stats.EarlyStop, elapsed)

	if e.runCh != nil {
		e.archive(&storage.Run{
			Strategy:       strategy.String(),
			K:              k,
			Weights:        append([]float64(nil), weights...),
			Source:         e.source,
			Scored:         res.Stats.Scored,
			SortedAccesses: res.Stats.SortedAccesses,
			EarlyStop:      res.Stats.EarlyStop,
			Elapsed:        elapsed,
			CreatedAt:      start,
			Results:        res.Entries,
		})
	}
	return res, nil
}

// archive queues run for the persist loop. Runs finished after Close are
// counted and dropped.
func (e *Engine) archive(run *storage.Run) {
	select {
	case <-e.closeCh:
		atomic.AddUint64(&e.dropped, 1)
		log.Printf("[Engine] Closed, %s run not archived", run.Strategy)
		return
	default:
	}
	select {
	case e.runCh <- run:
	case <-e.closeCh:
		atomic.AddUint64(&e.dropped, 1)
		log.Printf("[Engine] Closed, %s run not archived", run.Strategy)
	}
}

// Join runs the co-occurrence join over sources.
func (e *Engine) Join(ctx context.Context, sources []*topk.Source) ([]topk.JoinMatch, error) {
	start := time.Now()
	matches, err := topk.CoOccurrenceJoin(ctx, sources)
	if err != nil {
		return nil, err
	}
	e.stats.RecordJoin()
	for _, s := range sources {
		st := s.Stats()
		log.Printf("[Join] Source %s: %v rows, bloom %v bits / %v hashes",
			s.Name, st["rows"], st["bloom_bits_size"], st["bloom_hashes"])
	}
	log.Printf("[Join] %d sources: %d matches (%v)", len(sources), len(matches), time.Since(start))
	return matches, nil
}

// Get returns every attribute of key in header order.
func (e *Engine) Get(key common.KeyType) ([]common.ValueType, error) {
	if e.set == nil {
		return nil, common.ErrNotSealed
	}
	e.stats.RecordLookup()
	return e.set.Row(key)
}

// Value returns one attribute of key.
func (e *Engine) Value(attr int, key common.KeyType) (common.ValueType, error) {
	if e.set == nil {
		return 0, common.ErrNotSealed
	}
	e.stats.RecordLookup()
	return e.set.Value(attr, key)
}

// Recent lists archived runs, newest first.
func (e *Engine) Recent(limit int) ([]storage.Run, error) {
	if e.backend == nil {
		return nil, nil
	}
	return e.backend.Recent(limit)
}

func (e *Engine) backgroundPersist() {
	defer e.wg.Done()

	save := func(run *storage.Run) {
		if _, err := e.backend.SaveRun(run); err != nil {
			log.Printf("[Engine] Archive run error: %v", err)
		}
	}

	for {
		select {
		case run := <-e.runCh:
			save(run)
		case <-e.closeCh:
			for {
				select {
				case run := <-e.runCh:
					save(run)
				default:
					return
				}
			}
		}
	}
}

// Close flushes pending archive writes. It does not close the backend.
// Rank still works afterwards but its runs are no longer archived.
func (e *Engine) Close() {
	e.once.Do(func() {
		close(e.closeCh)
		e.wg.Wait()
	})
}

func (e *Engine) Stats() map[string]interface{} {
	snap := e.stats.Snapshot()
	pending := 0
	if e.runCh != nil {
		pending = len(e.runCh)
	}
	stats := map[string]interface{}{
		"queries":          snap.Queries,
		"joins":            snap.Joins,
		"lookups":          snap.Lookups,
		"scored":           snap.Scored,
		"sorted_accesses":  snap.SortedAccesses,
		"early_stops":      snap.EarlyStops,
		"early_stop_ratio": snap.EarlyStopRatio,
		"pending_archives": pending,
		"dropped_archives": atomic.LoadUint64(&e.dropped),
		"archiving":        e.backend != nil,
		"workers":          e.conf.Ranking.Workers,
	}
	if e.set != nil {
		stats["records"] = e.set.Len()
		stats["attributes"] = e.set.AttributeCount()
		stats["header"] = e.set.Header()
		stats["id_index_height"] = e.set.Height()
	}
	return stats
}

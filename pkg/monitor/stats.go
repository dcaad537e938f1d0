package monitor

import (
	"sync/atomic"
)

// WorkloadStats counts ranking work across runs. Safe for concurrent use.
type WorkloadStats struct {
	QueryCount     uint64
	JoinCount      uint64
	LookupCount    uint64
	ScoredCount    uint64
	SortedAccesses uint64
	EarlyStops     uint64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Queries        uint64  `json:"queries"`
	Joins          uint64  `json:"joins"`
	Lookups        uint64  `json:"lookups"`
	Scored         uint64  `json:"scored"`
	SortedAccesses uint64  `json:"sorted_accesses"`
	EarlyStops     uint64  `json:"early_stops"`
	EarlyStopRatio float64 `json:"early_stop_ratio"`
}

func NewWorkloadStats() *WorkloadStats {
	return &WorkloadStats{}
}

// RecordQuery adds one ranking run and the work it reported.
func (ws *WorkloadStats) RecordQuery(scored, sortedAccesses int, earlyStop bool) {
	atomic.AddUint64(&ws.QueryCount, 1)
	atomic.AddUint64(&ws.ScoredCount, uint64(scored))
	atomic.AddUint64(&ws.SortedAccesses, uint64(sortedAccesses))
	if earlyStop {
		atomic.AddUint64(&ws.EarlyStops, 1)
	}
}

func (ws *WorkloadStats) RecordJoin() {
	atomic.AddUint64(&ws.JoinCount, 1)
}

func (ws *WorkloadStats) RecordLookup() {
	atomic.AddUint64(&ws.LookupCount, 1)
}

// GetEarlyStopRatio is the share of ranking runs that stopped before a full scan.
func (ws *WorkloadStats) GetEarlyStopRatio() float64 {
	queries := atomic.LoadUint64(&ws.QueryCount)
	if queries == 0 {
		return 0.0
	}
	return float64(atomic.LoadUint64(&ws.EarlyStops)) / float64(queries)
}

func (ws *WorkloadStats) Snapshot() Snapshot {
	return Snapshot{
		Queries:        atomic.LoadUint64(&ws.QueryCount),
		Joins:          atomic.LoadUint64(&ws.JoinCount),
		Lookups:        atomic.LoadUint64(&ws.LookupCount),
		Scored:         atomic.LoadUint64(&ws.ScoredCount),
		SortedAccesses: atomic.LoadUint64(&ws.SortedAccesses),
		EarlyStops:     atomic.LoadUint64(&ws.EarlyStops),
		EarlyStopRatio: ws.GetEarlyStopRatio(),
	}
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"rankdb/pkg/common"

	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one archived ranking run.
type Run struct {
	ID             int64              `json:"id"`
	Strategy       string             `json:"strategy"`
	K              int                `json:"k"`
	Weights        []float64          `json:"weights"`
	Source         string             `json:"source"`
	Scored         int                `json:"scored"`
	SortedAccesses int                `json:"sorted_accesses"`
	EarlyStop      bool               `json:"early_stop"`
	Elapsed        time.Duration      `json:"elapsed_ns"`
	CreatedAt      time.Time          `json:"created_at"`
	Results        []common.ScoredKey `json:"results,omitempty"`
}

// Backend archives ranking runs. Implementations must be safe for concurrent use.
type Backend interface {
	SaveRun(run *Run) (int64, error)
	LoadRun(id int64) (*Run, error)
	Recent(limit int) ([]Run, error) // newest first, without results
	Truncate() error
	Close()
}

type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		strategy TEXT NOT NULL,
		k INTEGER NOT NULL,
		weights BLOB NOT NULL,
		source TEXT NOT NULL,
		scored INTEGER NOT NULL,
		sorted_accesses INTEGER NOT NULL,
		early_stop INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS run_results (
		run_id INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		key INTEGER NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (run_id, rank)
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Printf("[Storage] Warning: Failed to set PRAGMA: %v", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// SaveRun writes the run and its results in one transaction and returns the new id.
func (s *SQLiteBackend) SaveRun(run *Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	weights, err := encodeWeights(run.Weights)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}

	res, err := tx.Exec(`INSERT INTO runs
		(strategy, k, weights, source, scored, sorted_accesses, early_stop, elapsed_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Strategy, run.K, weights, run.Source,
		run.Scored, run.SortedAccesses, boolToInt(run.EarlyStop), int64(run.Elapsed), run.CreatedAt.UnixNano())
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	stmt, err := tx.Prepare("INSERT INTO run_results (run_id, rank, key, score) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for i, r := range run.Results {
		if _, err := stmt.Exec(id, i, int64(r.Key), r.Score); err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	run.ID = id
	return id, nil
}

func (s *SQLiteBackend) LoadRun(id int64) (*Run, error) {
	row := s.db.QueryRow(`SELECT id, strategy, k, weights, source, scored, sorted_accesses,
		early_stop, elapsed_ns, created_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT key, score FROM run_results WHERE run_id = ? ORDER BY rank ASC", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var k int64
		var score float64
		if err := rows.Scan(&k, &score); err != nil {
			return nil, err
		}
		run.Results = append(run.Results, common.ScoredKey{Key: common.KeyType(k), Score: score})
	}
	return run, rows.Err()
}

func (s *SQLiteBackend) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, strategy, k, weights, source, scored, sorted_accesses,
		early_stop, elapsed_ns, created_at FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run       Run
		weights   []byte
		earlyStop int64
		elapsed   int64
		createdAt int64
	)
	err := sc.Scan(&run.ID, &run.Strategy, &run.K, &weights, &run.Source,
		&run.Scored, &run.SortedAccesses, &earlyStop, &elapsed, &createdAt)
	if err != nil {
		return nil, err
	}
	if run.Weights, err = decodeWeights(weights); err != nil {
		return nil, fmt.Errorf("run %d: %w", run.ID, err)
	}
	run.EarlyStop = earlyStop != 0
	run.Elapsed = time.Duration(elapsed)
	run.CreatedAt = time.Unix(0, createdAt)
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Weights are stored as a msgpack array so they round-trip bit for bit.
func encodeWeights(ws []float64) ([]byte, error) {
	return msgpack.Marshal(ws)
}

func decodeWeights(b []byte) ([]float64, error) {
	var ws []float64
	if err := msgpack.Unmarshal(b, &ws); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	return ws, nil
}

func (s *SQLiteBackend) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM run_results"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM runs")
	return err
}

func (s *SQLiteBackend) Close() {
	s.db.Close()
}

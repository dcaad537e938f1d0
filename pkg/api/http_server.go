package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rankdb/pkg/common"
	"rankdb/pkg/config"
	"rankdb/pkg/core"
	"rankdb/pkg/core/topk"
	"rankdb/pkg/storage"
)

type Server struct {
	engine *core.Engine
	conf   *config.Config
}

func NewServer(engine *core.Engine, cfg *config.Config) *Server {
	return &Server{engine: engine, conf: cfg}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/topk", s.handleTopK)
	mux.HandleFunc("/api/get", s.handleGet)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/runs", s.handleRuns)
	return mux
}

func (s *Server) Start(addr string) error {
	log.Printf("[API] Server listening on %s...", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrKeyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrUnknownStrategy),
		errors.Is(err, common.ErrWeightCountMismatch),
		errors.Is(err, common.ErrNegativeWeight),
		errors.Is(err, common.ErrInvalidK),
		errors.Is(err, common.ErrMalformedInput):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type rankedRow struct {
	Key    common.KeyType     `json:"key"`
	Score  float64            `json:"score"`
	Values []common.ValueType `json:"values"`
}

func (s *Server) handleTopK(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	q := r.URL.Query()

	name := q.Get("strategy")
	if name == "" {
		name = s.conf.Ranking.DefaultStrategy
	}
	strategy, err := topk.ParseStrategy(name)
	if err != nil {
		writeError(w, err)
		return
	}

	k := s.conf.Ranking.DefaultK
	if ks := q.Get("k"); ks != "" {
		if k, err = strconv.Atoi(ks); err != nil {
			writeError(w, common.NewInputError("k", 0, "", err))
			return
		}
	}

	weights, err := parseWeights(q.Get("weights"), s.engine.IndexSet().AttributeCount())
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	res, err := s.engine.Rank(r.Context(), strategy, weights, k)
	if err != nil {
		writeError(w, err)
		return
	}
	duration := time.Since(start)

	rows := make([]rankedRow, 0, len(res.Entries))
	for _, e := range res.Entries {
		vals, _ := s.engine.IndexSet().Row(e.Key)
		rows = append(rows, rankedRow{Key: e.Key, Score: e.Score, Values: vals})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategy":   res.Strategy.String(),
		"k":          res.K,
		"header":     s.engine.IndexSet().Header(),
		"results":    rows,
		"stats":      res.Stats,
		"latency_ns": duration.Nanoseconds(),
	})
}

// parseWeights reads "w1,w2,..."; an empty string weights every attribute 1.
func parseWeights(s string, n int) ([]float64, error) {
	if s == "" {
		ws := make([]float64, n)
		for i := range ws {
			ws[i] = 1
		}
		return ws, nil
	}
	parts := strings.Split(s, ",")
	ws := make([]float64, len(parts))
	for i, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, common.NewInputError("weights", 0, "", err)
		}
		ws[i] = w
	}
	return ws, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	q := r.URL.Query()

	keyInt, err := strconv.ParseInt(q.Get("key"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid key", http.StatusBadRequest)
		return
	}
	key := common.KeyType(keyInt)
	header := s.engine.IndexSet().Header()

	start := time.Now()
	if attr := q.Get("attr"); attr != "" {
		idx := -1
		for i, h := range header[1:] {
			if strings.EqualFold(h, attr) {
				idx = i
				break
			}
		}
		if idx < 0 {
			http.Error(w, "Unknown attribute", http.StatusBadRequest)
			return
		}
		val, err := s.engine.Value(idx, key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"key":        key,
			"attr":       header[idx+1],
			"value":      val,
			"latency_ns": time.Since(start).Nanoseconds(),
		})
		return
	}

	row, err := s.engine.Get(key)
	if err != nil {
		writeError(w, err)
		return
	}
	values := make(map[string]common.ValueType, len(row))
	for i, v := range row {
		values[header[i+1]] = v
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":        key,
		"values":     values,
		"latency_ns": time.Since(start).Nanoseconds(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		n, err := strconv.Atoi(ls)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.engine.Recent(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

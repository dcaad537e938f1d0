package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"rankdb/pkg/api"
	"rankdb/pkg/common"
	"rankdb/pkg/config"
	"rankdb/pkg/core"
)

func TestDialInvalidAddr(t *testing.T) {
	if _, err := Dial("localhost:9090"); err == nil {
		t.Fatal("expected error for address without http scheme")
	}
	if _, err := Dial("://bad"); err == nil {
		t.Fatal("expected error for unparsable address")
	}
}

func startServer(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{
		Index:   config.IndexConfig{Fanout: 4},
		Ranking: config.RankingConfig{Workers: 1, DefaultStrategy: "threshold", DefaultK: 3},
	}
	set, err := core.NewIndexSet([]string{"id", "A", "B"}, 4)
	if err != nil {
		t.Fatalf("NewIndexSet: %v", err)
	}
	set.Insert(1, []common.ValueType{10, 5})
	set.Insert(2, []common.ValueType{20, 15})
	set.Insert(3, []common.ValueType{30, 25})
	engine := core.NewEngine(cfg, set, "scenario", nil)
	t.Cleanup(engine.Close)

	ts := httptest.NewServer(api.NewServer(engine, cfg).Handler())
	t.Cleanup(ts.Close)

	c, err := Dial(ts.URL + "/")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestTopKAndGet(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	resp, err := c.TopK(ctx, "run2", 1, []float64{1, 1})
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if resp.Strategy != "naive" || len(resp.Results) != 1 || resp.Results[0].Key != 3 || resp.Results[0].Score != 55 {
		t.Fatalf("TopK: got %+v", resp)
	}

	resp, err = c.TopK(ctx, "", 0, nil)
	if err != nil {
		t.Fatalf("TopK defaults: %v", err)
	}
	if resp.K != 3 || len(resp.Results) != 3 || resp.Results[2].Key != 1 {
		t.Fatalf("TopK defaults: got %+v", resp)
	}

	vals, err := c.Get(ctx, 1)
	if err != nil || vals["A"] != 10 || vals["B"] != 5 {
		t.Fatalf("Get(1): got (%v, %v)", vals, err)
	}

	if _, err := c.Get(ctx, 99); !errors.Is(err, common.ErrKeyNotFound) {
		t.Fatalf("Get(99): got %v, want ErrKeyNotFound", err)
	}
	if _, err := c.TopK(ctx, "run9", 1, nil); !errors.Is(err, common.ErrMalformedInput) {
		t.Fatalf("TopK(run9): got %v, want ErrMalformedInput", err)
	}
}

func TestStatsAndRuns(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	if _, err := c.TopK(ctx, "threshold", 1, nil); err != nil {
		t.Fatalf("TopK: %v", err)
	}
	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["queries"].(float64) != 1 {
		t.Fatalf("Stats: got %v", stats)
	}

	runs, err := c.Runs(ctx, 5)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("Runs without archive: got %v", runs)
	}
}

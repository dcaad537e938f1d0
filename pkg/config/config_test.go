package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/rankdb.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
	// Load with empty path uses default search (may use defaults if no config file)
	cfg, _ := Load("")
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr: got %s", cfg.Server.Addr)
	}
	if cfg.Index.Fanout != 4 {
		t.Errorf("default fanout: got %d", cfg.Index.Fanout)
	}
	if cfg.Ranking.Workers != 1 {
		t.Errorf("default workers: got %d", cfg.Ranking.Workers)
	}
	if cfg.Ranking.DefaultStrategy != "threshold" {
		t.Errorf("default strategy: got %s", cfg.Ranking.DefaultStrategy)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
index:
  fanout: 16
ranking:
  workers: 4
  default_strategy: run2
  default_k: 3
storage:
  path: "runs.db"
server:
  addr: ":9000"
  table: "data/table.csv.gz"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Index.Fanout != 16 {
		t.Errorf("fanout: got %d", cfg.Index.Fanout)
	}
	if cfg.Ranking.Workers != 4 || cfg.Ranking.DefaultStrategy != "run2" || cfg.Ranking.DefaultK != 3 {
		t.Errorf("ranking: got %+v", cfg.Ranking)
	}
	if cfg.Storage.Path != "runs.db" {
		t.Errorf("storage path: got %s", cfg.Storage.Path)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.Table != "data/table.csv.gz" {
		t.Errorf("server: got %+v", cfg.Server)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	content := `
index:
  fanout: 5
ranking:
  workers: -2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Index.Fanout != 4 {
		t.Errorf("odd fanout not replaced: got %d", cfg.Index.Fanout)
	}
	if cfg.Ranking.Workers != 1 {
		t.Errorf("negative workers not replaced: got %d", cfg.Ranking.Workers)
	}
}

package main

import (
	"flag"
	"log"

	"rankdb/pkg/api"
	"rankdb/pkg/config"
	"rankdb/pkg/core"
	"rankdb/pkg/ingest"
	"rankdb/pkg/storage"
)

// main 加载一张表并通过 HTTP 提供 top-k 查询。
func main() {
	configPath := flag.String("config", "", "YAML config file")
	table := flag.String("table", "", "CSV table to serve (overrides server.table)")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Server] Load config: %v", err)
	}
	if *table != "" {
		cfg.Server.Table = *table
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Server.Table == "" {
		log.Fatal("[Server] No table configured: set server.table or pass -table")
	}

	set, err := ingest.LoadTable(cfg.Server.Table, cfg.Index.Fanout)
	if err != nil {
		log.Fatalf("[Server] %v", err)
	}

	var backend storage.Backend
	if cfg.Storage.Path != "" {
		b, err := storage.NewSQLiteBackend(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("[Server] %v", err)
		}
		defer b.Close()
		backend = b
	}

	engine := core.NewEngine(cfg, set, cfg.Server.Table, backend)
	defer engine.Close()

	if err := api.NewServer(engine, cfg).Start(cfg.Server.Addr); err != nil {
		log.Printf("[Server] %v", err)
	}
}

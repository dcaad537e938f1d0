package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"rankdb/pkg/common"
	"rankdb/pkg/config"
	"rankdb/pkg/core"
	"rankdb/pkg/core/topk"
	"rankdb/pkg/ingest"
	"rankdb/pkg/query"
	"rankdb/pkg/report"
	"rankdb/pkg/storage"
)

const usage = `usage: cli [-config file] [-workers n] [-fanout m] [-db file] K N

Reads from stdin:
  <run1|run2|run3> <w1> ... <wN>
  FROM <file>[,<file>...] [WHERE <src>.<col>=<src>.<col> ...]

run1 ranks with the threshold algorithm, run2 scans every record,
run3 joins the files on their shared keys.`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("[CLI] %v", err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprintln(fs.Output(), usage) }
	configPath := fs.String("config", "", "YAML config file (default: configs/rankdb.yaml or rankdb.yaml)")
	workers := fs.Int("workers", 0, "NaiveScan workers (overrides ranking.workers)")
	fanout := fs.Int("fanout", 0, "B-tree fan-out (overrides index.fanout)")
	dbPath := fs.String("db", "", "SQLite run history (overrides storage.path)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("%w: want K and N, got %d arguments", common.ErrMalformedInput, fs.NArg())
	}
	k, err := strconv.Atoi(fs.Arg(0))
	if err != nil || k < 1 {
		return fmt.Errorf("%w: K=%q", common.ErrInvalidK, fs.Arg(0))
	}
	n, err := strconv.Atoi(fs.Arg(1))
	if err != nil || n < 0 {
		return fmt.Errorf("%w: N=%q", common.ErrMalformedInput, fs.Arg(1))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *workers > 0 {
		cfg.Ranking.Workers = *workers
	}
	if *fanout > 0 {
		cfg.Index.Fanout = *fanout
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	req, err := query.ReadRequest(stdin, n)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	var backend storage.Backend
	if cfg.Storage.Path != "" && req.Strategy != topk.CoOccurrence {
		b, err := storage.NewSQLiteBackend(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer b.Close()
		backend = b
	}

	ctx := context.Background()
	if req.Strategy == topk.CoOccurrence {
		return runJoin(ctx, cfg, req, stdout)
	}

	path := req.From.Files[0]
	set, err := ingest.LoadTable(path, cfg.Index.Fanout)
	if err != nil {
		return err
	}
	if set.AttributeCount() != n {
		return fmt.Errorf("%w: N=%d but %s has %d attributes", common.ErrWeightCountMismatch, n, path, set.AttributeCount())
	}

	engine := core.NewEngine(cfg, set, path, backend)
	defer engine.Close()

	res, err := engine.Rank(ctx, req.Strategy, req.Weights, k)
	if err != nil {
		return err
	}
	return report.WriteRanking(stdout, set, res.Entries)
}

func runJoin(ctx context.Context, cfg *config.Config, req *query.Request, stdout io.Writer) error {
	refs, err := req.From.Sources()
	if err != nil {
		return err
	}
	specs := make([]ingest.SourceSpec, len(refs))
	for i, r := range refs {
		specs[i] = ingest.SourceSpec{Path: r.Path, Name: r.Name, Column: r.Column}
	}
	sources, err := ingest.LoadSources(specs)
	if err != nil {
		return err
	}

	engine := core.NewEngine(cfg, nil, "", nil)
	defer engine.Close()

	matches, err := engine.Join(ctx, sources)
	if err != nil {
		return err
	}
	return report.WriteJoin(stdout, sources, matches)
}

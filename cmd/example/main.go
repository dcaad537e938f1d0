package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"rankdb/pkg/client"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "rankdb HTTP server")
	flag.Parse()

	fmt.Println("Connecting to rankdb...")
	cli, err := client.Dial(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer cli.Close()
	ctx := context.Background()

	for _, strategy := range []string{"threshold", "naive"} {
		start := time.Now()
		resp, err := cli.TopK(ctx, strategy, 5, nil)
		if err != nil {
			log.Fatalf("TopK failed: %v", err)
		}
		fmt.Printf("Top %d by %s (scored %d records, in %v):\n", resp.K, resp.Strategy, resp.Stats.Scored, time.Since(start))
		fmt.Printf("  %s\tScore\n", strings.Join(resp.Header, "\t"))
		for _, r := range resp.Results {
			fmt.Printf("  %d", r.Key)
			for _, v := range r.Values {
				fmt.Printf("\t%d", v)
			}
			fmt.Printf("\t%g\n", r.Score)
		}
	}

	stats, err := cli.Stats(ctx)
	if err != nil {
		log.Fatalf("Stats failed: %v", err)
	}
	fmt.Printf("Server stats: %v\n", stats)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"sprint-mcp/cmd/mockgen/engine"
	"sprint-mcp/internal/snapshot"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, late")
	dsn := flag.String("dsn", "sqlite:./.cache/snapshots.db", "Snapshot store to write to (file:, sqlite: or postgres://)")
	sprintID := flag.Int("sprint", 9000, "Sprint ID of the synthetic sprint")
	count := flag.Int("count", 40, "Number of issues to generate")
	days := flag.Int("days", 12, "Sprint length in calendar days")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		SprintID: *sprintID,
		Count:    *count,
		Days:     *days,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Sprint: %d, Count: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.SprintID, cfg.Count, cfg.Seed, *dsn)

	ctx := context.Background()
	if err := os.MkdirAll("./.cache", 0755); err != nil {
		fmt.Printf("Failed to create cache directory: %v\n", err)
		os.Exit(1)
	}
	store, err := snapshot.Open(ctx, *dsn)
	if err != nil {
		fmt.Printf("Failed to open snapshot store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	sprint, issues := engine.Generate(cfg)
	if err := engine.Save(ctx, store, sprint, issues); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}

// cmd/tools/score-seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cosmetic-insights/internal/common/config"
	"cosmetic-insights/internal/common/database"
	"cosmetic-insights/internal/sources/ingredientdb"
)

const defaultScoreFile = "configs/ingredient-scores.yaml"

func main() {
	file := flag.String("file", defaultScoreFile, "YAML file with ingredient scores")
	dryRun := flag.Bool("dry-run", false, "Validate the file without touching the database")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	entries, err := ingredientdb.LoadScoreFile(*file)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("Score file OK. Found %d ingredients.\n", len(entries))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	n, err := seed(ctx, pg, entries)
	if err != nil {
		fmt.Printf("Seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d ingredient scores from %s\n", n, *file)
}

// seed makes sure the table exists and upserts every entry.
func seed(ctx context.Context, pg *database.PostgresClient, entries []ingredientdb.ScoreEntry) (int, error) {
	if err := pg.Migrate(ctx, ingredientdb.Schema...); err != nil {
		return 0, err
	}
	return ingredientdb.New(pg.DB).Seed(ctx, entries)
}

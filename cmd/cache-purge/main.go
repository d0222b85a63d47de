package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tasagro-dev/tasagro/internal/config"
	"github.com/tasagro-dev/tasagro/internal/logger"
)

// Removes expired rows from the cache tables. Intended to run as a cron
// job; the API itself never reads expired entries, this just keeps the
// tables small.
func main() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.GetLogger("cache-purge")

	table := flag.String("table", "all", "cache table to purge: search_cache, geocode_cache or all")
	dryRun := flag.Bool("dry-run", false, "report expired rows without deleting")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := []string{"search_cache", "geocode_cache"}
	if *table != "all" {
		if *table != "search_cache" && *table != "geocode_cache" {
			log.Fatalf("unknown table %q", *table)
		}
		tables = []string{*table}
	}

	for _, t := range tables {
		var expired int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE expires_at <= NOW()", t)
		if err := pool.QueryRow(ctx, countQuery).Scan(&expired); err != nil {
			log.Errorf("failed to count expired rows in %s: %v", t, err)
			continue
		}

		if expired == 0 {
			log.Infof("%s: nothing to purge", t)
			continue
		}

		if *dryRun {
			log.Infof("%s: %d expired rows (dry run, not deleted)", t, expired)
			continue
		}

		deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE expires_at <= NOW()", t)
		result, err := pool.Exec(ctx, deleteQuery)
		if err != nil {
			log.Errorf("failed to purge %s: %v", t, err)
			continue
		}

		log.Infof("%s: purged %d expired rows", t, result.RowsAffected())
	}
}

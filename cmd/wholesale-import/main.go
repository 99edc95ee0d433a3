// Command wholesale-import loads wholesale prices from gzip-compressed CSV
// feeds of "product_id,wholesale_price" rows.
//
// Feeds are read concurrently. A product listed in more than one feed is a
// conflict: it is skipped and reported instead of letting one feed silently
// win. Conflicts are found in two passes. The first builds a bloom filter of
// product IDs per feed, the second re-reads every feed and keeps IDs that
// other feeds' filters claim to contain, tagged with the feed they were seen
// in. Only IDs seen in two or more feeds are conflicts, which rules out
// bloom false positives.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kart-wholesale/internal/storage/postgres"
)

func main() {
	var (
		dataDir     string
		databaseURL string
		expected    uint
		dryRun      bool
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz feeds (ignored when files are given as arguments)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&expected, "expected-products", 1_000_000, "expected product IDs per feed, sizes the bloom filters")
	flag.BoolVar(&dryRun, "dry-run", false, "report what would be written without touching the database")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	files := flag.Args()
	if len(files) == 0 {
		files, err = filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
		if err != nil {
			lg.Fatal("List feeds", zap.Error(err))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		lg.Fatal("No feeds found", zap.String("dir", dataDir))
	}
	if len(files) > maxFeeds {
		lg.Fatal("Too many feeds", zap.Int("count", len(files)), zap.Int("max", maxFeeds))
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, files, databaseURL, expected, dryRun); err != nil {
		lg.Fatal("Import failed", zap.Error(err))
	}
}

func run(ctx context.Context, lg *zap.Logger, files []string, databaseURL string, expected uint, dryRun bool) error {
	imp := &importer{lg: lg, files: files, expected: expected}

	var w priceWriter = discardWriter{}
	if !dryRun {
		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()
		w = postgres.NewProductRepository(pool)
	}

	rep, err := imp.Run(ctx, w)
	if err != nil {
		return err
	}

	lg.Info("Import finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("written", rep.Written),
		zap.Int("conflicts", len(rep.Conflicts)),
		zap.Int("unknown_products", len(rep.Unknown)),
		zap.Int("invalid_rows", rep.Invalid),
	)
	for _, c := range rep.Conflicts {
		lg.Warn("Conflicting product skipped", zap.String("product_id", c.ProductID), zap.Strings("feeds", c.Feeds))
	}
	for _, id := range rep.Unknown {
		lg.Warn("Unknown product skipped", zap.String("product_id", id))
	}
	return nil
}

package main

import (
	"context"
	"encoding/csv"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-wholesale/internal/domain/product"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

const (
	// maxFeeds is bounded by the width of the feed bitmask.
	maxFeeds = bits.UintSize
	bloomFPR = 0.001
)

// row is one feed entry. An empty price clears the wholesale price.
type row struct {
	ProductID string
	Price     string
}

var errInvalidRow = errors.New("invalid row")

// parseRecord validates a CSV record. Header rows yield ok=false.
func parseRecord(rec []string) (r row, ok bool, err error) {
	if len(rec) != 2 {
		return row{}, false, errors.Wrapf(errInvalidRow, "want 2 fields, got %d", len(rec))
	}
	id := strings.TrimSpace(rec[0])
	price := strings.TrimSpace(rec[1])
	if id == "product_id" {
		return row{}, false, nil
	}
	if id == "" {
		return row{}, false, errors.Wrap(errInvalidRow, "empty product id")
	}
	if price != "" {
		if _, usable := wholesale.ParsePrice(price); !usable {
			return row{}, false, errors.Wrapf(errInvalidRow, "product %s: unusable price %q", id, price)
		}
	}
	return row{ProductID: id, Price: price}, true, nil
}

// streamFeed calls fn for every valid row of a gzip CSV feed. Invalid rows
// are counted and skipped.
func streamFeed(ctx context.Context, path string, fn func(r row) error) (invalid int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	cr := csv.NewReader(gz)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	for {
		if err := ctx.Err(); err != nil {
			return invalid, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return invalid, nil
		}
		if err != nil {
			return invalid, errors.Wrapf(err, "read %s", path)
		}
		r, ok, err := parseRecord(rec)
		if err != nil {
			invalid++
			continue
		}
		if !ok {
			continue
		}
		if err := fn(r); err != nil {
			return invalid, err
		}
	}
}

// priceWriter is satisfied by product.Repository.
type priceWriter interface {
	SetWholesalePrice(ctx context.Context, id, raw string) error
}

type discardWriter struct{}

func (discardWriter) SetWholesalePrice(context.Context, string, string) error { return nil }

// Conflict is a product listed in more than one feed.
type Conflict struct {
	ProductID string
	Feeds     []string
}

// Report summarizes an import.
type Report struct {
	Written   int
	Invalid   int
	Conflicts []Conflict
	Unknown   []string
}

type importer struct {
	lg       *zap.Logger
	files    []string
	expected uint
}

// Run finds conflicts and writes every other row through w.
func (imp *importer) Run(ctx context.Context, w priceWriter) (*Report, error) {
	imp.lg.Info("Pass 1: building bloom filters", zap.Int("feeds", len(imp.files)))
	filters, invalid, err := imp.buildFilters(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	imp.lg.Info("Pass 2: confirming cross-feed duplicates")
	masks, err := imp.findConflicts(ctx, filters)
	if err != nil {
		return nil, errors.Wrap(err, "find conflicts")
	}

	rep := &Report{Invalid: invalid}
	for id, mask := range masks {
		c := Conflict{ProductID: id}
		for i, f := range imp.files {
			if mask&(1<<uint(i)) != 0 {
				c.Feeds = append(c.Feeds, filepath.Base(f))
			}
		}
		rep.Conflicts = append(rep.Conflicts, c)
	}
	sort.Slice(rep.Conflicts, func(i, j int) bool {
		return rep.Conflicts[i].ProductID < rep.Conflicts[j].ProductID
	})

	imp.lg.Info("Pass 3: writing prices", zap.Int("conflicts", len(rep.Conflicts)))
	if err := imp.write(ctx, w, masks, rep); err != nil {
		return nil, errors.Wrap(err, "write prices")
	}
	sort.Strings(rep.Unknown)
	return rep, nil
}

func (imp *importer) buildFilters(ctx context.Context) ([]*bloom.BloomFilter, int, error) {
	filters := make([]*bloom.BloomFilter, len(imp.files))
	invalid := make([]int, len(imp.files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range imp.files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(imp.expected, bloomFPR)
			n, err := streamFeed(ctx, path, func(r row) error {
				filter.AddString(r.ProductID)
				return nil
			})
			if err != nil {
				return err
			}
			filters[i] = filter
			invalid[i] = n
			imp.lg.Debug("Filter built", zap.String("feed", path), zap.Int("invalid_rows", n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, n := range invalid {
		total += n
	}
	return filters, total, nil
}

// findConflicts returns a feed bitmask for every product ID seen in two or
// more feeds.
func (imp *importer) findConflicts(ctx context.Context, filters []*bloom.BloomFilter) (map[string]uint, error) {
	candidates := make([]map[string]uint, len(imp.files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range imp.files {
		g.Go(func() error {
			seen := make(map[string]uint)
			bit := uint(1) << uint(i)
			if _, err := streamFeed(ctx, path, func(r row) error {
				for j, f := range filters {
					if j != i && f.TestString(r.ProductID) {
						seen[r.ProductID] |= bit
						break
					}
				}
				return nil
			}); err != nil {
				return err
			}
			candidates[i] = seen
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, c := range candidates {
		for id, mask := range c {
			merged[id] |= mask
		}
	}
	for id, mask := range merged {
		if bits.OnesCount(mask) < 2 {
			delete(merged, id)
		}
	}
	return merged, nil
}

// write applies non-conflicting rows. Feeds are written one after another so
// that a repeated row inside one feed resolves to its last occurrence.
func (imp *importer) write(ctx context.Context, w priceWriter, conflicts map[string]uint, rep *Report) error {
	unknown := make(map[string]struct{})
	for _, path := range imp.files {
		if _, err := streamFeed(ctx, path, func(r row) error {
			if _, ok := conflicts[r.ProductID]; ok {
				return nil
			}
			if err := w.SetWholesalePrice(ctx, r.ProductID, r.Price); err != nil {
				if errors.Is(err, product.ErrNotFound) {
					unknown[r.ProductID] = struct{}{}
					return nil
				}
				return errors.Wrapf(err, "set price of %s", r.ProductID)
			}
			rep.Written++
			return nil
		}); err != nil {
			return err
		}
	}
	for id := range unknown {
		rep.Unknown = append(rep.Unknown, id)
	}
	return nil
}

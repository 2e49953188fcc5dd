// Package ratecache persists historical exchange rates in SQLite.
//
// Historical rates never change once published, so cached entries never
// expire. Only positive rates are stored: a failed or empty lookup is retried
// upstream the next time it is needed.
package ratecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/date"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const schema = `
CREATE TABLE IF NOT EXISTS rates (
	day TEXT NOT NULL,
	currency TEXT NOT NULL,
	rate REAL NOT NULL,
	PRIMARY KEY (day, currency)
)`

// fetchLimit bounds concurrent upstream lookups of a batch.
const fetchLimit = 8

// Cache is a read-through rate cache in front of an upstream rate service.
type Cache struct {
	db       *sql.DB
	upstream costbasis.RateService
	log      zerolog.Logger
}

var _ costbasis.BatchRateService = (*Cache)(nil)

// Open opens or creates the cache database at path. Use ":memory:" for a
// process local cache.
func Open(path string, upstream costbasis.RateService, log zerolog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate cache %q: %w", path, err)
	}
	// a single connection serializes writers, and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	c, err := New(db, upstream, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// New returns a cache stored in db, creating the schema if needed. upstream
// may be nil, in which case only cached rates are returned.
func New(db *sql.DB, upstream costbasis.RateService, log zerolog.Logger) (*Cache, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create rates table: %w", err)
	}
	return &Cache{
		db:       db,
		upstream: upstream,
		log:      log.With().Str("component", "ratecache").Logger(),
	}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

// GetRate returns the cached rate, fetching and storing it from upstream on a
// miss.
func (c *Cache) GetRate(ctx context.Context, on date.Date, currency string) (float64, error) {
	currency = strings.ToUpper(currency)
	var rate float64
	err := c.db.QueryRowContext(ctx,
		"SELECT rate FROM rates WHERE day = ? AND currency = ?",
		on.String(), currency).Scan(&rate)
	switch {
	case err == nil:
		return rate, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("failed to query rate: %w", err)
	}
	return c.fetch(ctx, costbasis.RateKey{Date: on, Currency: currency})
}

// GetRates returns all the rates of keys it could resolve. Cached keys are read
// with a single query and misses are fetched upstream concurrently. The
// returned error joins every upstream failure; the map is still valid then.
func (c *Cache) GetRates(ctx context.Context, keys []costbasis.RateKey) (map[costbasis.RateKey]float64, error) {
	rates, err := c.lookup(ctx, keys)
	if err != nil {
		return nil, err
	}

	var misses []costbasis.RateKey
	for _, k := range keys {
		if _, ok := rates[k]; !ok {
			misses = append(misses, k)
		}
	}
	c.log.Debug().Int("keys", len(keys)).Int("hits", len(keys)-len(misses)).Msg("rate cache lookup")
	if len(misses) == 0 {
		return rates, nil
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(fetchLimit)
	for _, k := range misses {
		g.Go(func() error {
			v, err := c.fetch(ctx, k)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", k, err))
				return nil
			}
			rates[k] = v
			return nil
		})
	}
	_ = g.Wait()
	return rates, errors.Join(errs...)
}

// lookup reads the cached rates of keys in a single query.
func (c *Cache) lookup(ctx context.Context, keys []costbasis.RateKey) (map[costbasis.RateKey]float64, error) {
	rates := make(map[costbasis.RateKey]float64, len(keys))
	if len(keys) == 0 {
		return rates, nil
	}
	wanted := make(map[costbasis.RateKey]bool, len(keys))
	days := make(map[string]bool)
	var args []any
	for _, k := range keys {
		wanted[costbasis.RateKey{Date: k.Date, Currency: strings.ToUpper(k.Currency)}] = true
		if d := k.Date.String(); !days[d] {
			days[d] = true
			args = append(args, d)
		}
	}

	query := "SELECT day, currency, rate FROM rates WHERE day IN (?" + strings.Repeat(",?", len(args)-1) + ")"
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day, currency string
		var rate float64
		if err := rows.Scan(&day, &currency, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		on, err := date.Parse(day)
		if err != nil {
			return nil, fmt.Errorf("invalid day %q in rate cache: %w", day, err)
		}
		k := costbasis.RateKey{Date: on, Currency: currency}
		if wanted[k] {
			rates[k] = rate
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rates: %w", err)
	}

	// report under the caller's spelling of the currency.
	for _, k := range keys {
		if v, ok := rates[costbasis.RateKey{Date: k.Date, Currency: strings.ToUpper(k.Currency)}]; ok {
			rates[k] = v
		}
	}
	return rates, nil
}

// fetch gets k from upstream and stores it when usable.
func (c *Cache) fetch(ctx context.Context, k costbasis.RateKey) (float64, error) {
	if c.upstream == nil {
		return 0, fmt.Errorf("rate %s is not cached", k)
	}
	rate, err := c.upstream.GetRate(ctx, k.Date, k.Currency)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return rate, nil
	}
	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO rates (day, currency, rate) VALUES (?, ?, ?)",
		k.Date.String(), strings.ToUpper(k.Currency), rate)
	if err != nil {
		c.log.Warn().Err(err).Stringer("key", k).Msg("failed to store rate (ignored)")
	}
	return rate, nil
}

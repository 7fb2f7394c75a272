package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// CacheObserver is notified of every cache lookup.
type CacheObserver interface {
	CacheLookup(kind string, hit bool)
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	days    []DayRecord
	hours   []HourRecord
}

// Cache keeps loaded datasets keyed by absolute path. An entry is reused only
// while the file's modification time and size are unchanged.
type Cache struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, cacheEntry]
	logger   *zap.Logger
	observer CacheObserver
}

// NewCache returns a cache holding at most size files.
func NewCache(size int, logger *zap.Logger) (*Cache, error) {
	if size <= 0 {
		size = 4
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create dataset cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{entries: entries, logger: logger}, nil
}

// SetObserver registers o for lookup notifications.
func (c *Cache) SetObserver(o CacheObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// Load returns the daily and hourly datasets, reading each file only when it
// is not cached or changed on disk since it was cached.
func (c *Cache) Load(ctx context.Context, dayPath, hourPath string) (*Datasets, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dayEntry, err := c.lookup("day", dayPath, func(e *cacheEntry, p string) (err error) {
		e.days, err = LoadDays(p)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hourEntry, err := c.lookup("hour", hourPath, func(e *cacheEntry, p string) (err error) {
		e.hours, err = LoadHours(p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Datasets{Days: dayEntry.days, Hours: hourEntry.hours}, nil
}

func (c *Cache) lookup(kind, path string, load func(*cacheEntry, string) error) (cacheEntry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("resolve %s dataset path: %w", kind, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("open %s dataset: %w", kind, err)
	}
	if e, ok := c.entries.Get(abs); ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		c.notify(kind, true)
		return e, nil
	}
	c.notify(kind, false)
	start := time.Now()
	e := cacheEntry{modTime: info.ModTime(), size: info.Size()}
	if err := load(&e, abs); err != nil {
		return cacheEntry{}, err
	}
	c.entries.Add(abs, e)
	c.logger.Info("dataset loaded",
		zap.String("kind", kind),
		zap.String("path", abs),
		zap.Int("rows", len(e.days)+len(e.hours)),
		zap.Duration("took", time.Since(start)),
	)
	return e, nil
}

func (c *Cache) notify(kind string, hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup(kind, hit)
	}
}

// Package snapshot caches the warehouse tables for the life of the process.
// Every table is loaded at most once until the cache is invalidated; failed
// loads are never cached.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/radiusdt/marketing-dashboard/internal/metrics"
	"github.com/radiusdt/marketing-dashboard/internal/models"
	"github.com/radiusdt/marketing-dashboard/internal/warehouse"
)

// Snapshot is the set of tables one render works from. Frames are shared
// between renders and must not be modified.
type Snapshot struct {
	Campaigns *models.Frame
	Channels  *models.Frame
	Segments  *models.Frame
	// LoadedAt is when the oldest of the three frames was read from the
	// warehouse.
	LoadedAt time.Time
}

// Tier is an optional shared cache consulted before the warehouse.
type Tier interface {
	Get(ctx context.Context, table string) (*Entry, error)
	Set(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, tables ...string) error
	Name() string
}

// Entry is a cached frame with the time it was read from the warehouse.
type Entry struct {
	Frame    *models.Frame `json:"frame"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// Loader is the process-wide snapshot cache.
type Loader struct {
	src     warehouse.Source
	tier    Tier
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	gen     uint64
	entries map[string]*Entry
}

// Option configures a Loader.
type Option func(*Loader)

// WithTier adds a shared second-level cache.
func WithTier(t Tier) Option {
	return func(l *Loader) { l.tier = t }
}

// WithMetrics records cache hits and misses.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a cache in front of src.
func NewLoader(src warehouse.Source, logger *zap.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		src:     src,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Snapshot returns the three dashboard tables, loading whichever are not
// cached yet.
func (l *Loader) Snapshot(ctx context.Context) (*Snapshot, error) {
	var entries [3]*Entry
	for i, table := range warehouse.Tables {
		e, err := l.entry(ctx, table)
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}

	snap := &Snapshot{
		Campaigns: entries[0].Frame,
		Channels:  entries[1].Frame,
		Segments:  entries[2].Frame,
		LoadedAt:  entries[0].LoadedAt,
	}
	for _, e := range entries[1:] {
		if e.LoadedAt.Before(snap.LoadedAt) {
			snap.LoadedAt = e.LoadedAt
		}
	}
	return snap, nil
}

// Table returns one cached table.
func (l *Loader) Table(ctx context.Context, table string) (*models.Frame, error) {
	e, err := l.entry(ctx, table)
	if err != nil {
		return nil, err
	}
	return e.Frame, nil
}

// Invalidate drops every cached table, locally and in the shared tier. The
// next Snapshot reloads from the warehouse.
func (l *Loader) Invalidate(ctx context.Context) {
	l.mu.Lock()
	l.gen++
	l.entries = make(map[string]*Entry)
	l.mu.Unlock()

	if l.tier != nil {
		if err := l.tier.Delete(ctx, warehouse.Tables...); err != nil {
			l.logger.Warn("snapshot tier invalidation failed",
				zap.String("tier", l.tier.Name()),
				zap.Error(err),
			)
		}
	}
	l.logger.Info("snapshot invalidated")
}

// LoadedAt returns when the oldest cached table was read, or the zero time
// when nothing is cached.
func (l *Loader) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var oldest time.Time
	for _, e := range l.entries {
		if oldest.IsZero() || e.LoadedAt.Before(oldest) {
			oldest = e.LoadedAt
		}
	}
	return oldest
}

func (l *Loader) entry(ctx context.Context, table string) (*Entry, error) {
	l.mu.RLock()
	e, ok := l.entries[table]
	gen := l.gen
	l.mu.RUnlock()

	l.recordCache("memory", ok)
	if ok {
		return e, nil
	}

	// Concurrent misses for the same table and generation share one load.
	key := fmt.Sprintf("%d/%s", gen, table)
	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.fill(ctx, table, gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

func (l *Loader) fill(ctx context.Context, table string, gen uint64) (*Entry, error) {
	e := l.fromTier(ctx, table)
	if e == nil {
		frame, err := l.src.Load(ctx, table)
		if err != nil {
			return nil, err
		}
		e = &Entry{Frame: frame, LoadedAt: l.now()}
		l.toTier(ctx, e)
	}

	l.mu.Lock()
	// An Invalidate during the load makes this result stale for the cache,
	// but it is still a valid answer for the caller that asked.
	if l.gen == gen {
		l.entries[table] = e
	}
	l.mu.Unlock()

	l.logger.Debug("snapshot table cached",
		zap.String("table", table),
		zap.Int("rows", e.Frame.Len()),
		zap.Time("loaded_at", e.LoadedAt),
	)
	return e, nil
}

func (l *Loader) fromTier(ctx context.Context, table string) *Entry {
	if l.tier == nil {
		return nil
	}
	e, err := l.tier.Get(ctx, table)
	if err != nil {
		l.logger.Warn("snapshot tier read failed",
			zap.String("tier", l.tier.Name()),
			zap.String("table", table),
			zap.Error(err),
		)
		return nil
	}
	l.recordCache(l.tier.Name(), e != nil)
	return e
}

func (l *Loader) toTier(ctx context.Context, e *Entry) {
	if l.tier == nil {
		return
	}
	if err := l.tier.Set(ctx, e); err != nil {
		l.logger.Warn("snapshot tier write failed",
			zap.String("tier", l.tier.Name()),
			zap.String("table", e.Frame.Table),
			zap.Error(err),
		)
	}
}

func (l *Loader) recordCache(tier string, hit bool) {
	if l.metrics != nil {
		l.metrics.RecordCache(tier, hit)
	}
}

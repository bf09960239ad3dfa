// Package snapshot keeps the most recent occupancy state per lobby behind a
// freshness window. Concurrent requests for the same lobby collapse into one
// upstream call, and a completed fetch never overwrites a newer snapshot.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vibran2566/dbdiscord/internal/domain"
	"github.com/vibran2566/dbdiscord/internal/lobby"
)

// DefaultFreshness is how long a cached snapshot satisfies reads without a
// network call.
const DefaultFreshness = 5 * time.Second

// Cache stores the latest snapshot per lobby. Snapshots are owned by the
// cache and read-shared; a failed fetch leaves the previous snapshot in place.
type Cache struct {
	registry *lobby.Registry
	fetcher  *Fetcher
	freshFor time.Duration
	logger   *slog.Logger

	mu    sync.RWMutex
	snaps map[string]*domain.Snapshot

	group singleflight.Group
}

// NewCache creates a Cache over the given catalog. A non-positive freshFor
// falls back to DefaultFreshness.
func NewCache(registry *lobby.Registry, fetcher *Fetcher, freshFor time.Duration, logger *slog.Logger) *Cache {
	if freshFor <= 0 {
		freshFor = DefaultFreshness
	}
	return &Cache{
		registry: registry,
		fetcher:  fetcher,
		freshFor: freshFor,
		logger:   logger.With(slog.String("component", "snapshot_cache")),
		snaps:    make(map[string]*domain.Snapshot),
	}
}

// Get returns the lobby's snapshot, fetching only when the cached one has
// aged out of the freshness window. Unsupported lobbies always yield their
// zero-occupancy placeholder without any network call. On fetch failure the
// error wraps domain.ErrNoData and the stale snapshot, if any, stays cached.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Snapshot, error) {
	l, ok := c.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("snapshot: get %s: %w", key, domain.ErrNotFound)
	}
	if !l.Supported() {
		return c.placeholder(key), nil
	}

	if snap, ok := c.fresh(key); ok {
		return snap, nil
	}
	return c.fetch(ctx, l, false)
}

// Refresh performs one real fetch for the lobby regardless of freshness. The
// poll cycle uses it so every cycle observes current data. Concurrent callers
// still share a single in-flight fetch per lobby.
func (c *Cache) Refresh(ctx context.Context, key string) (*domain.Snapshot, error) {
	l, ok := c.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("snapshot: refresh %s: %w", key, domain.ErrNotFound)
	}
	if !l.Supported() {
		return c.placeholder(key), nil
	}
	return c.fetch(ctx, l, true)
}

// Peek returns the cached snapshot without fetching, regardless of age.
func (c *Cache) Peek(key string) (*domain.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snaps[key]
	return snap, ok
}

func (c *Cache) fresh(key string) (*domain.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snaps[key]
	if !ok {
		return nil, false
	}
	if time.Since(snap.FetchedAt) > c.freshFor {
		return nil, false
	}
	return snap, true
}

func (c *Cache) fetch(ctx context.Context, l domain.Lobby, force bool) (*domain.Snapshot, error) {
	key := l.Key()
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have completed a fetch while this one queued.
		if !force {
			if snap, ok := c.fresh(key); ok {
				return snap, nil
			}
		}

		start := time.Now()
		snap, err := c.fetcher.Fetch(ctx, l, start)
		if err != nil {
			c.logger.Error("lobby fetch failed",
				slog.String("lobby", key),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("snapshot: %w: %v", domain.ErrNoData, err)
		}

		stored := c.store(snap)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Snapshot), nil
}

// store installs snap unless the cache already holds a snapshot from a fetch
// that started later; the late arrival is discarded and the newer snapshot
// returned instead.
func (c *Cache) store(snap *domain.Snapshot) *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.snaps[snap.LobbyKey]; ok && cur.FetchStart.After(snap.FetchStart) {
		c.logger.Warn("discarding out-of-order snapshot",
			slog.String("lobby", snap.LobbyKey),
			slog.Time("fetch_start", snap.FetchStart),
			slog.Time("cached_start", cur.FetchStart),
		)
		return cur
	}
	c.snaps[snap.LobbyKey] = snap
	return snap
}

// placeholder returns (caching on first use) the permanent snapshot for an
// unsupported lobby.
func (c *Cache) placeholder(key string) *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap, ok := c.snaps[key]; ok {
		return snap
	}
	snap := domain.UnsupportedSnapshot(key, time.Now())
	c.snaps[key] = snap
	return snap
}

// IsNoData reports whether err signals a transient fetch failure, i.e. the
// caller has no fresh data right now but the lobby itself is fine.
func IsNoData(err error) bool {
	return errors.Is(err, domain.ErrNoData)
}

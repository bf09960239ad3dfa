// Package poll drives the fixed-interval monitoring cycle: fan out one real
// fetch per lobby, wait for all to settle, then run join diffing and watch
// evaluation per tenant against the snapshots the cycle collected. Partial
// fetch failures never block the lobbies that succeeded, and one tenant's
// failure never skips the rest.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vibran2566/dbdiscord/internal/alert"
	"github.com/vibran2566/dbdiscord/internal/domain"
	"github.com/vibran2566/dbdiscord/internal/lobby"
	"github.com/vibran2566/dbdiscord/internal/snapshot"
	"github.com/vibran2566/dbdiscord/internal/tenant"
)

// DefaultInterval is the poll cycle period.
const DefaultInterval = 5 * time.Second

// Scheduler runs the poll cycle.
type Scheduler struct {
	registry   *lobby.Registry
	cache      *snapshot.Cache
	tenants    *tenant.Manager
	detector   *alert.Detector
	evaluator  *alert.Evaluator
	dispatcher domain.Dispatcher
	interval   time.Duration
	logger     *slog.Logger
}

// NewScheduler creates a Scheduler. A non-positive interval falls back to
// DefaultInterval.
func NewScheduler(
	registry *lobby.Registry,
	cache *snapshot.Cache,
	tenants *tenant.Manager,
	detector *alert.Detector,
	evaluator *alert.Evaluator,
	dispatcher domain.Dispatcher,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		registry:   registry,
		cache:      cache,
		tenants:    tenants,
		detector:   detector,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     logger.With(slog.String("component", "poll")),
	}
}

// Run executes one cycle immediately, then one per tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("poll scheduler starting", slog.Duration("interval", s.interval))

	s.RunCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poll scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle performs one full poll cycle: fetch everything, then evaluate
// every tenant. Exported so the wiring layer can prime state at startup.
func (s *Scheduler) RunCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	started := time.Now()

	snaps := s.fetchAll(ctx)

	joinEvents, watchEvents := s.evaluate(cycleID, snaps)

	s.dispatch(ctx, joinEvents, watchEvents)

	s.logger.Debug("cycle complete",
		slog.String("cycle", cycleID),
		slog.Int("lobbies", len(snaps)),
		slog.Int("joins", len(joinEvents)),
		slog.Int("watches_fired", len(watchEvents)),
		slog.Duration("took", time.Since(started)),
	)
}

// fetchAll refreshes every lobby concurrently and returns the snapshots that
// settled successfully (including unsupported placeholders). Failed lobbies
// are simply absent from the result.
func (s *Scheduler) fetchAll(ctx context.Context) map[string]*domain.Snapshot {
	var (
		mu    sync.Mutex
		snaps = make(map[string]*domain.Snapshot)
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, l := range s.registry.All() {
		key := l.Key()
		g.Go(func() error {
			snap, err := s.cache.Refresh(ctx, key)
			if err != nil {
				// Already logged by the cache; the cycle continues without
				// this lobby.
				return nil
			}
			mu.Lock()
			snaps[key] = snap
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return snaps
}

// evaluate runs join diffing and watch evaluation for every tenant against
// the cycle's snapshots. It mutates only tenant-owned state (last-seen sets,
// watch alert timestamps) and collects events for dispatch outside the lock.
func (s *Scheduler) evaluate(cycleID string, snaps map[string]*domain.Snapshot) ([]domain.JoinEvent, []domain.WatchEvent) {
	var (
		joinEvents  []domain.JoinEvent
		watchEvents []domain.WatchEvent
	)
	now := time.Now()

	s.tenants.ForEach(func(t *domain.TenantConfig) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("tenant evaluation panicked",
					slog.String("cycle", cycleID),
					slog.String("tenant", t.ID),
					slog.Any("panic", r),
				)
			}
		}()

		for lobbyKey, enabled := range t.AlertLobbies {
			if !enabled {
				continue
			}
			snap, ok := snaps[lobbyKey]
			if !ok {
				// No fresh data this cycle; the stored set stays as-is so
				// nothing is double-reported when the lobby comes back.
				continue
			}
			joined := s.detector.NewJoins(t, lobbyKey, snap)
			if len(joined) == 0 || t.ChannelID == "" {
				continue
			}
			joinEvents = append(joinEvents, domain.JoinEvent{
				CycleID:       cycleID,
				TenantID:      t.ID,
				ChannelID:     t.ChannelID,
				MentionRoleID: t.MentionRoleID,
				LobbyKey:      lobbyKey,
				Joined:        joined,
				ActiveCount:   snap.ActiveCount(),
			})
		}

		for _, w := range t.Watches {
			snap, ok := snaps[w.LobbyKey]
			if !ok {
				continue
			}
			if !s.evaluator.Evaluate(w, snap, now) {
				continue
			}
			if t.ChannelID == "" {
				continue
			}
			watchEvents = append(watchEvents, domain.WatchEvent{
				CycleID:       cycleID,
				TenantID:      t.ID,
				ChannelID:     t.ChannelID,
				MentionRoleID: t.MentionRoleID,
				LobbyKey:      w.LobbyKey,
				Watch:         *w,
				ActiveCount:   snap.ActiveCount(),
			})
		}
	})

	return joinEvents, watchEvents
}

// dispatch hands the cycle's events to the notification layer. Each failure
// is logged and the remaining events still go out.
func (s *Scheduler) dispatch(ctx context.Context, joins []domain.JoinEvent, watches []domain.WatchEvent) {
	for _, ev := range joins {
		if err := s.dispatcher.DispatchJoin(ctx, ev); err != nil {
			s.logger.Error("join dispatch failed",
				slog.String("cycle", ev.CycleID),
				slog.String("tenant", ev.TenantID),
				slog.String("lobby", ev.LobbyKey),
				slog.String("error", err.Error()),
			)
		}
	}

	fired := make(map[string]bool)
	for _, ev := range watches {
		if err := s.dispatcher.DispatchWatch(ctx, ev); err != nil {
			s.logger.Error("watch dispatch failed",
				slog.String("cycle", ev.CycleID),
				slog.String("tenant", ev.TenantID),
				slog.Int("watch", ev.Watch.ID),
				slog.String("error", err.Error()),
			)
		}
		fired[ev.TenantID] = true
	}

	// Watch cooldown stamps changed this cycle; write them through so a
	// restart does not replay alerts early.
	for tenantID := range fired {
		s.tenants.PersistAlertState(ctx, tenantID)
	}
}

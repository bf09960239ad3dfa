// Package tenant owns the process-wide tenant registry. Every mutation of
// tenant configuration goes through the Manager; the poll scheduler borrows
// tenants under the same lock via ForEach. Mutations are written through to
// the configured store so a restart restores the same configuration, with the
// runtime join-tracking sets reset to empty.
package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

// Manager holds every known tenant. Tenants are created lazily on first
// interaction and live for the process lifetime.
type Manager struct {
	store  domain.TenantStore // nil disables persistence
	logger *slog.Logger

	mu      sync.Mutex
	tenants map[string]*domain.TenantConfig
}

// NewManager creates a Manager backed by store. A nil store keeps all state
// in memory only.
func NewManager(store domain.TenantStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		logger:  logger.With(slog.String("component", "tenant_manager")),
		tenants: make(map[string]*domain.TenantConfig),
	}
}

// Restore loads persisted tenants into the registry. Runtime join-tracking
// state always starts empty, regardless of what the store returns.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	loaded, err := m.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("tenant: restore: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range loaded {
		t.ResetRuntime()
		m.tenants[t.ID] = t
	}
	m.logger.Info("tenants restored", slog.Int("count", len(loaded)))
	return nil
}

// get returns the tenant, creating it on first sight. Caller must hold m.mu.
func (m *Manager) get(id string) *domain.TenantConfig {
	t, ok := m.tenants[id]
	if !ok {
		t = domain.NewTenantConfig(id)
		m.tenants[id] = t
		m.logger.Info("tenant created", slog.String("tenant", id))
	}
	return t
}

// SetChannel sets the tenant's notification channel.
func (m *Manager) SetChannel(ctx context.Context, tenantID, channelID string) error {
	return m.mutate(ctx, tenantID, func(t *domain.TenantConfig) error {
		t.ChannelID = channelID
		return nil
	})
}

// SetMentionRole sets the role mentioned on alerts. Empty clears it.
func (m *Manager) SetMentionRole(ctx context.Context, tenantID, roleID string) error {
	return m.mutate(ctx, tenantID, func(t *domain.TenantConfig) error {
		t.MentionRoleID = roleID
		return nil
	})
}

// SetDefaultRegion sets the tenant's default region preference.
func (m *Manager) SetDefaultRegion(ctx context.Context, tenantID string, region domain.Region) error {
	return m.mutate(ctx, tenantID, func(t *domain.TenantConfig) error {
		t.DefaultRegion = region
		return nil
	})
}

// SetAutoChannel sets (or, with an empty ID, disables) the tenant's
// auto-refresh summary channel.
func (m *Manager) SetAutoChannel(ctx context.Context, tenantID, channelID string) error {
	return m.mutate(ctx, tenantID, func(t *domain.TenantConfig) error {
		t.AutoChannelID = channelID
		if channelID == "" {
			t.LastAutoMessageID = ""
		}
		return nil
	})
}

// SetLastAutoMessage records the identifier of the most recently auto-posted
// summary so the next cycle can delete it before reposting.
func (m *Manager) SetLastAutoMessage(ctx context.Context, tenantID, messageID string) error {
	return m.mutate(ctx, tenantID, func(t *domain.TenantConfig) error {
		t.LastAutoMessageID = messageID
		return nil
	})
}

// SetAlerts enables or disables join alerts for one lobby. Disabling also
// drops the lobby's join-tracking set.
func (m *Manager) SetAlerts(ctx context.Context, tenantID, lobbyKey string, enabled bool) error {
	return m.mutate(ctx, tenantID, func(t *domain.TenantConfig) error {
		t.AlertLobbies[lobbyKey] = enabled
		if !enabled {
			delete(t.LastSeen, lobbyKey)
		}
		return nil
	})
}

// AddWatch creates a watch with the next per-tenant ID and returns a copy of
// it. Threshold and interval arrive pre-validated from the command boundary;
// out-of-range values are rejected with domain.ErrInvalidRule.
func (m *Manager) AddWatch(ctx context.Context, tenantID, lobbyKey string, threshold, intervalMin int) (domain.Watch, error) {
	if threshold < 1 || intervalMin < 1 {
		return domain.Watch{}, fmt.Errorf("tenant: add watch: threshold %d interval %d: %w",
			threshold, intervalMin, domain.ErrInvalidRule)
	}

	var created domain.Watch
	err := m.mutate(ctx, tenantID, func(t *domain.TenantConfig) error {
		w := &domain.Watch{
			ID:          t.NextWatchID,
			LobbyKey:    lobbyKey,
			Threshold:   threshold,
			IntervalMin: intervalMin,
		}
		t.NextWatchID++
		t.Watches[w.ID] = w
		created = *w
		return nil
	})
	return created, err
}

// RemoveWatch deletes a watch by ID. An unknown ID is a no-op reported as
// domain.ErrNotFound.
func (m *Manager) RemoveWatch(ctx context.Context, tenantID string, watchID int) error {
	m.mu.Lock()
	t := m.get(tenantID)
	if _, ok := t.Watches[watchID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("tenant: remove watch %d: %w", watchID, domain.ErrNotFound)
	}
	delete(t.Watches, watchID)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.DeleteTenantWatch(ctx, tenantID, watchID); err != nil {
			m.logger.Error("persist watch removal failed",
				slog.String("tenant", tenantID),
				slog.Int("watch", watchID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// ClearWatches removes every watch for the tenant and returns how many were
// removed.
func (m *Manager) ClearWatches(ctx context.Context, tenantID string) (int, error) {
	var cleared int
	err := m.mutate(ctx, tenantID, func(t *domain.TenantConfig) error {
		cleared = len(t.Watches)
		t.Watches = make(map[int]*domain.Watch)
		return nil
	})
	return cleared, err
}

// ListWatches returns copies of the tenant's watches, ordered by ID.
func (m *Manager) ListWatches(tenantID string) []domain.Watch {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.get(tenantID)

	out := make([]domain.Watch, 0, len(t.Watches))
	for _, w := range t.Watches {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot returns a deep copy of the tenant's config for display surfaces.
func (m *Manager) Snapshot(tenantID string) domain.TenantConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *copyTenant(m.get(tenantID))
}

// ForEach runs fn for every tenant under the registry lock. The scheduler
// uses it to diff joins and evaluate watches; fn must not block on I/O.
func (m *Manager) ForEach(fn func(t *domain.TenantConfig)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		fn(t)
	}
}

// AutoTarget is one tenant's auto-refresh posting destination.
type AutoTarget struct {
	TenantID      string
	ChannelID     string
	LastMessageID string
	DefaultRegion domain.Region
}

// AutoTargets returns the tenants with auto-refresh enabled.
func (m *Manager) AutoTargets() []AutoTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AutoTarget
	for _, t := range m.tenants {
		if t.AutoChannelID == "" {
			continue
		}
		out = append(out, AutoTarget{
			TenantID:      t.ID,
			ChannelID:     t.AutoChannelID,
			LastMessageID: t.LastAutoMessageID,
			DefaultRegion: t.DefaultRegion,
		})
	}
	return out
}

// PersistAlertState writes the tenant's current watch alert timestamps to the
// store. The scheduler calls it after a cycle that fired watches, so
// cooldowns survive a restart.
func (m *Manager) PersistAlertState(ctx context.Context, tenantID string) {
	if m.store == nil {
		return
	}
	m.mu.Lock()
	t, ok := m.tenants[tenantID]
	if !ok {
		m.mu.Unlock()
		return
	}
	snap := copyTenant(t)
	m.mu.Unlock()

	if err := m.store.SaveTenant(ctx, snap); err != nil {
		m.logger.Error("persist alert state failed",
			slog.String("tenant", tenantID),
			slog.String("error", err.Error()),
		)
	}
}

// mutate applies fn to the tenant under the lock, then writes the result
// through to the store. Persistence failures are logged, not returned: the
// in-memory state is authoritative and stays mutated.
func (m *Manager) mutate(ctx context.Context, tenantID string, fn func(t *domain.TenantConfig) error) error {
	m.mu.Lock()
	t := m.get(tenantID)
	if err := fn(t); err != nil {
		m.mu.Unlock()
		return err
	}
	snap := copyTenant(t)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveTenant(ctx, snap); err != nil {
			m.logger.Error("persist tenant failed",
				slog.String("tenant", tenantID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// copyTenant deep-copies the persistable parts of a tenant config. The
// runtime LastSeen sets are intentionally left empty in the copy.
func copyTenant(t *domain.TenantConfig) *domain.TenantConfig {
	cp := domain.NewTenantConfig(t.ID)
	cp.ChannelID = t.ChannelID
	cp.MentionRoleID = t.MentionRoleID
	cp.DefaultRegion = t.DefaultRegion
	cp.AutoChannelID = t.AutoChannelID
	cp.LastAutoMessageID = t.LastAutoMessageID
	cp.NextWatchID = t.NextWatchID
	for k, v := range t.AlertLobbies {
		cp.AlertLobbies[k] = v
	}
	for id, w := range t.Watches {
		wc := *w
		if w.LastAlertAt != nil {
			at := *w.LastAlertAt
			wc.LastAlertAt = &at
		}
		cp.Watches[id] = &wc
	}
	return cp
}

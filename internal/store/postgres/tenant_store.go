package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

// TenantStore implements domain.TenantStore using PostgreSQL. The runtime
// last-seen join sets are never written; LoadAll returns tenants with those
// sets empty.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a TenantStore backed by the given connection pool.
func NewTenantStore(pool *pgxpool.Pool) *TenantStore {
	return &TenantStore{pool: pool}
}

// SaveTenant upserts the tenant row and reconciles its watches in one
// transaction: current watches are upserted, rows for watches no longer
// present are deleted.
func (s *TenantStore) SaveTenant(ctx context.Context, t *domain.TenantConfig) error {
	alerts, err := json.Marshal(t.AlertLobbies)
	if err != nil {
		return fmt.Errorf("postgres: marshal alert lobbies for %s: %w", t.ID, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin save tenant %s: %w", t.ID, err)
	}
	defer tx.Rollback(ctx)

	const upsertTenant = `
		INSERT INTO tenants (
			id, channel_id, mention_role_id, default_region,
			auto_channel_id, last_auto_message_id, alert_lobbies,
			next_watch_id, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			channel_id           = EXCLUDED.channel_id,
			mention_role_id      = EXCLUDED.mention_role_id,
			default_region       = EXCLUDED.default_region,
			auto_channel_id      = EXCLUDED.auto_channel_id,
			last_auto_message_id = EXCLUDED.last_auto_message_id,
			alert_lobbies        = EXCLUDED.alert_lobbies,
			next_watch_id        = EXCLUDED.next_watch_id,
			updated_at           = NOW()`

	if _, err := tx.Exec(ctx, upsertTenant,
		t.ID, t.ChannelID, t.MentionRoleID, string(t.DefaultRegion),
		t.AutoChannelID, t.LastAutoMessageID, alerts, t.NextWatchID,
	); err != nil {
		return fmt.Errorf("postgres: upsert tenant %s: %w", t.ID, err)
	}

	ids := make([]int, 0, len(t.Watches))
	batch := &pgx.Batch{}
	const upsertWatch = `
		INSERT INTO watches (tenant_id, id, lobby_key, threshold, interval_min, last_alert_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, id) DO UPDATE SET
			lobby_key     = EXCLUDED.lobby_key,
			threshold     = EXCLUDED.threshold,
			interval_min  = EXCLUDED.interval_min,
			last_alert_at = EXCLUDED.last_alert_at`
	for _, w := range t.Watches {
		ids = append(ids, w.ID)
		batch.Queue(upsertWatch, t.ID, w.ID, w.LobbyKey, w.Threshold, w.IntervalMin, w.LastAlertAt)
	}
	batch.Queue(`DELETE FROM watches WHERE tenant_id = $1 AND NOT (id = ANY($2))`, t.ID, ids)

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: save watches for %s: %w", t.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit save tenant %s: %w", t.ID, err)
	}
	return nil
}

// DeleteTenantWatch removes one watch row.
func (s *TenantStore) DeleteTenantWatch(ctx context.Context, tenantID string, watchID int) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM watches WHERE tenant_id = $1 AND id = $2`,
		tenantID, watchID,
	); err != nil {
		return fmt.Errorf("postgres: delete watch %d for %s: %w", watchID, tenantID, err)
	}
	return nil
}

// LoadAll returns every persisted tenant with its watches attached and
// runtime state empty.
func (s *TenantStore) LoadAll(ctx context.Context) ([]*domain.TenantConfig, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, channel_id, mention_role_id, default_region,
		       auto_channel_id, last_auto_message_id, alert_lobbies, next_watch_id
		FROM tenants`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load tenants: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.TenantConfig)
	var out []*domain.TenantConfig
	for rows.Next() {
		t := domain.NewTenantConfig("")
		var region string
		var alerts []byte
		if err := rows.Scan(
			&t.ID, &t.ChannelID, &t.MentionRoleID, &region,
			&t.AutoChannelID, &t.LastAutoMessageID, &alerts, &t.NextWatchID,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan tenant: %w", err)
		}
		t.DefaultRegion = domain.Region(region)
		if len(alerts) > 0 {
			if err := json.Unmarshal(alerts, &t.AlertLobbies); err != nil {
				return nil, fmt.Errorf("postgres: decode alert lobbies for %s: %w", t.ID, err)
			}
		}
		byID[t.ID] = t
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load tenants: %w", err)
	}

	wrows, err := s.pool.Query(ctx, `
		SELECT tenant_id, id, lobby_key, threshold, interval_min, last_alert_at
		FROM watches`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load watches: %w", err)
	}
	defer wrows.Close()

	for wrows.Next() {
		var (
			tenantID string
			w        domain.Watch
			lastAt   *time.Time
		)
		if err := wrows.Scan(&tenantID, &w.ID, &w.LobbyKey, &w.Threshold, &w.IntervalMin, &lastAt); err != nil {
			return nil, fmt.Errorf("postgres: scan watch: %w", err)
		}
		w.LastAlertAt = lastAt
		if t, ok := byID[tenantID]; ok {
			t.Watches[w.ID] = &w
		}
	}
	if err := wrows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load watches: %w", err)
	}

	return out, nil
}

// Compile-time interface check.
var _ domain.TenantStore = (*TenantStore)(nil)

package domain

import (
	"context"
	"time"
)

// TenantStore persists tenant configuration between restarts. The runtime
// LastSeen sets are not part of the persisted shape; implementations must
// ignore them on save and leave them empty on load.
type TenantStore interface {
	SaveTenant(ctx context.Context, t *TenantConfig) error
	DeleteTenantWatch(ctx context.Context, tenantID string, watchID int) error
	LoadAll(ctx context.Context) ([]*TenantConfig, error)
}

// RateLimiter caps outbound side effects. Allow counts the request when it is
// permitted.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

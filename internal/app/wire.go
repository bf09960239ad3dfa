package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vibran2566/dbdiscord/internal/alert"
	"github.com/vibran2566/dbdiscord/internal/cache/redis"
	"github.com/vibran2566/dbdiscord/internal/config"
	"github.com/vibran2566/dbdiscord/internal/domain"
	"github.com/vibran2566/dbdiscord/internal/lobby"
	"github.com/vibran2566/dbdiscord/internal/notify"
	"github.com/vibran2566/dbdiscord/internal/oracle"
	"github.com/vibran2566/dbdiscord/internal/platform/blockhub"
	"github.com/vibran2566/dbdiscord/internal/poll"
	"github.com/vibran2566/dbdiscord/internal/snapshot"
	"github.com/vibran2566/dbdiscord/internal/store/postgres"
	"github.com/vibran2566/dbdiscord/internal/tenant"
)

// Dependencies bundles everything the running application needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Registry  *lobby.Registry
	Cache     *snapshot.Cache
	Oracle    *oracle.Oracle
	Tenants   *tenant.Manager
	Scheduler *poll.Scheduler
	Auto      *notify.AutoRefresher
	Session   *discordgo.Session
}

// Wire constructs the full dependency graph from the configuration. Optional
// pieces (postgres persistence, redis flood guard) are wired only when
// configured. The returned cleanup closes everything Wire opened, in reverse
// order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	client := blockhub.NewClient(
		cfg.Upstream.BaseURL,
		cfg.Upstream.RatePath,
		time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second,
	)

	registry := lobby.NewRegistry()

	orc := oracle.New(client, time.Duration(cfg.Oracle.IntervalSeconds)*time.Second, logger)

	fetcher := snapshot.NewFetcher(client, orc, logger)
	cache := snapshot.NewCache(registry, fetcher,
		time.Duration(cfg.Poll.FreshnessSeconds)*time.Second, logger)

	// Tenant persistence, when configured.
	var store domain.TenantStore
	if cfg.Postgres.DSN != "" {
		pg, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: postgres: %w", err)
		}
		closers = append(closers, pg.Close)

		if cfg.Postgres.RunMigrations {
			if err := pg.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("app: migrations: %w", err)
			}
		}
		store = postgres.NewTenantStore(pg.Pool())
	} else {
		logger.Warn("no postgres dsn configured, tenant state is in-memory only")
	}

	tenants := tenant.NewManager(store, logger)

	// Outbound flood guard, when configured.
	var limiter domain.RateLimiter
	if cfg.Redis.Addr != "" {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		limiter = redis.NewRateLimiter(rc)
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("app: discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("app: discord connect: %w", err)
	}
	closers = append(closers, func() { _ = session.Close() })

	messenger := notify.NewDiscordMessenger(session)
	dispatcher := notify.NewDispatcher(messenger, limiter,
		cfg.Redis.AlertLimit,
		time.Duration(cfg.Redis.AlertWindowSeconds)*time.Second,
		logger,
	)

	scheduler := poll.NewScheduler(registry, cache, tenants,
		alert.NewDetector(), alert.NewEvaluator(), dispatcher,
		time.Duration(cfg.Poll.IntervalSeconds)*time.Second, logger)

	auto := notify.NewAutoRefresher(tenants, registry, cache, orc, messenger,
		time.Duration(cfg.Auto.IntervalSeconds)*time.Second, logger)

	deps := &Dependencies{
		Registry:  registry,
		Cache:     cache,
		Oracle:    orc,
		Tenants:   tenants,
		Scheduler: scheduler,
		Auto:      auto,
		Session:   session,
	}
	return deps, cleanup, nil
}

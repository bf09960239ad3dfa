package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vibran2566/dbdiscord/internal/lobby"
	"github.com/vibran2566/dbdiscord/internal/oracle"
	"github.com/vibran2566/dbdiscord/internal/snapshot"
	"github.com/vibran2566/dbdiscord/internal/tenant"
)

// DefaultAutoInterval is the period of the summary repost cycle.
const DefaultAutoInterval = 60 * time.Second

// AutoRefresher keeps a rolling occupancy summary posted in each tenant's
// configured auto-refresh channel. Every cycle it deletes the previous
// summary (best effort) and posts a fresh one. Nothing in the cycle is
// atomic: a crash between delete and post just means no summary until the
// next cycle.
type AutoRefresher struct {
	tenants   *tenant.Manager
	registry  *lobby.Registry
	cache     *snapshot.Cache
	oracle    *oracle.Oracle
	messenger Messenger
	interval  time.Duration
	logger    *slog.Logger
}

// NewAutoRefresher creates an AutoRefresher. A non-positive interval falls
// back to DefaultAutoInterval.
func NewAutoRefresher(
	tenants *tenant.Manager,
	registry *lobby.Registry,
	cache *snapshot.Cache,
	oracle *oracle.Oracle,
	messenger Messenger,
	interval time.Duration,
	logger *slog.Logger,
) *AutoRefresher {
	if interval <= 0 {
		interval = DefaultAutoInterval
	}
	return &AutoRefresher{
		tenants:   tenants,
		registry:  registry,
		cache:     cache,
		oracle:    oracle,
		messenger: messenger,
		interval:  interval,
		logger:    logger.With(slog.String("component", "auto_refresh")),
	}
}

// Run reposts summaries on every tick until ctx is done.
func (a *AutoRefresher) Run(ctx context.Context) error {
	a.logger.Info("auto-refresh starting", slog.Duration("interval", a.interval))

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("auto-refresh stopped")
			return ctx.Err()
		case <-ticker.C:
			a.RunCycle(ctx)
		}
	}
}

// RunCycle reposts the summary for every opted-in tenant. One tenant's
// posting failure never skips the rest.
func (a *AutoRefresher) RunCycle(ctx context.Context) {
	targets := a.tenants.AutoTargets()
	if len(targets) == 0 {
		return
	}

	embed := a.buildSummary(ctx)

	for _, target := range targets {
		if err := a.repost(ctx, target, embed); err != nil {
			a.logger.Error("summary repost failed",
				slog.String("tenant", target.TenantID),
				slog.String("channel", target.ChannelID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// repost deletes the tenant's previous summary (missing or forbidden
// deletions are swallowed) and posts the new one, recording its ID for the
// next cycle.
func (a *AutoRefresher) repost(ctx context.Context, target tenant.AutoTarget, embed *discordgo.MessageEmbed) error {
	if target.LastMessageID != "" {
		if err := a.messenger.DeleteMessage(ctx, target.ChannelID, target.LastMessageID); err != nil {
			a.logger.Debug("previous summary delete failed",
				slog.String("tenant", target.TenantID),
				slog.String("error", err.Error()),
			)
		}
	}

	msgID, err := a.messenger.SendEmbed(ctx, target.ChannelID, "", embed)
	if err != nil {
		return fmt.Errorf("notify: post summary: %w", err)
	}

	return a.tenants.SetLastAutoMessage(ctx, target.TenantID, msgID)
}

// buildSummary renders current occupancy across the whole catalog. Lobbies
// with no fresh data show as unavailable rather than zero.
func (a *AutoRefresher) buildSummary(ctx context.Context) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(a.registry.Keys()))
	for _, key := range a.registry.Keys() {
		value := "no data"
		snap, err := a.cache.Get(ctx, key)
		switch {
		case err != nil:
			// transient; keep "no data"
		case snap.Unsupported:
			value = "unsupported"
		default:
			value = fmt.Sprintf("%d active / %d total", snap.ActiveCount(), snap.PlayerCount)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   key,
			Value:  value,
			Inline: true,
		})
	}

	return &discordgo.MessageEmbed{
		Title:     "Lobby occupancy",
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: a.oracle.StatusLine()},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

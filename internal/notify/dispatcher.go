package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

const (
	colorJoin  = 0x2ecc71
	colorWatch = 0xe67e22

	// maxJoinLines bounds the embed body when a lobby re-populates all at once.
	maxJoinLines = 10
)

// Dispatcher implements domain.Dispatcher on a Messenger. An optional
// per-tenant rate limiter caps total outbound alerts; when the limit is hit
// the event is dropped, the per-watch cooldowns having already been applied
// upstream.
type Dispatcher struct {
	messenger Messenger
	limiter   domain.RateLimiter // nil disables the flood guard
	limit     int
	window    time.Duration
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. limiter may be nil; limit and window
// are only consulted when it is not.
func NewDispatcher(messenger Messenger, limiter domain.RateLimiter, limit int, window time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		messenger: messenger,
		limiter:   limiter,
		limit:     limit,
		window:    window,
		logger:    logger.With(slog.String("component", "dispatcher")),
	}
}

// DispatchJoin posts a join alert to the tenant's channel.
func (d *Dispatcher) DispatchJoin(ctx context.Context, ev domain.JoinEvent) error {
	if !d.allow(ctx, ev.TenantID) {
		return nil
	}

	lines := make([]string, 0, len(ev.Joined))
	for i, p := range ev.Joined {
		if i == maxJoinLines {
			lines = append(lines, fmt.Sprintf("…and %d more", len(ev.Joined)-maxJoinLines))
			break
		}
		lines = append(lines, fmt.Sprintf("**%s** (size %.1f)", p.DisplayName(), p.Size))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("New players in %s", ev.LobbyKey),
		Description: strings.Join(lines, "\n"),
		Color:       colorJoin,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d active now", ev.ActiveCount),
		},
	}

	_, err := d.messenger.SendEmbed(ctx, ev.ChannelID, mention(ev.MentionRoleID), embed)
	if err != nil {
		return fmt.Errorf("notify: join alert for %s: %w", ev.TenantID, err)
	}
	return nil
}

// DispatchWatch posts a watch-fired alert to the tenant's channel.
func (d *Dispatcher) DispatchWatch(ctx context.Context, ev domain.WatchEvent) error {
	if !d.allow(ctx, ev.TenantID) {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s is filling up", ev.LobbyKey),
		Description: fmt.Sprintf("%d active players • watch #%d triggers at %d",
			ev.ActiveCount, ev.Watch.ID, ev.Watch.Threshold),
		Color: colorWatch,
	}

	_, err := d.messenger.SendEmbed(ctx, ev.ChannelID, mention(ev.MentionRoleID), embed)
	if err != nil {
		return fmt.Errorf("notify: watch alert for %s: %w", ev.TenantID, err)
	}
	return nil
}

// allow consults the flood guard. Limiter errors fail open: a broken Redis
// must not silence alerting.
func (d *Dispatcher) allow(ctx context.Context, tenantID string) bool {
	if d.limiter == nil {
		return true
	}
	ok, err := d.limiter.Allow(ctx, "alerts:"+tenantID, d.limit, d.window)
	if err != nil {
		d.logger.Warn("flood guard unavailable, allowing",
			slog.String("tenant", tenantID),
			slog.String("error", err.Error()),
		)
		return true
	}
	if !ok {
		d.logger.Info("alert dropped by flood guard", slog.String("tenant", tenantID))
	}
	return ok
}

func mention(roleID string) string {
	if roleID == "" {
		return ""
	}
	return fmt.Sprintf("<@&%s>", roleID)
}

// Compile-time interface check.
var _ domain.Dispatcher = (*Dispatcher)(nil)

package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vibran2566/dbdiscord/internal/domain"
	"github.com/vibran2566/dbdiscord/internal/platform/blockhub"
)

// PlayerSource is the upstream surface the fetcher reads occupancy from.
type PlayerSource interface {
	FetchPlayers(ctx context.Context, endpoint string) (blockhub.PlayersResponse, error)
}

// RateSource yields the current conversion rate, nil when unavailable.
type RateSource interface {
	Current() *domain.PriceRate
}

// Fetcher performs one bounded-timeout remote call per lobby and normalizes
// the result into a Snapshot, attaching derived USD values from the oracle.
type Fetcher struct {
	source PlayerSource
	rates  RateSource
	logger *slog.Logger
}

// NewFetcher creates a Fetcher reading occupancy from source and rates from rates.
func NewFetcher(source PlayerSource, rates RateSource, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		rates:  rates,
		logger: logger.With(slog.String("component", "fetcher")),
	}
}

// Fetch retrieves and normalizes one lobby's occupancy. start is the fetch
// start time recorded on the snapshot for the cache's overwrite guard.
// Non-success and malformed responses are errors; the caller keeps whatever
// snapshot it already had.
func (f *Fetcher) Fetch(ctx context.Context, l domain.Lobby, start time.Time) (*domain.Snapshot, error) {
	resp, err := f.source.FetchPlayers(ctx, l.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", l.Key(), err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetch %s: upstream reported failure", l.Key())
	}

	rate := f.rates.Current()

	players := make([]domain.Player, 0, len(resp.Players))
	for _, ap := range resp.Players {
		p := ap.ToPlayer()
		if p.Native != nil && rate != nil {
			usd := *p.Native * rate.Rate
			p.USD = &usd
		}
		players = append(players, p)
	}

	count := len(players)
	if resp.Count != nil {
		count = *resp.Count
	}

	snap := &domain.Snapshot{
		LobbyKey:    l.Key(),
		ServerID:    resp.Server,
		PlayerCount: count,
		Players:     players,
		UpstreamAt:  resp.UpstreamTime(),
		FetchStart:  start,
		FetchedAt:   time.Now(),
	}

	f.logger.Debug("lobby fetched",
		slog.String("lobby", l.Key()),
		slog.Int("players", len(players)),
		slog.Int("active", snap.ActiveCount()),
	)
	return snap, nil
}

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibran2566/dbdiscord/internal/domain"
	"github.com/vibran2566/dbdiscord/internal/lobby"
	"github.com/vibran2566/dbdiscord/internal/oracle"
	"github.com/vibran2566/dbdiscord/internal/platform/blockhub"
	"github.com/vibran2566/dbdiscord/internal/snapshot"
	"github.com/vibran2566/dbdiscord/internal/tenant"
)

type summarySource struct{}

func (summarySource) FetchPlayers(ctx context.Context, endpoint string) (blockhub.PlayersResponse, error) {
	ok := true
	return blockhub.PlayersResponse{
		Success: &ok,
		Players: []blockhub.APIPlayer{
			{ID: "p1", Size: 10},
			{ID: "p2", Size: 1}, // spectator
		},
	}, nil
}

type noRates struct{}

func (noRates) Current() *domain.PriceRate { return nil }

type noQuotes struct{}

func (noQuotes) FetchRate(ctx context.Context) (blockhub.RateResponse, error) {
	return blockhub.RateResponse{}, context.Canceled
}

func newRefresher(t *testing.T, msgr Messenger) (*AutoRefresher, *tenant.Manager) {
	t.Helper()
	logger := testLogger()
	registry := lobby.NewRegistry()
	fetcher := snapshot.NewFetcher(summarySource{}, noRates{}, logger)
	cache := snapshot.NewCache(registry, fetcher, time.Minute, logger)
	tenants := tenant.NewManager(nil, logger)
	orc := oracle.New(noQuotes{}, time.Minute, logger)
	return NewAutoRefresher(tenants, registry, cache, orc, msgr, time.Minute, logger), tenants
}

func TestRunCycleSkipsWhenNoTargets(t *testing.T) {
	msgr := &fakeMessenger{}
	a, _ := newRefresher(t, msgr)

	a.RunCycle(context.Background())
	assert.Empty(t, msgr.sent)
}

func TestRunCyclePostsSummaryAndRecordsMessage(t *testing.T) {
	msgr := &fakeMessenger{}
	a, tenants := newRefresher(t, msgr)
	ctx := context.Background()
	require.NoError(t, tenants.SetAutoChannel(ctx, "g1", "auto-1"))

	a.RunCycle(ctx)

	require.Len(t, msgr.sent, 1)
	got := msgr.sent[0]
	assert.Equal(t, "auto-1", got.channelID)
	assert.Equal(t, "Lobby occupancy", got.embed.Title)
	require.Len(t, got.embed.Fields, 8)
	assert.Equal(t, "us-1", got.embed.Fields[0].Name)
	assert.Equal(t, "1 active / 2 total", got.embed.Fields[0].Value)
	assert.Equal(t, "price feed unavailable", got.embed.Footer.Text)

	assert.Equal(t, "msg-1", tenants.Snapshot("g1").LastAutoMessageID)
	assert.Empty(t, msgr.deleted, "nothing to delete on the first cycle")
}

func TestRunCycleMarksUnsupportedLobbies(t *testing.T) {
	msgr := &fakeMessenger{}
	a, tenants := newRefresher(t, msgr)
	ctx := context.Background()
	require.NoError(t, tenants.SetAutoChannel(ctx, "g1", "auto-1"))

	a.RunCycle(ctx)

	require.Len(t, msgr.sent, 1)
	fields := msgr.sent[0].embed.Fields
	last := fields[len(fields)-1]
	assert.Equal(t, "eu-100", last.Name)
	assert.Equal(t, "unsupported", last.Value)
}

func TestRunCycleDeletesPreviousSummary(t *testing.T) {
	msgr := &fakeMessenger{}
	a, tenants := newRefresher(t, msgr)
	ctx := context.Background()
	require.NoError(t, tenants.SetAutoChannel(ctx, "g1", "auto-1"))

	a.RunCycle(ctx)
	a.RunCycle(ctx)

	require.Len(t, msgr.sent, 2)
	assert.Equal(t, []string{"msg-1"}, msgr.deleted)
}

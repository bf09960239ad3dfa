package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibran2566/dbdiscord/internal/domain"
	"github.com/vibran2566/dbdiscord/internal/lobby"
	"github.com/vibran2566/dbdiscord/internal/platform/blockhub"
)

func newTestCache(src *stubSource, freshFor time.Duration) *Cache {
	fetcher := NewFetcher(src, &stubRates{}, testLogger())
	return NewCache(lobby.NewRegistry(), fetcher, freshFor, testLogger())
}

func TestGetUnsupportedLobbyNeverFetches(t *testing.T) {
	src := &stubSource{resp: okPlayers()}
	c := newTestCache(src, time.Minute)

	for i := 0; i < 3; i++ {
		snap, err := c.Get(context.Background(), "eu-100")
		require.NoError(t, err)
		assert.True(t, snap.Unsupported)
		assert.Equal(t, 0, snap.PlayerCount)
		assert.Empty(t, snap.Players)
	}

	assert.Equal(t, 0, src.callCount())
}

func TestGetWithinFreshnessWindowFetchesOnce(t *testing.T) {
	src := &stubSource{resp: okPlayers(playerRecord("a"))}
	c := newTestCache(src, time.Minute)

	first, err := c.Get(context.Background(), "us-10")
	require.NoError(t, err)
	second, err := c.Get(context.Background(), "us-10")
	require.NoError(t, err)

	assert.Equal(t, 1, src.callCount())
	assert.Same(t, first, second)
}

func TestGetRefetchesAfterFreshnessExpires(t *testing.T) {
	src := &stubSource{resp: okPlayers(playerRecord("a"))}
	c := newTestCache(src, time.Millisecond)

	_, err := c.Get(context.Background(), "us-10")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = c.Get(context.Background(), "us-10")
	require.NoError(t, err)
	assert.Equal(t, 2, src.callCount())
}

func TestRefreshBypassesFreshness(t *testing.T) {
	src := &stubSource{resp: okPlayers(playerRecord("a"))}
	c := newTestCache(src, time.Minute)

	_, err := c.Get(context.Background(), "us-10")
	require.NoError(t, err)
	_, err = c.Refresh(context.Background(), "us-10")
	require.NoError(t, err)

	assert.Equal(t, 2, src.callCount())
}

func TestFailedFetchRetainsPreviousSnapshot(t *testing.T) {
	src := &stubSource{resp: okPlayers(playerRecord("a"))}
	c := newTestCache(src, time.Minute)

	good, err := c.Refresh(context.Background(), "us-10")
	require.NoError(t, err)

	src.mu.Lock()
	src.err = errors.New("upstream down")
	src.mu.Unlock()

	_, err = c.Refresh(context.Background(), "us-10")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoData)

	// the stale snapshot stays available
	cached, ok := c.Peek("us-10")
	require.True(t, ok)
	assert.Same(t, good, cached)
}

func TestUnknownLobbyKey(t *testing.T) {
	c := newTestCache(&stubSource{}, time.Minute)

	_, err := c.Get(context.Background(), "mars-7")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreRejectsOutOfOrderWrite(t *testing.T) {
	c := newTestCache(&stubSource{}, time.Minute)

	base := time.Now()
	newer := &domain.Snapshot{LobbyKey: "us-10", FetchStart: base, FetchedAt: base.Add(time.Second)}
	older := &domain.Snapshot{LobbyKey: "us-10", FetchStart: base.Add(-10 * time.Second), FetchedAt: base.Add(2 * time.Second)}

	assert.Same(t, newer, c.store(newer))

	// a slow fetch that started earlier finishes later: discarded
	assert.Same(t, newer, c.store(older))

	cached, ok := c.Peek("us-10")
	require.True(t, ok)
	assert.Same(t, newer, cached)
}

func playerRecord(id string) blockhub.APIPlayer {
	return blockhub.APIPlayer{ID: id, Name: "n-" + id, Size: 10}
}

package blockhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPlayersDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/lobbies/us/10/players", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{
			"success": true,
			"server": "srv-9",
			"count": 2,
			"players": [
				{"id": "p1", "name": "Alice", "size": 12.5, "value": 4.0},
				{"uid": "u2", "size": 1.0}
			],
			"updated_at": 1700000000000
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/v1/price", time.Second)
	resp, err := c.FetchPlayers(context.Background(), "/v1/lobbies/us/10/players")
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, "srv-9", resp.Server)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 2, *resp.Count)
	require.Len(t, resp.Players, 2)
	assert.Equal(t, "p1", resp.Players[0].ID)
	require.NotNil(t, resp.Players[0].Value)
	assert.InDelta(t, 4.0, *resp.Players[0].Value, 1e-9)
	assert.Equal(t, "u2", resp.Players[1].UID)
	assert.Nil(t, resp.Players[1].Value)
	assert.Equal(t, time.UnixMilli(1700000000000), resp.UpstreamTime())
}

func TestFetchPlayersMissingSuccessFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"players": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/v1/price", time.Second)
	resp, err := c.FetchPlayers(context.Background(), "/x")
	require.NoError(t, err)
	assert.False(t, resp.OK())
}

func TestFetchPlayersNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/v1/price", time.Second)
	_, err := c.FetchPlayers(context.Background(), "/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestFetchPlayersMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": tru`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/v1/price", time.Second)
	_, err := c.FetchPlayers(context.Background(), "/x")
	assert.ErrorContains(t, err, "decode players")
}

func TestFetchRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/price", r.URL.Path)
		w.Write([]byte(`{"success": true, "rate": 0.042, "last_updated": 1700000000000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/v1/price", time.Second)
	resp, err := c.FetchRate(context.Background())
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.InDelta(t, 0.042, resp.Rate, 1e-9)
}

func TestRequestHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "/v1/price", time.Minute)
	_, err := c.FetchPlayers(ctx, "/x")
	assert.Error(t, err)
}

package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

func TestCatalogCoversEveryRegionAndTier(t *testing.T) {
	r := NewRegistry()

	all := r.All()
	require.Len(t, all, 8)
	assert.Equal(t, []string{
		"us-1", "us-5", "us-10", "us-100",
		"eu-1", "eu-5", "eu-10", "eu-100",
	}, r.Keys())
}

func TestSupportedLobbiesCarryEndpoints(t *testing.T) {
	r := NewRegistry()

	l, ok := r.Lookup(domain.RegionUS, 10)
	require.True(t, ok)
	assert.True(t, l.Supported())
	assert.Equal(t, "/v1/lobbies/us/10/players", l.Endpoint)
}

func TestUnsupportedLobbyStaysInCatalog(t *testing.T) {
	r := NewRegistry()

	l, ok := r.Get("eu-100")
	require.True(t, ok)
	assert.False(t, l.Supported())
	assert.Empty(t, l.Endpoint)
}

func TestUnknownKeyMisses(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("us-50")
	assert.False(t, ok)
	_, ok = r.Lookup(domain.Region("apac"), 10)
	assert.False(t, ok)
}

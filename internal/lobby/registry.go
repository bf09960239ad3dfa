// Package lobby holds the static catalog of monitored lobbies. The catalog is
// built once at startup and never mutated; every other component resolves
// lobbies through it.
package lobby

import (
	"fmt"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

// Tiers is the fixed set of stake tiers the upstream runs per region.
var Tiers = []domain.Tier{1, 5, 10, 100}

// unsupported lists region/tier pairs the upstream runs but does not expose a
// players endpoint for. They stay in the catalog so views and watches can
// name them, but no fetch is ever attempted.
var unsupported = map[string]bool{
	domain.LobbyKey(domain.RegionEU, 100): true,
}

// Registry is a pure lookup table over the lobby catalog.
type Registry struct {
	byKey map[string]domain.Lobby
	order []string
}

// NewRegistry builds the catalog of all region/tier combinations. Supported
// lobbies get their players-endpoint path filled in.
func NewRegistry() *Registry {
	r := &Registry{byKey: make(map[string]domain.Lobby)}
	for _, region := range []domain.Region{domain.RegionUS, domain.RegionEU} {
		for _, tier := range Tiers {
			l := domain.Lobby{Region: region, Tier: tier}
			if !unsupported[l.Key()] {
				l.Endpoint = fmt.Sprintf("/v1/lobbies/%s/%d/players", region, tier)
			}
			r.byKey[l.Key()] = l
			r.order = append(r.order, l.Key())
		}
	}
	return r
}

// Get resolves a lobby by its key.
func (r *Registry) Get(key string) (domain.Lobby, bool) {
	l, ok := r.byKey[key]
	return l, ok
}

// Lookup resolves a lobby by region and tier.
func (r *Registry) Lookup(region domain.Region, tier domain.Tier) (domain.Lobby, bool) {
	return r.Get(domain.LobbyKey(region, tier))
}

// All returns every lobby in catalog order.
func (r *Registry) All() []domain.Lobby {
	out := make([]domain.Lobby, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Keys returns every lobby key in catalog order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

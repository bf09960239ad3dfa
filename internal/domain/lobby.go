package domain

import "strconv"

// Region identifies which regional cluster a lobby runs on.
type Region string

const (
	RegionUS Region = "us"
	RegionEU Region = "eu"
)

// ParseRegion maps a region string to its enum value.
func ParseRegion(s string) (Region, bool) {
	switch Region(s) {
	case RegionUS:
		return RegionUS, true
	case RegionEU:
		return RegionEU, true
	default:
		return "", false
	}
}

// Tier is a lobby's stake tier. The set of tiers is fixed at startup.
type Tier int

// Lobby describes one monitored occupancy source. Endpoint is the relative
// path of the upstream players endpoint; an empty Endpoint marks the lobby as
// permanently unsupported and no fetch is ever attempted for it.
type Lobby struct {
	Region   Region
	Tier     Tier
	Endpoint string
}

// Key returns the lobby's identity key, e.g. "us-10".
func (l Lobby) Key() string {
	return LobbyKey(l.Region, l.Tier)
}

// Supported reports whether the upstream exposes an endpoint for this lobby.
func (l Lobby) Supported() bool {
	return l.Endpoint != ""
}

// LobbyKey builds the canonical key for a region/tier pair.
func LobbyKey(region Region, tier Tier) string {
	return string(region) + "-" + strconv.Itoa(int(tier))
}

package domain

import "time"

// ActiveSizeThreshold separates active players from spectators and husks.
// A player counts as active only when their size is strictly above it. The
// constant is system-wide; alerting and ranking both use it.
const ActiveSizeThreshold = 3.0

// Player is one entry in a lobby snapshot. Players have no identity across
// snapshots beyond their identifier fields.
type Player struct {
	ID     string // preferred stable identifier
	AltID  string // secondary identifier, used when ID is missing
	Name   string
	Size   float64
	Native *float64 // native token value reported by the upstream, if any
	USD    *float64 // Native × oracle rate at fetch time; nil when the rate is unavailable
}

// Identifier returns the player's stable identifier, preferring ID and
// falling back to AltID.
func (p Player) Identifier() string {
	if p.ID != "" {
		return p.ID
	}
	return p.AltID
}

// DisplayName resolves a human-readable reference for the player using the
// fallback chain name, secondary ID, primary ID, "Unknown".
func (p Player) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.AltID != "":
		return p.AltID
	case p.ID != "":
		return p.ID
	default:
		return "Unknown"
	}
}

// Active reports whether the player counts toward occupancy.
func (p Player) Active() bool {
	return p.Size > ActiveSizeThreshold
}

// Snapshot is the most recent fetched occupancy state for one lobby. It is
// replaced wholesale on each successful fetch and owned by the snapshot
// cache; consumers treat it as read-only.
type Snapshot struct {
	LobbyKey    string
	ServerID    string
	PlayerCount int
	Players     []Player
	Unsupported bool
	UpstreamAt  time.Time // timestamp reported by the upstream, zero when absent
	FetchStart  time.Time // when the fetch that produced this snapshot began
	FetchedAt   time.Time // local completion time; freshness is measured from here
}

// ActivePlayers returns the players counting toward occupancy, in snapshot order.
func (s *Snapshot) ActivePlayers() []Player {
	out := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// ActiveCount returns the number of active players.
func (s *Snapshot) ActiveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Active() {
			n++
		}
	}
	return n
}

// ActiveIDs returns the identity set of active players. Players with no
// identifier at all are skipped; they cannot be tracked across cycles.
func (s *Snapshot) ActiveIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, p := range s.Players {
		if !p.Active() {
			continue
		}
		if id := p.Identifier(); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// UnsupportedSnapshot synthesizes the permanent zero-occupancy placeholder
// for a lobby the upstream does not expose.
func UnsupportedSnapshot(lobbyKey string, now time.Time) *Snapshot {
	return &Snapshot{
		LobbyKey:    lobbyKey,
		Players:     []Player{},
		Unsupported: true,
		FetchStart:  now,
		FetchedAt:   now,
	}
}

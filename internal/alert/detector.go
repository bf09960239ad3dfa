// Package alert implements the per-cycle alerting decisions: join diffing
// against the previous cycle's identity sets, and cooldown-gated threshold
// watches. Both operate on snapshots the poll scheduler already collected and
// mutate only the tenant state they own.
package alert

import (
	"github.com/vibran2566/dbdiscord/internal/domain"
)

// Detector compares a lobby's current active identity set against the set
// stored on the tenant from the previous cycle.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// NewJoins returns the players newly active in the lobby since the tenant's
// last observation, replacing the stored set with the current one so a join
// is never reported twice.
//
// An empty active set resets the stored set instead: a lobby that empties
// out must not be diffed against a long-expired set when it re-populates, so
// the next non-empty cycle reports everyone present as new.
func (d *Detector) NewJoins(t *domain.TenantConfig, lobbyKey string, snap *domain.Snapshot) []domain.Player {
	if snap == nil || snap.Unsupported {
		return nil
	}

	current := snap.ActiveIDs()
	if len(current) == 0 {
		delete(t.LastSeen, lobbyKey)
		return nil
	}

	previous := t.LastSeen[lobbyKey]

	var joined []domain.Player
	for _, p := range snap.Players {
		if !p.Active() {
			continue
		}
		id := p.Identifier()
		if id == "" {
			continue
		}
		if _, seen := previous[id]; !seen {
			joined = append(joined, p)
		}
	}

	// Replace unconditionally, even when nothing joined.
	t.LastSeen[lobbyKey] = current

	return joined
}

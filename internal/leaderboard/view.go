// Package leaderboard renders a paginated ranking over a snapshot. Render is
// a pure function of its inputs: page turns re-read the cache and recompute,
// so the view never holds state of its own.
package leaderboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

// PageSize is the number of entries per leaderboard page.
const PageSize = 5

// USDUnavailable is the marker shown when a player's derived USD value is nil.
const USDUnavailable = "unavailable"

// Entry is one ranked row.
type Entry struct {
	Rank int // 1-based across the whole board, not per page
	Name string
	Size float64 // rounded to one decimal for display
	USD  string  // formatted amount, or USDUnavailable
}

// Page is one rendered leaderboard page plus pagination metadata.
type Page struct {
	LobbyKey   string
	Entries    []Entry
	Page       int // the clamped 0-based page actually rendered
	TotalPages int
}

// Render filters the snapshot to active players, ranks them by size
// descending (ties keep snapshot order), and returns the requested page with
// the page index clamped into the valid range. An empty board renders as a
// single empty page.
func Render(snap *domain.Snapshot, page int) Page {
	active := snap.ActivePlayers()

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Size > active[j].Size
	})

	totalPages := (len(active) + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * PageSize
	end := start + PageSize
	if start > len(active) {
		start = len(active)
	}
	if end > len(active) {
		end = len(active)
	}

	entries := make([]Entry, 0, end-start)
	for i := start; i < end; i++ {
		p := active[i]
		usd := USDUnavailable
		if p.USD != nil {
			usd = fmt.Sprintf("$%.2f", *p.USD)
		}
		entries = append(entries, Entry{
			Rank: i + 1,
			Name: p.DisplayName(),
			Size: math.Round(p.Size*10) / 10,
			USD:  usd,
		})
	}

	return Page{
		LobbyKey:   snap.LobbyKey,
		Entries:    entries,
		Page:       page,
		TotalPages: totalPages,
	}
}

package blockhub

import (
	"time"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

// APIPlayer is the wire shape of one player record from the players endpoint.
// Identifier fields are both optional; the upstream fills whichever it knows.
type APIPlayer struct {
	ID    string   `json:"id"`
	UID   string   `json:"uid"`
	Name  string   `json:"name"`
	Size  float64  `json:"size"`
	Value *float64 `json:"value"`
}

// PlayersResponse is the wire shape of the players endpoint. Success is a
// pointer so a body missing the flag entirely is distinguishable from an
// explicit false; both are treated as fetch failures.
type PlayersResponse struct {
	Success   *bool       `json:"success"`
	Server    string      `json:"server"`
	Count     *int        `json:"count"`
	Players   []APIPlayer `json:"players"`
	UpdatedAt int64       `json:"updated_at"` // unix milliseconds, 0 when absent
}

// OK reports whether the upstream marked the response successful.
func (r PlayersResponse) OK() bool {
	return r.Success != nil && *r.Success
}

// UpstreamTime converts the upstream millisecond timestamp, zero when absent.
func (r PlayersResponse) UpstreamTime() time.Time {
	if r.UpdatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.UpdatedAt)
}

// ToPlayer converts a wire player record to the domain model. The derived USD
// value is left nil; the fetcher attaches it from the oracle rate.
func (p APIPlayer) ToPlayer() domain.Player {
	return domain.Player{
		ID:     p.ID,
		AltID:  p.UID,
		Name:   p.Name,
		Size:   p.Size,
		Native: p.Value,
	}
}

// RateResponse is the wire shape of the price quote endpoint.
type RateResponse struct {
	Success     *bool   `json:"success"`
	Rate        float64 `json:"rate"`
	LastUpdated int64   `json:"last_updated"` // unix milliseconds, 0 when absent
}

// OK reports whether the upstream marked the quote successful.
func (r RateResponse) OK() bool {
	return r.Success != nil && *r.Success
}

package domain

import "time"

// PriceRate is the latest externally-quoted token→USD conversion rate. The
// oracle holds at most one; nil means no successful refresh has happened yet
// and derived USD values must be treated as unavailable, never as zero.
type PriceRate struct {
	Rate float64
	AsOf time.Time
}

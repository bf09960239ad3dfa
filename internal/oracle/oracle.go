// Package oracle maintains the latest token→USD conversion rate. The rate is
// refreshed on its own fixed interval, independent of lobby polling, and is
// read-only to every other component.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vibran2566/dbdiscord/internal/domain"
	"github.com/vibran2566/dbdiscord/internal/platform/blockhub"
)

// QuoteClient is the upstream surface the oracle refreshes from.
type QuoteClient interface {
	FetchRate(ctx context.Context) (blockhub.RateResponse, error)
}

// Oracle holds the latest quoted rate. A failed refresh leaves the prior rate
// untouched; Current returns nil until the first successful refresh.
type Oracle struct {
	client   QuoteClient
	interval time.Duration
	logger   *slog.Logger

	mu   sync.RWMutex
	rate *domain.PriceRate
}

// New creates an Oracle refreshing from client every interval.
func New(client QuoteClient, interval time.Duration, logger *slog.Logger) *Oracle {
	return &Oracle{
		client:   client,
		interval: interval,
		logger:   logger.With(slog.String("component", "oracle")),
	}
}

// Run refreshes once immediately, then on every tick until ctx is done.
// Refresh failures are logged and never stop the loop.
func (o *Oracle) Run(ctx context.Context) error {
	o.logger.Info("oracle starting", slog.Duration("interval", o.interval))

	if err := o.Refresh(ctx); err != nil {
		o.logger.Error("initial rate refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("oracle stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := o.Refresh(ctx); err != nil {
				o.logger.Error("rate refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Refresh performs one bounded-timeout quote call and atomically replaces the
// stored rate on success.
func (o *Oracle) Refresh(ctx context.Context) error {
	resp, err := o.client.FetchRate(ctx)
	if err != nil {
		return fmt.Errorf("oracle: refresh: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("oracle: refresh: upstream reported failure")
	}

	asOf := time.Now()
	if resp.LastUpdated != 0 {
		asOf = time.UnixMilli(resp.LastUpdated)
	}

	o.mu.Lock()
	o.rate = &domain.PriceRate{Rate: resp.Rate, AsOf: asOf}
	o.mu.Unlock()

	o.logger.Debug("rate refreshed",
		slog.Float64("rate", resp.Rate),
		slog.Time("as_of", asOf),
	)
	return nil
}

// Current returns the latest rate, or nil when no refresh has succeeded yet.
// The returned value is a copy and safe to retain.
func (o *Oracle) Current() *domain.PriceRate {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.rate == nil {
		return nil
	}
	r := *o.rate
	return &r
}

// StatusLine renders availability and staleness for display surfaces. It is
// never used in computation.
func (o *Oracle) StatusLine() string {
	r := o.Current()
	if r == nil {
		return "price feed unavailable"
	}
	age := time.Since(r.AsOf).Round(time.Second)
	return fmt.Sprintf("$%.4f per token, updated %s ago", r.Rate, age)
}

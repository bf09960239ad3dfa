package alert

import (
	"time"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

// Evaluator decides whether a watch fires. It is a cooldown gate, not an
// edge trigger: while the threshold stays met the watch re-fires every
// interval, and dropping below the threshold never "consumes" it.
type Evaluator struct{}

// NewEvaluator creates an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate checks w against the lobby snapshot at time now. It returns true
// and stamps w.LastAlertAt when the alert should fire; in every other case
// the watch is left untouched. A missing or unsupported snapshot is skipped.
func (e *Evaluator) Evaluate(w *domain.Watch, snap *domain.Snapshot, now time.Time) bool {
	if snap == nil || snap.Unsupported {
		return false
	}

	if snap.ActiveCount() < w.Threshold {
		return false
	}

	cooldown := time.Duration(w.IntervalMin) * time.Minute
	if w.LastAlertAt != nil && now.Sub(*w.LastAlertAt) < cooldown {
		return false
	}

	fired := now
	w.LastAlertAt = &fired
	return true
}

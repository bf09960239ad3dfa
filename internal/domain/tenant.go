package domain

import "time"

// Watch is a tenant-defined rule that fires a rate-limited alert when a
// lobby's active count reaches a threshold. Watches are created and deleted
// by explicit user action only.
type Watch struct {
	ID          int
	LobbyKey    string
	Threshold   int        // minimum active players, >= 1
	IntervalMin int        // cooldown between alerts in minutes, >= 1
	LastAlertAt *time.Time // nil means never fired: eligible immediately once met
}

// TenantConfig is the configuration scope for one served community. It is
// created lazily on first interaction and mutated only through the tenant
// manager; the poll scheduler additionally owns LastSeen and the watches'
// LastAlertAt fields.
type TenantConfig struct {
	ID                string // guild identifier
	ChannelID         string // notification channel, empty when unset
	MentionRoleID     string // role to mention on alerts, empty when unset
	DefaultRegion     Region // empty when unset
	AutoChannelID     string // auto-refresh summary channel, empty when disabled
	LastAutoMessageID string // last auto-posted summary, for delete-and-repost

	AlertLobbies map[string]bool // lobby key -> join alerts enabled
	Watches      map[int]*Watch
	NextWatchID  int

	// LastSeen maps lobby key -> active-player identity set from the previous
	// poll cycle. Runtime-only: never persisted, reset to empty on restore.
	LastSeen map[string]map[string]struct{}
}

// NewTenantConfig returns an empty config for the given tenant ID with all
// maps initialized.
func NewTenantConfig(id string) *TenantConfig {
	return &TenantConfig{
		ID:           id,
		AlertLobbies: make(map[string]bool),
		Watches:      make(map[int]*Watch),
		NextWatchID:  1,
		LastSeen:     make(map[string]map[string]struct{}),
	}
}

// ResetRuntime clears the runtime-only join-tracking state. Called after a
// restore so a restart never diffs against sets from a previous process.
func (t *TenantConfig) ResetRuntime() {
	t.LastSeen = make(map[string]map[string]struct{})
}

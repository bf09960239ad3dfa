package domain

// JoinEvent reports players newly active in a lobby since the previous poll
// cycle, for one tenant. Channel and role are copied from the tenant config
// at emission time so dispatch never touches shared tenant state.
type JoinEvent struct {
	CycleID       string
	TenantID      string
	ChannelID     string
	MentionRoleID string
	LobbyKey      string
	Joined        []Player
	ActiveCount   int
}

// WatchEvent reports a watch whose threshold was met and whose cooldown has
// elapsed. Watch is a copy taken at fire time.
type WatchEvent struct {
	CycleID       string
	TenantID      string
	ChannelID     string
	MentionRoleID string
	LobbyKey      string
	Watch         Watch
	ActiveCount   int
}

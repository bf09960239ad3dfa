package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibran2566/dbdiscord/internal/domain"
)

type sentMessage struct {
	channelID string
	content   string
	embed     *discordgo.MessageEmbed
}

type fakeMessenger struct {
	sent    []sentMessage
	deleted []string
	sendErr error
}

func (f *fakeMessenger) SendEmbed(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: content, embed: embed})
	return "msg-1", nil
}

func (f *fakeMessenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func joinEvent(players ...domain.Player) domain.JoinEvent {
	return domain.JoinEvent{
		TenantID:    "g1",
		ChannelID:   "c1",
		LobbyKey:    "us-10",
		Joined:      players,
		ActiveCount: len(players),
	}
}

func TestDispatchJoinFormatsEmbed(t *testing.T) {
	msgr := &fakeMessenger{}
	d := NewDispatcher(msgr, nil, 0, 0, testLogger())

	ev := joinEvent(
		domain.Player{ID: "p1", Name: "Alice", Size: 12.34},
		domain.Player{ID: "p2", Size: 5},
	)
	require.NoError(t, d.DispatchJoin(context.Background(), ev))

	require.Len(t, msgr.sent, 1)
	got := msgr.sent[0]
	assert.Equal(t, "c1", got.channelID)
	assert.Empty(t, got.content)
	assert.Equal(t, "New players in us-10", got.embed.Title)
	assert.Contains(t, got.embed.Description, "**Alice** (size 12.3)")
	assert.Contains(t, got.embed.Description, "**p2** (size 5.0)")
	assert.Equal(t, "2 active now", got.embed.Footer.Text)
	assert.Equal(t, colorJoin, got.embed.Color)
}

func TestDispatchJoinTruncatesLongLists(t *testing.T) {
	msgr := &fakeMessenger{}
	d := NewDispatcher(msgr, nil, 0, 0, testLogger())

	players := make([]domain.Player, 14)
	for i := range players {
		players[i] = domain.Player{ID: "p", Size: 4}
	}
	require.NoError(t, d.DispatchJoin(context.Background(), joinEvent(players...)))

	require.Len(t, msgr.sent, 1)
	assert.Contains(t, msgr.sent[0].embed.Description, "…and 4 more")
}

func TestDispatchJoinMentionsRole(t *testing.T) {
	msgr := &fakeMessenger{}
	d := NewDispatcher(msgr, nil, 0, 0, testLogger())

	ev := joinEvent(domain.Player{ID: "p1", Size: 4})
	ev.MentionRoleID = "role-7"
	require.NoError(t, d.DispatchJoin(context.Background(), ev))

	require.Len(t, msgr.sent, 1)
	assert.Equal(t, "<@&role-7>", msgr.sent[0].content)
}

func TestDispatchWatchFormatsEmbed(t *testing.T) {
	msgr := &fakeMessenger{}
	d := NewDispatcher(msgr, nil, 0, 0, testLogger())

	ev := domain.WatchEvent{
		TenantID:    "g1",
		ChannelID:   "c1",
		LobbyKey:    "eu-5",
		Watch:       domain.Watch{ID: 3, Threshold: 6},
		ActiveCount: 7,
	}
	require.NoError(t, d.DispatchWatch(context.Background(), ev))

	require.Len(t, msgr.sent, 1)
	got := msgr.sent[0]
	assert.Equal(t, "eu-5 is filling up", got.embed.Title)
	assert.Contains(t, got.embed.Description, "7 active players • watch #3")
	assert.Equal(t, colorWatch, got.embed.Color)
}

func TestFloodGuardDropsEvent(t *testing.T) {
	msgr := &fakeMessenger{}
	lim := &fakeLimiter{allow: false}
	d := NewDispatcher(msgr, lim, 20, time.Minute, testLogger())

	require.NoError(t, d.DispatchJoin(context.Background(), joinEvent(domain.Player{ID: "p1", Size: 4})))

	assert.Empty(t, msgr.sent)
	assert.Equal(t, []string{"alerts:g1"}, lim.keys)
}

func TestFloodGuardFailsOpen(t *testing.T) {
	msgr := &fakeMessenger{}
	lim := &fakeLimiter{err: errors.New("redis down")}
	d := NewDispatcher(msgr, lim, 20, time.Minute, testLogger())

	require.NoError(t, d.DispatchJoin(context.Background(), joinEvent(domain.Player{ID: "p1", Size: 4})))

	assert.Len(t, msgr.sent, 1)
}

func TestSendFailureSurfacesError(t *testing.T) {
	msgr := &fakeMessenger{sendErr: errors.New("missing access")}
	d := NewDispatcher(msgr, nil, 0, 0, testLogger())

	err := d.DispatchJoin(context.Background(), joinEvent(domain.Player{ID: "p1", Size: 4}))
	assert.ErrorContains(t, err, "join alert")
}

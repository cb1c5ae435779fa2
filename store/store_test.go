package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/scrumpoker/scrumpoker/types"
)

func card(v string) *types.CardValue {
	c := types.CardValue(v)
	return &c
}

func TestAddPlayerCapacity(t *testing.T) {
	s := NewStore(3, clockwork.NewFakeClock())

	for i := 0; i < 3; i++ {
		_, err := s.AddPlayer("room", fmt.Sprintf("id-%d", i), fmt.Sprintf("player-%d", i), false)
		require.NoError(t, err)
	}

	_, err := s.AddPlayer("room", "id-3", "player-3", false)
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Len(t, s.Players("room"), 3)

	// moderators count toward capacity as well
	_, err = s.AddPlayer("room", "id-4", "moderator", true)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestAddPlayerNameUniqueness(t *testing.T) {
	s := NewStore(0, clockwork.NewFakeClock())

	_, err := s.AddPlayer("room", "id-1", "Alice", false)
	require.NoError(t, err)

	_, err = s.AddPlayer("room", "id-2", "alice", false)
	assert.ErrorIs(t, err, ErrNameTaken)

	// uniqueness is checked against moderators, too
	_, err = s.AddPlayer("room", "id-3", "Mod", true)
	require.NoError(t, err)
	_, err = s.AddPlayer("room", "id-4", "mod", false)
	assert.ErrorIs(t, err, ErrNameTaken)

	// but it is scoped per room
	_, err = s.AddPlayer("other", "id-5", "ALICE", false)
	assert.NoError(t, err)
}

func TestRemovePlayerFreesName(t *testing.T) {
	s := NewStore(0, clockwork.NewFakeClock())

	_, err := s.AddPlayer("room", "id-1", "Alice", false)
	require.NoError(t, err)
	require.True(t, s.RemovePlayer("room", "id-1"))

	_, err = s.AddPlayer("room", "id-2", "Alice", false)
	assert.NoError(t, err)

	assert.False(t, s.RemovePlayer("room", "id-1"))
	assert.False(t, s.RemovePlayer("missing", "id-1"))
}

func TestReconnectPlayer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewStore(0, clock)

	original, err := s.AddPlayer("room", "old-id", "Alice", false)
	require.NoError(t, err)
	require.True(t, s.UpdateCard("room", "old-id", card("13")))

	// the reconnect happens later, the join time must not change
	clock.Advance(5 * time.Minute)

	player, ok := s.ReconnectPlayer("room", "old-id", "new-id")
	require.True(t, ok)
	assert.Equal(t, "new-id", player.Id)
	assert.Equal(t, "Alice", player.Name)
	assert.Equal(t, types.CardValue("13"), *player.Card)
	assert.False(t, player.IsModerator)
	assert.Equal(t, original.JoinedAt, player.JoinedAt)

	_, ok = s.Player("room", "old-id")
	assert.False(t, ok)
	_, ok = s.Player("room", "new-id")
	assert.True(t, ok)

	_, ok = s.ReconnectPlayer("room", "old-id", "other-id")
	assert.False(t, ok)
}

func TestUpdateCard(t *testing.T) {
	s := NewStore(0, clockwork.NewFakeClock())

	_, err := s.AddPlayer("room", "id-1", "Alice", false)
	require.NoError(t, err)

	require.True(t, s.UpdateCard("room", "id-1", card("5")))
	player, ok := s.Player("room", "id-1")
	require.True(t, ok)
	assert.Equal(t, types.CardValue("5"), *player.Card)

	// nil clears the selection, a legitimate steady state
	require.True(t, s.UpdateCard("room", "id-1", nil))
	player, _ = s.Player("room", "id-1")
	assert.Nil(t, player.Card)

	assert.False(t, s.UpdateCard("room", "missing", card("5")))
	assert.False(t, s.UpdateCard("missing", "id-1", card("5")))
}

func TestClearCards(t *testing.T) {
	s := NewStore(0, clockwork.NewFakeClock())

	_, err := s.AddPlayer("room", "id-1", "Alice", false)
	require.NoError(t, err)
	_, err = s.AddPlayer("room", "id-2", "Bob", false)
	require.NoError(t, err)
	require.True(t, s.UpdateCard("room", "id-1", card("5")))
	require.True(t, s.SetRevealed("room", true))

	require.True(t, s.ClearCards("room"))

	revealed, ok := s.IsRevealed("room")
	require.True(t, ok)
	assert.False(t, revealed)
	for _, p := range s.Players("room") {
		assert.Nil(t, p.Card)
	}
}

func TestCleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewStore(0, clock)

	s.CreateOrGet("stale")
	_, err := s.AddPlayer("occupied", "id-1", "Alice", false)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	s.CreateOrGet("fresh")

	cleaned := s.Cleanup(30 * time.Minute)
	assert.Equal(t, 1, cleaned)
	assert.False(t, s.Exists("stale"))
	assert.True(t, s.Exists("occupied"))
	assert.True(t, s.Exists("fresh"))

	// a room that regained activity through a join is not eligible
	clock.Advance(31 * time.Minute)
	_, err = s.AddPlayer("fresh", "id-2", "Bob", false)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Cleanup(30*time.Minute))
	assert.True(t, s.Exists("fresh"))
}

func TestCreateOrGetIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewStore(0, clock)

	s.CreateOrGet("room")
	_, err := s.AddPlayer("room", "id-1", "Alice", false)
	require.NoError(t, err)

	state := s.CreateOrGet("room")
	assert.Len(t, state.Players, 1)
	assert.False(t, state.IsRevealed)
}

func TestAdminStats(t *testing.T) {
	s := NewStore(0, clockwork.NewFakeClock())

	_, err := s.AddPlayer("one", "id-1", "Alice", false)
	require.NoError(t, err)
	_, err = s.AddPlayer("one", "id-2", "Bob", false)
	require.NoError(t, err)
	require.True(t, s.UpdateCard("one", "id-1", card("8")))
	require.True(t, s.SetRevealed("one", true))
	s.CreateOrGet("empty")

	stats := s.AdminStats()
	assert.Equal(t, 2, stats.Rooms.Total)
	assert.Equal(t, 1, stats.Rooms.Empty)
	assert.Equal(t, 1, stats.Rooms.WithPlayers)
	assert.Equal(t, 1, stats.Rooms.Revealed)
	assert.Equal(t, 1, stats.Rooms.Hidden)
	assert.Equal(t, 2, stats.Players.Total)
	assert.Equal(t, 1, stats.Players.WithCards)
	assert.Equal(t, 1, stats.Players.WithoutCards)
	assert.Equal(t, 1.0, stats.Players.AveragePerRoom)

	// the histogram carries the whole deck, zero-initialized
	assert.Len(t, stats.Cards.Distribution, len(types.CardValues))
	assert.Equal(t, 1, stats.Cards.Distribution[types.CardValue("8")])
	assert.Equal(t, 0, stats.Cards.Distribution[types.CardX])
}

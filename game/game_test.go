package game

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/scrumpoker/scrumpoker/store"
	"github.com/scrumpoker/scrumpoker/types"
)

func newGame(t *testing.T) (*store.Store, *Service) {
	t.Helper()
	s := store.NewStore(0, clockwork.NewFakeClock())
	return s, NewService(s)
}

func addPlayer(t *testing.T, s *store.Store, code, id, name string, card string) {
	t.Helper()
	_, err := s.AddPlayer(code, id, name, false)
	require.NoError(t, err)
	if card != "" {
		c := types.CardValue(card)
		require.True(t, s.UpdateCard(code, id, &c))
	}
}

func names(players []types.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.Name)
	}
	return out
}

func TestRevealOrdersByCard(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "a", "A", "13")
	addPlayer(t, s, "room", "b", "B", "3")
	addPlayer(t, s, "room", "c", "C", "8")

	players, ok := g.Reveal("room")
	require.True(t, ok)
	assert.Equal(t, []string{"B", "C", "A"}, names(players))
}

func TestRevealSortsSpecialCardLast(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "a", "A", "X")
	addPlayer(t, s, "room", "b", "B", "1")
	addPlayer(t, s, "room", "c", "C", "20")

	players, ok := g.Reveal("room")
	require.True(t, ok)
	assert.Equal(t, []string{"B", "C", "A"}, names(players))
}

func TestRevealSortsCardlessLast(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "b", "Bob", "3")
	addPlayer(t, s, "room", "a", "Alice", "")

	players, ok := g.Reveal("room")
	require.True(t, ok)
	assert.Equal(t, []string{"Bob", "Alice"}, names(players))
}

func TestRevealBreaksTiesByName(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "c", "Charlie", "5")
	addPlayer(t, s, "room", "a", "Alice", "5")
	addPlayer(t, s, "room", "b", "Bob", "5")

	players, ok := g.Reveal("room")
	require.True(t, ok)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names(players))
}

func TestRevealIdempotent(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "a", "A", "13")
	addPlayer(t, s, "room", "b", "B", "3")

	first, ok := g.Reveal("room")
	require.True(t, ok)
	second, ok := g.Reveal("room")
	require.True(t, ok)
	assert.Equal(t, names(first), names(second))

	revealed, _ := s.IsRevealed("room")
	assert.True(t, revealed)
}

func TestRevealMissingRoom(t *testing.T) {
	_, g := newGame(t)
	_, ok := g.Reveal("missing")
	assert.False(t, ok)
}

func TestResetClearsCardsAndSortsAlphabetically(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "c", "Charlie", "20")
	addPlayer(t, s, "room", "a", "Alice", "1")
	addPlayer(t, s, "room", "b", "Bob", "")
	_, ok := g.Reveal("room")
	require.True(t, ok)

	players, ok := g.Reset("room")
	require.True(t, ok)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names(players))
	for _, p := range players {
		assert.Nil(t, p.Card)
	}
	revealed, _ := s.IsRevealed("room")
	assert.False(t, revealed)
}

func TestSortedPlayersHidden(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "b", "Bob", "3")
	addPlayer(t, s, "room", "a", "Alice", "")

	// not revealed, so purely alphabetical, former cards do not matter
	assert.Equal(t, []string{"Alice", "Bob"}, names(g.SortedPlayers("room")))
}

func TestCanReveal(t *testing.T) {
	s, g := newGame(t)

	assert.False(t, g.CanReveal("room"))

	addPlayer(t, s, "room", "a", "Alice", "5")
	assert.False(t, g.CanReveal("room"), "a single player with a card is no quorum")

	addPlayer(t, s, "room", "b", "Bob", "")
	assert.False(t, g.CanReveal("room"), "two players but only one card is no quorum")

	c := types.CardValue("8")
	require.True(t, s.UpdateCard("room", "b", &c))
	assert.True(t, g.CanReveal("room"))
}

func TestCanRevealIgnoresModerators(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "a", "Alice", "5")
	addPlayer(t, s, "room", "b", "Bob", "8")
	_, err := s.AddPlayer("room", "m", "Mod", true)
	require.NoError(t, err)

	assert.True(t, g.CanReveal("room"))

	// two visible players are required, the moderator does not count
	require.True(t, s.RemovePlayer("room", "b"))
	assert.False(t, g.CanReveal("room"))
}

func TestCanReset(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "a", "Alice", "5")
	addPlayer(t, s, "room", "b", "Bob", "8")

	assert.False(t, g.CanReset("room"))
	_, ok := g.Reveal("room")
	require.True(t, ok)
	assert.True(t, g.CanReset("room"))
	_, ok = g.Reset("room")
	require.True(t, ok)
	assert.False(t, g.CanReset("room"))

	assert.False(t, g.CanReset("missing"))
}

func TestStats(t *testing.T) {
	s, g := newGame(t)
	addPlayer(t, s, "room", "a", "Alice", "5")
	addPlayer(t, s, "room", "b", "Bob", "")
	_, err := s.AddPlayer("room", "m", "Mod", true)
	require.NoError(t, err)

	stats := g.Stats("room")
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.TotalPlayers, "moderators are not part of the game stats")
	assert.Equal(t, 1, stats.PlayersWithCards)
	assert.Equal(t, 1, stats.PlayersWithoutCards)
	assert.False(t, stats.IsRevealed)
	assert.False(t, stats.CanReveal)
	assert.False(t, stats.CanReset)

	assert.Nil(t, g.Stats("missing"))
}

package game

import (
	"sort"

	"github.com/scrumpoker/scrumpoker/globals"
	"github.com/scrumpoker/scrumpoker/store"
	"github.com/scrumpoker/scrumpoker/types"
)

// minRevealQuorum is the number of visible players that must hold a card
// before a reveal is permitted. A single vote reveal is meaningless, so the
// quorum is deliberately two, not one.
const minRevealQuorum = 2

// Service implements the reveal/reset transitions and the display orderings
// on top of the room store. It is pure logic, all state lives in the store.
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Reveal sets a room to revealed and returns its visible players in reveal
// order: card rank ascending, cardless players last, ties broken by name.
// Revealing an already-revealed room is harmless and yields the same order.
func (g *Service) Reveal(code string) ([]types.Player, bool) {
	if !g.store.SetRevealed(code, true) {
		return nil, false
	}
	globals.AppLogger.Debug("cards revealed", "room", code)
	return g.SortedPlayers(code), true
}

// Reset clears every card, hides the room again and returns the visible
// players in alphabetical order.
func (g *Service) Reset(code string) ([]types.Player, bool) {
	if !g.store.ClearCards(code) {
		return nil, false
	}
	globals.AppLogger.Debug("game reset", "room", code)
	return g.SortedPlayers(code), true
}

// SortedPlayers returns the visible players ordered for display: by card
// rank then name while the room is revealed, purely by name otherwise.
func (g *Service) SortedPlayers(code string) []types.Player {
	revealed, ok := g.store.IsRevealed(code)
	if !ok {
		return []types.Player{}
	}
	players := g.store.VisiblePlayers(code)

	if revealed {
		sort.Slice(players, func(i, j int) bool {
			ri, rj := types.Rank(players[i].Card), types.Rank(players[j].Card)
			if ri != rj {
				return ri < rj
			}
			return players[i].Name < players[j].Name
		})
	} else {
		sort.Slice(players, func(i, j int) bool {
			return players[i].Name < players[j].Name
		})
	}
	return players
}

// CanReveal reports whether the room holds at least two visible players of
// which at least two have selected a card.
func (g *Service) CanReveal(code string) bool {
	players := g.store.VisiblePlayers(code)
	if len(players) < minRevealQuorum {
		return false
	}
	withCards := 0
	for _, p := range players {
		if p.Card != nil {
			withCards++
		}
	}
	return withCards >= minRevealQuorum
}

// CanReset reports whether the room is currently revealed.
func (g *Service) CanReset(code string) bool {
	revealed, ok := g.store.IsRevealed(code)
	return ok && revealed
}

// Stats summarizes the game state of one room over its visible players.
type Stats struct {
	TotalPlayers        int  `json:"totalPlayers"`
	PlayersWithCards    int  `json:"playersWithCards"`
	PlayersWithoutCards int  `json:"playersWithoutCards"`
	IsRevealed          bool `json:"isRevealed"`
	CanReveal           bool `json:"canReveal"`
	CanReset            bool `json:"canReset"`
}

// Stats returns the game statistics of a room, or nil if the room is absent.
func (g *Service) Stats(code string) *Stats {
	revealed, ok := g.store.IsRevealed(code)
	if !ok {
		return nil
	}
	players := g.store.VisiblePlayers(code)
	withCards := 0
	for _, p := range players {
		if p.Card != nil {
			withCards++
		}
	}
	return &Stats{
		TotalPlayers:        len(players),
		PlayersWithCards:    withCards,
		PlayersWithoutCards: len(players) - withCards,
		IsRevealed:          revealed,
		CanReveal:           g.CanReveal(code),
		CanReset:            g.CanReset(code),
	}
}

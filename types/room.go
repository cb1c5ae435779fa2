package types

import "time"

// Room is one estimation session. The store exclusively owns all Room and
// Player data, consumers only ever receive copies.
type Room struct {
	Code         string
	Players      map[string]*Player
	IsRevealed   bool
	CreatedAt    time.Time
	LastActivity time.Time
}

// VisiblePlayers returns copies of the non-moderator players. Moderators
// observe and control the game but never appear in orderings, stats or the
// reveal quorum.
func (r *Room) VisiblePlayers() []Player {
	players := make([]Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsModerator {
			continue
		}
		players = append(players, *p)
	}
	return players
}

// AllPlayers returns copies of every player including moderators.
func (r *Room) AllPlayers() []Player {
	players := make([]Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, *p)
	}
	return players
}

package store

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/scrumpoker/scrumpoker/globals"
	"github.com/scrumpoker/scrumpoker/types"
)

// DefaultMaxPlayers is the per-room capacity limit, moderators included.
const DefaultMaxPlayers = 20

// Store is the in-memory room store. It is the only shared mutable resource
// of the server, every compound read-modify-write sequence runs under the
// mutex so capacity checks, name checks and cleanup stay atomic with respect
// to concurrent joins.
type Store struct {
	rooms      map[string]*types.Room
	maxPlayers int
	clock      clockwork.Clock

	mutex sync.RWMutex
}

// NewStore creates an empty store. The clock is injectable so cleanup and
// activity tracking are testable without wall-clock waits.
func NewStore(maxPlayers int, clock clockwork.Clock) *Store {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return &Store{
		rooms:      make(map[string]*types.Room),
		maxPlayers: maxPlayers,
		clock:      clock,
	}
}

// CreateOrGet ensures the room with the given code exists, creating it on
// first use, and returns a snapshot of it. Rooms start hidden with an empty
// player set.
func (s *Store) CreateOrGet(code string) RoomState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	room := s.createOrGet(code)
	return RoomState{
		RoomCode:   room.Code,
		Players:    room.AllPlayers(),
		IsRevealed: room.IsRevealed,
	}
}

func (s *Store) createOrGet(code string) *types.Room {
	room, exists := s.rooms[code]
	if !exists {
		now := s.clock.Now()
		room = &types.Room{
			Code:         code,
			Players:      make(map[string]*types.Player),
			IsRevealed:   false,
			CreatedAt:    now,
			LastActivity: now,
		}
		s.rooms[code] = room
		globals.AppLogger.Info("created new room", "room", code)
	}
	return room
}

// Exists reports whether a room with the given code is known.
func (s *Store) Exists(code string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, exists := s.rooms[code]
	return exists
}

// AddPlayer adds a new player to a room, creating the room if necessary.
// It fails with ErrRoomFull at capacity and with ErrNameTaken if any current
// player (moderators included) already holds the name case-insensitively.
func (s *Store) AddPlayer(code, playerId, name string, isModerator bool) (types.Player, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room := s.createOrGet(code)

	if len(room.Players) >= s.maxPlayers {
		return types.Player{}, ErrRoomFull
	}
	for _, p := range room.Players {
		if strings.EqualFold(p.Name, name) {
			return types.Player{}, ErrNameTaken
		}
	}

	player := &types.Player{
		Id:          playerId,
		Name:        name,
		Card:        nil,
		IsModerator: isModerator,
		JoinedAt:    s.clock.Now(),
	}
	room.Players[playerId] = player
	room.LastActivity = s.clock.Now()

	globals.AppLogger.Debug("player joined room", "player", name, "id", playerId, "room", code)
	return *player, nil
}

// RemovePlayer deletes a player, freeing its name for later joins.
func (s *Store) RemovePlayer(code, playerId string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[code]
	if !exists {
		return false
	}
	player, exists := room.Players[playerId]
	if !exists {
		return false
	}
	delete(room.Players, playerId)
	room.LastActivity = s.clock.Now()

	globals.AppLogger.Debug("player left room", "player", player.Name, "id", playerId, "room", code)
	return true
}

// ReconnectPlayer atomically re-keys a player from oldId to newId, keeping
// name, card, moderator flag and join time. It fails if oldId does not
// currently map to a player.
func (s *Store) ReconnectPlayer(code, oldId, newId string) (types.Player, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[code]
	if !exists {
		return types.Player{}, false
	}
	player, exists := room.Players[oldId]
	if !exists {
		return types.Player{}, false
	}
	delete(room.Players, oldId)
	player.Id = newId
	room.Players[newId] = player
	room.LastActivity = s.clock.Now()

	globals.AppLogger.Debug("player reconnected", "player", player.Name, "old_id", oldId, "new_id", newId, "room", code)
	return *player, true
}

// Player returns a copy of a single player.
func (s *Store) Player(code, playerId string) (types.Player, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return types.Player{}, false
	}
	player, exists := room.Players[playerId]
	if !exists {
		return types.Player{}, false
	}
	return *player, true
}

// UpdateCard sets or clears (nil) a player's selection.
func (s *Store) UpdateCard(code, playerId string, card *types.CardValue) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[code]
	if !exists {
		return false
	}
	player, exists := room.Players[playerId]
	if !exists {
		return false
	}
	player.Card = card
	room.LastActivity = s.clock.Now()
	return true
}

// SetRevealed flips the reveal state of a room.
func (s *Store) SetRevealed(code string, revealed bool) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[code]
	if !exists {
		return false
	}
	room.IsRevealed = revealed
	room.LastActivity = s.clock.Now()
	return true
}

// ClearCards clears every selection and sets the room back to hidden.
func (s *Store) ClearCards(code string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[code]
	if !exists {
		return false
	}
	for _, player := range room.Players {
		player.Card = nil
	}
	room.IsRevealed = false
	room.LastActivity = s.clock.Now()
	return true
}

// IsRevealed returns the reveal state of a room.
func (s *Store) IsRevealed(code string) (revealed bool, ok bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return false, false
	}
	return room.IsRevealed, true
}

// Players returns copies of all players in a room, moderators included.
// Storage order is unspecified, display order is always computed on read.
func (s *Store) Players(code string) []types.Player {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return nil
	}
	return room.AllPlayers()
}

// VisiblePlayers returns copies of the non-moderator players of a room.
func (s *Store) VisiblePlayers(code string) []types.Player {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return nil
	}
	return room.VisiblePlayers()
}

// RoomState is an immutable snapshot handed to the protocol layer.
type RoomState struct {
	RoomCode   string
	Players    []types.Player
	IsRevealed bool
}

// State returns a snapshot of a room for the private room-state message.
func (s *Store) State(code string) (RoomState, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return RoomState{}, false
	}
	return RoomState{
		RoomCode:   room.Code,
		Players:    room.AllPlayers(),
		IsRevealed: room.IsRevealed,
	}, true
}

// Cleanup removes every room that has no players and has been inactive for
// longer than threshold. It runs under the write lock, so the player count is
// re-validated against concurrent joins immediately before each delete.
func (s *Store) Cleanup(threshold time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.clock.Now()
	cleaned := 0
	for code, room := range s.rooms {
		if len(room.Players) == 0 && now.Sub(room.LastActivity) > threshold {
			delete(s.rooms, code)
			cleaned++
			globals.AppLogger.Info("cleaned up stale room", "room", code)
		}
	}
	return cleaned
}

// AdminStats aggregates counts over all rooms for the admin projection. It
// never mutates state.
func (s *Store) AdminStats() types.AdminStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := types.AdminStats{
		Timestamp: s.clock.Now(),
		Cards:     types.CardStats{Distribution: make(map[types.CardValue]int, len(types.CardValues))},
	}
	for _, card := range types.CardValues {
		stats.Cards.Distribution[card] = 0
	}

	for _, room := range s.rooms {
		stats.Rooms.Total++
		if len(room.Players) == 0 {
			stats.Rooms.Empty++
		} else {
			stats.Rooms.WithPlayers++
		}
		if room.IsRevealed {
			stats.Rooms.Revealed++
		} else {
			stats.Rooms.Hidden++
		}
		for _, player := range room.Players {
			stats.Players.Total++
			if player.Card != nil {
				stats.Players.WithCards++
				stats.Cards.Distribution[*player.Card]++
			} else {
				stats.Players.WithoutCards++
			}
		}
	}
	if stats.Rooms.Total > 0 {
		avg := float64(stats.Players.Total) / float64(stats.Rooms.Total)
		stats.Players.AveragePerRoom = math.Round(avg*100) / 100
	}
	return stats
}

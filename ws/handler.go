package ws

import (
	"strings"
	"time"

	"github.com/folkengine/goname"
	"github.com/jonboulle/clockwork"
	"github.com/scrumpoker/scrumpoker/game"
	"github.com/scrumpoker/scrumpoker/globals"
	"github.com/scrumpoker/scrumpoker/store"
	"github.com/scrumpoker/scrumpoker/types"
)

// Handler translates inbound protocol actions into store/game calls and
// computes the fan-out: who gets told what. It is the sole writer to the
// room store.
type Handler struct {
	store       *store.Store
	game        *game.Service
	hub         *Hub
	grace       *GraceTable
	clock       clockwork.Clock
	gracePeriod time.Duration
}

func NewHandler(s *store.Store, g *game.Service, hub *Hub, grace *GraceTable, clock clockwork.Clock, gracePeriod time.Duration) *Handler {
	return &Handler{
		store:       s,
		game:        g,
		hub:         hub,
		grace:       grace,
		clock:       clock,
		gracePeriod: gracePeriod,
	}
}

// HandleJoin processes a join request. A valid reconnect id turns it into a
// reconnection, which re-keys the old seat and stays invisible to everyone
// else; otherwise it is a fresh join with capacity and name checks.
func (h *Handler) HandleJoin(c *Client, msg types.JoinRoomMessage) {
	// one connection is one seat in one room; a second join on a bound
	// connection must not touch the store, the seat would have no
	// disconnect path and could never be cleaned up
	if h.hub.RoomCode(c) != "" {
		h.hub.SendTo(c, types.EventError, types.ErrorMessage{Message: "already in a room"})
		return
	}

	isReconnection := false
	joined := false

	if msg.ReconnectPlayerId != "" {
		// the seat is still reserved, stop the grace timer in any case
		h.grace.Cancel(msg.ReconnectPlayerId)

		// re-key only if the old id still maps to a player under the same
		// name (the join may have raced ahead of the disconnect)
		if old, ok := h.store.Player(msg.RoomCode, msg.ReconnectPlayerId); ok && strings.EqualFold(old.Name, msg.PlayerName) {
			if _, ok := h.store.ReconnectPlayer(msg.RoomCode, msg.ReconnectPlayerId, c.PlayerId); ok {
				isReconnection = true
				joined = true
			}
		}
	}

	if !joined {
		name := strings.TrimSpace(msg.PlayerName)
		if name == "" {
			name = goname.New(goname.FantasyMap).FirstLast() + " (guest)"
		}
		if _, err := h.store.AddPlayer(msg.RoomCode, c.PlayerId, name, msg.IsModerator); err != nil {
			h.hub.SendTo(c, types.EventJoinResult, types.JoinResultMessage{Success: false, Error: err.Error()})
			return
		}
	}

	h.hub.PlaceInRoom(c, msg.RoomCode)
	h.hub.SendTo(c, types.EventJoinResult, types.JoinResultMessage{Success: true, PlayerId: c.PlayerId})

	state, ok := h.store.State(msg.RoomCode)
	if !ok {
		return
	}
	h.hub.SendTo(c, types.EventRoomState, types.RoomStateMessage{
		RoomCode:        state.RoomCode,
		Players:         roomStatePlayers(state, c.PlayerId),
		IsRevealed:      state.IsRevealed,
		CurrentPlayerId: c.PlayerId,
	})

	// a reconnection must be seamless for everyone else; moderator joins are
	// not announced either, moderators are not part of the visible list
	if !isReconnection {
		if player, ok := h.store.Player(msg.RoomCode, c.PlayerId); ok && !player.IsModerator {
			h.hub.BroadcastRoomExcept(msg.RoomCode, c, types.EventPlayerJoined, types.PlayerJoinedMessage{Player: player})
		}
	}
}

// roomStatePlayers projects a room snapshot for one recipient. Moderators are
// left out (the recipient always sees itself), and while the room is hidden
// every other player's card value is redacted down to the has-card flag.
func roomStatePlayers(state store.RoomState, selfId string) []types.RoomStatePlayer {
	players := make([]types.RoomStatePlayer, 0, len(state.Players))
	for _, p := range state.Players {
		if p.IsModerator && p.Id != selfId {
			continue
		}
		entry := types.RoomStatePlayer{Player: p, HasCard: p.Card != nil}
		if !state.IsRevealed && p.Id != selfId {
			entry.Card = nil
		}
		players = append(players, entry)
	}
	return players
}

// cardSelectedForOthers is the payload everyone in the room may see before a
// reveal: only whether a selection exists.
func cardSelectedForOthers(playerId string, card *types.CardValue) types.CardSelectedMessage {
	return types.CardSelectedMessage{PlayerId: playerId, HasCard: card != nil}
}

// cardSelectedForSelf additionally carries the value, for the selector's own
// UI feedback.
func cardSelectedForSelf(playerId string, card *types.CardValue) types.CardSelectedMessage {
	return types.CardSelectedMessage{PlayerId: playerId, HasCard: card != nil, Card: card}
}

// HandleSelectCard sets or clears the sender's selection. Moderator sends
// and sends against a revealed room are silently ignored.
func (h *Handler) HandleSelectCard(c *Client, msg types.SelectCardMessage) {
	player, ok := h.store.Player(msg.RoomCode, c.PlayerId)
	if !ok || player.IsModerator {
		return
	}
	if revealed, ok := h.store.IsRevealed(msg.RoomCode); !ok || revealed {
		return
	}
	if msg.Card != nil && !types.IsValidCard(*msg.Card) {
		globals.AppLogger.Warn("ignoring invalid card", "card", *msg.Card, "player", c.PlayerId)
		return
	}
	if !h.store.UpdateCard(msg.RoomCode, c.PlayerId, msg.Card) {
		return
	}
	h.hub.BroadcastRoomExcept(msg.RoomCode, c, types.EventCardSelected, cardSelectedForOthers(c.PlayerId, msg.Card))
	h.hub.SendTo(c, types.EventCardSelected, cardSelectedForSelf(c.PlayerId, msg.Card))
}

// HandleRevealCards flips the room to revealed and broadcasts the ordered
// list with real values. Without the two-card quorum (or a prior reveal) the
// action is a silent no-op, as is a vanished room.
func (h *Handler) HandleRevealCards(c *Client, msg types.RevealCardsMessage) {
	revealed, ok := h.store.IsRevealed(msg.RoomCode)
	if !ok {
		return
	}
	if !revealed && !h.game.CanReveal(msg.RoomCode) {
		return
	}
	players, ok := h.game.Reveal(msg.RoomCode)
	if !ok {
		return
	}
	h.hub.BroadcastRoom(msg.RoomCode, types.EventCardsRevealed, types.CardsRevealedMessage{Players: players})
}

// HandleResetGame clears all cards and broadcasts the alphabetical list.
func (h *Handler) HandleResetGame(c *Client, msg types.ResetGameMessage) {
	players, ok := h.game.Reset(msg.RoomCode)
	if !ok {
		return
	}
	h.hub.BroadcastRoom(msg.RoomCode, types.EventGameReset, types.GameResetMessage{Players: players})
}

// HandleRemovePlayer removes the target player (any participant may remove
// any player, including themselves). The target gets a private notice and
// its connection is closed after a short delay so the notice can flush, the
// rest of the room gets a player-left broadcast.
func (h *Handler) HandleRemovePlayer(c *Client, msg types.RemovePlayerMessage) {
	target, ok := h.store.Player(msg.RoomCode, msg.PlayerId)
	if !ok {
		return
	}
	if !h.store.RemovePlayer(msg.RoomCode, msg.PlayerId) {
		return
	}
	// the seat is gone for good, a pending grace timer must not fire
	h.grace.Cancel(msg.PlayerId)

	if targetClient := h.hub.ClientByPlayer(msg.PlayerId); targetClient != nil {
		reason := types.RemovedReasonOther
		if c.PlayerId == msg.PlayerId {
			reason = types.RemovedReasonSelf
		}
		h.hub.SendTo(targetClient, types.EventRemovedFromRoom, types.RemovedFromRoomMessage{
			RoomCode: msg.RoomCode,
			Reason:   reason,
		})
		h.hub.RemoveFromRoom(targetClient)
		h.clock.AfterFunc(removeCloseDelay, targetClient.Close)
	}

	h.hub.BroadcastRoom(msg.RoomCode, types.EventPlayerLeft, types.PlayerLeftMessage{
		PlayerId:   target.Id,
		PlayerName: target.Name,
	})
}

// HandleDisconnect reacts to a transport-level disconnect. The player keeps
// its seat for the grace period; only when no reconnection arrives in time
// is it removed and announced, exactly once.
func (h *Handler) HandleDisconnect(c *Client, roomCode string) {
	if roomCode == "" {
		return
	}
	player, ok := h.store.Player(roomCode, c.PlayerId)
	if !ok {
		// already removed, or the seat was re-keyed by a racing reconnect
		return
	}
	playerId := c.PlayerId
	globals.AppLogger.Debug("player disconnected, starting grace period",
		"player", player.Name, "id", playerId, "grace", h.gracePeriod)

	h.grace.Schedule(playerId, h.gracePeriod, func() {
		if !h.store.RemovePlayer(roomCode, playerId) {
			return
		}
		h.hub.BroadcastRoom(roomCode, types.EventPlayerLeft, types.PlayerLeftMessage{
			PlayerId:   playerId,
			PlayerName: player.Name,
		})
	})
}

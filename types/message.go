package types

// The different types of messages transferred from the client to here.
const (
	EventJoinRoom     = "join-room"
	EventSelectCard   = "select-card"
	EventRevealCards  = "reveal-cards"
	EventResetGame    = "reset-game"
	EventRemovePlayer = "remove-player"
)

// The different types of messages transferred from here to the clients.
const (
	EventJoinResult      = "join-result"
	EventRoomState       = "room-state"
	EventPlayerJoined    = "player-joined"
	EventPlayerLeft      = "player-left"
	EventCardSelected    = "card-selected"
	EventCardsRevealed   = "cards-revealed"
	EventGameReset       = "game-reset"
	EventRemovedFromRoom = "removed-from-room"
	EventError           = "error"
)

// Reasons carried by RemovedFromRoomMessage.
const (
	RemovedReasonSelf  = "self"
	RemovedReasonOther = "other"
)

// JoinRoomMessage is sent by a client to enter a room, optionally resuming an
// earlier seat via ReconnectPlayerId.
type JoinRoomMessage struct {
	RoomCode          string `json:"roomCode" mapstructure:"roomCode"`
	PlayerName        string `json:"playerName" mapstructure:"playerName"`
	IsModerator       bool   `json:"isModerator" mapstructure:"isModerator"`
	ReconnectPlayerId string `json:"reconnectPlayerId" mapstructure:"reconnectPlayerId"`
}

// SelectCardMessage sets or clears (nil) the sender's selection.
type SelectCardMessage struct {
	RoomCode string     `json:"roomCode" mapstructure:"roomCode"`
	Card     *CardValue `json:"card" mapstructure:"card"`
}

type RevealCardsMessage struct {
	RoomCode string `json:"roomCode" mapstructure:"roomCode"`
}

type ResetGameMessage struct {
	RoomCode string `json:"roomCode" mapstructure:"roomCode"`
}

type RemovePlayerMessage struct {
	RoomCode string `json:"roomCode" mapstructure:"roomCode"`
	PlayerId string `json:"playerId" mapstructure:"playerId"`
}

// JoinResultMessage is the private acknowledgement of a join attempt.
type JoinResultMessage struct {
	Success  bool   `json:"success"`
	PlayerId string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RoomStatePlayer is a player as it appears in the room-state snapshot. While
// the room is hidden, Card is cleared for everyone but the recipient and
// HasCard is all the snapshot discloses about the others' selections.
type RoomStatePlayer struct {
	Player
	HasCard bool `json:"hasCard"`
}

// RoomStateMessage is the snapshot sent privately to a joining client. The
// player list is a per-recipient projection, never the raw room contents.
type RoomStateMessage struct {
	RoomCode        string            `json:"roomCode"`
	Players         []RoomStatePlayer `json:"players"`
	IsRevealed      bool              `json:"isRevealed"`
	CurrentPlayerId string            `json:"currentPlayerId"`
}

type PlayerJoinedMessage struct {
	Player Player `json:"player"`
}

type PlayerLeftMessage struct {
	PlayerId   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// CardSelectedMessage announces a selection change. Everyone in the room only
// learns HasCard, the actual value is carried on the copy sent privately to
// the selector.
type CardSelectedMessage struct {
	PlayerId string     `json:"playerId"`
	HasCard  bool       `json:"hasCard"`
	Card     *CardValue `json:"card,omitempty"`
}

// CardsRevealedMessage carries the players in reveal order with real values.
type CardsRevealedMessage struct {
	Players []Player `json:"players"`
}

// GameResetMessage carries the players in alphabetical order, all cards nil.
type GameResetMessage struct {
	Players []Player `json:"players"`
}

type RemovedFromRoomMessage struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

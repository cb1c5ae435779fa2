package types

import "time"

// Player is one participant within a room. Id is the connection id of the
// participant's websocket and is re-keyed in place when the participant
// reconnects, everything else survives the reconnection unchanged.
type Player struct {
	Id          string     `json:"id"`
	Name        string     `json:"name"`
	Card        *CardValue `json:"card"`
	IsModerator bool       `json:"isModerator"`
	JoinedAt    time.Time  `json:"joinedAt"`
}

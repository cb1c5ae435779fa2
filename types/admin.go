package types

import "time"

// RoomStats aggregates rooms by emptiness and reveal state.
type RoomStats struct {
	Total       int `json:"total"`
	Empty       int `json:"empty"`
	WithPlayers int `json:"withPlayers"`
	Revealed    int `json:"revealed"`
	Hidden      int `json:"hidden"`
}

// PlayerStats aggregates players by card presence.
type PlayerStats struct {
	Total          int     `json:"total"`
	AveragePerRoom float64 `json:"averagePerRoom"`
	WithCards      int     `json:"withCards"`
	WithoutCards   int     `json:"withoutCards"`
}

// CardStats holds the selection histogram over the whole deck, values nobody
// picked are present with a zero count.
type CardStats struct {
	Distribution map[CardValue]int `json:"distribution"`
}

// AdminStats is the read-only projection served to the admin endpoint.
type AdminStats struct {
	Timestamp time.Time   `json:"timestamp"`
	Rooms     RoomStats   `json:"rooms"`
	Players   PlayerStats `json:"players"`
	Cards     CardStats   `json:"cards"`
}

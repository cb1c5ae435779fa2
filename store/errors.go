package store

import "errors"

// Common errors
var (
	ErrRoomFull  = errors.New("room is full")
	ErrNameTaken = errors.New("player name already taken in this room")
)

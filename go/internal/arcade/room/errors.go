package room

import "errors"

var (
	ErrInvalidPassword = errors.New("password must contain only digits")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrNilCatalog      = errors.New("map catalog is required")
	ErrNilOwner        = errors.New("owner cannot be nil")
	ErrRoomStopped     = errors.New("room is stopped")
	ErrBanned          = errors.New("player is banned from this room")
	ErrRoomFull        = errors.New("room is full")
	ErrWrongPassword   = errors.New("wrong room password")
	ErrAlreadyJoined   = errors.New("player already in room")
)

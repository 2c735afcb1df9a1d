package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomState defines the lifecycle phase of a room.
type RoomState string

const (
	RoomStateStopped  RoomState = "STOPPED"
	RoomStateWaiting  RoomState = "WAITING"
	RoomStateVoting   RoomState = "VOTING"
	RoomStateStarting RoomState = "STARTING"
	RoomStatePlaying  RoomState = "PLAYING"
	RoomStateEnding   RoomState = "ENDING"
)

// Joinable reports whether players may still enter a room in this state.
func (s RoomState) Joinable() bool {
	return s != RoomStateStopped
}

// AcceptsSetup reports whether room setup (game type, map, timer) may change in this state.
func (s RoomState) AcceptsSetup() bool {
	return s == RoomStateWaiting || s == RoomStateVoting
}

// TimerRole identifies what the live countdown of a room is counting towards.
type TimerRole string

const (
	TimerRoleNone     TimerRole = "NONE"
	TimerRolePreStart TimerRole = "PRE_START"
	TimerRoleExpiry   TimerRole = "EXPIRY"
)

// BallotOption is a map candidate with the players that voted for it.
type BallotOption struct {
	MapID  string      `json:"map_id"`
	Voters []uuid.UUID `json:"voters"`
}

// RoomSnapshot is a point-in-time copy of a room's state.
type RoomSnapshot struct {
	ID             int            `json:"id"`
	Owner          *uuid.UUID     `json:"owner,omitempty"`
	Private        bool           `json:"private"`
	HasPassword    bool           `json:"has_password"`
	Slots          int            `json:"slots"`
	GameType       GameTypeID     `json:"game_type"`
	MinPlayers     int            `json:"min_players"`
	Event          bool           `json:"event"`
	EventEndsAt    *time.Time     `json:"event_ends_at,omitempty"`
	PreSelectedMap string         `json:"pre_selected_map,omitempty"`
	State          RoomState      `json:"state"`
	TimerRole      TimerRole      `json:"timer_role"`
	TimeRemaining  int64          `json:"time_remaining_sec"`
	TimerPaused    bool           `json:"timer_paused"`
	Players        []uuid.UUID    `json:"players"`
	Moderators     []uuid.UUID    `json:"moderators"`
	Banned         []uuid.UUID    `json:"banned"`
	Ballot         []BallotOption `json:"ballot"`
}

package events

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/arcade/go/internal/models"
)

// Event payload types shared between the room, publisher and gateway packages

// RoomCreatedPayload is the payload for a RoomCreated event
type RoomCreatedPayload struct {
	Private  bool              `json:"private"`
	GameType models.GameTypeID `json:"game_type"`
	Slots    int               `json:"slots"`
}

// RoomRemovedPayload is the payload for a RoomRemoved event
type RoomRemovedPayload struct {
	Reason string `json:"reason"`
}

// StateChangedPayload is the payload for a StateChanged event
type StateChangedPayload struct {
	From             models.RoomState `json:"from"`
	To               models.RoomState `json:"to"`
	TimerRole        models.TimerRole `json:"timer_role"`
	TimeRemainingSec int64            `json:"time_remaining_sec"`
	MapID            string           `json:"map_id,omitempty"`
}

// TimerTickPayload contains per-tick countdown updates
type TimerTickPayload struct {
	Role             models.TimerRole `json:"role"`
	TimeRemainingSec int64            `json:"time_remaining_sec"`
	Paused           bool             `json:"paused"`
}

// BallotUpdatedPayload is the payload for a BallotUpdated event
type BallotUpdatedPayload struct {
	Options []models.BallotOption `json:"options"`
}

// PlayerPayload is the payload for PlayerJoined and PlayerLeft events
type PlayerPayload struct {
	PlayerID string `json:"player_id"`
	Players  int    `json:"players"`
}

// PlayerBannedPayload is the payload for a PlayerBanned event
type PlayerBannedPayload struct {
	PlayerID string `json:"player_id"`
	BannedBy string `json:"banned_by"`
}

// MapPreSelectedPayload is the payload for a MapPreSelected event
type MapPreSelectedPayload struct {
	MapID      string `json:"map_id"`
	SelectedBy string `json:"selected_by,omitempty"`
}

// SettingsChangedPayload is the payload for a SettingsChanged event
type SettingsChangedPayload struct {
	GameType    models.GameTypeID `json:"game_type"`
	Event       bool              `json:"event"`
	EventEndsAt *time.Time        `json:"event_ends_at,omitempty"`
	Slots       int               `json:"slots"`
	HasPassword bool              `json:"has_password"`
}

// ParsePayload decodes event data into the payload struct for its type.
func ParsePayload(event RoomEvent) (interface{}, error) {
	var target interface{}
	switch event.Type {
	case EventTypeRoomCreated:
		target = &RoomCreatedPayload{}
	case EventTypeRoomRemoved:
		target = &RoomRemovedPayload{}
	case EventTypeStateChanged:
		target = &StateChangedPayload{}
	case EventTypeTimerTick:
		target = &TimerTickPayload{}
	case EventTypeBallotUpdated:
		target = &BallotUpdatedPayload{}
	case EventTypePlayerJoined, EventTypePlayerLeft:
		target = &PlayerPayload{}
	case EventTypePlayerBanned:
		target = &PlayerBannedPayload{}
	case EventTypeMapPreSelected:
		target = &MapPreSelectedPayload{}
	case EventTypeSettingsChanged:
		target = &SettingsChangedPayload{}
	default:
		return nil, nil // Unknown event type
	}
	if err := json.Unmarshal(event.Data, target); err != nil {
		return nil, err
	}
	return target, nil
}

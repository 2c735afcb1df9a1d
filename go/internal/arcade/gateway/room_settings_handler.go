package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/room"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

type GameTypeRequest struct {
	GameType models.GameTypeID `json:"game_type"`
}

func (r *GameTypeRequest) validate() error {
	if r.GameType == "" {
		return errors.New("game_type is required")
	}
	return nil
}

type StartEventRequest struct {
	GameType    models.GameTypeID `json:"game_type"`
	DurationSec int64             `json:"duration_sec"`
}

func (r *StartEventRequest) validate() error {
	if r.GameType == "" {
		return errors.New("game_type is required")
	}
	if r.DurationSec <= 0 {
		return errors.New("duration_sec must be positive")
	}
	return nil
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type SlotsRequest struct {
	Slots int `json:"slots"`
}

type PreSelectedMapRequest struct {
	// An empty MapID clears the selection.
	MapID string `json:"map_id"`
}

type PauseRequest struct {
	Paused bool `json:"paused"`
}

type TimerRequest struct {
	Seconds int64 `json:"seconds"`
}

type PlayerRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
}

func (r *PlayerRequest) validate() error {
	if r.PlayerID == uuid.Nil {
		return errors.New("player_id is required")
	}
	return nil
}

type validator interface {
	validate() error
}

type permission int

const (
	needModerator permission = iota
	needOwner
)

// roomAction resolves the room and the acting player, decodes req when it is non-nil, checks
// the actor against need and applies fn. The actor is re-checked by the room itself; a false
// result after the permission check means the change was not applicable and maps to 409.
func (h *RoomHandler) roomAction(w http.ResponseWriter, r *http.Request, need permission, req interface{}, fn func(rm *room.Room, actor uuid.UUID) bool) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	actor, ok := playerFromRequest(w, r)
	if !ok {
		return
	}

	if req != nil {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if v, ok := req.(validator); ok {
			if err := v.validate(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
	}

	allowed := rm.IsModerator(actor)
	if need == needOwner {
		allowed = rm.IsOwner(actor)
	}
	if !allowed {
		http.Error(w, "not allowed to change this room", http.StatusForbidden)
		return
	}

	if !fn(rm, actor) {
		http.Error(w, "change rejected", http.StatusConflict)
		return
	}
	log.Debug().Int("room_id", rm.ID()).Str("actor", actor.String()).Str("path", r.URL.Path).Msg("room updated via API")
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

// HandleSetGameType handles POST /api/rooms/{id}/game-type
func (h *RoomHandler) HandleSetGameType(w http.ResponseWriter, r *http.Request) {
	var req GameTypeRequest
	h.roomAction(w, r, needModerator, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.SetGameType(actor, req.GameType)
	})
}

// HandleStartEvent handles POST /api/rooms/{id}/event
func (h *RoomHandler) HandleStartEvent(w http.ResponseWriter, r *http.Request) {
	var req StartEventRequest
	h.roomAction(w, r, needModerator, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.StartEvent(actor, req.GameType, time.Duration(req.DurationSec)*time.Second)
	})
}

// HandleSetPassword handles POST /api/rooms/{id}/password
func (h *RoomHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	h.roomAction(w, r, needOwner, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.SetPassword(actor, req.Password)
	})
}

// HandleSetSlots handles POST /api/rooms/{id}/slots
func (h *RoomHandler) HandleSetSlots(w http.ResponseWriter, r *http.Request) {
	var req SlotsRequest
	h.roomAction(w, r, needOwner, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.SetSlots(actor, req.Slots)
	})
}

// HandleSetPreSelectedMap handles POST /api/rooms/{id}/map
func (h *RoomHandler) HandleSetPreSelectedMap(w http.ResponseWriter, r *http.Request) {
	var req PreSelectedMapRequest
	h.roomAction(w, r, needModerator, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.SetPreSelectedMap(actor, req.MapID)
	})
}

// HandleSetPaused handles POST /api/rooms/{id}/pause
func (h *RoomHandler) HandleSetPaused(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	h.roomAction(w, r, needModerator, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.SetPaused(actor, req.Paused)
	})
}

// HandleSetTimer handles POST /api/rooms/{id}/timer
func (h *RoomHandler) HandleSetTimer(w http.ResponseWriter, r *http.Request) {
	var req TimerRequest
	h.roomAction(w, r, needModerator, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.SetTimer(actor, req.Seconds)
	})
}

// HandleBan handles POST /api/rooms/{id}/ban
func (h *RoomHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	h.roomAction(w, r, needModerator, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.Ban(actor, req.PlayerID)
	})
}

// HandleUnban handles POST /api/rooms/{id}/unban
func (h *RoomHandler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	h.roomAction(w, r, needModerator, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.Unban(actor, req.PlayerID)
	})
}

// HandleAddModerator handles POST /api/rooms/{id}/moderators
func (h *RoomHandler) HandleAddModerator(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	h.roomAction(w, r, needOwner, &req, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.AddModerator(actor, req.PlayerID)
	})
}

// HandleRemoveModerator handles DELETE /api/rooms/{id}/moderators/{player}
func (h *RoomHandler) HandleRemoveModerator(w http.ResponseWriter, r *http.Request) {
	target, err := uuid.Parse(r.PathValue("player"))
	if err != nil {
		http.Error(w, "invalid player id format", http.StatusBadRequest)
		return
	}
	h.roomAction(w, r, needOwner, nil, func(rm *room.Room, actor uuid.UUID) bool {
		return rm.RemoveModerator(actor, target)
	})
}

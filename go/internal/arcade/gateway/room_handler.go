package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/room"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PlayerHeader carries the caller's player id. Authentication sits in front of the gateway.
const PlayerHeader = "X-Player-ID"

// RoomDirectory is the part of the room registry the gateway serves.
type RoomDirectory interface {
	Get(id int) (*room.Room, bool)
	List() []*room.Room
	CreatePublic(gameType models.GameTypeID) (*room.Room, error)
	CreatePublicWithPassword(gameType models.GameTypeID, password string) (*room.Room, error)
	CreatePrivate(owner uuid.UUID, password string) (*room.Room, error)
	DefaultGameType() models.GameTypeID
	IsPrivileged(player uuid.UUID) bool
	RevalidateMaps()
}

// RoomSummary is the lobby listing entry for a room.
type RoomSummary struct {
	ID          int               `json:"id"`
	Private     bool              `json:"private"`
	HasPassword bool              `json:"has_password"`
	GameType    models.GameTypeID `json:"game_type"`
	State       models.RoomState  `json:"state"`
	Players     int               `json:"players"`
	Slots       int               `json:"slots"`
}

type CreateRoomRequest struct {
	Private  bool              `json:"private"`
	GameType models.GameTypeID `json:"game_type,omitempty"`
	Password string            `json:"password,omitempty"`
}

type JoinRoomRequest struct {
	Password string `json:"password,omitempty"`
}

type VoteRequest struct {
	MapID string `json:"map_id"`
}

// RoomHandler serves the lobby API over the room registry.
type RoomHandler struct {
	rooms RoomDirectory
}

func NewRoomHandler(rooms RoomDirectory) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// HandleListRooms handles GET /api/rooms
func (h *RoomHandler) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	list := h.rooms.List()
	out := make([]RoomSummary, 0, len(list))
	for _, rm := range list {
		out = append(out, summarize(rm.Snapshot()))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetRoomState handles GET /api/rooms/{id}/state
func (h *RoomHandler) HandleGetRoomState(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

// HandleCreateRoom handles POST /api/rooms
func (h *RoomHandler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.GameType == "" {
		req.GameType = h.rooms.DefaultGameType()
	}

	var (
		rm  *room.Room
		err error
	)
	switch {
	case req.Private:
		owner, ok := playerFromRequest(w, r)
		if !ok {
			return
		}
		rm, err = h.rooms.CreatePrivate(owner, req.Password)
	case req.Password != "":
		rm, err = h.rooms.CreatePublicWithPassword(req.GameType, req.Password)
	default:
		rm, err = h.rooms.CreatePublic(req.GameType)
	}
	if err != nil {
		writeRoomError(w, err)
		return
	}

	log.Info().Int("room_id", rm.ID()).Bool("private", req.Private).Msg("room created via API")
	writeJSON(w, http.StatusCreated, rm.Snapshot())
}

// HandleJoinRoom handles POST /api/rooms/{id}/join
func (h *RoomHandler) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	player, ok := playerFromRequest(w, r)
	if !ok {
		return
	}

	var req JoinRoomRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	if err := rm.Join(player, req.Password); err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

// HandleLeaveRoom handles POST /api/rooms/{id}/leave
func (h *RoomHandler) HandleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	player, ok := playerFromRequest(w, r)
	if !ok {
		return
	}
	if !rm.Leave(player) {
		http.Error(w, "player is not in this room", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVote handles POST /api/rooms/{id}/vote
func (h *RoomHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	player, ok := playerFromRequest(w, r)
	if !ok {
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MapID == "" {
		http.Error(w, "map_id is required", http.StatusBadRequest)
		return
	}
	if !rm.Vote(player, req.MapID) {
		http.Error(w, "vote rejected", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

// HandleStopRoom handles DELETE /api/rooms/{id}
func (h *RoomHandler) HandleStopRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	player, ok := playerFromRequest(w, r)
	if !ok {
		return
	}
	if !rm.Stop(player) {
		http.Error(w, "not allowed to stop this room", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEndGame handles POST /api/rooms/{id}/end. The game runner reports finished sessions
// with a moderator identity.
func (h *RoomHandler) HandleEndGame(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	player, ok := playerFromRequest(w, r)
	if !ok {
		return
	}
	if !rm.IsModerator(player) {
		http.Error(w, "not allowed to end this game", http.StatusForbidden)
		return
	}
	if !rm.EndGame() {
		http.Error(w, "room is not playing", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, rm.Snapshot())
}

func (h *RoomHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rooms", h.HandleListRooms)
	mux.HandleFunc("POST /api/rooms", h.HandleCreateRoom)
	mux.HandleFunc("GET /api/rooms/{id}/state", h.HandleGetRoomState)
	mux.HandleFunc("POST /api/rooms/{id}/join", h.HandleJoinRoom)
	mux.HandleFunc("POST /api/rooms/{id}/leave", h.HandleLeaveRoom)
	mux.HandleFunc("POST /api/rooms/{id}/vote", h.HandleVote)
	mux.HandleFunc("POST /api/rooms/{id}/end", h.HandleEndGame)
	mux.HandleFunc("DELETE /api/rooms/{id}", h.HandleStopRoom)

	mux.HandleFunc("POST /api/rooms/{id}/game-type", h.HandleSetGameType)
	mux.HandleFunc("POST /api/rooms/{id}/event", h.HandleStartEvent)
	mux.HandleFunc("POST /api/rooms/{id}/password", h.HandleSetPassword)
	mux.HandleFunc("POST /api/rooms/{id}/slots", h.HandleSetSlots)
	mux.HandleFunc("POST /api/rooms/{id}/map", h.HandleSetPreSelectedMap)
	mux.HandleFunc("POST /api/rooms/{id}/pause", h.HandleSetPaused)
	mux.HandleFunc("POST /api/rooms/{id}/timer", h.HandleSetTimer)
	mux.HandleFunc("POST /api/rooms/{id}/ban", h.HandleBan)
	mux.HandleFunc("POST /api/rooms/{id}/unban", h.HandleUnban)
	mux.HandleFunc("POST /api/rooms/{id}/moderators", h.HandleAddModerator)
	mux.HandleFunc("DELETE /api/rooms/{id}/moderators/{player}", h.HandleRemoveModerator)
}

func (h *RoomHandler) lookup(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid room id format", http.StatusBadRequest)
		return nil, false
	}
	rm, ok := h.rooms.Get(id)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return nil, false
	}
	return rm, true
}

func playerFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	player, err := uuid.Parse(r.Header.Get(PlayerHeader))
	if err != nil || player == uuid.Nil {
		http.Error(w, "missing or invalid "+PlayerHeader+" header", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return player, true
}

func summarize(s models.RoomSnapshot) RoomSummary {
	return RoomSummary{
		ID:          s.ID,
		Private:     s.Private,
		HasPassword: s.HasPassword,
		GameType:    s.GameType,
		State:       s.State,
		Players:     len(s.Players),
		Slots:       s.Slots,
	}
}

func writeRoomError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, room.ErrInvalidPassword), errors.Is(err, room.ErrUnknownGameType):
		status = http.StatusBadRequest
	case errors.Is(err, room.ErrBanned), errors.Is(err, room.ErrWrongPassword):
		status = http.StatusForbidden
	case errors.Is(err, room.ErrRoomStopped), errors.Is(err, room.ErrRoomFull), errors.Is(err, room.ErrAlreadyJoined):
		status = http.StatusConflict
	default:
		log.Error().Err(err).Msg("room request failed")
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

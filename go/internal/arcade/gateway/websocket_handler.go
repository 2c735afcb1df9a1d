package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for room subscriptions
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	rooms             RoomDirectory
}

func NewWebSocketHandler(cm *ConnectionManager, rooms RoomDirectory) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		rooms:             rooms,
	}
}

// HandleRoomConnection handles GET /ws/room?room_id=&player_id=
func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	roomIDStr := r.URL.Query().Get("room_id")
	if roomIDStr == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}
	roomID, err := strconv.Atoi(roomIDStr)
	if err != nil || roomID <= 0 {
		http.Error(w, "invalid room_id format", http.StatusBadRequest)
		return
	}
	if _, ok := h.rooms.Get(roomID); !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	// In production the player id would come from a session token
	playerID, err := uuid.Parse(r.URL.Query().Get("player_id"))
	if err != nil {
		http.Error(w, "invalid player_id format", http.StatusBadRequest)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, playerID.String(), roomID); err != nil {
		// The upgrader has already written an error response.
		log.Error().
			Err(err).
			Int("room_id", roomID).
			Str("player_id", playerID.String()).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/room", h.HandleRoomConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}

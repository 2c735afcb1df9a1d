package gateway

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/mcdev12/arcade/go/internal/arcade/maps"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// MapCatalog is the editable map catalog behind the admin routes.
type MapCatalog interface {
	Names() []string
	Get(name string) (maps.GameMap, bool)
	Register(name string, types ...models.GameTypeID) error
	Unregister(name string) bool
	SetTypeEnabled(name string, id models.GameTypeID, enabled bool) bool
}

type MapSummary struct {
	Name  string              `json:"name"`
	Types []models.GameTypeID `json:"types"`
}

type RegisterMapRequest struct {
	Types []models.GameTypeID `json:"types"`
}

type MapTypeRequest struct {
	GameType models.GameTypeID `json:"game_type"`
	Enabled  bool              `json:"enabled"`
}

// MapHandler serves the map catalog. Edits are limited to privileged players and are
// propagated to every live room.
type MapHandler struct {
	catalog MapCatalog
	rooms   RoomDirectory
}

func NewMapHandler(catalog MapCatalog, rooms RoomDirectory) *MapHandler {
	return &MapHandler{catalog: catalog, rooms: rooms}
}

// HandleListMaps handles GET /api/maps
func (h *MapHandler) HandleListMaps(w http.ResponseWriter, r *http.Request) {
	names := h.catalog.Names()
	out := make([]MapSummary, 0, len(names))
	for _, name := range names {
		if m, ok := h.catalog.Get(name); ok {
			out = append(out, summarizeMap(m))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRegisterMap handles PUT /api/maps/{name}
func (h *MapHandler) HandleRegisterMap(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	name := r.PathValue("name")

	var req RegisterMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.catalog.Register(name, req.Types...); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.edited(name)
	h.writeMap(w, name)
}

// HandleUnregisterMap handles DELETE /api/maps/{name}
func (h *MapHandler) HandleUnregisterMap(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	name := r.PathValue("name")
	if !h.catalog.Unregister(name) {
		http.Error(w, "map not found", http.StatusNotFound)
		return
	}
	h.edited(name)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetMapType handles POST /api/maps/{name}/types
func (h *MapHandler) HandleSetMapType(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	name := r.PathValue("name")

	var req MapTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameType == "" {
		http.Error(w, "game_type is required", http.StatusBadRequest)
		return
	}
	if _, ok := h.catalog.Get(name); !ok {
		http.Error(w, "map not found", http.StatusNotFound)
		return
	}
	if !h.catalog.SetTypeEnabled(name, req.GameType, req.Enabled) {
		http.Error(w, "map types unchanged", http.StatusConflict)
		return
	}
	h.edited(name)
	h.writeMap(w, name)
}

func (h *MapHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/maps", h.HandleListMaps)
	mux.HandleFunc("PUT /api/maps/{name}", h.HandleRegisterMap)
	mux.HandleFunc("DELETE /api/maps/{name}", h.HandleUnregisterMap)
	mux.HandleFunc("POST /api/maps/{name}/types", h.HandleSetMapType)
}

func (h *MapHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	player, ok := playerFromRequest(w, r)
	if !ok {
		return false
	}
	if !h.rooms.IsPrivileged(player) {
		http.Error(w, "not allowed to edit maps", http.StatusForbidden)
		return false
	}
	return true
}

// edited re-checks pre-selected maps and ballots of every room against the new catalog.
func (h *MapHandler) edited(name string) {
	log.Info().Str("map", name).Msg("map catalog edited via API")
	h.rooms.RevalidateMaps()
}

func (h *MapHandler) writeMap(w http.ResponseWriter, name string) {
	m, ok := h.catalog.Get(name)
	if !ok {
		http.Error(w, "map not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summarizeMap(m))
}

func summarizeMap(m maps.GameMap) MapSummary {
	types := make([]models.GameTypeID, 0, len(m.Types))
	for id := range m.Types {
		types = append(types, id)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return MapSummary{Name: m.Name, Types: types}
}

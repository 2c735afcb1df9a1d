package room

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/access"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Registry owns every live room. Ids are handed out in increasing order and never reused.
// Apart from construction, the registry lock is never held while a room is locked.
type Registry struct {
	cfg  Config
	deps Dependencies

	mu     sync.RWMutex
	nextID int
	rooms  map[int]*Room
}

func NewRegistry(cfg Config, deps Dependencies) *Registry {
	return &Registry{
		cfg:    cfg,
		deps:   deps,
		nextID: 1,
		rooms:  make(map[int]*Room),
	}
}

// CreatePublic creates a public room without a password.
func (g *Registry) CreatePublic(gameType models.GameTypeID) (*Room, error) {
	return g.create(gameType, nil, "")
}

func (g *Registry) CreatePublicWithPassword(gameType models.GameTypeID, password string) (*Room, error) {
	return g.create(gameType, nil, password)
}

// CreatePrivate creates a room owned by owner using the default game type.
func (g *Registry) CreatePrivate(owner uuid.UUID, password string) (*Room, error) {
	if owner == uuid.Nil {
		return nil, ErrNilOwner
	}
	return g.create(g.cfg.DefaultGameType, &owner, password)
}

// DefaultGameType is the game type private rooms are created with.
func (g *Registry) DefaultGameType() models.GameTypeID {
	return g.cfg.DefaultGameType
}

// IsPrivileged reports whether player holds the server-wide privileged role.
func (g *Registry) IsPrivileged(player uuid.UUID) bool {
	return access.NewPolicy(g.deps.Roles, g.cfg.PrivilegedRole).IsPrivileged(player)
}

func (g *Registry) create(gameType models.GameTypeID, owner *uuid.UUID, password string) (*Room, error) {
	if !ValidPassword(password) {
		return nil, ErrInvalidPassword
	}

	// Rooms are built under the registry lock so ids are indexed in allocation order.
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	r, err := newRoom(id, gameType, owner, password, g.cfg, g.deps, g.forget)
	if err != nil {
		log.Error().Err(err).Int("room_id", id).Str("game_type", string(gameType)).Msg("failed to create room")
		return nil, err
	}
	g.rooms[id] = r
	return r, nil
}

func (g *Registry) forget(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.rooms[id]; ok {
		delete(g.rooms, id)
		log.Debug().Int("room_id", id).Msg("room removed from registry")
	}
}

func (g *Registry) Get(id int) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// List returns the live rooms ordered by id.
func (g *Registry) List() []*Room {
	g.mu.RLock()
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Remove drops the room from the index and stops it.
func (g *Registry) Remove(id int) bool {
	g.mu.Lock()
	r, ok := g.rooms[id]
	delete(g.rooms, id)
	g.mu.Unlock()

	if !ok {
		return false
	}
	r.ForceStop()
	return true
}

// StopAll stops every room. Used on shutdown.
func (g *Registry) StopAll() {
	for _, r := range g.List() {
		r.ForceStop()
	}
}

// RevalidateMaps propagates a catalog edit to every room.
func (g *Registry) RevalidateMaps() {
	for _, r := range g.List() {
		r.RevalidateMaps()
	}
}

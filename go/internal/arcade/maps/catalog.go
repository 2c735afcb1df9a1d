package maps

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Catalog is what rooms and ballots need to know about playable maps.
// Implementations must be fast and safe to call while a room lock is held.
type Catalog interface {
	AvailableMaps(gameType models.GameTypeID) ([]string, error)
	IsValidForType(mapID string, gameType models.GameTypeID) bool
}

var ErrEmptyMapName = errors.New("map name cannot be empty")

// GameMap is a registered map and the game types it has spawn setups for.
// Types is never mutated once the map is stored; edits swap in a new set.
type GameMap struct {
	Name  string
	Types map[models.GameTypeID]struct{}
}

// CanBeUsed reports whether the map supports at least one game type.
func (m GameMap) CanBeUsed() bool {
	return len(m.Types) > 0
}

func (m GameMap) IsValidType(id models.GameTypeID) bool {
	_, ok := m.Types[id]
	return ok
}

// Store is an in-memory Catalog.
type Store struct {
	mu   sync.RWMutex
	maps map[string]GameMap
}

var _ Catalog = (*Store)(nil)

func NewStore() *Store {
	return &Store{maps: make(map[string]GameMap)}
}

type fileConfig struct {
	Maps []struct {
		Name  string   `yaml:"name"`
		Types []string `yaml:"types"`
	} `yaml:"maps"`
}

// LoadFile builds a Store from a YAML file listing maps and their game types.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a Store from YAML bytes.
func Parse(data []byte) (*Store, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse map catalog: %w", err)
	}

	s := NewStore()
	for _, m := range cfg.Maps {
		types := make([]models.GameTypeID, 0, len(m.Types))
		for _, t := range m.Types {
			types = append(types, models.GameTypeID(t))
		}
		if err := s.Register(m.Name, types...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds or replaces a map. Unknown game types are dropped.
func (s *Store) Register(name string, types ...models.GameTypeID) error {
	if name == "" {
		return ErrEmptyMapName
	}

	valid := make(map[models.GameTypeID]struct{}, len(types))
	for _, t := range types {
		if _, ok := models.GameTypeByID(t); !ok {
			log.Warn().Str("map", name).Str("game_type", string(t)).Msg("ignoring unknown game type for map")
			continue
		}
		valid[t] = struct{}{}
	}

	s.mu.Lock()
	s.maps[name] = GameMap{Name: name, Types: valid}
	s.mu.Unlock()

	log.Debug().Str("map", name).Int("types", len(valid)).Msg("map registered")
	return nil
}

// Unregister removes a map. It returns false when the map was unknown.
func (s *Store) Unregister(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.maps[name]; !ok {
		return false
	}
	delete(s.maps, name)
	return true
}

// SetTypeEnabled adds or removes a game type from a map.
// It returns whether the map's type set changed.
func (s *Store) SetTypeEnabled(name string, id models.GameTypeID, enabled bool) bool {
	if _, ok := models.GameTypeByID(id); !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maps[name]
	if !ok {
		return false
	}
	_, has := m.Types[id]
	if has == enabled {
		return false
	}
	types := copyTypes(m.Types)
	if enabled {
		types[id] = struct{}{}
	} else {
		delete(types, id)
	}
	s.maps[name] = GameMap{Name: name, Types: types}
	return true
}

// Get returns a copy of the named map.
func (s *Store) Get(name string) (GameMap, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[name]
	if !ok {
		return GameMap{}, false
	}
	return GameMap{Name: m.Name, Types: copyTypes(m.Types)}, true
}

func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.maps[name]
	return ok
}

func copyTypes(types map[models.GameTypeID]struct{}) map[models.GameTypeID]struct{} {
	out := make(map[models.GameTypeID]struct{}, len(types))
	for id := range types {
		out[id] = struct{}{}
	}
	return out
}

// Names returns every registered map name, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.maps))
	for name := range s.maps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AvailableMaps returns the sorted names of maps playable with the given game type.
func (s *Store) AvailableMaps(gameType models.GameTypeID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.maps))
	for name, m := range s.maps {
		if m.IsValidType(gameType) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) IsValidForType(mapID string, gameType models.GameTypeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[mapID]
	return ok && m.IsValidType(gameType)
}

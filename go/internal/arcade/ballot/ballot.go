package ballot

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/maps"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultOptions is how many maps a ballot offers when no count is configured.
const DefaultOptions = 3

// Rand is the random source used to draw candidates.
type Rand interface {
	Intn(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// NewRand returns a goroutine-safe Rand seeded from the current time.
func NewRand() Rand {
	return &lockedRand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Ballot maps candidate maps to the players who voted for them. Options keep their insertion
// order, which decides ties. A Ballot is not safe for concurrent use; the owning room
// serialises access.
type Ballot struct {
	catalog maps.Catalog
	options int
	rng     Rand

	order  []string
	voters map[string]map[uuid.UUID]struct{}
}

// New creates an empty ballot. optionCount <= 0 falls back to DefaultOptions; a nil rng uses NewRand.
func New(catalog maps.Catalog, optionCount int, rng Rand) *Ballot {
	if optionCount <= 0 {
		optionCount = DefaultOptions
	}
	if rng == nil {
		rng = NewRand()
	}
	return &Ballot{
		catalog: catalog,
		options: optionCount,
		rng:     rng,
		voters:  make(map[string]map[uuid.UUID]struct{}),
	}
}

// Rebuild tops the ballot up with random maps valid for gameType until it holds the configured
// number of options or candidates run out. Existing options and their votes are kept.
// It returns whether any option was added.
func (b *Ballot) Rebuild(gameType models.GameTypeID) bool {
	if len(b.order) >= b.options {
		return false
	}

	available, err := b.catalog.AvailableMaps(gameType)
	if err != nil {
		log.Error().Err(err).Str("game_type", string(gameType)).Msg("map catalog query failed, ballot left as is")
		return false
	}

	candidates := make([]string, 0, len(available))
	for _, name := range available {
		if _, taken := b.voters[name]; !taken {
			candidates = append(candidates, name)
		}
	}

	added := false
	for len(candidates) > 0 && len(b.order) < b.options {
		i := b.rng.Intn(len(candidates))
		b.add(candidates[i])
		candidates = append(candidates[:i], candidates[i+1:]...)
		added = true
	}
	return added
}

func (b *Ballot) add(mapID string) {
	b.order = append(b.order, mapID)
	b.voters[mapID] = make(map[uuid.UUID]struct{})
}

// Prune drops options that are no longer valid for gameType. It returns the removed map ids.
func (b *Ballot) Prune(gameType models.GameTypeID) []string {
	var removed []string
	kept := b.order[:0]
	for _, mapID := range b.order {
		if b.catalog.IsValidForType(mapID, gameType) {
			kept = append(kept, mapID)
			continue
		}
		delete(b.voters, mapID)
		removed = append(removed, mapID)
	}
	b.order = kept
	return removed
}

// Vote records player's vote for mapID, replacing any earlier vote.
// Unknown options are rejected.
func (b *Ballot) Vote(player uuid.UUID, mapID string) bool {
	target, ok := b.voters[mapID]
	if !ok {
		return false
	}
	if _, already := target[player]; already {
		return false
	}
	b.Withdraw(player)
	target[player] = struct{}{}
	return true
}

// Withdraw removes player's vote. It returns whether a vote existed.
func (b *Ballot) Withdraw(player uuid.UUID) bool {
	for _, set := range b.voters {
		if _, ok := set[player]; ok {
			delete(set, player)
			return true
		}
	}
	return false
}

// VoteOf returns the option player voted for.
func (b *Ballot) VoteOf(player uuid.UUID) (string, bool) {
	for _, mapID := range b.order {
		if _, ok := b.voters[mapID][player]; ok {
			return mapID, true
		}
	}
	return "", false
}

// Winner returns the option with the most voters, ties going to the earliest inserted option.
func (b *Ballot) Winner() (string, bool) {
	best, bestVotes := "", -1
	for _, mapID := range b.order {
		if n := len(b.voters[mapID]); n > bestVotes {
			best, bestVotes = mapID, n
		}
	}
	return best, bestVotes >= 0
}

func (b *Ballot) Has(mapID string) bool {
	_, ok := b.voters[mapID]
	return ok
}

func (b *Ballot) Len() int {
	return len(b.order)
}

func (b *Ballot) Clear() {
	b.order = nil
	b.voters = make(map[string]map[uuid.UUID]struct{})
}

// Options returns the options in insertion order with their voters.
func (b *Ballot) Options() []models.BallotOption {
	out := make([]models.BallotOption, 0, len(b.order))
	for _, mapID := range b.order {
		voters := make([]uuid.UUID, 0, len(b.voters[mapID]))
		for id := range b.voters[mapID] {
			voters = append(voters, id)
		}
		sort.Slice(voters, func(i, j int) bool { return voters[i].String() < voters[j].String() })
		out = append(out, models.BallotOption{MapID: mapID, Voters: voters})
	}
	return out
}

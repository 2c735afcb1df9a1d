package room

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/access"
	"github.com/mcdev12/arcade/go/internal/arcade/ballot"
	"github.com/mcdev12/arcade/go/internal/arcade/countdown"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Room is one arcade lobby. All of its state is guarded by mu; timer callbacks take mu and
// drop themselves when their countdown is no longer the live one.
type Room struct {
	id        int
	owner     *uuid.UUID
	cfg       Config
	deps      Dependencies
	policy    access.Policy
	onRemoved func(roomID int)

	mu             sync.Mutex
	state          models.RoomState
	password       string
	slots          int
	gameType       models.GameType
	event          bool
	eventEndsAt    time.Time
	preSelectedMap string
	players        []uuid.UUID
	moderators     map[uuid.UUID]struct{}
	banned         map[uuid.UUID]struct{}
	ballot         *ballot.Ballot
	session        SessionHandle
	launchSeq      uint64

	timer     *countdown.Countdown
	timerRole models.TimerRole
	timerGen  uint64
}

// New builds a room and settles it into its first lobby state. A non-nil owner makes the room
// private.
func New(id int, gameType models.GameTypeID, owner *uuid.UUID, password string, cfg Config, deps Dependencies) (*Room, error) {
	return newRoom(id, gameType, owner, password, cfg, deps, nil)
}

func newRoom(id int, gameType models.GameTypeID, owner *uuid.UUID, password string, cfg Config, deps Dependencies, onRemoved func(int)) (*Room, error) {
	if !ValidPassword(password) {
		return nil, ErrInvalidPassword
	}
	if deps.Catalog == nil {
		return nil, ErrNilCatalog
	}
	gt, ok := models.GameTypeByID(gameType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGameType, gameType)
	}
	if owner != nil {
		if *owner == uuid.Nil {
			return nil, ErrNilOwner
		}
		o := *owner
		owner = &o
	}

	deps = deps.withDefaults()
	rng := deps.Rand
	if rng == nil {
		rng = ballot.NewRand()
	}
	options := cfg.VoteOptions
	if options <= 0 {
		options = ballot.DefaultOptions
	}
	slots := cfg.Slots
	if slots < gt.MinPlayers {
		slots = gt.MinPlayers
	}

	r := &Room{
		id:         id,
		owner:      owner,
		cfg:        cfg,
		deps:       deps,
		policy:     access.NewPolicy(deps.Roles, cfg.PrivilegedRole),
		onRemoved:  onRemoved,
		state:      models.RoomStateStopped,
		password:   password,
		slots:      slots,
		gameType:   gt,
		moderators: make(map[uuid.UUID]struct{}),
		banned:     make(map[uuid.UUID]struct{}),
		ballot:     ballot.New(deps.Catalog, options, rng),
		timerRole:  models.TimerRoleNone,
	}

	r.mu.Lock()
	r.emitLocked(events.EventTypeRoomCreated, events.RoomCreatedPayload{
		Private:  owner != nil,
		GameType: gt.ID,
		Slots:    slots,
	})
	r.resetLocked()
	r.mu.Unlock()

	log.Info().
		Int("room_id", id).
		Str("game_type", string(gt.ID)).
		Bool("private", owner != nil).
		Msg("room created")
	return r, nil
}

// ValidPassword accepts the empty password or a string of digits.
func ValidPassword(password string) bool {
	for _, c := range password {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (r *Room) ID() int {
	return r.id
}

// Private reports whether the room has an owner.
func (r *Room) Private() bool {
	return r.owner != nil
}

// Owner returns the owner of a private room.
func (r *Room) Owner() (uuid.UUID, bool) {
	if r.owner == nil {
		return uuid.Nil, false
	}
	return *r.owner, true
}

func (r *Room) State() models.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) GameType() models.GameType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameType
}

// Players returns the participants in join order.
func (r *Room) Players() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersLocked()
}

// Session returns the handle of the running game, if any.
func (r *Room) Session() (SessionHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session, r.session.ID != ""
}

// RemainingTime returns the remaining ticks of the live timer, or -1 when there is none.
func (r *Room) RemainingTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer == nil {
		return -1
	}
	return r.timer.Remaining()
}

func (r *Room) IsOwner(player uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.policy.IsOwner(r.viewLocked(), player)
}

func (r *Room) IsModerator(player uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.policy.IsModerator(r.viewLocked(), player)
}

func (r *Room) IsBanned(player uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.policy.IsBanned(r.viewLocked(), player)
}

// Snapshot copies the room's current state.
func (r *Room) Snapshot() models.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := models.RoomSnapshot{
		ID:             r.id,
		Private:        r.owner != nil,
		HasPassword:    r.password != "",
		Slots:          r.slots,
		GameType:       r.gameType.ID,
		MinPlayers:     r.gameType.MinPlayers,
		Event:          r.event,
		PreSelectedMap: r.preSelectedMap,
		State:          r.state,
		TimerRole:      r.timerRole,
		TimeRemaining:  -1,
		Players:        r.playersLocked(),
		Moderators:     sortedIDs(r.moderators),
		Banned:         sortedIDs(r.banned),
		Ballot:         r.ballot.Options(),
	}
	if r.owner != nil {
		owner := *r.owner
		s.Owner = &owner
	}
	if r.event {
		endsAt := r.eventEndsAt
		s.EventEndsAt = &endsAt
	}
	if r.timer != nil {
		s.TimeRemaining = r.timer.Remaining()
		s.TimerPaused = r.timer.Paused()
	}
	return s
}

func (r *Room) viewLocked() access.View {
	return access.View{Owner: r.owner, Moderators: r.moderators, Banned: r.banned}
}

func (r *Room) playersLocked() []uuid.UUID {
	out := make([]uuid.UUID, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Room) hasPlayerLocked(player uuid.UUID) bool {
	for _, p := range r.players {
		if p == player {
			return true
		}
	}
	return false
}

func (r *Room) removePlayerLocked(player uuid.UUID) bool {
	for i, p := range r.players {
		if p == player {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) notifyLocked(message string) {
	if len(r.players) == 0 || message == "" {
		return
	}
	r.deps.Notifier.Notify(r.playersLocked(), message)
}

func (r *Room) emitLocked(eventType events.EventType, payload interface{}) {
	event, err := events.New(r.id, eventType, payload, r.deps.Clock.Now())
	if err != nil {
		log.Error().Err(err).Int("room_id", r.id).Str("event_type", string(eventType)).Msg("failed to build room event")
		return
	}
	r.deps.Events.Publish(event)
}

func (r *Room) emitStateLocked(from models.RoomState, mapID string) {
	payload := events.StateChangedPayload{
		From:             from,
		To:               r.state,
		TimerRole:        r.timerRole,
		TimeRemainingSec: -1,
		MapID:            mapID,
	}
	if r.timer != nil {
		payload.TimeRemainingSec = r.timer.Remaining()
	}
	r.emitLocked(events.EventTypeStateChanged, payload)
}

func (r *Room) emitBallotLocked() {
	r.emitLocked(events.EventTypeBallotUpdated, events.BallotUpdatedPayload{Options: r.ballot.Options()})
}

func (r *Room) emitSettingsLocked() {
	payload := events.SettingsChangedPayload{
		GameType:    r.gameType.ID,
		Event:       r.event,
		Slots:       r.slots,
		HasPassword: r.password != "",
	}
	if r.event {
		endsAt := r.eventEndsAt
		payload.EventEndsAt = &endsAt
	}
	r.emitLocked(events.EventTypeSettingsChanged, payload)
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

package room

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/arcade/go/internal/arcade/access"
	"github.com/mcdev12/arcade/go/internal/arcade/ballot"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/mcdev12/arcade/go/internal/arcade/maps"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// MinTimerTicks is the lowest duration SetRoomTimer accepts (exclusive).
const MinTimerTicks = 10

// Config holds the tunables shared by every room.
type Config struct {
	// Durations are counted in ticks of TickInterval.
	GameWaitTime          int64
	PrivateRoomDeleteTime int64
	TickInterval          time.Duration
	LaunchTimeout         time.Duration

	VoteOptions     int
	Slots           int
	MaxSlots        int
	DefaultGameType models.GameTypeID
	PrivilegedRole  access.Role

	// StartMilestones are the remaining-tick values at which participants are told the game is
	// about to start. StartMessage is formatted with the remaining value.
	StartMilestones []int64
	StartMessage    string

	// DeleteMessages maps remaining ticks to the warning sent to a private room before it expires.
	DeleteMessages      map[int64]string
	MapSelectedMessage  string
	LaunchFailedMessage string
}

// DefaultConfig mirrors the stock arcade settings.
func DefaultConfig() Config {
	return Config{
		GameWaitTime:          150,
		PrivateRoomDeleteTime: 300,
		TickInterval:          time.Second,
		LaunchTimeout:         10 * time.Second,
		VoteOptions:           ballot.DefaultOptions,
		Slots:                 12,
		MaxSlots:              24,
		DefaultGameType:       models.GameTypeMurder,
		PrivilegedRole:        access.RoleModerator,
		StartMilestones:       []int64{60, 30, 10, 5, 4, 3, 2, 1},
		StartMessage:          "The game starts in %d seconds",
		DeleteMessages: map[int64]string{
			120: "This room will be deleted in 2 minutes",
			60:  "This room will be deleted in 1 minute",
			10:  "This room will be deleted in 10 seconds",
		},
		MapSelectedMessage:  "%s was selected as the next map",
		LaunchFailedMessage: "The game could not be started",
	}
}

// Notifier delivers chat notices to players. Delivery is best-effort and must not block.
type Notifier interface {
	Notify(recipients []uuid.UUID, message string)
}

// Kicker disconnects a player from a room's world after a ban.
type Kicker interface {
	Kick(roomID int, player uuid.UUID)
}

// LaunchRequest is what a Runner needs to build a game session.
type LaunchRequest struct {
	RoomID   int
	MapID    string
	GameType models.GameType
	Players  []uuid.UUID
}

// SessionHandle identifies a running game.
type SessionHandle struct {
	ID string
}

// Runner builds and starts game sessions.
type Runner interface {
	Launch(ctx context.Context, req LaunchRequest) (SessionHandle, error)
}

// Dependencies are the collaborators a room talks to. Only Catalog is required.
type Dependencies struct {
	Catalog  maps.Catalog
	Roles    access.RoleLookup
	Notifier Notifier
	Kicker   Kicker
	Runner   Runner
	Events   events.Sink
	Clock    clockwork.Clock
	Rand     ballot.Rand
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Kicker == nil {
		d.Kicker = nopKicker{}
	}
	if d.Runner == nil {
		d.Runner = NopRunner{}
	}
	if d.Events == nil {
		d.Events = events.Discard
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	return d
}

type nopNotifier struct{}

func (nopNotifier) Notify([]uuid.UUID, string) {}

type nopKicker struct{}

func (nopKicker) Kick(int, uuid.UUID) {}

// NopRunner accepts every launch without starting anything.
type NopRunner struct{}

func (NopRunner) Launch(_ context.Context, req LaunchRequest) (SessionHandle, error) {
	log.Debug().Int("room_id", req.RoomID).Str("map", req.MapID).Msg("nop runner launch")
	return SessionHandle{ID: uuid.New().String()}, nil
}

package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/arcade/go/internal/arcade/access"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/mcdev12/arcade/go/internal/arcade/events/eventstest"
	"github.com/mcdev12/arcade/go/internal/arcade/maps"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Launch(ctx context.Context, req LaunchRequest) (SessionHandle, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(SessionHandle), args.Error(1)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ []uuid.UUID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type kick struct {
	roomID int
	player uuid.UUID
}

type recordingKicker struct {
	mu    sync.Mutex
	kicks []kick
}

func (k *recordingKicker) Kick(roomID int, player uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kicks = append(k.kicks, kick{roomID: roomID, player: player})
}

type fixture struct {
	cfg      Config
	clock    *clockwork.FakeClock
	catalog  *maps.Store
	notifier *recordingNotifier
	kicker   *recordingKicker
	runner   *MockRunner
	events   *eventstest.Recorder
	admin    uuid.UUID
	registry *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := maps.NewStore()
	require.NoError(t, catalog.Register("Arena", models.GameTypeFreeForAllGun, models.GameTypeMurder))
	require.NoError(t, catalog.Register("Bunker", models.GameTypeFreeForAllGun, models.GameTypeMurder))
	require.NoError(t, catalog.Register("Castle", models.GameTypeFreeForAllGun))
	require.NoError(t, catalog.Register("Dunes", models.GameTypeMurder))
	require.NoError(t, catalog.Register("Pumpkin", models.GameTypeHalloween))

	cfg := DefaultConfig()
	// Timers are driven by hand through tick; the real ticker must never fire.
	cfg.TickInterval = time.Hour

	f := &fixture{
		cfg:      cfg,
		clock:    clockwork.NewFakeClock(),
		catalog:  catalog,
		notifier: &recordingNotifier{},
		kicker:   &recordingKicker{},
		runner:   &MockRunner{},
		events:   &eventstest.Recorder{},
		admin:    uuid.New(),
	}
	f.registry = NewRegistry(cfg, f.deps())
	return f
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Catalog:  f.catalog,
		Roles:    access.StaticRoles{f.admin: access.RoleAdmin},
		Notifier: f.notifier,
		Kicker:   f.kicker,
		Runner:   f.runner,
		Events:   f.events,
		Clock:    f.clock,
		Rand:     firstRand{},
	}
}

func (f *fixture) publicRoom(t *testing.T, gameType models.GameTypeID) *Room {
	t.Helper()
	r, err := f.registry.CreatePublic(gameType)
	require.NoError(t, err)
	return r
}

// tick advances the room's live timer n times, following whichever timer is live.
func tick(r *Room, n int) {
	for i := 0; i < n; i++ {
		r.mu.Lock()
		timer := r.timer
		r.mu.Unlock()
		if timer == nil {
			return
		}
		timer.Tick()
	}
}

func timerRole(r *Room) models.TimerRole {
	return r.Snapshot().TimerRole
}

func joinAll(t *testing.T, r *Room, n int) []uuid.UUID {
	t.Helper()
	players := make([]uuid.UUID, n)
	for i := range players {
		players[i] = uuid.New()
		require.NoError(t, r.Join(players[i], ""))
	}
	return players
}

func ballotMaps(r *Room) []string {
	var out []string
	for _, o := range r.Snapshot().Ballot {
		out = append(out, o.MapID)
	}
	return out
}

func TestRoom_MurderOpensVotingOnFourthPlayer(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeMurder)

	joinAll(t, r, 3)
	assert.Equal(t, models.RoomStateWaiting, r.State())
	assert.Equal(t, models.TimerRoleNone, timerRole(r))
	assert.Equal(t, int64(-1), r.RemainingTime())

	require.NoError(t, r.Join(uuid.New(), ""))
	assert.Equal(t, models.RoomStateVoting, r.State())
	assert.Equal(t, models.TimerRolePreStart, timerRole(r))
	assert.Equal(t, int64(150), r.RemainingTime())
	assert.Equal(t, []string{"Arena", "Bunker", "Dunes"}, ballotMaps(r))
}

func TestRoom_PrivateRoomStartsExpiryTimer(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	r, err := f.registry.CreatePrivate(owner, "1234")
	require.NoError(t, err)

	assert.True(t, r.Private())
	assert.Equal(t, models.GameTypeMurder, r.GameType().ID)
	assert.Equal(t, models.RoomStateWaiting, r.State())
	assert.Equal(t, models.TimerRoleExpiry, timerRole(r))
	assert.Equal(t, int64(300), r.RemainingTime())

	stranger := uuid.New()
	assert.False(t, r.SetGameType(stranger, models.GameTypeFreeForAllGun))
	assert.True(t, r.SetGameType(owner, models.GameTypeFreeForAllGun))

	assert.ErrorIs(t, r.Join(stranger, ""), ErrWrongPassword)
	assert.ErrorIs(t, r.Join(stranger, "4321"), ErrWrongPassword)
	require.NoError(t, r.Join(owner, ""))
	require.NoError(t, r.Join(f.admin, ""))
	assert.Equal(t, models.RoomStateVoting, r.State())
}

func TestRoom_JoinErrors(t *testing.T) {
	f := newFixture(t)
	cfg := f.cfg
	cfg.Slots = 2
	r, err := New(7, models.GameTypeFreeForAllGun, nil, "", cfg, f.deps())
	require.NoError(t, err)

	players := joinAll(t, r, 2)
	assert.ErrorIs(t, r.Join(players[0], ""), ErrAlreadyJoined)
	assert.ErrorIs(t, r.Join(uuid.New(), ""), ErrRoomFull)

	require.True(t, r.ForceStop())
	assert.ErrorIs(t, r.Join(uuid.New(), ""), ErrRoomStopped)
	assert.False(t, r.ForceStop())
}

func TestRoom_PasswordProtectedPublicRoom(t *testing.T) {
	f := newFixture(t)
	r, err := f.registry.CreatePublicWithPassword(models.GameTypeFreeForAllGun, "42")
	require.NoError(t, err)

	assert.ErrorIs(t, r.Join(uuid.New(), ""), ErrWrongPassword)
	assert.NoError(t, r.Join(uuid.New(), "42"))
	assert.NoError(t, r.Join(f.admin, ""), "privileged players skip the password")
}

func TestRoom_SetRoomTimer(t *testing.T) {
	f := newFixture(t)

	public := f.publicRoom(t, models.GameTypeFreeForAllGun)
	assert.False(t, public.SetRoomTimer(60), "public waiting rooms have no timer")

	joinAll(t, public, 2)
	require.Equal(t, models.RoomStateVoting, public.State())
	assert.False(t, public.SetRoomTimer(5))
	assert.False(t, public.SetRoomTimer(10))
	assert.Equal(t, int64(150), public.RemainingTime())
	assert.True(t, public.SetRoomTimer(11))
	assert.Equal(t, int64(11), public.RemainingTime())
	assert.Equal(t, models.TimerRolePreStart, timerRole(public))

	assert.False(t, public.SetTimer(uuid.New(), 60))
	assert.True(t, public.SetTimer(f.admin, 60))
	assert.Equal(t, int64(60), public.RemainingTime())

	private, err := f.registry.CreatePrivate(uuid.New(), "")
	require.NoError(t, err)
	assert.True(t, private.SetRoomTimer(45))
	assert.Equal(t, int64(45), private.RemainingTime())
	assert.Equal(t, models.TimerRoleExpiry, timerRole(private))
}

func TestRoom_BanRemovesPlayerAndVote(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	r, err := f.registry.CreatePrivate(owner, "")
	require.NoError(t, err)
	require.True(t, r.SetGameType(owner, models.GameTypeFreeForAllGun))

	require.NoError(t, r.Join(owner, ""))
	target := uuid.New()
	require.NoError(t, r.Join(target, ""))
	require.Equal(t, models.RoomStateVoting, r.State())
	require.True(t, r.Vote(target, "Arena"))

	assert.True(t, r.Ban(owner, target))
	assert.False(t, r.Ban(owner, target), "already banned")
	assert.True(t, r.IsBanned(target))
	assert.NotContains(t, r.Players(), target)
	for _, o := range r.Snapshot().Ballot {
		assert.Empty(t, o.Voters)
	}
	assert.False(t, r.Vote(target, "Arena"))
	assert.ErrorIs(t, r.Join(target, ""), ErrBanned)

	require.Len(t, f.kicker.kicks, 1)
	assert.Equal(t, kick{roomID: r.ID(), player: target}, f.kicker.kicks[0])

	// Back under the minimum: the private room waits again with an expiry timer.
	assert.Equal(t, models.RoomStateWaiting, r.State())
	assert.Equal(t, models.TimerRoleExpiry, timerRole(r))

	assert.True(t, r.Unban(owner, target))
	assert.False(t, r.IsBanned(target))
	assert.Len(t, f.events.OfType(events.EventTypePlayerBanned), 1)
}

func TestRoom_OwnerAndPrivilegedCannotBeBanned(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	r, err := f.registry.CreatePrivate(owner, "")
	require.NoError(t, err)

	mod := uuid.New()
	assert.False(t, r.AddModerator(mod, mod), "only the owner hands out moderation")
	require.True(t, r.AddModerator(owner, mod))
	assert.True(t, r.IsModerator(mod))

	assert.False(t, r.Ban(mod, owner))
	assert.False(t, r.Ban(mod, f.admin))
	assert.False(t, r.Ban(mod, mod))
	assert.False(t, r.Ban(uuid.New(), uuid.New()), "regular players cannot ban")

	other := uuid.New()
	assert.True(t, r.Ban(mod, other))
	assert.Empty(t, f.kicker.kicks, "banning an absent player kicks nobody")

	assert.True(t, r.RemoveModerator(owner, mod))
	assert.False(t, r.IsModerator(mod))
}

func TestRoom_LeavingBelowMinimumReturnsToWaiting(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	r, err := f.registry.CreatePrivate(owner, "")
	require.NoError(t, err)
	require.True(t, r.SetGameType(owner, models.GameTypeFreeForAllGun))

	require.NoError(t, r.Join(owner, ""))
	guest := uuid.New()
	require.NoError(t, r.Join(guest, ""))
	require.Equal(t, models.TimerRolePreStart, timerRole(r))

	assert.True(t, r.Leave(guest))
	assert.False(t, r.Leave(guest))
	assert.Equal(t, models.RoomStateWaiting, r.State())
	assert.Equal(t, models.TimerRoleExpiry, timerRole(r))
	assert.Equal(t, int64(300), r.RemainingTime())
}

func TestRoom_PrivateRoomExpires(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	r, err := f.registry.CreatePrivate(owner, "")
	require.NoError(t, err)
	require.NoError(t, r.Join(owner, ""))

	tick(r, 299)
	assert.Equal(t, models.RoomStateWaiting, r.State())
	_, ok := f.registry.Get(r.ID())
	assert.True(t, ok)

	tick(r, 1)
	assert.Equal(t, models.RoomStateStopped, r.State())
	assert.Equal(t, int64(-1), r.RemainingTime())
	_, ok = f.registry.Get(r.ID())
	assert.False(t, ok)

	assert.Equal(t, []string{
		"This room will be deleted in 2 minutes",
		"This room will be deleted in 1 minute",
		"This room will be deleted in 10 seconds",
	}, f.notifier.Messages())

	removed := f.events.OfType(events.EventTypeRoomRemoved)
	require.Len(t, removed, 1)
	payload, err := events.ParsePayload(removed[0])
	require.NoError(t, err)
	assert.Equal(t, "expired", payload.(*events.RoomRemovedPayload).Reason)
}

func TestRoom_PreStartCompletionLaunchesGame(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	players := joinAll(t, r, 2)
	require.True(t, r.Vote(players[0], "Bunker"))
	require.True(t, r.Vote(players[1], "Bunker"))

	f.runner.On("Launch", mock.Anything, mock.MatchedBy(func(req LaunchRequest) bool {
		return req.RoomID == r.ID() && req.MapID == "Bunker" && len(req.Players) == 2
	})).Return(SessionHandle{ID: "session-1"}, nil).Once()

	tick(r, 150)

	assert.Equal(t, models.RoomStatePlaying, r.State())
	assert.Equal(t, int64(-1), r.RemainingTime())
	session, ok := r.Session()
	assert.True(t, ok)
	assert.Equal(t, "session-1", session.ID)
	f.runner.AssertExpectations(t)

	assert.Equal(t, []string{
		"The game starts in 60 seconds",
		"The game starts in 30 seconds",
		"The game starts in 10 seconds",
		"The game starts in 5 seconds",
		"The game starts in 4 seconds",
		"The game starts in 3 seconds",
		"The game starts in 2 seconds",
		"The game starts in 1 seconds",
	}, f.notifier.Messages())

	var states []models.RoomState
	for _, e := range f.events.OfType(events.EventTypeStateChanged) {
		p, err := events.ParsePayload(e)
		require.NoError(t, err)
		states = append(states, p.(*events.StateChangedPayload).To)
	}
	assert.Equal(t, []models.RoomState{
		models.RoomStateWaiting,
		models.RoomStateVoting,
		models.RoomStateStarting,
		models.RoomStatePlaying,
	}, states)

	assert.NoError(t, r.Join(uuid.New(), ""), "playing rooms are still joinable")
}

func TestRoom_PreSelectedMapWinsOverBallot(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	players := joinAll(t, r, 2)
	require.True(t, r.Vote(players[0], "Arena"))
	require.True(t, r.Vote(players[1], "Arena"))

	assert.False(t, r.SetPreSelectedMap(players[0], "Castle"), "not a moderator")
	assert.False(t, r.SetPreSelectedMap(f.admin, "Dunes"), "not valid for the game type")
	assert.False(t, r.SetPreSelectedMap(f.admin, "Nowhere"))
	assert.True(t, r.SetPreSelectedMap(f.admin, "Castle"))
	assert.False(t, r.SetPreSelectedMap(f.admin, "Castle"))
	assert.Contains(t, f.notifier.Messages(), "Castle was selected as the next map")

	f.runner.On("Launch", mock.Anything, mock.MatchedBy(func(req LaunchRequest) bool {
		return req.MapID == "Castle"
	})).Return(SessionHandle{ID: "session-2"}, nil).Once()

	tick(r, 150)
	assert.Equal(t, models.RoomStatePlaying, r.State())
	f.runner.AssertExpectations(t)
}

func TestRoom_ClearPreSelectedMap(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)

	assert.False(t, r.SetPreSelectedMap(f.admin, ""), "nothing to clear")
	require.True(t, r.SetPreSelectedMap(f.admin, "Castle"))
	assert.True(t, r.SetPreSelectedMap(f.admin, ""))
	assert.Empty(t, r.Snapshot().PreSelectedMap)
}

func TestRoom_LaunchFailureFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		players int
		want    models.RoomState
		role    models.TimerRole
	}{
		{name: "at minimum waits", players: 2, want: models.RoomStateWaiting, role: models.TimerRoleNone},
		{name: "above minimum votes again", players: 3, want: models.RoomStateVoting, role: models.TimerRolePreStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r := f.publicRoom(t, models.GameTypeFreeForAllGun)
			joinAll(t, r, tt.players)

			f.runner.On("Launch", mock.Anything, mock.Anything).
				Return(SessionHandle{}, errors.New("world generation failed")).Once()

			tick(r, 150)

			assert.Equal(t, tt.want, r.State())
			assert.Equal(t, tt.role, timerRole(r))
			_, ok := r.Session()
			assert.False(t, ok)
			assert.Contains(t, f.notifier.Messages(), "The game could not be started")
			f.runner.AssertExpectations(t)
		})
	}
}

func TestRoom_NoMapFallsBackWithoutLaunching(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeHotPotato)
	joinAll(t, r, 3)
	require.Equal(t, models.RoomStateVoting, r.State())
	require.Empty(t, ballotMaps(r))

	tick(r, 150)

	assert.Equal(t, models.RoomStateVoting, r.State())
	assert.Equal(t, int64(150), r.RemainingTime())
	f.runner.AssertNotCalled(t, "Launch", mock.Anything, mock.Anything)
}

func TestRoom_StopDuringLaunchDiscardsSession(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	joinAll(t, r, 2)

	f.runner.On("Launch", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { r.ForceStop() }).
		Return(SessionHandle{ID: "orphan"}, nil).Once()

	tick(r, 150)

	assert.Equal(t, models.RoomStateStopped, r.State())
	_, ok := r.Session()
	assert.False(t, ok)
	_, ok = f.registry.Get(r.ID())
	assert.False(t, ok)
}

func TestRoom_EndGameResetsLobby(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	players := joinAll(t, r, 2)
	require.True(t, r.Vote(players[0], "Castle"))

	f.runner.On("Launch", mock.Anything, mock.Anything).Return(SessionHandle{ID: "s"}, nil).Once()
	assert.False(t, r.EndGame(), "nothing is running yet")
	tick(r, 150)
	require.Equal(t, models.RoomStatePlaying, r.State())

	assert.True(t, r.EndGame())
	assert.Equal(t, models.RoomStateVoting, r.State())
	assert.Equal(t, int64(150), r.RemainingTime())
	assert.Equal(t, []string{"Arena", "Bunker", "Castle"}, ballotMaps(r))
	voted := false
	for _, o := range r.Snapshot().Ballot {
		voted = voted || len(o.Voters) > 0
	}
	assert.False(t, voted, "votes do not carry over to the next round")
}

func TestRoom_StaleTimerCallbacksAreIgnored(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	joinAll(t, r, 2)

	r.mu.Lock()
	staleGen := r.timerGen
	r.mu.Unlock()

	require.True(t, r.SetRoomTimer(50))
	r.onPreStartComplete(staleGen)
	r.onTimerTick(staleGen, 60)

	assert.Equal(t, models.RoomStateVoting, r.State())
	assert.Equal(t, int64(50), r.RemainingTime())
	assert.Empty(t, f.notifier.Messages())
	f.runner.AssertNotCalled(t, "Launch", mock.Anything, mock.Anything)
}

func TestRoom_PauseFreezesTimer(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	assert.False(t, r.SetPaused(f.admin, true), "no live timer")

	joinAll(t, r, 2)
	assert.False(t, r.SetPaused(uuid.New(), true))
	require.True(t, r.SetPaused(f.admin, true))
	assert.False(t, r.SetPaused(f.admin, true))

	tick(r, 5)
	assert.Equal(t, int64(150), r.RemainingTime())
	assert.True(t, r.Snapshot().TimerPaused)

	require.True(t, r.SetPaused(f.admin, false))
	tick(r, 1)
	assert.Equal(t, int64(149), r.RemainingTime())
}

func TestRoom_SetGameTypeMigratesBallot(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	players := joinAll(t, r, 2)
	require.Equal(t, []string{"Arena", "Bunker", "Castle"}, ballotMaps(r))
	require.True(t, r.Vote(players[0], "Arena"))
	require.True(t, r.SetPreSelectedMap(f.admin, "Castle"))

	assert.False(t, r.SetGameType(f.admin, models.GameTypeFreeForAllGun), "unchanged")
	assert.False(t, r.SetGameType(f.admin, "NOT_A_TYPE"))
	require.True(t, r.SetGameType(f.admin, models.GameTypeMurder))

	assert.Equal(t, models.RoomStateWaiting, r.State(), "murder needs four players")
	assert.Equal(t, []string{"Arena", "Bunker", "Dunes"}, ballotMaps(r))
	assert.Equal(t, []uuid.UUID{players[0]}, r.Snapshot().Ballot[0].Voters)
	assert.Empty(t, r.Snapshot().PreSelectedMap)
}

func TestRoom_SetGameTypeRespectsSlots(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)

	joinAll(t, r, 3)

	assert.False(t, r.SetSlots(uuid.New(), 4), "only owners change slots")
	assert.False(t, r.SetSlots(f.admin, 1), "below the minimum")
	assert.False(t, r.SetSlots(f.admin, 2), "below the player count")
	assert.False(t, r.SetSlots(f.admin, 100), "above the maximum")
	require.True(t, r.SetSlots(f.admin, 4))

	assert.False(t, r.SetGameType(f.admin, models.GameTypeMurderDouble))
	assert.True(t, r.SetGameType(f.admin, models.GameTypeMurder))
	assert.Equal(t, models.RoomStateWaiting, r.State())
}

func TestRoom_EventRevertsOnResetAfterDeadline(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeMurder)

	assert.False(t, r.StartEvent(f.admin, models.GameTypeMurderDouble, time.Minute), "not an event type")
	assert.False(t, r.StartEvent(uuid.New(), models.GameTypeHalloween, time.Minute))
	assert.False(t, r.StartEvent(f.admin, models.GameTypeHalloween, 0))
	require.True(t, r.StartEvent(f.admin, models.GameTypeHalloween, time.Minute))

	snap := r.Snapshot()
	assert.True(t, snap.Event)
	assert.Equal(t, models.GameTypeHalloween, snap.GameType)
	require.NotNil(t, snap.EventEndsAt)
	assert.Equal(t, f.clock.Now().Add(time.Minute), *snap.EventEndsAt)
	assert.Equal(t, []string{"Pumpkin"}, ballotMaps(r))

	require.True(t, r.Reset())
	assert.Equal(t, models.GameTypeHalloween, r.GameType().ID, "deadline not reached")

	f.clock.Advance(2 * time.Minute)
	require.True(t, r.Reset())
	snap = r.Snapshot()
	assert.False(t, snap.Event)
	assert.Nil(t, snap.EventEndsAt)
	assert.Equal(t, models.GameTypeMurder, snap.GameType)
	assert.Equal(t, []string{"Arena", "Bunker", "Dunes"}, ballotMaps(r))
}

func TestRoom_SetGameTypeEndsEvent(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	require.True(t, r.StartEvent(f.admin, models.GameTypeFreeForAllGun, time.Hour))

	assert.True(t, r.SetGameType(f.admin, models.GameTypeFreeForAllGun))
	assert.False(t, r.Snapshot().Event)
}

func TestRoom_SetPassword(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	r, err := f.registry.CreatePrivate(owner, "")
	require.NoError(t, err)

	assert.False(t, r.SetPassword(uuid.New(), "11"))
	assert.False(t, r.SetPassword(owner, "abc"))
	assert.False(t, r.SetPassword(owner, ""), "unchanged")
	require.True(t, r.SetPassword(owner, "11"))
	assert.True(t, r.Snapshot().HasPassword)
	assert.ErrorIs(t, r.Join(uuid.New(), ""), ErrWrongPassword)
}

func TestRoom_StopByModerator(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	players := joinAll(t, r, 2)

	assert.False(t, r.Stop(players[0]))
	require.True(t, r.Stop(f.admin))
	assert.False(t, r.Stop(f.admin))

	assert.Equal(t, models.RoomStateStopped, r.State())
	assert.Equal(t, models.TimerRoleNone, timerRole(r))
	assert.Equal(t, players, r.Players(), "participants stay in place")
	assert.False(t, r.Reset())
	_, ok := f.registry.Get(r.ID())
	assert.False(t, ok)
}

func TestRoom_RevalidateMapsAfterCatalogEdit(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	joinAll(t, r, 2)
	require.True(t, r.SetPreSelectedMap(f.admin, "Castle"))

	require.True(t, f.catalog.SetTypeEnabled("Castle", models.GameTypeFreeForAllGun, false))
	r.RevalidateMaps()

	assert.Empty(t, r.Snapshot().PreSelectedMap)
	assert.Equal(t, []string{"Arena", "Bunker"}, ballotMaps(r))
}

func TestRoom_VoteOnlyWhileVoting(t *testing.T) {
	f := newFixture(t)
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)
	first := uuid.New()
	require.NoError(t, r.Join(first, ""))

	assert.False(t, r.Vote(first, "Arena"), "still waiting")
	second := uuid.New()
	require.NoError(t, r.Join(second, ""))
	assert.False(t, r.Vote(uuid.New(), "Arena"), "not a participant")
	assert.False(t, r.Vote(first, "Dunes"), "not on the ballot")
	assert.True(t, r.Vote(first, "Arena"))
}

func TestNew_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := New(1, models.GameTypeMurder, nil, "x1", f.cfg, f.deps())
	assert.ErrorIs(t, err, ErrInvalidPassword)

	deps := f.deps()
	deps.Catalog = nil
	_, err = New(1, models.GameTypeMurder, nil, "", f.cfg, deps)
	assert.ErrorIs(t, err, ErrNilCatalog)

	_, err = New(1, "BOGUS", nil, "", f.cfg, f.deps())
	assert.ErrorIs(t, err, ErrUnknownGameType)

	nilOwner := uuid.Nil
	_, err = New(1, models.GameTypeMurder, &nilOwner, "", f.cfg, f.deps())
	assert.ErrorIs(t, err, ErrNilOwner)
}

func TestValidPassword(t *testing.T) {
	assert.True(t, ValidPassword(""))
	assert.True(t, ValidPassword("0123456789"))
	assert.False(t, ValidPassword("12 3"))
	assert.False(t, ValidPassword("abc"))
	assert.False(t, ValidPassword("-1"))
}

func TestRoom_ConcurrentAccess(t *testing.T) {
	f := newFixture(t)
	f.runner.On("Launch", mock.Anything, mock.Anything).Return(SessionHandle{ID: "s"}, nil).Maybe()
	r := f.publicRoom(t, models.GameTypeFreeForAllGun)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := uuid.New()
			for j := 0; j < 50; j++ {
				_ = r.Join(p, "")
				r.Vote(p, "Arena")
				tick(r, 1)
				r.Snapshot()
				r.Leave(p)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, r.Players())
}

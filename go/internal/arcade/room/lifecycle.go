package room

import (
	"context"
	"fmt"
	"time"

	"github.com/mcdev12/arcade/go/internal/arcade/countdown"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	reasonStopped = "stopped"
	reasonExpired = "expired"
)

// Reset returns the room to its lobby: an expired event falls back to the default game type,
// the pre-selected map and ballot are revalidated, and the room settles into Waiting or Voting
// depending on how many players are present. Stopped rooms stay stopped.
func (r *Room) Reset() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == models.RoomStateStopped {
		return false
	}
	r.resetLocked()
	return true
}

func (r *Room) resetLocked() {
	r.cancelTimerLocked()
	r.session = SessionHandle{}

	if r.event && !r.deps.Clock.Now().Before(r.eventEndsAt) {
		r.endEventLocked()
	}
	r.checkPreSelectedMapLocked()
	r.refreshBallotLocked()

	if len(r.players) >= r.gameType.MinPlayers {
		r.enterVotingLocked()
	} else {
		r.enterWaitingLocked()
	}
}

func (r *Room) endEventLocked() {
	previous := r.gameType.ID
	if gt, ok := models.GameTypeByID(r.cfg.DefaultGameType); ok {
		r.gameType = gt
	} else {
		log.Warn().Str("game_type", string(r.cfg.DefaultGameType)).Msg("default game type unknown, keeping event type")
	}
	if r.slots < r.gameType.MinPlayers {
		r.slots = r.gameType.MinPlayers
	}
	r.event = false
	r.eventEndsAt = time.Time{}

	log.Info().
		Int("room_id", r.id).
		Str("from", string(previous)).
		Str("to", string(r.gameType.ID)).
		Msg("event ended, game type reverted")
	r.emitSettingsLocked()
}

// EndGame is called when the running session finishes. The room passes through Ending and is
// reset into a fresh lobby with a new ballot.
func (r *Room) EndGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != models.RoomStatePlaying {
		return false
	}

	from := r.state
	r.state = models.RoomStateEnding
	r.emitStateLocked(from, "")

	r.ballot.Clear()
	r.resetLocked()
	return true
}

// ForceStop stops the room regardless of who asks. It returns false if the room was already
// stopped.
func (r *Room) ForceStop() bool {
	r.mu.Lock()
	if r.state == models.RoomStateStopped {
		r.mu.Unlock()
		return false
	}
	r.stopLocked(reasonStopped)
	r.mu.Unlock()

	r.removed()
	return true
}

func (r *Room) stopLocked(reason string) {
	r.cancelTimerLocked()
	from := r.state
	r.state = models.RoomStateStopped
	r.emitStateLocked(from, "")
	r.emitLocked(events.EventTypeRoomRemoved, events.RoomRemovedPayload{Reason: reason})

	log.Info().Int("room_id", r.id).Str("reason", reason).Msg("room stopped")
}

// removed runs the registry hook. The room lock must not be held.
func (r *Room) removed() {
	if r.onRemoved != nil {
		r.onRemoved(r.id)
	}
}

// settleLocked moves between Waiting and Voting after the player count or the minimum changed.
func (r *Room) settleLocked() {
	switch r.state {
	case models.RoomStateWaiting:
		if len(r.players) >= r.gameType.MinPlayers {
			r.enterVotingLocked()
		}
	case models.RoomStateVoting:
		if len(r.players) < r.gameType.MinPlayers {
			r.enterWaitingLocked()
		}
	}
}

func (r *Room) enterVotingLocked() {
	from := r.state
	r.state = models.RoomStateVoting
	r.refreshBallotLocked()
	r.startTimerLocked(models.TimerRolePreStart, r.cfg.GameWaitTime)
	r.emitStateLocked(from, "")
}

func (r *Room) enterWaitingLocked() {
	from := r.state
	r.state = models.RoomStateWaiting
	if r.owner != nil {
		r.startTimerLocked(models.TimerRoleExpiry, r.cfg.PrivateRoomDeleteTime)
	} else {
		r.cancelTimerLocked()
	}
	r.emitStateLocked(from, "")
}

// fallbackLocked handles a start that could not go ahead.
func (r *Room) fallbackLocked() {
	if len(r.players) > r.gameType.MinPlayers {
		r.enterVotingLocked()
	} else {
		r.enterWaitingLocked()
	}
}

func (r *Room) refreshBallotLocked() {
	pruned := r.ballot.Prune(r.gameType.ID)
	added := r.ballot.Rebuild(r.gameType.ID)
	if len(pruned) > 0 || added {
		r.emitBallotLocked()
	}
}

// checkPreSelectedMapLocked clears the pre-selected map once it is no longer valid for the
// current game type.
func (r *Room) checkPreSelectedMapLocked() {
	if r.preSelectedMap == "" || r.deps.Catalog.IsValidForType(r.preSelectedMap, r.gameType.ID) {
		return
	}
	log.Info().Int("room_id", r.id).Str("map", r.preSelectedMap).Msg("pre-selected map no longer valid, clearing")
	r.preSelectedMap = ""
	r.emitLocked(events.EventTypeMapPreSelected, events.MapPreSelectedPayload{})
}

// RevalidateMaps re-checks the pre-selected map and ballot against the catalog. Rooms outside
// the lobby are left alone.
func (r *Room) RevalidateMaps() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.AcceptsSetup() {
		return
	}
	r.checkPreSelectedMapLocked()
	r.refreshBallotLocked()
}

// startTimerLocked replaces the live countdown with a new one for role.
func (r *Room) startTimerLocked(role models.TimerRole, ticks int64) {
	r.cancelTimerLocked()
	gen := r.timerGen

	hooks := countdown.Hooks{
		OnTick: func(remaining int64) { r.onTimerTick(gen, remaining) },
	}
	switch role {
	case models.TimerRolePreStart:
		hooks.OnComplete = func() { r.onPreStartComplete(gen) }
	case models.TimerRoleExpiry:
		hooks.OnComplete = func() { r.onExpiryComplete(gen) }
	}

	r.timer = countdown.New(r.deps.Clock, r.cfg.TickInterval, ticks, hooks)
	r.timerRole = role
	r.timer.Start()
}

func (r *Room) cancelTimerLocked() {
	if r.timer != nil {
		r.timer.Cancel()
	}
	r.timer = nil
	r.timerRole = models.TimerRoleNone
	r.timerGen++
}

func (r *Room) onTimerTick(gen uint64, remaining int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.timerGen || r.timer == nil {
		return
	}

	r.emitLocked(events.EventTypeTimerTick, events.TimerTickPayload{
		Role:             r.timerRole,
		TimeRemainingSec: remaining,
	})

	switch r.timerRole {
	case models.TimerRolePreStart:
		for _, m := range r.cfg.StartMilestones {
			if m == remaining {
				r.notifyLocked(fmt.Sprintf(r.cfg.StartMessage, remaining))
				break
			}
		}
	case models.TimerRoleExpiry:
		if msg, ok := r.cfg.DeleteMessages[remaining]; ok {
			r.notifyLocked(msg)
		}
	}
}

func (r *Room) onExpiryComplete(gen uint64) {
	r.mu.Lock()
	if gen != r.timerGen || r.state != models.RoomStateWaiting {
		r.mu.Unlock()
		return
	}
	r.stopLocked(reasonExpired)
	r.mu.Unlock()

	r.removed()
}

func (r *Room) onPreStartComplete(gen uint64) {
	r.mu.Lock()
	if gen != r.timerGen || r.state != models.RoomStateVoting {
		r.mu.Unlock()
		return
	}
	req, seq, ok := r.beginStartLocked()
	r.mu.Unlock()

	if ok {
		r.launch(req, seq)
	}
}

// beginStartLocked locks the votes and picks the map. When no map can be resolved the room
// falls back to the lobby and ok is false.
func (r *Room) beginStartLocked() (req LaunchRequest, seq uint64, ok bool) {
	r.cancelTimerLocked()

	mapID, found := r.resolveMapLocked()
	from := r.state
	r.state = models.RoomStateStarting
	r.emitStateLocked(from, mapID)

	if !found {
		log.Warn().Int("room_id", r.id).Str("game_type", string(r.gameType.ID)).Msg("no map available, cannot start")
		r.fallbackLocked()
		return LaunchRequest{}, 0, false
	}

	r.launchSeq++
	req = LaunchRequest{
		RoomID:   r.id,
		MapID:    mapID,
		GameType: r.gameType,
		Players:  r.playersLocked(),
	}
	return req, r.launchSeq, true
}

// resolveMapLocked prefers a still valid pre-selected map over the ballot winner.
func (r *Room) resolveMapLocked() (string, bool) {
	if r.preSelectedMap != "" && r.deps.Catalog.IsValidForType(r.preSelectedMap, r.gameType.ID) {
		return r.preSelectedMap, true
	}
	winner, ok := r.ballot.Winner()
	if !ok || !r.deps.Catalog.IsValidForType(winner, r.gameType.ID) {
		return "", false
	}
	return winner, true
}

// launch asks the runner for a session without holding the room lock, then applies the result
// if the room is still waiting on this launch.
func (r *Room) launch(req LaunchRequest, seq uint64) {
	ctx := context.Background()
	if r.cfg.LaunchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.LaunchTimeout)
		defer cancel()
	}

	handle, err := r.deps.Runner.Launch(ctx, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != models.RoomStateStarting || r.launchSeq != seq {
		log.Warn().Int("room_id", r.id).Str("state", string(r.state)).Msg("room moved on during launch, discarding session")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("room_id", r.id).Str("map", req.MapID).Msg("failed to launch game")
		r.notifyLocked(r.cfg.LaunchFailedMessage)
		r.fallbackLocked()
		return
	}

	r.session = handle
	from := r.state
	r.state = models.RoomStatePlaying
	r.emitStateLocked(from, req.MapID)

	log.Info().
		Int("room_id", r.id).
		Str("map", req.MapID).
		Str("session_id", handle.ID).
		Int("players", len(req.Players)).
		Msg("game started")
}

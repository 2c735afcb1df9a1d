package room

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Join adds player to the room. Owners and privileged players skip the password check.
func (r *Room) Join(player uuid.UUID, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.Joinable() {
		return ErrRoomStopped
	}
	v := r.viewLocked()
	if r.policy.IsBanned(v, player) {
		return ErrBanned
	}
	if r.hasPlayerLocked(player) {
		return ErrAlreadyJoined
	}
	if len(r.players) >= r.slots {
		return ErrRoomFull
	}
	if r.password != "" && password != r.password && !r.policy.IsOwner(v, player) {
		return ErrWrongPassword
	}

	r.players = append(r.players, player)
	log.Debug().Int("room_id", r.id).Str("player_id", player.String()).Int("players", len(r.players)).Msg("player joined")
	r.emitLocked(events.EventTypePlayerJoined, events.PlayerPayload{PlayerID: player.String(), Players: len(r.players)})
	r.settleLocked()
	return nil
}

// Leave removes player and any vote they cast.
func (r *Room) Leave(player uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(player)
}

func (r *Room) leaveLocked(player uuid.UUID) bool {
	if !r.removePlayerLocked(player) {
		return false
	}
	if r.ballot.Withdraw(player) {
		r.emitBallotLocked()
	}
	log.Debug().Int("room_id", r.id).Str("player_id", player.String()).Int("players", len(r.players)).Msg("player left")
	r.emitLocked(events.EventTypePlayerLeft, events.PlayerPayload{PlayerID: player.String(), Players: len(r.players)})
	r.settleLocked()
	return true
}

// Vote records a participant's vote while the room is Voting.
func (r *Room) Vote(player uuid.UUID, mapID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != models.RoomStateVoting || !r.hasPlayerLocked(player) {
		return false
	}
	if r.policy.IsBanned(r.viewLocked(), player) {
		return false
	}
	if !r.ballot.Vote(player, mapID) {
		return false
	}
	r.emitBallotLocked()
	return true
}

// SetGameType switches to a regular game type, ending any running event.
func (r *Room) SetGameType(actor uuid.UUID, id models.GameTypeID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.AcceptsSetup() || !r.policy.IsModerator(r.viewLocked(), actor) {
		return false
	}
	gt, ok := models.GameTypeByID(id)
	if !ok || r.slots < gt.MinPlayers {
		return false
	}
	if gt.ID == r.gameType.ID && !r.event {
		return false
	}

	r.event = false
	r.eventEndsAt = time.Time{}
	r.applyGameTypeLocked(gt)
	log.Info().Int("room_id", r.id).Str("game_type", string(gt.ID)).Str("actor", actor.String()).Msg("game type changed")
	return true
}

// StartEvent runs gameType as a timed event. Once the deadline passes the next reset reverts
// the room to the default game type.
func (r *Room) StartEvent(actor uuid.UUID, id models.GameTypeID, duration time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.AcceptsSetup() || !r.policy.IsModerator(r.viewLocked(), actor) || duration <= 0 {
		return false
	}
	gt, ok := models.GameTypeByID(id)
	if !ok || !gt.CanRunAsEvent() || r.slots < gt.MinPlayers {
		return false
	}

	r.event = true
	r.eventEndsAt = r.deps.Clock.Now().Add(duration)
	r.applyGameTypeLocked(gt)
	log.Info().
		Int("room_id", r.id).
		Str("game_type", string(gt.ID)).
		Time("ends_at", r.eventEndsAt).
		Msg("event started")
	return true
}

func (r *Room) applyGameTypeLocked(gt models.GameType) {
	r.gameType = gt
	r.emitSettingsLocked()
	r.checkPreSelectedMapLocked()
	r.refreshBallotLocked()
	r.settleLocked()
}

// SetPassword changes the password of the room. Only the owner may do it.
func (r *Room) SetPassword(actor uuid.UUID, password string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.policy.IsOwner(r.viewLocked(), actor) || !ValidPassword(password) || password == r.password {
		return false
	}
	r.password = password
	r.emitSettingsLocked()
	return true
}

// SetSlots changes the room capacity. It cannot go below the game type's minimum, the current
// participant count or above the configured maximum.
func (r *Room) SetSlots(actor uuid.UUID, slots int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.policy.IsOwner(r.viewLocked(), actor) || slots == r.slots {
		return false
	}
	if slots < r.gameType.MinPlayers || slots < len(r.players) {
		return false
	}
	if r.cfg.MaxSlots > 0 && slots > r.cfg.MaxSlots {
		return false
	}
	r.slots = slots
	r.emitSettingsLocked()
	return true
}

// SetPreSelectedMap forces the next map. An empty mapID clears the selection.
func (r *Room) SetPreSelectedMap(actor uuid.UUID, mapID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.AcceptsSetup() || !r.policy.IsModerator(r.viewLocked(), actor) {
		return false
	}
	if mapID == r.preSelectedMap {
		return false
	}
	if mapID != "" && !r.deps.Catalog.IsValidForType(mapID, r.gameType.ID) {
		return false
	}

	r.preSelectedMap = mapID
	r.emitLocked(events.EventTypeMapPreSelected, events.MapPreSelectedPayload{MapID: mapID, SelectedBy: actor.String()})
	if mapID != "" {
		r.notifyLocked(fmt.Sprintf(r.cfg.MapSelectedMessage, mapID))
	}
	return true
}

// SetPaused pauses or resumes the live timer.
func (r *Room) SetPaused(actor uuid.UUID, paused bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer == nil || !r.policy.IsModerator(r.viewLocked(), actor) {
		return false
	}
	if !r.timer.SetPaused(paused) {
		return false
	}
	r.emitLocked(events.EventTypeTimerTick, events.TimerTickPayload{
		Role:             r.timerRole,
		TimeRemainingSec: r.timer.Remaining(),
		Paused:           paused,
	})
	return true
}

// SetTimer is the moderator-facing form of SetRoomTimer.
func (r *Room) SetTimer(actor uuid.UUID, seconds int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.policy.IsModerator(r.viewLocked(), actor) {
		return false
	}
	return r.setRoomTimerLocked(seconds)
}

// SetRoomTimer restarts the live timer with a new duration: the prestart timer while Voting,
// the expiry timer of a private room while Waiting. Durations of MinTimerTicks or less are
// ignored.
func (r *Room) SetRoomTimer(seconds int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setRoomTimerLocked(seconds)
}

func (r *Room) setRoomTimerLocked(seconds int64) bool {
	if seconds <= MinTimerTicks {
		return false
	}
	switch {
	case r.state == models.RoomStateVoting:
		r.startTimerLocked(models.TimerRolePreStart, seconds)
	case r.state == models.RoomStateWaiting && r.owner != nil:
		r.startTimerLocked(models.TimerRoleExpiry, seconds)
	default:
		return false
	}
	r.emitLocked(events.EventTypeTimerTick, events.TimerTickPayload{Role: r.timerRole, TimeRemainingSec: seconds})
	return true
}

// Ban bans target from the room and removes them if present.
func (r *Room) Ban(actor, target uuid.UUID) bool {
	r.mu.Lock()
	if !r.policy.CanBan(r.viewLocked(), actor, target) {
		r.mu.Unlock()
		return false
	}
	if _, already := r.banned[target]; already {
		r.mu.Unlock()
		return false
	}

	r.banned[target] = struct{}{}
	delete(r.moderators, target)
	log.Info().Int("room_id", r.id).Str("player_id", target.String()).Str("actor", actor.String()).Msg("player banned")
	r.emitLocked(events.EventTypePlayerBanned, events.PlayerBannedPayload{PlayerID: target.String(), BannedBy: actor.String()})
	kick := r.leaveLocked(target)
	r.mu.Unlock()

	if kick {
		r.deps.Kicker.Kick(r.id, target)
	}
	return true
}

func (r *Room) Unban(actor, target uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.policy.IsModerator(r.viewLocked(), actor) {
		return false
	}
	if _, ok := r.banned[target]; !ok {
		return false
	}
	delete(r.banned, target)
	return true
}

// AddModerator grants room moderation to target. Only the owner may do it.
func (r *Room) AddModerator(actor, target uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.viewLocked()
	if !r.policy.IsOwner(v, actor) || r.policy.IsBanned(v, target) {
		return false
	}
	if r.owner != nil && *r.owner == target {
		return false
	}
	if _, ok := r.moderators[target]; ok {
		return false
	}
	r.moderators[target] = struct{}{}
	return true
}

func (r *Room) RemoveModerator(actor, target uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.policy.IsOwner(r.viewLocked(), actor) {
		return false
	}
	if _, ok := r.moderators[target]; !ok {
		return false
	}
	delete(r.moderators, target)
	return true
}

// Stop is the moderator-facing form of ForceStop.
func (r *Room) Stop(actor uuid.UUID) bool {
	r.mu.Lock()
	if r.state == models.RoomStateStopped || !r.policy.IsModerator(r.viewLocked(), actor) {
		r.mu.Unlock()
		return false
	}
	r.stopLocked(reasonStopped)
	r.mu.Unlock()

	r.removed()
	return true
}

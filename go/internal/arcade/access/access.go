// Package access decides who may act on a room: owners, moderators and banned players.
// Nothing here is cached; roles and room membership can change between calls.
package access

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is a player's server-wide rank.
type Role int

const (
	RoleDefault Role = iota
	RoleVIP
	RoleHelper
	RoleModerator
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleDefault:   "default",
	RoleVIP:       "vip",
	RoleHelper:    "helper",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole converts a role name into a Role.
func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for r, n := range roleNames {
		if n == name {
			return r, nil
		}
	}
	return RoleDefault, fmt.Errorf("unknown role %q", name)
}

// RoleLookup resolves a player's role. Implementations must be fast; rooms call it with
// their lock held.
type RoleLookup interface {
	RoleOf(playerID uuid.UUID) Role
}

// View is the part of a room's state access decisions depend on.
type View struct {
	Owner      *uuid.UUID
	Moderators map[uuid.UUID]struct{}
	Banned     map[uuid.UUID]struct{}
}

// Policy evaluates access against a View.
type Policy struct {
	Roles      RoleLookup
	Privileged Role
}

// NewPolicy builds a Policy. A nil lookup treats everyone as RoleDefault.
func NewPolicy(roles RoleLookup, privileged Role) Policy {
	return Policy{Roles: roles, Privileged: privileged}
}

func (p Policy) roleOf(player uuid.UUID) Role {
	if p.Roles == nil {
		return RoleDefault
	}
	return p.Roles.RoleOf(player)
}

// IsPrivileged reports whether the player's role reaches the privileged tier.
func (p Policy) IsPrivileged(player uuid.UUID) bool {
	return p.roleOf(player) >= p.Privileged
}

// IsOwner: privileged players own every room; private rooms are also owned by their creator.
func (p Policy) IsOwner(v View, player uuid.UUID) bool {
	if v.Owner != nil && *v.Owner == player {
		return true
	}
	return p.IsPrivileged(player)
}

// IsModerator includes owners and privileged players as implicit moderators.
func (p Policy) IsModerator(v View, player uuid.UUID) bool {
	if _, ok := v.Moderators[player]; ok {
		return true
	}
	return p.IsOwner(v, player)
}

func (p Policy) IsBanned(v View, player uuid.UUID) bool {
	_, ok := v.Banned[player]
	return ok
}

// CanBan reports whether target may be banned by actor. Owners cannot be banned, nor can
// anyone ban themselves or a privileged player.
func (p Policy) CanBan(v View, actor, target uuid.UUID) bool {
	if actor == target || !p.IsModerator(v, actor) {
		return false
	}
	if v.Owner != nil && *v.Owner == target {
		return false
	}
	return !p.IsPrivileged(target)
}

// StaticRoles is a fixed RoleLookup, typically loaded from config.
type StaticRoles map[uuid.UUID]Role

func (s StaticRoles) RoleOf(playerID uuid.UUID) Role {
	if r, ok := s[playerID]; ok {
		return r
	}
	return RoleDefault
}

// Highest resolves to the highest role any of its lookups grants.
type Highest []RoleLookup

func (h Highest) RoleOf(playerID uuid.UUID) Role {
	role := RoleDefault
	for _, l := range h {
		if r := l.RoleOf(playerID); r > role {
			role = r
		}
	}
	return role
}

package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Moderator ")
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = ParseRole("king")
	assert.Error(t, err)

	assert.Equal(t, "admin", RoleAdmin.String())
	assert.Equal(t, "role(42)", Role(42).String())
}

func TestPolicy_PublicRoom(t *testing.T) {
	staff, player := uuid.New(), uuid.New()
	p := NewPolicy(StaticRoles{staff: RoleModerator}, RoleModerator)
	v := View{}

	assert.True(t, p.IsOwner(v, staff))
	assert.False(t, p.IsOwner(v, player))
	assert.True(t, p.IsModerator(v, staff))
	assert.False(t, p.IsModerator(v, player))
}

func TestPolicy_PrivateRoom(t *testing.T) {
	owner, mod, staff, player := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	p := NewPolicy(StaticRoles{staff: RoleAdmin}, RoleModerator)
	v := View{
		Owner:      &owner,
		Moderators: map[uuid.UUID]struct{}{mod: {}},
		Banned:     map[uuid.UUID]struct{}{player: {}},
	}

	assert.True(t, p.IsOwner(v, owner))
	assert.True(t, p.IsOwner(v, staff))
	assert.False(t, p.IsOwner(v, mod))

	assert.True(t, p.IsModerator(v, owner))
	assert.True(t, p.IsModerator(v, mod))
	assert.True(t, p.IsModerator(v, staff))
	assert.False(t, p.IsModerator(v, player))

	assert.True(t, p.IsBanned(v, player))
	assert.False(t, p.IsBanned(v, owner))
}

func TestPolicy_CanBan(t *testing.T) {
	owner, mod, staff, player := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	p := NewPolicy(StaticRoles{staff: RoleModerator}, RoleModerator)
	v := View{Owner: &owner, Moderators: map[uuid.UUID]struct{}{mod: {}}}

	assert.True(t, p.CanBan(v, mod, player))
	assert.True(t, p.CanBan(v, owner, mod))
	assert.False(t, p.CanBan(v, mod, owner))
	assert.False(t, p.CanBan(v, owner, staff))
	assert.False(t, p.CanBan(v, player, mod))
	assert.False(t, p.CanBan(v, mod, mod))
}

func TestPolicy_NilLookup(t *testing.T) {
	p := NewPolicy(nil, RoleModerator)
	assert.False(t, p.IsPrivileged(uuid.New()))
}

func TestHighest(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	lookup := Highest{
		StaticRoles{a: RoleHelper, b: RoleAdmin},
		StaticRoles{a: RoleModerator, b: RoleVIP},
	}
	assert.Equal(t, RoleModerator, lookup.RoleOf(a))
	assert.Equal(t, RoleAdmin, lookup.RoleOf(b))
	assert.Equal(t, RoleDefault, lookup.RoleOf(c))
	assert.Equal(t, RoleDefault, Highest(nil).RoleOf(a))
}

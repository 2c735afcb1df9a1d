package room

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/mcdev12/arcade/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IDsIncreaseAndAreNeverReused(t *testing.T) {
	f := newFixture(t)

	var ids []int
	for i := 0; i < 3; i++ {
		r := f.publicRoom(t, models.GameTypeMurder)
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []int{1, 2, 3}, ids)

	require.True(t, f.registry.Remove(3))
	r := f.publicRoom(t, models.GameTypeMurder)
	assert.Equal(t, 4, r.ID())
}

func TestRegistry_PasswordValidatedBeforeAllocation(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreatePublicWithPassword(models.GameTypeMurder, "12a")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = f.registry.CreatePrivate(uuid.New(), "pass")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	assert.Equal(t, 0, f.registry.Len())

	r, err := f.registry.CreatePublicWithPassword(models.GameTypeMurder, "12")
	require.NoError(t, err)
	assert.Equal(t, 1, r.ID())
	assert.True(t, r.Snapshot().HasPassword)
}

func TestRegistry_CreateErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreatePrivate(uuid.Nil, "")
	assert.ErrorIs(t, err, ErrNilOwner)

	_, err = f.registry.CreatePublic("BOGUS")
	assert.ErrorIs(t, err, ErrUnknownGameType)
	assert.Equal(t, 0, f.registry.Len(), "failed rooms are not indexed")

	assert.Empty(t, f.events.OfType(events.EventTypeRoomCreated))
}

func TestRegistry_GetListRemove(t *testing.T) {
	f := newFixture(t)
	a := f.publicRoom(t, models.GameTypeMurder)
	b, err := f.registry.CreatePrivate(uuid.New(), "")
	require.NoError(t, err)
	c := f.publicRoom(t, models.GameTypeOITC)

	got, ok := f.registry.Get(b.ID())
	require.True(t, ok)
	assert.Same(t, b, got)

	assert.Equal(t, []*Room{a, b, c}, f.registry.List())

	assert.True(t, f.registry.Remove(b.ID()))
	assert.False(t, f.registry.Remove(b.ID()))
	assert.Equal(t, models.RoomStateStopped, b.State())
	_, ok = f.registry.Get(b.ID())
	assert.False(t, ok)
	assert.Equal(t, []*Room{a, c}, f.registry.List())

	_, ok = f.registry.Get(99)
	assert.False(t, ok)
}

func TestRegistry_StopAll(t *testing.T) {
	f := newFixture(t)
	rooms := []*Room{
		f.publicRoom(t, models.GameTypeMurder),
		f.publicRoom(t, models.GameTypeFreeForAllGun),
	}

	f.registry.StopAll()

	assert.Equal(t, 0, f.registry.Len())
	for _, r := range rooms {
		assert.Equal(t, models.RoomStateStopped, r.State())
	}
	assert.Len(t, f.events.OfType(events.EventTypeRoomRemoved), 2)
}

func TestRegistry_RevalidateMaps(t *testing.T) {
	f := newFixture(t)
	lobby := f.publicRoom(t, models.GameTypeFreeForAllGun)
	require.True(t, lobby.SetPreSelectedMap(f.admin, "Castle"))

	require.True(t, f.catalog.Unregister("Castle"))
	f.registry.RevalidateMaps()

	assert.Empty(t, lobby.Snapshot().PreSelectedMap)
	assert.Equal(t, []string{"Arena", "Bunker"}, ballotMaps(lobby))
}

func TestRegistry_ConcurrentCreate(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	ids := make(chan int, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.registry.CreatePublic(models.GameTypeMurder)
			if err == nil {
				ids <- r.ID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, 40)
	assert.Equal(t, 40, f.registry.Len())
}

func TestRegistry_DefaultGameTypeAndPrivilege(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, f.cfg.DefaultGameType, f.registry.DefaultGameType())
	assert.True(t, f.registry.IsPrivileged(f.admin))
	assert.False(t, f.registry.IsPrivileged(uuid.New()))
}

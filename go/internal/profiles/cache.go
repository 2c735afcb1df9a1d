// Package profiles keeps player roles from the profiles database in memory so rooms can
// resolve them without blocking.
package profiles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/access"
	"github.com/rs/zerolog/log"
)

// Loader reads roles from the backing store.
type Loader interface {
	LoadRoles(ctx context.Context) (map[uuid.UUID]access.Role, error)
	LoadRole(ctx context.Context, playerID uuid.UUID) (access.Role, bool, error)
}

// RoleCache is an access.RoleLookup over a snapshot of the profiles table. Players missing
// from the snapshot have the default role.
type RoleCache struct {
	loader Loader

	mu          sync.RWMutex
	roles       map[uuid.UUID]access.Role
	lastRefresh time.Time
}

func NewRoleCache(loader Loader) *RoleCache {
	return &RoleCache{
		loader: loader,
		roles:  make(map[uuid.UUID]access.Role),
	}
}

func (c *RoleCache) RoleOf(playerID uuid.UUID) access.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if role, ok := c.roles[playerID]; ok {
		return role
	}
	return access.RoleDefault
}

// Refresh replaces the snapshot with a full reload. On failure the old snapshot is kept.
func (c *RoleCache) Refresh(ctx context.Context) error {
	roles, err := c.loader.LoadRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh roles: %w", err)
	}

	c.mu.Lock()
	c.roles = roles
	c.lastRefresh = time.Now()
	c.mu.Unlock()

	log.Debug().Int("profiles", len(roles)).Msg("role cache refreshed")
	return nil
}

// RefreshPlayer reloads one player's role.
func (c *RoleCache) RefreshPlayer(ctx context.Context, playerID uuid.UUID) error {
	role, found, err := c.loader.LoadRole(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to refresh role for %s: %w", playerID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !found || role == access.RoleDefault {
		delete(c.roles, playerID)
	} else {
		c.roles[playerID] = role
	}

	log.Debug().Str("player_id", playerID.String()).Str("role", role.String()).Msg("player role refreshed")
	return nil
}

func (c *RoleCache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/arcade/go/internal/arcade/access"
	"github.com/rs/zerolog/log"
)

const (
	listRolesQuery = `SELECT player_id, role FROM profiles WHERE role <> 'default'`
	getRoleQuery   = `SELECT role FROM profiles WHERE player_id = $1`
)

// Querier is the part of a pgx pool or connection the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads player roles from the profiles table.
type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

type profileRow struct {
	PlayerID uuid.UUID
	Role     string
}

// LoadRoles returns every player with a role above default.
func (r *Repository) LoadRoles(ctx context.Context) (map[uuid.UUID]access.Role, error) {
	rows, err := r.db.Query(ctx, listRolesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile roles: %w", err)
	}

	profiles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (profileRow, error) {
		var p profileRow
		err := row.Scan(&p.PlayerID, &p.Role)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile roles: %w", err)
	}

	roles := make(map[uuid.UUID]access.Role, len(profiles))
	for _, p := range profiles {
		role, err := access.ParseRole(p.Role)
		if err != nil {
			log.Warn().Err(err).Str("player_id", p.PlayerID.String()).Msg("skipping profile with unknown role")
			continue
		}
		roles[p.PlayerID] = role
	}
	return roles, nil
}

// LoadRole returns a single player's role. found is false when the player has no profile.
func (r *Repository) LoadRole(ctx context.Context, playerID uuid.UUID) (role access.Role, found bool, err error) {
	var name string
	if err := r.db.QueryRow(ctx, getRoleQuery, playerID).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.RoleDefault, false, nil
		}
		return access.RoleDefault, false, fmt.Errorf("failed to get role for %s: %w", playerID, err)
	}

	role, err = access.ParseRole(name)
	if err != nil {
		return access.RoleDefault, false, err
	}
	return role, true, nil
}

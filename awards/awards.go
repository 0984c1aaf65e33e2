// Package awards maps level-up events to role grants. Award lists are
// validated once when a Set is built; there is no shared process-wide state.
package awards

import (
	"fmt"

	"levelkit/core"
)

// Policy controls whether earlier role awards survive later ones.
type Policy int

const (
	// Stack keeps previously granted roles when a new award is applied.
	Stack Policy = iota
	// Replace revokes the immediately preceding award when a new one is
	// applied.
	Replace
)

// RoleAward pairs a platform role with the level required to earn it.
type RoleAward struct {
	RoleID           int64  `json:"role_id"`
	LevelRequirement int    `json:"level_requirement"`
	Label            string `json:"label,omitempty"`
}

// Resolution is the outcome of resolving an award for a new level. Under the
// Replace policy Revoke is set; when the granted award is first in the
// tenant's list, Revoke equals Grant and applying it is a no-op.
type Resolution struct {
	Grant  RoleAward
	Revoke RoleAward
	// HasRevoke is true only under the Replace policy.
	HasRevoke bool
}

// Set holds one tenant's role awards in ascending level-requirement order.
// Build it with NewSet; the ordering established there is the ordering used
// for previous/next award lookups, never re-sorted at runtime.
type Set struct {
	tenant core.TenantID
	list   []RoleAward
}

// NewSet validates and freezes a tenant's award list. Level requirements
// must be greater than zero, unique, and in ascending order; role IDs must
// be unique.
func NewSet(tenant core.TenantID, list []RoleAward) (*Set, error) {
	if len(list) == 0 {
		return nil, &core.ConfigError{Field: "awards", Reason: "award list cannot be empty"}
	}
	seenRoles := make(map[int64]struct{}, len(list))
	prev := 0
	for _, a := range list {
		if a.LevelRequirement <= 0 {
			return nil, &core.ConfigError{Field: "awards", Reason: "level requirement values must be greater than zero"}
		}
		if a.LevelRequirement <= prev {
			return nil, &core.ConfigError{Field: "awards", Reason: fmt.Sprintf("level requirements must be unique and in ascending order (got %d after %d)", a.LevelRequirement, prev)}
		}
		if _, dup := seenRoles[a.RoleID]; dup {
			return nil, &core.ConfigError{Field: "awards", Reason: fmt.Sprintf("duplicate role ID %d, all IDs must be unique", a.RoleID)}
		}
		seenRoles[a.RoleID] = struct{}{}
		prev = a.LevelRequirement
	}
	frozen := make([]RoleAward, len(list))
	copy(frozen, list)
	return &Set{tenant: tenant, list: frozen}, nil
}

// Tenant returns the tenant this set belongs to.
func (s *Set) Tenant() core.TenantID { return s.tenant }

// Awards returns a copy of the award list in configured order.
func (s *Set) Awards() []RoleAward {
	out := make([]RoleAward, len(s.list))
	copy(out, s.list)
	return out
}

// ForLevel returns the award whose level requirement equals level.
func (s *Set) ForLevel(level int) (RoleAward, bool) {
	for _, a := range s.list {
		if a.LevelRequirement == level {
			return a, true
		}
	}
	return RoleAward{}, false
}

// Previous returns the award before a in list order, or a itself when a is
// first in the list.
func (s *Set) Previous(a RoleAward) RoleAward {
	for i, candidate := range s.list {
		if candidate == a {
			if i == 0 {
				return a
			}
			return s.list[i-1]
		}
	}
	return a
}

// Resolve maps a new level to the grant/revoke pair dictated by policy.
// The second return is false when no award is configured for the level.
func (s *Set) Resolve(newLevel int, policy Policy) (Resolution, bool) {
	grant, ok := s.ForLevel(newLevel)
	if !ok {
		return Resolution{}, false
	}
	if policy == Stack {
		return Resolution{Grant: grant}, true
	}
	return Resolution{Grant: grant, Revoke: s.Previous(grant), HasRevoke: true}, true
}

// Config maps tenants to their validated award sets.
type Config map[core.TenantID]*Set

// NewConfig builds a Config from raw per-tenant award lists, validating each.
func NewConfig(raw map[core.TenantID][]RoleAward) (Config, error) {
	cfg := make(Config, len(raw))
	for tenant, list := range raw {
		set, err := NewSet(tenant, list)
		if err != nil {
			return nil, fmt.Errorf("tenant %d: %w", tenant, err)
		}
		cfg[tenant] = set
	}
	return cfg, nil
}

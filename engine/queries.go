package engine

import (
	"context"
	"fmt"

	"levelkit/core"
	"levelkit/leaderboard"
)

// DataFor returns the member's record with its rank populated, or nil when
// the member has no record.
func (e *Engine) DataFor(ctx context.Context, tenant core.TenantID, member core.MemberID) (*core.MemberRecord, error) {
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return rec, err
	}
	rank, err := e.store.Rank(ctx, tenant, member)
	if err != nil {
		return nil, err
	}
	rec.Rank = rank
	return rec, nil
}

// IsInStore reports whether (tenant, member) has a record.
func (e *Engine) IsInStore(ctx context.Context, tenant core.TenantID, member core.MemberID) (bool, error) {
	rec, err := e.store.Get(ctx, tenant, member)
	return rec != nil, err
}

// XPFor returns the member's xp toward the next level, or nil when absent.
func (e *Engine) XPFor(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int64, error) {
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return nil, err
	}
	return &rec.XP, nil
}

// TotalXPFor returns the member's total xp, or nil when absent.
func (e *Engine) TotalXPFor(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int64, error) {
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return nil, err
	}
	return &rec.TotalXP, nil
}

// LevelFor returns the member's level, or nil when absent.
func (e *Engine) LevelFor(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int, error) {
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return nil, err
	}
	return &rec.Level, nil
}

// RankFor returns the member's 1-based rank within the tenant, or nil.
func (e *Engine) RankFor(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int, error) {
	return e.store.Rank(ctx, tenant, member)
}

// NextLevel returns the member's next level, clamped at the maximum, or nil
// when the member has no record.
func (e *Engine) NextLevel(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int, error) {
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return nil, err
	}
	next := core.NextLevelDetails(rec.Level).Level
	return &next, nil
}

// NextLevelUp returns the XP the member still needs to level up; zero when
// already at the maximum level, nil when the member has no record.
func (e *Engine) NextLevelUp(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int64, error) {
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return nil, err
	}
	var needed int64
	if rec.Level < core.MaxLevel {
		needed = core.NextLevelDetails(rec.Level).XPNeeded - rec.XP
	}
	return &needed, nil
}

// RecordCount returns the number of records for the tenant, or across all
// tenants when tenant is nil.
func (e *Engine) RecordCount(ctx context.Context, tenant *core.TenantID) (int64, error) {
	return e.store.Count(ctx, tenant)
}

// EachMemberData returns a tenant's records with ranks populated, sorted by
// key ("name", "level", "xp", "rank"; empty means store order), limited to
// limit records when limit > 0.
func (e *Engine) EachMemberData(ctx context.Context, tenant core.TenantID, key leaderboard.SortKey, limit int) ([]core.MemberRecord, error) {
	if key != "" && !leaderboard.ValidSortKey(key) {
		return nil, fmt.Errorf("sort key %q not recognized: expected name, level, xp, or rank", key)
	}
	records, err := e.store.Scan(ctx, tenant)
	if err != nil {
		return nil, err
	}
	records = leaderboard.AssignRanks(records)
	if key != "" {
		records = leaderboard.Sort(records, key)
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}

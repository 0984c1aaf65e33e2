package engine

import (
	"context"

	"levelkit/core"
)

// AddRecord manually registers a member at the given level with zero xp
// toward the next one. When a record already exists it is overwritten with
// the level's values.
func (e *Engine) AddRecord(ctx context.Context, tenant core.TenantID, member core.MemberID, name string, level int) error {
	threshold, err := core.ThresholdFor(level)
	if err != nil {
		return err
	}
	return e.store.Upsert(ctx, core.MemberRecord{
		TenantID: tenant,
		MemberID: member,
		Name:     name,
		Level:    level,
		XP:       0,
		TotalXP:  threshold,
	})
}

// AddXP gives XP outside the message pipeline, advancing the level to match
// the new total. A member already at the total-XP cap is left untouched.
func (e *Engine) AddXP(ctx context.Context, tenant core.TenantID, member core.MemberID, amount int64) error {
	if amount <= 0 {
		return &core.ConfigError{Field: "amount", Reason: "must be at least 1"}
	}
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return err
	}
	if rec.TotalXP >= core.MaxTotalXP {
		return nil
	}
	total := rec.TotalXP + amount
	if total > core.MaxTotalXP {
		total = core.MaxTotalXP
	}
	updated := *rec
	updated.TotalXP = total
	updated.Level = core.LevelForTotalXP(total)
	return e.store.Upsert(ctx, updated)
}

// RemoveXP takes XP away, lowering the level to match the new total. A
// member already at zero is left untouched.
func (e *Engine) RemoveXP(ctx context.Context, tenant core.TenantID, member core.MemberID, amount int64) error {
	if amount <= 0 {
		return &core.ConfigError{Field: "amount", Reason: "must be at least 1"}
	}
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return err
	}
	if rec.TotalXP == 0 {
		return nil
	}
	total := rec.TotalXP - amount
	if total < 0 {
		total = 0
	}
	updated := *rec
	updated.TotalXP = total
	updated.Level = core.LevelForTotalXP(total)
	return e.store.Upsert(ctx, updated)
}

// SetLevel pins a member to a level, resetting xp and aligning total xp to
// the level's threshold.
func (e *Engine) SetLevel(ctx context.Context, tenant core.TenantID, member core.MemberID, name string, level int) error {
	return e.AddRecord(ctx, tenant, member, name, level)
}

// ResetMember zeroes a member's level, xp, and total xp.
func (e *Engine) ResetMember(ctx context.Context, tenant core.TenantID, member core.MemberID) error {
	rec, err := e.store.Get(ctx, tenant, member)
	if err != nil || rec == nil {
		return err
	}
	updated := *rec
	updated.Level = 0
	updated.XP = 0
	updated.TotalXP = 0
	return e.store.Upsert(ctx, updated)
}

// ResetEveryone zeroes every record for the tenant, or for all tenants when
// tenant is nil. Requires intentional=true; otherwise ErrFailSafe.
func (e *Engine) ResetEveryone(ctx context.Context, tenant *core.TenantID, intentional bool) error {
	if !intentional {
		return core.ErrFailSafe
	}
	return e.store.ResetAll(ctx, tenant)
}

// Wipe deletes every record for the tenant, or the entire store when tenant
// is nil. Requires intentional=true; otherwise ErrFailSafe.
func (e *Engine) Wipe(ctx context.Context, tenant *core.TenantID, intentional bool) error {
	if !intentional {
		return core.ErrFailSafe
	}
	return e.store.Wipe(ctx, tenant)
}

// RemoveMember deletes a member's record, reporting whether one existed.
func (e *Engine) RemoveMember(ctx context.Context, tenant core.TenantID, member core.MemberID) (bool, error) {
	return e.store.Delete(ctx, tenant, member)
}

// Clean removes records for members no longer present in the tenant's
// roster, returning how many were removed. The roster comes from the
// platform; the engine never queries membership itself.
func (e *Engine) Clean(ctx context.Context, tenant core.TenantID, roster []core.MemberID) (int, error) {
	present := make(map[core.MemberID]struct{}, len(roster))
	for _, id := range roster {
		present[id] = struct{}{}
	}
	records, err := e.store.Scan(ctx, tenant)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, rec := range records {
		if _, ok := present[rec.MemberID]; ok {
			continue
		}
		deleted, err := e.store.Delete(ctx, tenant, rec.MemberID)
		if err != nil {
			return removed, err
		}
		if deleted {
			removed++
		}
	}
	return removed, nil
}

// RefreshNames updates stored display names that have drifted from the
// platform's current ones, returning how many records changed. Names are
// supplied by the caller, keyed by member ID.
func (e *Engine) RefreshNames(ctx context.Context, tenant core.TenantID, names map[core.MemberID]string) (int, error) {
	records, err := e.store.Scan(ctx, tenant)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, rec := range records {
		name, ok := names[rec.MemberID]
		if !ok || name == rec.Name {
			continue
		}
		next := rec
		next.Name = name
		if err := e.store.Upsert(ctx, next); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// InsertUsing selects how InsertMembers interprets its values.
type InsertUsing string

const (
	UsingXP     InsertUsing = "xp"
	UsingLevels InsertUsing = "levels"
)

// InsertMembers imports records from a foreign leveling system. Values are
// either total XP amounts or levels per using; out-of-range values clamp to
// this library's bounds. Existing records are skipped unless overwrite is
// set. Returns how many members were inserted.
func (e *Engine) InsertMembers(ctx context.Context, tenant core.TenantID, users map[core.MemberID]int64, names map[core.MemberID]string, using InsertUsing, overwrite bool) (int, error) {
	if len(users) == 0 {
		return 0, &core.ConfigError{Field: "users", Reason: "cannot be empty"}
	}
	if using != UsingXP && using != UsingLevels {
		return 0, &core.ConfigError{Field: "using", Reason: `expected "xp" or "levels"`}
	}
	inserted := 0
	for member, value := range users {
		if !overwrite {
			exists, err := e.IsInStore(ctx, tenant, member)
			if err != nil {
				return inserted, err
			}
			if exists {
				continue
			}
		}
		level := 0
		switch using {
		case UsingLevels:
			level = int(value)
			if level < 0 {
				level = 0
			} else if level > core.MaxLevel {
				level = core.MaxLevel
			}
		case UsingXP:
			xp := value
			if xp < 0 {
				xp = 0
			} else if xp > core.MaxTotalXP {
				xp = core.MaxTotalXP
			}
			level = core.LevelForTotalXP(xp)
		}
		if err := e.AddRecord(ctx, tenant, member, names[member], level); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

package engine

import (
	"context"

	"levelkit/announce"
	"levelkit/core"
)

// RecordStore abstracts persistence for member records. Implementations
// commit every write synchronously before returning.
type RecordStore interface {
	// Get returns the record for (tenant, member), or nil when absent.
	Get(ctx context.Context, tenant core.TenantID, member core.MemberID) (*core.MemberRecord, error)
	// Upsert inserts the record, or updates name, level, xp, and total xp
	// in one atomic write when the row already exists.
	Upsert(ctx context.Context, rec core.MemberRecord) error
	// IncrementXP atomically applies xp += delta and total_xp += delta to
	// an existing row.
	IncrementXP(ctx context.Context, tenant core.TenantID, member core.MemberID, delta int64) error
	// Delete removes the row, reporting whether anything was removed.
	Delete(ctx context.Context, tenant core.TenantID, member core.MemberID) (bool, error)
	// Scan returns all records for one tenant.
	Scan(ctx context.Context, tenant core.TenantID) ([]core.MemberRecord, error)
	// ScanAll returns every record across all tenants.
	ScanAll(ctx context.Context) ([]core.MemberRecord, error)
	// Rank returns the member's 1-based position by total XP within the
	// tenant, or nil when the member has no record.
	Rank(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int, error)
	// Count returns the number of records for the tenant, or across all
	// tenants when tenant is nil.
	Count(ctx context.Context, tenant *core.TenantID) (int64, error)
	// Wipe deletes records for the tenant, or everything when tenant is nil.
	Wipe(ctx context.Context, tenant *core.TenantID) error
	// ResetAll zeroes level, xp, and total xp for the tenant, or for
	// everyone when tenant is nil.
	ResetAll(ctx context.Context, tenant *core.TenantID) error
}

// RoleManager applies role grants and revocations on the chat platform.
type RoleManager interface {
	RoleExists(ctx context.Context, tenant core.TenantID, roleID int64) bool
	AddRole(ctx context.Context, tenant core.TenantID, member core.MemberID, roleID int64) error
	RemoveRole(ctx context.Context, tenant core.TenantID, member core.MemberID, roleID int64) error
}

// Messenger delivers rendered announcements to a channel.
type Messenger interface {
	ChannelExists(ctx context.Context, tenant core.TenantID, channelID int64) bool
	Send(ctx context.Context, tenant core.TenantID, channelID int64, msg announce.Rendered) error
}

// Notifier receives the optional external level-up notification carrying the
// triggering message context and the refreshed record.
type Notifier interface {
	LevelUp(ctx context.Context, msg Message, rec core.MemberRecord)
}

package core

import (
	"fmt"
	"time"
)

// TenantID identifies an isolated chat community (guild). Records and role
// awards never cross tenant boundaries.
type TenantID int64

// MemberID identifies a member within a tenant.
type MemberID int64

// MessageKind classifies an inbound message. Only KindDefault messages earn XP.
type MessageKind int

const (
	KindDefault MessageKind = iota
	KindSystem
	KindReply
	KindOther
)

// MemberRecord is one persisted leaderboard row. XP counts toward the next
// level and resets to zero on level up; TotalXP is monotonically
// non-decreasing and capped at MaxTotalXP.
type MemberRecord struct {
	TenantID TenantID `json:"tenant_id" db:"tenant_id"`
	MemberID MemberID `json:"member_id" db:"member_id"`
	Name     string   `json:"name" db:"member_name"`
	Level    int      `json:"level" db:"member_level"`
	XP       int64    `json:"xp" db:"member_xp"`
	TotalXP  int64    `json:"total_xp" db:"member_total_xp"`

	// Rank is the 1-based position by TotalXP within the tenant. It is
	// computed on demand and is nil when unknown or the member is gone.
	Rank *int `json:"rank,omitempty" db:"-"`
}

// Mention returns the platform mention string for the member.
func (r MemberRecord) Mention() string {
	return fmt.Sprintf("<@%d>", r.MemberID)
}

// MemberProfile carries platform-derived presentation fields. The caller
// resolves these from its chat client before invoking the engine; the core
// never touches platform objects.
type MemberProfile struct {
	MemberID    MemberID
	DisplayName string
	AvatarURL   string
	JoinedAt    time.Time
}

// Mention returns the platform mention string for the profile's member.
func (p MemberProfile) Mention() string {
	return fmt.Sprintf("<@%d>", p.MemberID)
}

package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventXPAwarded EventType = "xp_awarded"
	EventLevelUp   EventType = "level_up"
)

// Event represents an immutable domain event.
type Event struct {
	Type     EventType `json:"type"`
	Time     time.Time `json:"time"`
	TenantID TenantID  `json:"tenant_id"`
	MemberID MemberID  `json:"member_id"`
	Amount   int64     `json:"amount,omitempty"`
	Level    int       `json:"level,omitempty"`
	TotalXP  int64     `json:"total_xp,omitempty"`
}

func NewXPAwarded(tenant TenantID, member MemberID, amount int64, totalXP int64) Event {
	return Event{Type: EventXPAwarded, Time: time.Now().UTC(), TenantID: tenant, MemberID: member, Amount: amount, TotalXP: totalXP}
}

func NewLevelUp(tenant TenantID, member MemberID, level int, totalXP int64) Event {
	return Event{Type: EventLevelUp, Time: time.Now().UTC(), TenantID: tenant, MemberID: member, Level: level, TotalXP: totalXP}
}

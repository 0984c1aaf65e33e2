// Package leaderboard sorts member records and computes on-demand ranks.
// Rank is always derived from a full scan of a tenant's records; nothing is
// maintained incrementally.
package leaderboard

import (
	"sort"
	"strings"

	"levelkit/core"
)

// SortKey selects the ordering for Sort.
type SortKey string

const (
	ByName  SortKey = "name"
	ByLevel SortKey = "level"
	ByXP    SortKey = "xp"
	ByRank  SortKey = "rank"
)

// ValidSortKey reports whether key is a recognized sort option.
func ValidSortKey(key SortKey) bool {
	switch key {
	case ByName, ByLevel, ByXP, ByRank:
		return true
	}
	return false
}

// RankOf returns the 1-based position of member among records ordered by
// total XP descending, or false when the member has no record.
func RankOf(records []core.MemberRecord, member core.MemberID) (int, bool) {
	ordered := byTotalXPDesc(records)
	for i, r := range ordered {
		if r.MemberID == member {
			return i + 1, true
		}
	}
	return 0, false
}

// AssignRanks returns a copy of records with each Rank field populated from
// the total-XP-descending ordering.
func AssignRanks(records []core.MemberRecord) []core.MemberRecord {
	ordered := byTotalXPDesc(records)
	position := make(map[core.MemberID]int, len(ordered))
	for i, r := range ordered {
		position[r.MemberID] = i + 1
	}
	out := make([]core.MemberRecord, len(records))
	copy(out, records)
	for i := range out {
		rank := position[out[i].MemberID]
		out[i].Rank = &rank
	}
	return out
}

// Sort returns records ordered by key. Name sorts ascending
// case-insensitively; level and xp sort descending; rank sorts ascending
// with unranked records (nil Rank) last.
func Sort(records []core.MemberRecord, key SortKey) []core.MemberRecord {
	out := make([]core.MemberRecord, len(records))
	copy(out, records)
	switch key {
	case ByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case ByLevel:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	case ByXP:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalXP > out[j].TotalXP })
	case ByRank:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := out[i].Rank, out[j].Rank
			switch {
			case ri == nil:
				return false
			case rj == nil:
				return true
			default:
				return *ri < *rj
			}
		})
	}
	return out
}

func byTotalXPDesc(records []core.MemberRecord) []core.MemberRecord {
	ordered := make([]core.MemberRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].TotalXP > ordered[j].TotalXP })
	return ordered
}

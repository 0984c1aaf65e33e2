package leaderboard

import (
	"testing"

	"levelkit/core"
)

func records() []core.MemberRecord {
	return []core.MemberRecord{
		{TenantID: 1, MemberID: 1, Name: "zoe", Level: 2, TotalXP: 300},
		{TenantID: 1, MemberID: 2, Name: "Al", Level: 5, TotalXP: 1200},
		{TenantID: 1, MemberID: 3, Name: "bob", Level: 1, TotalXP: 150},
	}
}

func TestRankOf(t *testing.T) {
	if rank, ok := RankOf(records(), 2); !ok || rank != 1 {
		t.Fatalf("member 2 rank = %d ok=%v, want 1", rank, ok)
	}
	if rank, ok := RankOf(records(), 3); !ok || rank != 3 {
		t.Fatalf("member 3 rank = %d ok=%v, want 3", rank, ok)
	}
	if _, ok := RankOf(records(), 99); ok {
		t.Fatal("unknown member should have no rank")
	}
}

func TestAssignRanks(t *testing.T) {
	ranked := AssignRanks(records())
	for _, r := range ranked {
		if r.Rank == nil {
			t.Fatalf("member %d missing rank", r.MemberID)
		}
	}
	if *ranked[1].Rank != 1 {
		t.Fatalf("member 2 should be rank 1, got %d", *ranked[1].Rank)
	}
}

func TestSort(t *testing.T) {
	byName := Sort(records(), ByName)
	if byName[0].Name != "Al" || byName[2].Name != "zoe" {
		t.Fatalf("name sort wrong: %v", byName)
	}
	byXP := Sort(records(), ByXP)
	if byXP[0].MemberID != 2 || byXP[2].MemberID != 3 {
		t.Fatalf("xp sort wrong: %v", byXP)
	}
	if !ValidSortKey(ByRank) || ValidSortKey("bogus") {
		t.Fatal("sort key validation wrong")
	}
}

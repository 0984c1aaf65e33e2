package memory

import (
	"context"
	"testing"

	"levelkit/core"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 10, Name: "a", Level: 1, XP: 5, TotalXP: 105}); err != nil {
		t.Fatal(err)
	}
	rec, err := s.Get(ctx, 1, 10)
	if err != nil || rec == nil {
		t.Fatalf("Get: rec %v err %v", rec, err)
	}
	if rec.Name != "a" || rec.TotalXP != 105 {
		t.Fatalf("got %+v", rec)
	}

	if err := s.IncrementXP(ctx, 1, 10, 20); err != nil {
		t.Fatal(err)
	}
	rec, _ = s.Get(ctx, 1, 10)
	if rec.XP != 25 || rec.TotalXP != 125 {
		t.Fatalf("after increment: xp %d total %d", rec.XP, rec.TotalXP)
	}

	if err := s.IncrementXP(ctx, 1, 99, 20); err == nil {
		t.Fatal("increment on absent member should fail")
	}
}

func TestMemoryStoreRankAndScan(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 1, TotalXP: 100})
	s.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 2, TotalXP: 300})
	s.Upsert(ctx, core.MemberRecord{TenantID: 2, MemberID: 3, TotalXP: 900})

	rank, err := s.Rank(ctx, 1, 1)
	if err != nil || rank == nil || *rank != 2 {
		t.Fatalf("rank = %v err %v, want 2", rank, err)
	}
	if rank, _ := s.Rank(ctx, 1, 99); rank != nil {
		t.Fatal("absent member should have nil rank")
	}

	recs, _ := s.Scan(ctx, 1)
	if len(recs) != 2 {
		t.Fatalf("scan = %d records, want 2 (tenant isolation)", len(recs))
	}
	all, _ := s.ScanAll(ctx)
	if len(all) != 3 {
		t.Fatalf("scan all = %d, want 3", len(all))
	}

	// ties go to the lower member ID
	s.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 4, TotalXP: 300})
	if rank, _ := s.Rank(ctx, 1, 2); rank == nil || *rank != 1 {
		t.Fatalf("tied lower ID rank = %v, want 1", rank)
	}
	if rank, _ := s.Rank(ctx, 1, 4); rank == nil || *rank != 2 {
		t.Fatalf("tied higher ID rank = %v, want 2", rank)
	}
}

func TestMemoryStoreWipeAndReset(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 1, Level: 2, XP: 5, TotalXP: 260})
	s.Upsert(ctx, core.MemberRecord{TenantID: 2, MemberID: 2, TotalXP: 50})

	tenant := core.TenantID(1)
	if err := s.ResetAll(ctx, &tenant); err != nil {
		t.Fatal(err)
	}
	rec, _ := s.Get(ctx, 1, 1)
	if rec.Level != 0 || rec.TotalXP != 0 {
		t.Fatalf("reset left %+v", rec)
	}
	rec, _ = s.Get(ctx, 2, 2)
	if rec.TotalXP != 50 {
		t.Fatal("reset crossed tenants")
	}

	if err := s.Wipe(ctx, &tenant); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx, nil); n != 1 {
		t.Fatalf("count after tenant wipe = %d, want 1", n)
	}
	if err := s.Wipe(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx, nil); n != 0 {
		t.Fatalf("count after full wipe = %d, want 0", n)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 1})

	ok, err := s.Delete(ctx, 1, 1)
	if err != nil || !ok {
		t.Fatalf("delete = %v %v", ok, err)
	}
	ok, _ = s.Delete(ctx, 1, 1)
	if ok {
		t.Fatal("second delete should report absent")
	}
}

package core

import "testing"

func TestThresholdsStrictlyIncreasing(t *testing.T) {
	for l := 0; l < MaxLevel; l++ {
		a, err := ThresholdFor(l)
		if err != nil {
			t.Fatal(err)
		}
		b, err := ThresholdFor(l + 1)
		if err != nil {
			t.Fatal(err)
		}
		if a >= b {
			t.Fatalf("threshold for level %d (%d) not less than level %d (%d)", l, a, l+1, b)
		}
	}
}

func TestThresholdBoundaries(t *testing.T) {
	if v, _ := ThresholdFor(0); v != 0 {
		t.Fatalf("level 0 threshold = %d, want 0", v)
	}
	if v, _ := ThresholdFor(MaxLevel); v != MaxTotalXP {
		t.Fatalf("level 100 threshold = %d, want %d", v, MaxTotalXP)
	}
	if _, err := ThresholdFor(-1); err == nil {
		t.Fatal("expected out of range error for level -1")
	}
	if _, err := ThresholdFor(101); err == nil {
		t.Fatal("expected out of range error for level 101")
	}
}

func TestLevelForTotalXPRoundTrip(t *testing.T) {
	for l := 0; l <= MaxLevel; l++ {
		xp, _ := ThresholdFor(l)
		if got := LevelForTotalXP(xp); got != l {
			t.Fatalf("LevelForTotalXP(ThresholdFor(%d)) = %d", l, got)
		}
	}
}

func TestLevelForTotalXPInBetween(t *testing.T) {
	if got := LevelForTotalXP(99); got != 0 {
		t.Fatalf("99 total xp = level %d, want 0", got)
	}
	if got := LevelForTotalXP(150); got != 1 {
		t.Fatalf("150 total xp = level %d, want 1", got)
	}
	if got := LevelForTotalXP(MaxTotalXP + 500); got != MaxLevel {
		t.Fatalf("above cap = level %d, want %d", got, MaxLevel)
	}
	if got := LevelForTotalXP(-5); got != 0 {
		t.Fatalf("negative total xp = level %d, want 0", got)
	}
}

func TestNextLevelDetails(t *testing.T) {
	d := NextLevelDetails(0)
	if d.Level != 1 || d.XPNeeded != 100 {
		t.Fatalf("next of 0 = %+v", d)
	}
	d = NextLevelDetails(MaxLevel)
	if d.Level != MaxLevel || d.XPNeeded != MaxTotalXP {
		t.Fatalf("next of max = %+v", d)
	}
}

func TestMention(t *testing.T) {
	r := MemberRecord{MemberID: 42}
	if r.Mention() != "<@42>" {
		t.Fatalf("mention = %q", r.Mention())
	}
}

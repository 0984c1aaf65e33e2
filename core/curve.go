package core

// The level curve is fixed data shared with the MEE6 leveling documentation:
// 101 cumulative XP thresholds, one per level from 0 to 100. It is not
// derived algorithmically; boundary behavior at level 100 and total XP 0
// must be exact.

const (
	// MaxLevel is the highest attainable level.
	MaxLevel = 100
	// MaxTotalXP is the cumulative XP required for MaxLevel and the global
	// cap on a member's total XP.
	MaxTotalXP int64 = 1_899_250
)

var levelThresholds = [MaxLevel + 1]int64{
	0, 100, 255, 475, 770, 1150, 1625, 2205, 2900, 3720,
	4675, 5775, 7030, 8450, 10045, 11825, 13800, 15980, 18375, 20995,
	23850, 26950, 30305, 33925, 37820, 42000, 46475, 51255, 56350, 61770,
	67525, 73625, 80080, 86900, 94095, 101675, 109650, 118030, 126825, 136045,
	145700, 155800, 166355, 177375, 188870, 200850, 213325, 226305, 239800, 253820,
	268375, 283475, 299130, 315350, 332145, 349525, 367500, 386080, 405275, 425095,
	445550, 466650, 488405, 510825, 533920, 557700, 582175, 607355, 633250, 659870,
	687225, 715325, 744180, 773800, 804195, 835375, 867350, 900130, 933725, 968145,
	1003400, 1039500, 1076455, 1114275, 1152970, 1192550, 1233025, 1274405, 1316700, 1359920,
	1404075, 1449175, 1495230, 1542250, 1590245, 1639225, 1689200, 1740180, 1792175, 1845195,
	1899250,
}

// ThresholdFor returns the cumulative XP required for the given level.
func ThresholdFor(level int) (int64, error) {
	if level < 0 || level > MaxLevel {
		return 0, &OutOfRangeError{Level: level}
	}
	return levelThresholds[level], nil
}

// LevelDetails describes the next level boundary relative to a current level.
type LevelDetails struct {
	Level    int
	XPNeeded int64
}

// NextLevelDetails returns the level after current (clamped to MaxLevel) and
// the cumulative XP threshold for it.
func NextLevelDetails(current int) LevelDetails {
	next := current + 1
	if next > MaxLevel {
		next = MaxLevel
	}
	if next < 0 {
		next = 0
	}
	return LevelDetails{Level: next, XPNeeded: levelThresholds[next]}
}

// LevelForTotalXP returns the greatest level whose threshold is less than or
// equal to totalXP, clamped into [0, MaxLevel].
func LevelForTotalXP(totalXP int64) int {
	if totalXP <= 0 {
		return 0
	}
	if totalXP >= MaxTotalXP {
		return MaxLevel
	}
	for level := MaxLevel; level >= 0; level-- {
		if levelThresholds[level] <= totalXP {
			return level
		}
	}
	return 0
}

// Thresholds returns a copy of the full level table.
func Thresholds() []int64 {
	out := make([]int64, len(levelThresholds))
	copy(out, levelThresholds[:])
	return out
}

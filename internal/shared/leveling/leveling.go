// Package leveling holds the level threshold table. It lives in the
// shared kernel because both the scoring engine and the reward ledger
// mutate the points balance and must re-derive the level from the same
// table afterwards.
package leveling

// thresholds[i] is the cumulative point total required to reach level
// i+1. The table is strictly increasing, which keeps LevelFor monotonic
// in points.
var thresholds = []int{
	0,     // level 1
	100,   // level 2
	250,   // level 3
	500,   // level 4
	1000,  // level 5
	2000,  // level 6
	3500,  // level 7
	5500,  // level 8
	8000,  // level 9
	11000, // level 10
	15000, // level 11
	20000, // level 12
}

// LevelFor derives the level for a point total. It is a total function:
// negative totals clamp to level 1.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	level := 1
	for i, threshold := range thresholds {
		if points < threshold {
			break
		}
		level = i + 1
	}
	return level
}

// MaxLevel reports the top of the threshold table.
func MaxLevel() int {
	return len(thresholds)
}

// ThresholdFor reports the point total required for a level, or -1 when
// the level is outside the table.
func ThresholdFor(level int) int {
	if level < 1 || level > len(thresholds) {
		return -1
	}
	return thresholds[level-1]
}

package rules

import "greenloop/internal/shared/leveling"

// LevelFor derives the level for a cumulative point total. The threshold
// table itself lives in the shared kernel so the reward ledger re-derives
// the same level after a debit.
func LevelFor(points int) int {
	return leveling.LevelFor(points)
}

// MaxLevel reports the top of the threshold table.
func MaxLevel() int {
	return leveling.MaxLevel()
}

// ThresholdFor reports the point total required for a level, or -1 when
// the level is outside the table.
func ThresholdFor(level int) int {
	return leveling.ThresholdFor(level)
}

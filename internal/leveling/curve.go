// Package leveling holds the XP curve and the per-source rate table.
// Everything here is pure: no state, no I/O.
package leveling

import "math"

// LevelForXP returns floor(sqrt(xp / 100)). Level 1 starts at 100 XP,
// level 2 at 400, level 10 at 10000.
func LevelForXP(xp int64) int {
	if xp <= 0 {
		return 0
	}
	level := int(math.Sqrt(float64(xp) / 100))
	// Guard against float rounding at exact level boundaries
	for XPFloorForLevel(level+1) <= xp {
		level++
	}
	for level > 0 && XPFloorForLevel(level) > xp {
		level--
	}
	return level
}

// XPFloorForLevel returns the minimum XP required to hold level.
func XPFloorForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	return int64(level) * int64(level) * 100
}

// XPNeededForNextLevel returns how much XP is missing until the next level.
func XPNeededForNextLevel(xp int64) int64 {
	if xp < 0 {
		xp = 0
	}
	return XPFloorForLevel(LevelForXP(xp)+1) - xp
}

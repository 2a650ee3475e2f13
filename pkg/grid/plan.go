package grid

// PlanIncrementalLevels returns the layers to materialize when the target
// level changes from previousN to newN.
//
// In incremental mode with a rising target every intermediate refinement
// becomes its own layer: (previousN+1, previousN) ... (newN, newN-1).
// Otherwise the full grid at newN is generated against the baseline as the
// single layer (newN, 0).
func PlanIncrementalLevels(previousN, newN Level, incremental bool) []LevelPair {
	if !incremental || newN <= previousN {
		return []LevelPair{{Level: newN, PreviousLevel: 0}}
	}
	plan := make([]LevelPair, 0, int(newN-previousN))
	for k := previousN + 1; k <= newN; k++ {
		plan = append(plan, LevelPair{Level: k, PreviousLevel: k - 1})
	}
	return plan
}

// IsChain reports whether plan consists of incremental refinements only.
func IsChain(plan []LevelPair) bool {
	if len(plan) == 0 {
		return false
	}
	for _, p := range plan {
		if !p.Incremental() {
			return false
		}
	}
	return true
}

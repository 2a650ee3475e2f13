package grid

// Record is the set of layers already materialized during a session. A
// repeated request for a recorded pair is served by toggling visibility
// instead of generating again. The zero value is ready to use; it is not
// safe for concurrent use.
type Record struct {
	pairs map[LevelPair]struct{}
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{pairs: make(map[LevelPair]struct{})}
}

// Has reports whether p has been materialized.
func (r *Record) Has(p LevelPair) bool {
	_, ok := r.pairs[p]
	return ok
}

// Add marks p as materialized. It returns false if p was already present.
func (r *Record) Add(p LevelPair) bool {
	if r.pairs == nil {
		r.pairs = make(map[LevelPair]struct{})
	}
	if _, ok := r.pairs[p]; ok {
		return false
	}
	r.pairs[p] = struct{}{}
	return true
}

// Len returns the number of materialized pairs.
func (r *Record) Len() int {
	return len(r.pairs)
}

// Pairs returns the materialized pairs ordered by level, then previous level.
func (r *Record) Pairs() []LevelPair {
	out := make([]LevelPair, 0, len(r.pairs))
	for p := range r.pairs {
		out = append(out, p)
	}
	SortPairs(out)
	return out
}

// ChainTop returns the largest k such that every refinement (1,0) ... (k,k-1)
// has been materialized, or 0 if (1,0) is missing.
func (r *Record) ChainTop() Level {
	var k Level
	for r.Has(LevelPair{Level: k + 1, PreviousLevel: k}) {
		k++
	}
	return k
}

// Reset forgets every pair.
func (r *Record) Reset() {
	r.pairs = make(map[LevelPair]struct{})
}

package models

// StatCurve is a sampled stat curve starting at FirstLevel.
type StatCurve struct {
	FirstLevel int       `json:"FirstLevel"`
	Values     []float64 `json:"Values"`
}

// StatTable maps subtype key -> tier key -> stat key -> curve.
//
// Keys look like "Ninja_Shields" -> "SR_T05" -> "FortHealthSet.MaxHealth".
type StatTable struct {
	Types map[string]map[string]map[string]StatCurve `json:"Types"`
}

// NewStatTable returns an empty table.
func NewStatTable() *StatTable {
	return &StatTable{Types: make(map[string]map[string]map[string]StatCurve)}
}

// Set stores a curve, creating the intermediate levels as needed.
func (t *StatTable) Set(typeKey, tierKey, statKey string, curve StatCurve) {
	if t.Types == nil {
		t.Types = make(map[string]map[string]map[string]StatCurve)
	}
	tiers, ok := t.Types[typeKey]
	if !ok {
		tiers = make(map[string]map[string]StatCurve)
		t.Types[typeKey] = tiers
	}
	stats, ok := tiers[tierKey]
	if !ok {
		stats = make(map[string]StatCurve)
		tiers[tierKey] = stats
	}
	stats[statKey] = curve
}

// Merge copies every curve of other into t. Curves in other win.
func (t *StatTable) Merge(other *StatTable) {
	if other == nil {
		return
	}
	for typeKey, tiers := range other.Types {
		for tierKey, stats := range tiers {
			for statKey, curve := range stats {
				t.Set(typeKey, tierKey, statKey, curve)
			}
		}
	}
}

// Len returns the number of curves in the table.
func (t *StatTable) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, tiers := range t.Types {
		for _, stats := range tiers {
			n += len(stats)
		}
	}
	return n
}

// Clone returns a deep copy of t.
func (t *StatTable) Clone() *StatTable {
	c := NewStatTable()
	c.Merge(t)
	return c
}

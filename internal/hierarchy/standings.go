package hierarchy

import (
	"cmp"
	"slices"
)

type Standing struct {
	PlayerID int64
	Value    float64
	Position int
}

// Rank orders standings by value descending, then player id ascending, and
// numbers them from 1. The input is not modified.
func Rank(entries []Standing) []Standing {
	out := slices.Clone(entries)
	slices.SortFunc(out, func(a, b Standing) int {
		if a.Value != b.Value {
			return cmp.Compare(b.Value, a.Value)
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

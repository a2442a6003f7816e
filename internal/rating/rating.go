package rating

// Floor is the lowest publicly visible rating. Raw ratings may sit below it.
const Floor = 1000

// Rating is a raw per-event Elo value. Its scoring projection is always
// derived, so every write path that stores a Rating stores a consistent pair.
type Rating int

func (r Rating) Raw() int { return int(r) }

// Scoring is max(raw, Floor).
func (r Rating) Scoring() int {
	if int(r) < Floor {
		return Floor
	}
	return int(r)
}

func (r Rating) Add(delta int) Rating { return r + Rating(delta) }

// Aggregate is a raw cluster or overall rating.
type Aggregate float64

func (a Aggregate) Raw() float64 { return float64(a) }

func (a Aggregate) Scoring() float64 {
	if float64(a) < Floor {
		return Floor
	}
	return float64(a)
}

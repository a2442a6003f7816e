// Package hierarchy folds a player's per-event ratings into cluster ratings
// and cluster ratings into one overall rating.
package hierarchy

import (
	"cmp"
	"slices"

	"tournament-arc/internal/rating"
)

// EventRating is one of a player's per-event ratings.
type EventRating struct {
	EventID   int64
	ClusterID int64
	Elo       rating.Rating
}

// WeightedEvent is an event rating after prestige ranking inside its cluster.
type WeightedEvent struct {
	EventID    int64
	Elo        rating.Rating
	Multiplier float64
}

type ClusterRating struct {
	ClusterID int64
	Elo       rating.Aggregate
	Events    []WeightedEvent
}

// Tier is one band of the overall rating as it was filled for a player.
// Empty tiers still count at their nominal weight with an average of 0.
type Tier struct {
	Weight   float64
	Capacity int
	Clusters []int64
	Average  float64
}

func (t Tier) Empty() bool { return len(t.Clusters) == 0 }

type Overall struct {
	Elo   rating.Aggregate
	Tiers []Tier
}

type Snapshot struct {
	Events   []EventRating
	Clusters []ClusterRating
	Overall  Overall
}

type Calculator struct {
	prestige rating.PrestigeParams
	tiers    []rating.Tier
}

func NewCalculator(params rating.Params) *Calculator {
	p := params.Clone()
	return &Calculator{prestige: p.Prestige, tiers: p.Tiers}
}

// ClusterRating ranks the events by raw rating (event id breaks ties) and
// returns their prestige-weighted mean. Multipliers past the number of
// events are simply unused.
func (c *Calculator) ClusterRating(clusterID int64, events []EventRating) ClusterRating {
	sorted := slices.Clone(events)
	slices.SortFunc(sorted, func(a, b EventRating) int {
		if a.Elo != b.Elo {
			return cmp.Compare(b.Elo, a.Elo)
		}
		return cmp.Compare(a.EventID, b.EventID)
	})

	out := ClusterRating{ClusterID: clusterID, Events: make([]WeightedEvent, len(sorted))}
	var weighted, weights float64
	for i, e := range sorted {
		m := c.prestige.Multiplier(i)
		out.Events[i] = WeightedEvent{EventID: e.EventID, Elo: e.Elo, Multiplier: m}
		weighted += float64(e.Elo.Raw()) * m
		weights += m
	}
	if weights > 0 {
		out.Elo = rating.Aggregate(weighted / weights)
	}
	return out
}

// OverallRating fills the configured tiers top-down from the clusters
// sorted by raw rating (cluster id breaks ties).
func (c *Calculator) OverallRating(clusters []ClusterRating) Overall {
	sorted := slices.Clone(clusters)
	slices.SortFunc(sorted, func(a, b ClusterRating) int {
		if a.Elo != b.Elo {
			return cmp.Compare(b.Elo, a.Elo)
		}
		return cmp.Compare(a.ClusterID, b.ClusterID)
	})

	out := Overall{Tiers: make([]Tier, len(c.tiers))}
	var total float64
	next := 0
	for i, band := range c.tiers {
		end := min(next+band.Size, len(sorted))
		tier := Tier{Weight: band.Weight, Capacity: band.Size}
		var sum float64
		for _, cl := range sorted[next:end] {
			tier.Clusters = append(tier.Clusters, cl.ClusterID)
			sum += cl.Elo.Raw()
		}
		if n := len(tier.Clusters); n > 0 {
			tier.Average = sum / float64(n)
		}
		total += tier.Average * tier.Weight
		out.Tiers[i] = tier
		next = end
	}
	out.Elo = rating.Aggregate(total)
	return out
}

// Build groups event ratings by cluster and computes every level.
func (c *Calculator) Build(events []EventRating) Snapshot {
	byCluster := make(map[int64][]EventRating)
	var clusterIDs []int64
	for _, e := range events {
		if _, ok := byCluster[e.ClusterID]; !ok {
			clusterIDs = append(clusterIDs, e.ClusterID)
		}
		byCluster[e.ClusterID] = append(byCluster[e.ClusterID], e)
	}
	slices.Sort(clusterIDs)

	snap := Snapshot{
		Events:   slices.Clone(events),
		Clusters: make([]ClusterRating, 0, len(clusterIDs)),
	}
	slices.SortFunc(snap.Events, func(a, b EventRating) int { return cmp.Compare(a.EventID, b.EventID) })
	for _, id := range clusterIDs {
		snap.Clusters = append(snap.Clusters, c.ClusterRating(id, byCluster[id]))
	}
	snap.Overall = c.OverallRating(snap.Clusters)
	return snap
}

package hierarchy

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tournament-arc/internal/rating"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestClusterRating(t *testing.T) {
	calc := NewCalculator(rating.DefaultParams())

	tests := []struct {
		name   string
		events []EventRating
		want   float64
	}{
		{
			name:   "single event equals its rating",
			events: []EventRating{{EventID: 1, Elo: 1234}},
			want:   1234,
		},
		{
			name:   "two events use the top two multipliers",
			events: []EventRating{{EventID: 1, Elo: 1000}, {EventID: 2, Elo: 1200}},
			want:   7300.0 / 6.5,
		},
		{
			name: "ranks past the table use the default multiplier",
			events: []EventRating{
				{EventID: 1, Elo: 1400}, {EventID: 2, Elo: 1300}, {EventID: 3, Elo: 1200},
				{EventID: 4, Elo: 1100}, {EventID: 5, Elo: 1000},
			},
			want: (1400*4.0 + 1300*2.5 + 1200*1.5 + 1100 + 1000) / 10.0,
		},
		{
			name:   "raw values below the floor are kept",
			events: []EventRating{{EventID: 1, Elo: 900}},
			want:   900,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.ClusterRating(3, tt.events)
			if !approx(got.Elo.Raw(), tt.want) {
				t.Errorf("cluster elo = %v, want %v", got.Elo.Raw(), tt.want)
			}
		})
	}
}

func TestClusterRatingPrestigeScenario(t *testing.T) {
	got := NewCalculator(rating.DefaultParams()).ClusterRating(1, []EventRating{
		{EventID: 10, Elo: 1200},
		{EventID: 11, Elo: 1000},
	})
	if r := math.Round(got.Elo.Raw()); r != 1123 {
		t.Errorf("cluster elo = %v, want about 1123", got.Elo.Raw())
	}
}

func TestClusterRatingTieBreak(t *testing.T) {
	got := NewCalculator(rating.DefaultParams()).ClusterRating(1, []EventRating{
		{EventID: 9, Elo: 1100},
		{EventID: 4, Elo: 1100},
		{EventID: 7, Elo: 1300},
	})
	want := []WeightedEvent{
		{EventID: 7, Elo: 1300, Multiplier: 4.0},
		{EventID: 4, Elo: 1100, Multiplier: 2.5},
		{EventID: 9, Elo: 1100, Multiplier: 1.5},
	}
	if diff := cmp.Diff(want, got.Events); diff != "" {
		t.Errorf("ranked events mismatch (-want +got):\n%s", diff)
	}
}

func clusters(values ...float64) []ClusterRating {
	out := make([]ClusterRating, len(values))
	for i, v := range values {
		out[i] = ClusterRating{ClusterID: int64(i + 1), Elo: rating.Aggregate(v)}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestOverallRating(t *testing.T) {
	calc := NewCalculator(rating.DefaultParams())

	tests := []struct {
		name        string
		clusters    []ClusterRating
		wantRaw     float64
		wantScoring float64
		wantEmpty   []bool
	}{
		{
			name:        "no clusters",
			clusters:    nil,
			wantRaw:     0,
			wantScoring: 1000,
			wantEmpty:   []bool{true, true, true},
		},
		{
			name:        "one cluster fills only tier one",
			clusters:    clusters(1500),
			wantRaw:     900,
			wantScoring: 1000,
			wantEmpty:   []bool{false, true, true},
		},
		{
			name:        "fifteen clusters leave tier three empty",
			clusters:    clusters(repeat(1000, 15)...),
			wantRaw:     850,
			wantScoring: 1000,
			wantEmpty:   []bool{false, false, true},
		},
		{
			name:        "twenty clusters fill every tier",
			clusters:    clusters(repeat(1200, 20)...),
			wantRaw:     1200,
			wantScoring: 1200,
			wantEmpty:   []bool{false, false, false},
		},
		{
			name:        "extra clusters past the last tier are ignored",
			clusters:    clusters(append(repeat(1200, 20), 100, 100)...),
			wantRaw:     1200,
			wantScoring: 1200,
			wantEmpty:   []bool{false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.OverallRating(tt.clusters)
			if !approx(got.Elo.Raw(), tt.wantRaw) {
				t.Errorf("raw = %v, want %v", got.Elo.Raw(), tt.wantRaw)
			}
			if !approx(got.Elo.Scoring(), tt.wantScoring) {
				t.Errorf("scoring = %v, want %v", got.Elo.Scoring(), tt.wantScoring)
			}
			var empty []bool
			for _, tier := range got.Tiers {
				empty = append(empty, tier.Empty())
			}
			if diff := cmp.Diff(tt.wantEmpty, empty); diff != "" {
				t.Errorf("empty tiers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOverallRatingTierAverages(t *testing.T) {
	values := append(repeat(1400, 10), repeat(1200, 5)...)
	values = append(values, 1100, 1000)
	got := NewCalculator(rating.DefaultParams()).OverallRating(clusters(values...))

	want := 1400*0.60 + 1200*0.25 + 1050*0.15
	if !approx(got.Elo.Raw(), want) {
		t.Errorf("overall = %v, want %v", got.Elo.Raw(), want)
	}
	if got.Tiers[2].Average != 1050 || len(got.Tiers[2].Clusters) != 2 {
		t.Errorf("tier three = %+v", got.Tiers[2])
	}
}

func TestBuild(t *testing.T) {
	calc := NewCalculator(rating.DefaultParams())
	snap := calc.Build([]EventRating{
		{EventID: 3, ClusterID: 2, Elo: 1100},
		{EventID: 1, ClusterID: 1, Elo: 1200},
		{EventID: 2, ClusterID: 1, Elo: 1000},
	})

	if len(snap.Clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(snap.Clusters))
	}
	if snap.Clusters[0].ClusterID != 1 || !approx(snap.Clusters[0].Elo.Raw(), 7300.0/6.5) {
		t.Errorf("cluster 1 = %+v", snap.Clusters[0])
	}
	if snap.Clusters[1].ClusterID != 2 || snap.Clusters[1].Elo.Raw() != 1100 {
		t.Errorf("cluster 2 = %+v", snap.Clusters[1])
	}
	want := (7300.0/6.5 + 1100) / 2 * 0.60
	if !approx(snap.Overall.Elo.Raw(), want) {
		t.Errorf("overall = %v, want %v", snap.Overall.Elo.Raw(), want)
	}
	if snap.Events[0].EventID != 1 {
		t.Errorf("events not ordered by id: %+v", snap.Events)
	}
}

func TestCalculatorDoesNotShareParams(t *testing.T) {
	p := rating.DefaultParams()
	calc := NewCalculator(p)
	p.Prestige.Multipliers[0] = 100

	got := calc.ClusterRating(1, []EventRating{{EventID: 1, Elo: 1200}, {EventID: 2, Elo: 1000}})
	if !approx(got.Elo.Raw(), 7300.0/6.5) {
		t.Errorf("calculator saw a mutated multiplier: %v", got.Elo.Raw())
	}
}

func TestRank(t *testing.T) {
	in := []Standing{
		{PlayerID: 5, Value: 1100},
		{PlayerID: 2, Value: 1200},
		{PlayerID: 9, Value: 1100},
		{PlayerID: 1, Value: 1100},
	}
	want := []Standing{
		{PlayerID: 2, Value: 1200, Position: 1},
		{PlayerID: 1, Value: 1100, Position: 2},
		{PlayerID: 5, Value: 1100, Position: 3},
		{PlayerID: 9, Value: 1100, Position: 4},
	}
	if diff := cmp.Diff(want, Rank(in)); diff != "" {
		t.Errorf("Rank mismatch (-want +got):\n%s", diff)
	}
	if in[0].Position != 0 {
		t.Error("Rank modified its input")
	}
}

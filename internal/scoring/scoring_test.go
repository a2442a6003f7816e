package scoring

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/rating"
)

func newRegistry() *Registry {
	return NewRegistry(rating.DefaultParams())
}

func calculate(t *testing.T, f domain.Format, in []Participant) Outcome {
	t.Helper()
	s, err := newRegistry().For(f)
	if err != nil {
		t.Fatalf("For(%q): %v", f, err)
	}
	out, err := s.Calculate(7, in)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	return out
}

func TestOneVOne(t *testing.T) {
	tests := []struct {
		name string
		in   []Participant
		want []Change
	}{
		{
			name: "fresh players, winner first",
			in: []Participant{
				{PlayerID: 1, Placement: 1, Elo: 1000},
				{PlayerID: 2, Placement: 2, Elo: 1000},
			},
			want: []Change{
				{PlayerID: 1, Delta: 20, KFactor: 40, Result: domain.ResultWin},
				{PlayerID: 2, Delta: -20, KFactor: 40, Result: domain.ResultLoss},
			},
		},
		{
			name: "winner listed second",
			in: []Participant{
				{PlayerID: 1, Placement: 2, Elo: 1000, MatchesPlayed: 10},
				{PlayerID: 2, Placement: 1, Elo: 1000, MatchesPlayed: 10},
			},
			want: []Change{
				{PlayerID: 1, Delta: -10, KFactor: 20, Result: domain.ResultLoss},
				{PlayerID: 2, Delta: 10, KFactor: 20, Result: domain.ResultWin},
			},
		},
		{
			name: "declared draw between equals",
			in: []Participant{
				{PlayerID: 1, Placement: 1, Elo: 1000},
				{PlayerID: 2, Placement: 1, Elo: 1000},
			},
			want: []Change{
				{PlayerID: 1, Delta: 0, KFactor: 40, Result: domain.ResultDraw},
				{PlayerID: 2, Delta: 0, KFactor: 40, Result: domain.ResultDraw},
			},
		},
		{
			name: "underdog upset with standard k",
			in: []Participant{
				{PlayerID: 1, Placement: 1, Elo: 1000, MatchesPlayed: 9},
				{PlayerID: 2, Placement: 2, Elo: 1100, MatchesPlayed: 9},
			},
			want: []Change{
				{PlayerID: 1, Delta: 13, KFactor: 20, Result: domain.ResultWin},
				{PlayerID: 2, Delta: -13, KFactor: 20, Result: domain.ResultLoss},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := calculate(t, domain.FormatOneVOne, tt.in)
			if diff := cmp.Diff(tt.want, out.Changes); diff != "" {
				t.Errorf("changes mismatch (-want +got):\n%s", diff)
			}
			if out.NetDelta() != 0 {
				t.Errorf("net delta = %d, want 0", out.NetDelta())
			}
		})
	}
}

func TestOneVOneMixedKFactors(t *testing.T) {
	out := calculate(t, domain.FormatOneVOne, []Participant{
		{PlayerID: 1, Placement: 1, Elo: 1000, MatchesPlayed: 0},
		{PlayerID: 2, Placement: 2, Elo: 1000, MatchesPlayed: 30},
	})
	a, _ := out.For(1)
	b, _ := out.For(2)
	if a.Delta != 20 || b.Delta != -10 {
		t.Errorf("deltas = %d/%d, want 20/-10", a.Delta, b.Delta)
	}
}

func TestFreeForAll(t *testing.T) {
	t.Run("three fresh players", func(t *testing.T) {
		out := calculate(t, domain.FormatFreeForAll, []Participant{
			{PlayerID: 1, Placement: 1, Elo: 1000},
			{PlayerID: 2, Placement: 2, Elo: 1000},
			{PlayerID: 3, Placement: 3, Elo: 1000},
		})
		want := []Change{
			{PlayerID: 1, Delta: 20, KFactor: 40, Result: domain.ResultWin},
			{PlayerID: 2, Delta: 0, KFactor: 40, Result: domain.ResultLoss},
			{PlayerID: 3, Delta: -20, KFactor: 40, Result: domain.ResultLoss},
		}
		if diff := cmp.Diff(want, out.Changes); diff != "" {
			t.Errorf("changes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("tied winners", func(t *testing.T) {
		out := calculate(t, domain.FormatFreeForAll, []Participant{
			{PlayerID: 1, Placement: 1, Elo: 1000},
			{PlayerID: 2, Placement: 1, Elo: 1000},
			{PlayerID: 3, Placement: 3, Elo: 1000},
		})
		want := []Change{
			{PlayerID: 1, Delta: 10, KFactor: 40, Result: domain.ResultDraw},
			{PlayerID: 2, Delta: 10, KFactor: 40, Result: domain.ResultDraw},
			{PlayerID: 3, Delta: -20, KFactor: 40, Result: domain.ResultLoss},
		}
		if diff := cmp.Diff(want, out.Changes); diff != "" {
			t.Errorf("changes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unordered input, mixed ratings stays near zero-sum", func(t *testing.T) {
		out := calculate(t, domain.FormatFreeForAll, []Participant{
			{PlayerID: 4, Placement: 3, Elo: 1210, MatchesPlayed: 12},
			{PlayerID: 1, Placement: 5, Elo: 870, MatchesPlayed: 5},
			{PlayerID: 9, Placement: 1, Elo: 1004, MatchesPlayed: 7},
			{PlayerID: 3, Placement: 2, Elo: 1333, MatchesPlayed: 40},
			{PlayerID: 6, Placement: 4, Elo: 990, MatchesPlayed: 6},
		})
		if net := out.NetDelta(); net < -5 || net > 5 {
			t.Errorf("net delta = %d, want approximately 0", net)
		}
		for _, c := range out.Changes {
			if c.Delta > c.KFactor || c.Delta < -c.KFactor {
				t.Errorf("player %d moved %d, more than one K (%d)", c.PlayerID, c.Delta, c.KFactor)
			}
		}
	})
}

func TestTeam(t *testing.T) {
	out := calculate(t, domain.FormatTeam, []Participant{
		{PlayerID: 1, Team: 1, Placement: 1, Elo: 950},
		{PlayerID: 2, Team: 1, Placement: 1, Elo: 1050, MatchesPlayed: 1},
		{PlayerID: 3, Team: 2, Placement: 2, Elo: 1100, MatchesPlayed: 30},
		{PlayerID: 4, Team: 2, Placement: 2, Elo: 1100},
	})
	want := []Change{
		{PlayerID: 1, Delta: 13, KFactor: 20, Result: domain.ResultWin},
		{PlayerID: 2, Delta: 13, KFactor: 20, Result: domain.ResultWin},
		{PlayerID: 3, Delta: -13, KFactor: 20, Result: domain.ResultLoss},
		{PlayerID: 4, Delta: -13, KFactor: 20, Result: domain.ResultLoss},
	}
	if diff := cmp.Diff(want, out.Changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestTeamLowerIdLoses(t *testing.T) {
	out := calculate(t, domain.FormatTeam, []Participant{
		{PlayerID: 1, Team: 1, Placement: 2, Elo: 1000},
		{PlayerID: 2, Team: 2, Placement: 1, Elo: 1000},
		{PlayerID: 3, Team: 2, Placement: 1, Elo: 1000},
	})
	for id, want := range map[int64]int{1: -10, 2: 10, 3: 10} {
		c, ok := out.For(id)
		if !ok || c.Delta != want {
			t.Errorf("player %d delta = %d, want %d", id, c.Delta, want)
		}
	}
}

func TestInvalidPlacementSets(t *testing.T) {
	tests := []struct {
		name   string
		format domain.Format
		in     []Participant
	}{
		{"1v1 with three players", domain.FormatOneVOne, []Participant{
			{PlayerID: 1, Placement: 1}, {PlayerID: 2, Placement: 2}, {PlayerID: 3, Placement: 3},
		}},
		{"1v1 both second", domain.FormatOneVOne, []Participant{
			{PlayerID: 1, Placement: 2}, {PlayerID: 2, Placement: 2},
		}},
		{"1v1 same player twice", domain.FormatOneVOne, []Participant{
			{PlayerID: 1, Placement: 1}, {PlayerID: 1, Placement: 2},
		}},
		{"ffa with two players", domain.FormatFreeForAll, []Participant{
			{PlayerID: 1, Placement: 1}, {PlayerID: 2, Placement: 2},
		}},
		{"ffa with a gap", domain.FormatFreeForAll, []Participant{
			{PlayerID: 1, Placement: 1}, {PlayerID: 2, Placement: 2}, {PlayerID: 3, Placement: 4},
		}},
		{"ffa not starting at one", domain.FormatFreeForAll, []Participant{
			{PlayerID: 1, Placement: 2}, {PlayerID: 2, Placement: 3}, {PlayerID: 3, Placement: 4},
		}},
		{"ffa dense ranking tie", domain.FormatFreeForAll, []Participant{
			{PlayerID: 1, Placement: 1}, {PlayerID: 2, Placement: 1}, {PlayerID: 3, Placement: 2},
		}},
		{"team with one side", domain.FormatTeam, []Participant{
			{PlayerID: 1, Team: 1, Placement: 1}, {PlayerID: 2, Team: 1, Placement: 1},
		}},
		{"team with three sides", domain.FormatTeam, []Participant{
			{PlayerID: 1, Team: 1, Placement: 1}, {PlayerID: 2, Team: 2, Placement: 2}, {PlayerID: 3, Team: 3, Placement: 2},
		}},
		{"team members disagree", domain.FormatTeam, []Participant{
			{PlayerID: 1, Team: 1, Placement: 1}, {PlayerID: 2, Team: 1, Placement: 2}, {PlayerID: 3, Team: 2, Placement: 2},
		}},
		{"team member without team", domain.FormatTeam, []Participant{
			{PlayerID: 1, Team: 0, Placement: 1}, {PlayerID: 2, Team: 2, Placement: 2},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newRegistry().For(tt.format)
			if err != nil {
				t.Fatal(err)
			}
			_, err = s.Calculate(1, tt.in)
			if !errors.Is(err, domain.ErrInvalidPlacementSet) {
				t.Errorf("err = %v, want ErrInvalidPlacementSet", err)
			}
		})
	}
}

func TestFreeForAllDenseTieMessage(t *testing.T) {
	s, err := newRegistry().For(domain.FormatFreeForAll)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Calculate(1, []Participant{
		{PlayerID: 1, Placement: 1}, {PlayerID: 2, Placement: 1}, {PlayerID: 3, Placement: 2},
	})
	if !errors.Is(err, domain.ErrInvalidPlacementSet) {
		t.Fatalf("err = %v, want ErrInvalidPlacementSet", err)
	}
	for _, want := range []string{"[1 1 2]", "competition ranking", "1,1,3"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("err %q does not mention %q", err, want)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := newRegistry()
	for _, f := range []domain.Format{domain.FormatOneVOne, domain.FormatFreeForAll, domain.FormatTeam, domain.FormatLeaderboard} {
		s, err := r.For(f)
		if err != nil {
			t.Fatalf("For(%q): %v", f, err)
		}
		if s.Format() != f {
			t.Errorf("For(%q).Format() = %q", f, s.Format())
		}
	}
	if _, err := r.For("2v2v2"); !errors.Is(err, domain.ErrUnknownScoringFormat) {
		t.Errorf("err = %v, want ErrUnknownScoringFormat", err)
	}
}

func TestRegistryCustomKFactor(t *testing.T) {
	p := rating.DefaultParams()
	p.KFactor.Provisional = 64
	out, err := NewRegistry(p).strategies[domain.FormatOneVOne].Calculate(1, []Participant{
		{PlayerID: 1, Placement: 1, Elo: 1000},
		{PlayerID: 2, Placement: 2, Elo: 1000},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := out.For(1); c.Delta != 32 {
		t.Errorf("delta = %d, want 32", c.Delta)
	}
}

func TestLeaderboardStrategy(t *testing.T) {
	lb := newRegistry().Leaderboard()
	if _, err := lb.Calculate(1, nil); !errors.Is(err, domain.ErrSubmissionOnly) {
		t.Errorf("err = %v, want ErrSubmissionOnly", err)
	}

	prev := 120.0
	tests := []struct {
		name  string
		prev  *float64
		score float64
		dir   domain.ScoreDirection
		want  bool
	}{
		{"first submission", nil, 1, domain.HigherIsBetter, true},
		{"higher improves", &prev, 121, domain.HigherIsBetter, true},
		{"higher equal", &prev, 120, domain.HigherIsBetter, false},
		{"higher worse", &prev, 100, domain.HigherIsBetter, false},
		{"lower improves", &prev, 119.5, domain.LowerIsBetter, true},
		{"lower worse", &prev, 130, domain.LowerIsBetter, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lb.IsPersonalBest(tt.prev, tt.score, tt.dir); got != tt.want {
				t.Errorf("IsPersonalBest = %v, want %v", got, tt.want)
			}
		})
	}
}

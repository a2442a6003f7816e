package server

import (
	"time"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/hierarchy"
	"tournament-arc/internal/service"
)

type PlacementMsg struct {
	PlayerID  int64 `json:"player_id"`
	Placement int   `json:"placement"`
}

type EntrantMsg struct {
	PlayerID int64 `json:"player_id"`
	Team     int   `json:"team,omitempty"`
}

type ParticipantMsg struct {
	PlayerID  int64  `json:"player_id"`
	Team      int    `json:"team,omitempty"`
	Placement int    `json:"placement,omitempty"`
	Result    string `json:"result,omitempty"`
	EloBefore int    `json:"elo_before"`
	EloAfter  int    `json:"elo_after"`
	EloChange int    `json:"elo_change"`
}

type MatchMsg struct {
	ID           int64            `json:"id"`
	EventID      int64            `json:"event_id"`
	Format       string           `json:"format"`
	Status       string           `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
	Participants []ParticipantMsg `json:"participants,omitempty"`
}

type CreateMatchRequest struct {
	EventID  int64        `json:"event_id"`
	Format   string       `json:"format"`
	Entrants []EntrantMsg `json:"entrants"`
}

type CreateMatchResponse struct {
	Match MatchMsg `json:"match"`
}

type ReportMatchResultRequest struct {
	MatchID    int64          `json:"match_id"`
	Placements []PlacementMsg `json:"placements"`
}

type ReportMatchResultResponse struct {
	MatchID      int64            `json:"match_id"`
	EventID      int64            `json:"event_id"`
	Format       string           `json:"format"`
	CompletedAt  time.Time        `json:"completed_at"`
	Participants []ParticipantMsg `json:"participants"`
}

type RequestUndoRequest struct {
	MatchID int64  `json:"match_id"`
	ActorID int64  `json:"actor_id"`
	Reason  string `json:"reason"`
}

type RequestUndoResponse struct {
	MatchID         int64            `json:"match_id"`
	AuditID         string           `json:"audit_id"`
	Path            string           `json:"path"`
	AffectedPlayers int              `json:"affected_players"`
	ReplayedMatches int              `json:"replayed_matches"`
	Ratings         []EventRatingMsg `json:"ratings"`
}

type SubmitLeaderboardScoreRequest struct {
	PlayerID int64   `json:"player_id"`
	EventID  int64   `json:"event_id"`
	RawScore float64 `json:"raw_score"`
}

type SubmitLeaderboardScoreResponse struct {
	SubmissionID string   `json:"submission_id"`
	WeekNumber   int      `json:"week_number"`
	PersonalBest bool     `json:"personal_best"`
	Normalized   bool     `json:"normalized"`
	Population   int      `json:"population"`
	AllTimeElo   *float64 `json:"all_time_elo,omitempty"`
	RawElo       int      `json:"raw_elo"`
	ScoringElo   int      `json:"scoring_elo"`
}

type CloseLeaderboardWeekRequest struct {
	EventID    int64 `json:"event_id"`
	WeekNumber int   `json:"week_number,omitempty"`
}

type WeeklyResultMsg struct {
	PlayerID  int64   `json:"player_id"`
	Score     float64 `json:"score"`
	WeeklyElo float64 `json:"weekly_elo"`
}

type CloseLeaderboardWeekResponse struct {
	EventID    int64             `json:"event_id"`
	WeekNumber int               `json:"week_number"`
	Population int               `json:"population"`
	Mean       float64           `json:"mean"`
	StdDev     float64           `json:"stddev"`
	Results    []WeeklyResultMsg `json:"results"`
}

type GetPlayerRatingSnapshotRequest struct {
	PlayerID int64 `json:"player_id"`
}

type EventRatingMsg struct {
	EventID       int64 `json:"event_id"`
	ClusterID     int64 `json:"cluster_id,omitempty"`
	RawElo        int   `json:"raw_elo"`
	ScoringElo    int   `json:"scoring_elo"`
	MatchesPlayed int   `json:"matches_played"`
	Wins          int   `json:"wins"`
	Losses        int   `json:"losses"`
	Draws         int   `json:"draws"`
}

type WeightedEventMsg struct {
	EventID    int64   `json:"event_id"`
	RawElo     int     `json:"raw_elo"`
	Multiplier float64 `json:"multiplier"`
}

type ClusterRatingMsg struct {
	ClusterID  int64              `json:"cluster_id"`
	RawElo     float64            `json:"raw_elo"`
	ScoringElo float64            `json:"scoring_elo"`
	Events     []WeightedEventMsg `json:"events"`
}

type TierMsg struct {
	Weight   float64 `json:"weight"`
	Capacity int     `json:"capacity"`
	Clusters []int64 `json:"clusters"`
	Average  float64 `json:"average"`
	Empty    bool    `json:"empty"`
}

type OverallMsg struct {
	RawElo     float64   `json:"raw_elo"`
	ScoringElo float64   `json:"scoring_elo"`
	Tiers      []TierMsg `json:"tiers"`
}

type GetPlayerRatingSnapshotResponse struct {
	PlayerID    int64              `json:"player_id"`
	DisplayName string             `json:"display_name"`
	Active      bool               `json:"active"`
	Events      []EventRatingMsg   `json:"events"`
	Clusters    []ClusterRatingMsg `json:"clusters"`
	Overall     OverallMsg         `json:"overall"`
}

type GetEventStandingsRequest struct {
	EventID int64 `json:"event_id"`
	Limit   int   `json:"limit,omitempty"`
}

type StandingMsg struct {
	Position int     `json:"position"`
	PlayerID int64   `json:"player_id"`
	Elo      float64 `json:"elo"`
}

type GetEventStandingsResponse struct {
	EventID   int64         `json:"event_id"`
	Standings []StandingMsg `json:"standings"`
}

type GetRatingHistoryRequest struct {
	PlayerID int64 `json:"player_id"`
	EventID  int64 `json:"event_id"`
}

type RatingChangeMsg struct {
	ID         string    `json:"id"`
	MatchID    *int64    `json:"match_id,omitempty"`
	OldElo     int       `json:"old_elo"`
	NewElo     int       `json:"new_elo"`
	Delta      int       `json:"delta"`
	KFactor    int       `json:"k_factor"`
	Kind       string    `json:"kind"`
	Undo       bool      `json:"undo"`
	RecordedAt time.Time `json:"recorded_at"`
}

type GetRatingHistoryResponse struct {
	Changes []RatingChangeMsg `json:"changes"`
}

type CreateClusterRequest struct {
	Name string `json:"name"`
}

type ClusterMsg struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CreateEventRequest struct {
	ClusterID      int64    `json:"cluster_id"`
	Name           string   `json:"name"`
	Formats        []string `json:"formats"`
	ScoreDirection string   `json:"score_direction,omitempty"`
}

type EventMsg struct {
	ID             int64    `json:"id"`
	ClusterID      int64    `json:"cluster_id"`
	Name           string   `json:"name"`
	Formats        []string `json:"formats"`
	ScoreDirection string   `json:"score_direction,omitempty"`
}

type RegisterPlayerRequest struct {
	PlayerID    int64  `json:"player_id"`
	DisplayName string `json:"display_name"`
}

type DeactivatePlayerRequest struct {
	PlayerID int64 `json:"player_id"`
}

type PlayerMsg struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
}

func toParticipantMsgs(ps []domain.MatchParticipant) []ParticipantMsg {
	out := make([]ParticipantMsg, len(ps))
	for i, p := range ps {
		out[i] = ParticipantMsg{
			PlayerID:  p.PlayerID,
			Team:      p.Team,
			Placement: p.Placement,
			Result:    string(p.Result),
			EloBefore: p.EloBefore,
			EloAfter:  p.EloAfter,
			EloChange: p.EloChange,
		}
	}
	return out
}

func toMatchMsg(m domain.Match, ps []domain.MatchParticipant) MatchMsg {
	return MatchMsg{
		ID:           m.ID,
		EventID:      m.EventID,
		Format:       string(m.Format),
		Status:       string(m.Status),
		CreatedAt:    m.CreatedAt,
		CompletedAt:  m.CompletedAt,
		CancelledAt:  m.CancelledAt,
		Participants: toParticipantMsgs(ps),
	}
}

func toEventRatingMsg(r domain.PlayerEventRating, clusterID int64) EventRatingMsg {
	return EventRatingMsg{
		EventID:       r.EventID,
		ClusterID:     clusterID,
		RawElo:        r.Elo.Raw(),
		ScoringElo:    r.Elo.Scoring(),
		MatchesPlayed: r.MatchesPlayed,
		Wins:          r.Wins,
		Losses:        r.Losses,
		Draws:         r.Draws,
	}
}

func toSnapshotResponse(snap service.PlayerRatingSnapshot) *GetPlayerRatingSnapshotResponse {
	resp := &GetPlayerRatingSnapshotResponse{
		PlayerID:    snap.Player.ID,
		DisplayName: snap.Player.DisplayName,
		Active:      snap.Player.Active,
		Events:      make([]EventRatingMsg, len(snap.Ratings)),
		Clusters:    make([]ClusterRatingMsg, len(snap.Clusters)),
		Overall: OverallMsg{
			RawElo:     snap.Overall.Elo.Raw(),
			ScoringElo: snap.Overall.Elo.Scoring(),
			Tiers:      make([]TierMsg, len(snap.Overall.Tiers)),
		},
	}
	for i, r := range snap.Ratings {
		resp.Events[i] = toEventRatingMsg(r.PlayerEventRating, r.ClusterID)
	}
	for i, c := range snap.Clusters {
		resp.Clusters[i] = toClusterMsg(c)
	}
	for i, t := range snap.Overall.Tiers {
		resp.Overall.Tiers[i] = TierMsg{
			Weight:   t.Weight,
			Capacity: t.Capacity,
			Clusters: t.Clusters,
			Average:  t.Average,
			Empty:    t.Empty(),
		}
	}
	return resp
}

func toClusterMsg(c hierarchy.ClusterRating) ClusterRatingMsg {
	msg := ClusterRatingMsg{
		ClusterID:  c.ClusterID,
		RawElo:     c.Elo.Raw(),
		ScoringElo: c.Elo.Scoring(),
		Events:     make([]WeightedEventMsg, len(c.Events)),
	}
	for i, e := range c.Events {
		msg.Events[i] = WeightedEventMsg{EventID: e.EventID, RawElo: e.Elo.Raw(), Multiplier: e.Multiplier}
	}
	return msg
}

func toEventMsg(e domain.Event) *EventMsg {
	formats := make([]string, len(e.Formats))
	for i, f := range e.Formats {
		formats[i] = string(f)
	}
	return &EventMsg{
		ID:             e.ID,
		ClusterID:      e.ClusterID,
		Name:           e.Name,
		Formats:        formats,
		ScoreDirection: string(e.Direction),
	}
}

func toPlayerMsg(p domain.Player) *PlayerMsg {
	return &PlayerMsg{ID: p.ID, DisplayName: p.DisplayName, Active: p.Active}
}

func toRatingChangeMsgs(changes []domain.RatingChange) []RatingChangeMsg {
	out := make([]RatingChangeMsg, len(changes))
	for i, c := range changes {
		out[i] = RatingChangeMsg{
			ID:         c.ID,
			MatchID:    c.MatchID,
			OldElo:     c.OldElo,
			NewElo:     c.NewElo,
			Delta:      c.Delta,
			KFactor:    c.KFactor,
			Kind:       string(c.Kind),
			Undo:       c.IsUndo(),
			RecordedAt: c.RecordedAt,
		}
	}
	return out
}

type GetMatchRequest struct {
	MatchID int64 `json:"match_id"`
}

type GetMatchResponse struct {
	Match MatchMsg `json:"match"`
}

type ListClustersRequest struct{}

type ListClustersResponse struct {
	Clusters []ClusterMsg `json:"clusters"`
}

type ListEventsRequest struct {
	ClusterID int64 `json:"cluster_id,omitempty"`
}

type ListEventsResponse struct {
	Events []EventMsg `json:"events"`
}

type GetRecentMatchesRequest struct {
	PlayerID int64 `json:"player_id"`
	Limit    int   `json:"limit,omitempty"`
}

type GetRecentMatchesResponse struct {
	Matches []MatchMsg `json:"matches"`
}

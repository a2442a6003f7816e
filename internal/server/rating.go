package server

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"

	"tournament-arc/internal/domain"
	"tournament-arc/internal/service"
)

const RatingServicePath = "/arena.v1.RatingService/"

type RatingServer struct {
	matchSvc       *service.MatchService
	undoSvc        *service.UndoService
	leaderboardSvc *service.LeaderboardService
	snapshotSvc    *service.SnapshotService
	catalogSvc     *service.CatalogService
	playerSvc      *service.PlayerService
}

func NewRatingServer(
	matchSvc *service.MatchService,
	undoSvc *service.UndoService,
	leaderboardSvc *service.LeaderboardService,
	snapshotSvc *service.SnapshotService,
	catalogSvc *service.CatalogService,
	playerSvc *service.PlayerService,
) *RatingServer {
	return &RatingServer{
		matchSvc:       matchSvc,
		undoSvc:        undoSvc,
		leaderboardSvc: leaderboardSvc,
		snapshotSvc:    snapshotSvc,
		catalogSvc:     catalogSvc,
		playerSvc:      playerSvc,
	}
}

func unary[Req, Res any](
	name string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) (string, http.Handler) {
	procedure := RatingServicePath + name
	return procedure, connect.NewUnaryHandler(procedure, fn, opts...)
}

// Mount registers every procedure on r. Handlers speak the Connect protocol
// with JSON bodies.
func (s *RatingServer) Mount(r chi.Router, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(observe()),
	}, opts...)

	r.Handle(unary("CreateMatch", s.CreateMatch, opts))
	r.Handle(unary("GetMatch", s.GetMatch, opts))
	r.Handle(unary("ReportMatchResult", s.ReportMatchResult, opts))
	r.Handle(unary("RequestUndo", s.RequestUndo, opts))
	r.Handle(unary("SubmitLeaderboardScore", s.SubmitLeaderboardScore, opts))
	r.Handle(unary("CloseLeaderboardWeek", s.CloseLeaderboardWeek, opts))
	r.Handle(unary("GetPlayerRatingSnapshot", s.GetPlayerRatingSnapshot, opts))
	r.Handle(unary("GetEventStandings", s.GetEventStandings, opts))
	r.Handle(unary("GetRatingHistory", s.GetRatingHistory, opts))
	r.Handle(unary("GetRecentMatches", s.GetRecentMatches, opts))
	r.Handle(unary("CreateCluster", s.CreateCluster, opts))
	r.Handle(unary("CreateEvent", s.CreateEvent, opts))
	r.Handle(unary("ListClusters", s.ListClusters, opts))
	r.Handle(unary("ListEvents", s.ListEvents, opts))
	r.Handle(unary("RegisterPlayer", s.RegisterPlayer, opts))
	r.Handle(unary("DeactivatePlayer", s.DeactivatePlayer, opts))
}

func (s *RatingServer) CreateMatch(ctx context.Context, req *connect.Request[CreateMatchRequest]) (*connect.Response[CreateMatchResponse], error) {
	entrants := make([]service.Entrant, len(req.Msg.Entrants))
	for i, e := range req.Msg.Entrants {
		entrants[i] = service.Entrant{PlayerID: e.PlayerID, Team: e.Team}
	}

	m, participants, err := s.matchSvc.CreateMatch(ctx, req.Msg.EventID, domain.Format(req.Msg.Format), entrants)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&CreateMatchResponse{Match: toMatchMsg(m, participants)}), nil
}

func (s *RatingServer) GetMatch(ctx context.Context, req *connect.Request[GetMatchRequest]) (*connect.Response[GetMatchResponse], error) {
	m, participants, err := s.matchSvc.GetMatch(ctx, req.Msg.MatchID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetMatchResponse{Match: toMatchMsg(m, participants)}), nil
}

func (s *RatingServer) ReportMatchResult(ctx context.Context, req *connect.Request[ReportMatchResultRequest]) (*connect.Response[ReportMatchResultResponse], error) {
	placements := make([]service.Placement, len(req.Msg.Placements))
	for i, p := range req.Msg.Placements {
		placements[i] = service.Placement{PlayerID: p.PlayerID, Placement: p.Placement}
	}

	res, err := s.matchSvc.ReportMatchResult(ctx, req.Msg.MatchID, placements)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&ReportMatchResultResponse{
		MatchID:      res.MatchID,
		EventID:      res.EventID,
		Format:       string(res.Format),
		CompletedAt:  res.CompletedAt,
		Participants: toParticipantMsgs(res.Participants),
	}), nil
}

func (s *RatingServer) RequestUndo(ctx context.Context, req *connect.Request[RequestUndoRequest]) (*connect.Response[RequestUndoResponse], error) {
	res, err := s.undoSvc.UndoMatch(ctx, req.Msg.MatchID, req.Msg.ActorID, req.Msg.Reason)
	if err != nil {
		return nil, connectError(err)
	}

	ratings := make([]EventRatingMsg, len(res.Ratings))
	for i, r := range res.Ratings {
		ratings[i] = toEventRatingMsg(r, 0)
	}
	return connect.NewResponse(&RequestUndoResponse{
		MatchID:         res.MatchID,
		AuditID:         res.AuditID,
		Path:            string(res.Path),
		AffectedPlayers: res.AffectedPlayers,
		ReplayedMatches: res.ReplayedMatches,
		Ratings:         ratings,
	}), nil
}

func (s *RatingServer) SubmitLeaderboardScore(ctx context.Context, req *connect.Request[SubmitLeaderboardScoreRequest]) (*connect.Response[SubmitLeaderboardScoreResponse], error) {
	res, err := s.leaderboardSvc.SubmitScore(ctx, req.Msg.PlayerID, req.Msg.EventID, req.Msg.RawScore)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&SubmitLeaderboardScoreResponse{
		SubmissionID: res.Submission.ID,
		WeekNumber:   res.Submission.WeekNumber,
		PersonalBest: res.PersonalBest,
		Normalized:   res.Normalized,
		Population:   res.Population,
		AllTimeElo:   res.AllTimeElo,
		RawElo:       res.EventElo.Raw(),
		ScoringElo:   res.EventElo.Scoring(),
	}), nil
}

func (s *RatingServer) CloseLeaderboardWeek(ctx context.Context, req *connect.Request[CloseLeaderboardWeekRequest]) (*connect.Response[CloseLeaderboardWeekResponse], error) {
	res, err := s.leaderboardSvc.CloseWeek(ctx, req.Msg.EventID, req.Msg.WeekNumber)
	if err != nil {
		return nil, connectError(err)
	}

	results := make([]WeeklyResultMsg, len(res.Results))
	for i, r := range res.Results {
		results[i] = WeeklyResultMsg{PlayerID: r.PlayerID, Score: r.Score, WeeklyElo: r.WeeklyElo}
	}
	return connect.NewResponse(&CloseLeaderboardWeekResponse{
		EventID:    res.EventID,
		WeekNumber: res.WeekNumber,
		Population: res.Stats.Population,
		Mean:       res.Stats.Mean,
		StdDev:     res.Stats.StdDev,
		Results:    results,
	}), nil
}

func (s *RatingServer) GetPlayerRatingSnapshot(ctx context.Context, req *connect.Request[GetPlayerRatingSnapshotRequest]) (*connect.Response[GetPlayerRatingSnapshotResponse], error) {
	snap, err := s.snapshotSvc.GetPlayerRatingSnapshot(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toSnapshotResponse(snap)), nil
}

func (s *RatingServer) GetEventStandings(ctx context.Context, req *connect.Request[GetEventStandingsRequest]) (*connect.Response[GetEventStandingsResponse], error) {
	standings, err := s.snapshotSvc.GetEventStandings(ctx, req.Msg.EventID, req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &GetEventStandingsResponse{EventID: req.Msg.EventID, Standings: make([]StandingMsg, len(standings))}
	for i, st := range standings {
		resp.Standings[i] = StandingMsg{Position: st.Position, PlayerID: st.PlayerID, Elo: st.Value}
	}
	return connect.NewResponse(resp), nil
}

func (s *RatingServer) GetRatingHistory(ctx context.Context, req *connect.Request[GetRatingHistoryRequest]) (*connect.Response[GetRatingHistoryResponse], error) {
	changes, err := s.playerSvc.RatingHistory(ctx, req.Msg.PlayerID, req.Msg.EventID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetRatingHistoryResponse{Changes: toRatingChangeMsgs(changes)}), nil
}

func (s *RatingServer) GetRecentMatches(ctx context.Context, req *connect.Request[GetRecentMatchesRequest]) (*connect.Response[GetRecentMatchesResponse], error) {
	matches, err := s.playerSvc.RecentMatches(ctx, req.Msg.PlayerID, req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &GetRecentMatchesResponse{Matches: make([]MatchMsg, len(matches))}
	for i, m := range matches {
		resp.Matches[i] = toMatchMsg(m, nil)
	}
	return connect.NewResponse(resp), nil
}

func (s *RatingServer) CreateCluster(ctx context.Context, req *connect.Request[CreateClusterRequest]) (*connect.Response[ClusterMsg], error) {
	c, err := s.catalogSvc.CreateCluster(ctx, req.Msg.Name)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ClusterMsg{ID: c.ID, Name: c.Name}), nil
}

func (s *RatingServer) CreateEvent(ctx context.Context, req *connect.Request[CreateEventRequest]) (*connect.Response[EventMsg], error) {
	formats := make([]domain.Format, len(req.Msg.Formats))
	for i, f := range req.Msg.Formats {
		formats[i] = domain.Format(f)
	}

	e, err := s.catalogSvc.CreateEvent(ctx, domain.Event{
		ClusterID: req.Msg.ClusterID,
		Name:      req.Msg.Name,
		Formats:   formats,
		Direction: domain.ScoreDirection(req.Msg.ScoreDirection),
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toEventMsg(e)), nil
}

func (s *RatingServer) ListClusters(ctx context.Context, _ *connect.Request[ListClustersRequest]) (*connect.Response[ListClustersResponse], error) {
	clusters, err := s.catalogSvc.ListClusters(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &ListClustersResponse{Clusters: make([]ClusterMsg, len(clusters))}
	for i, c := range clusters {
		resp.Clusters[i] = ClusterMsg{ID: c.ID, Name: c.Name}
	}
	return connect.NewResponse(resp), nil
}

// ListEvents returns every event, or only one cluster's when ClusterID is set.
func (s *RatingServer) ListEvents(ctx context.Context, req *connect.Request[ListEventsRequest]) (*connect.Response[ListEventsResponse], error) {
	events, err := s.catalogSvc.ListEvents(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &ListEventsResponse{Events: make([]EventMsg, 0, len(events))}
	for _, e := range events {
		if req.Msg.ClusterID != 0 && e.ClusterID != req.Msg.ClusterID {
			continue
		}
		resp.Events = append(resp.Events, *toEventMsg(e))
	}
	return connect.NewResponse(resp), nil
}

func (s *RatingServer) RegisterPlayer(ctx context.Context, req *connect.Request[RegisterPlayerRequest]) (*connect.Response[PlayerMsg], error) {
	p, err := s.playerSvc.Register(ctx, req.Msg.PlayerID, req.Msg.DisplayName)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toPlayerMsg(p)), nil
}

func (s *RatingServer) DeactivatePlayer(ctx context.Context, req *connect.Request[DeactivatePlayerRequest]) (*connect.Response[PlayerMsg], error) {
	p, err := s.playerSvc.Deactivate(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(toPlayerMsg(p)), nil
}

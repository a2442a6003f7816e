package fx

import (
	"database/sql"

	"go.uber.org/fx"

	"tournament-arc/internal/api"
	"tournament-arc/internal/config"
	"tournament-arc/internal/database"
	"tournament-arc/internal/db"
	"tournament-arc/internal/logger"
	"tournament-arc/internal/repository"
	"tournament-arc/internal/scoring"
	"tournament-arc/internal/server"
	"tournament-arc/internal/service"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewTxRunner),
	fx.Provide(repository.NewCatalogRepository),
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewRatingRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewRatingChangeRepository),
	fx.Provide(repository.NewLeaderboardRepository),
	fx.Provide(repository.NewUndoAuditRepository),
	// scoring
	fx.Provide(scoring.NewRegistry),
	// api client
	fx.Provide(api.NewWebhookClient),
	// svc
	fx.Provide(service.NewCatalogService),
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewUndoService),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(service.NewSnapshotService),
	// server
	fx.Provide(server.NewRatingServer),
	fx.Provide(server.NewRouter),
)

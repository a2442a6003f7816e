package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"tournament-arc/internal/metrics"
	"tournament-arc/internal/middleware"
)

const healthTimeout = 2 * time.Second

// NewRouter wires the RPC procedures plus health and metrics endpoints behind
// the request id and CORS middleware.
func NewRouter(rs *RatingServer, sqlDB *sql.DB, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", health(sqlDB))
	r.Handle("/metrics", promhttp.Handler())
	rs.Mount(r)
	return r
}

func health(sqlDB *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		if err := sqlDB.PingContext(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("health check failed")
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

// observe records per-procedure metrics and logs failed calls with the
// request scoped logger.
func observe() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			procedure := req.Spec().Procedure
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			metrics.RPCRequests.WithLabelValues(procedure, code).Inc()
			metrics.RPCDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())

			if err != nil {
				ev := zerolog.Ctx(ctx).Warn()
				if connect.CodeOf(err) == connect.CodeInternal {
					ev = zerolog.Ctx(ctx).Error()
				}
				ev.Err(err).Str("procedure", procedure).Str("code", code).Msg("rpc failed")
			}
			return res, err
		}
	}
}

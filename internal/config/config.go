package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tournament-arc/internal/rating"
)

type Config struct {
	DBPath       string
	ServerPort   string
	LogLevel     string
	RatingConfig string
	WebhookURL   string
	Rating       rating.Params
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "arena.db"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		RatingConfig: getEnv("RATING_CONFIG", "rating.toml"),
		WebhookURL:   getEnv("WEBHOOK_URL", ""),
	}

	params, err := LoadRatingParams(cfg.RatingConfig)
	if err != nil {
		return nil, err
	}
	cfg.Rating = params

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("rating_config", cfg.RatingConfig).
		Bool("webhook_enabled", cfg.WebhookURL != "").
		Int("k_provisional", cfg.Rating.KFactor.Provisional).
		Int("k_standard", cfg.Rating.KFactor.Standard).
		Msg("configuration loaded")

	return cfg, nil
}

// LoadRatingParams overlays the TOML file at path onto the default
// parameters. A missing file yields the defaults.
func LoadRatingParams(path string) (rating.Params, error) {
	params := rating.DefaultParams()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return params, nil
	}
	if err != nil {
		return rating.Params{}, fmt.Errorf("failed to read rating config %s: %w", path, err)
	}

	// Decoding into a populated slice reuses its elements, so a tier table
	// missing a key would inherit the default tier at the same index.
	md, err := toml.Decode(string(data), &struct{}{})
	if err != nil {
		return rating.Params{}, fmt.Errorf("failed to parse rating config %s: %w", path, err)
	}
	if md.IsDefined("tiers") {
		params.Tiers = nil
	}
	if md.IsDefined("prestige", "multipliers") {
		params.Prestige.Multipliers = nil
	}

	if err := toml.Unmarshal(data, &params); err != nil {
		return rating.Params{}, fmt.Errorf("failed to parse rating config %s: %w", path, err)
	}
	if err := params.Validate(); err != nil {
		return rating.Params{}, fmt.Errorf("invalid rating config %s: %w", path, err)
	}
	return params, nil
}

func ProvideRatingParams(cfg *Config) rating.Params {
	return cfg.Rating.Clone()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load, ProvideRatingParams)

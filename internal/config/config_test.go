package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"tournament-arc/internal/rating"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rating.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRatingParamsMissingFile(t *testing.T) {
	got, err := LoadRatingParams(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rating.DefaultParams(), got); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRatingParamsOverlay(t *testing.T) {
	path := writeFile(t, `
[k_factor]
provisional = 32

[prestige]
multipliers = [3.0, 2.0]

[[tiers]]
size = 4
weight = 0.7

[[tiers]]
size = 4
weight = 0.3

[zscore]
max_z = 3.5
`)
	got, err := LoadRatingParams(path)
	if err != nil {
		t.Fatal(err)
	}

	want := rating.DefaultParams()
	want.KFactor.Provisional = 32
	want.Prestige.Multipliers = []float64{3.0, 2.0}
	want.Tiers = []rating.Tier{{Size: 4, Weight: 0.7}, {Size: 4, Weight: 0.3}}
	want.ZScore.MaxZ = 3.5
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRatingParamsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad syntax", "[k_factor\n", "failed to parse"},
		{"weights off", "[[tiers]]\nsize = 10\nweight = 0.5\n", "tier weights must sum to 1"},
		{"zero k", "[k_factor]\nstandard = 0\n", "k_factor values must be positive"},
		{"tier missing weight", "[[tiers]]\nsize = 8\nweight = 0.75\n\n[[tiers]]\nsize = 6\n", "tier weights must sum to 1, got 0.75"},
		{"tier missing size", "[[tiers]]\nweight = 1.0\n", "tiers[0].size must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRatingParams(writeFile(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_PATH", "/tmp/arena-test.db")
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("WEBHOOK_URL", "http://localhost:1/hook")
	t.Setenv("RATING_CONFIG", writeFile(t, "[k_factor]\nstandard = 16\n"))

	cfg, err := Load(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "/tmp/arena-test.db" || cfg.ServerPort != "9191" || cfg.WebhookURL == "" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Rating.KFactor.Standard != 16 {
		t.Errorf("standard k = %d, want 16", cfg.Rating.KFactor.Standard)
	}

	p := ProvideRatingParams(cfg)
	p.Tiers[0].Size = 99
	if cfg.Rating.Tiers[0].Size == 99 {
		t.Error("provided params share the config's tier slice")
	}
}

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/cori_test")
	t.Setenv("JWT_SECRET", "unit-test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, ":8080", cfg.Addr())
	require.Equal(t, 60, cfg.DispatchIntervalSecs)
	require.Equal(t, 50, cfg.DispatchBatchSize)
	require.Equal(t, 30, cfg.PublicRateLimitPerMin)
	require.False(t, cfg.IsProduction())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "placeholder") // register restore, then unset
	os.Unsetenv("DATABASE_URL")
	t.Setenv("JWT_SECRET", "unit-test-secret")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejectsShortProductionSecret(t *testing.T) {
	cfg := &Config{
		JWTSecret:            "short",
		AppEnv:               "production",
		DispatchIntervalSecs: 60,
		DispatchBatchSize:    50,
	}
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = "a-sufficiently-long-production-secret-value"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveDispatchSettings(t *testing.T) {
	cfg := &Config{
		JWTSecret:            "unit-test-secret",
		DispatchIntervalSecs: 0,
		DispatchBatchSize:    50,
	}
	require.Error(t, cfg.Validate())

	cfg.DispatchIntervalSecs = 60
	cfg.DispatchBatchSize = 0
	require.Error(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pharmacy-analytics", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, "data/pharmacy.xlsx", cfg.Workbook.Path)
		assert.Equal(t, time.Hour, cfg.Workbook.CacheTTL)
		assert.True(t, cfg.Workbook.StrictDates)
		assert.True(t, cfg.Workbook.RefreshEnabled)
		assert.Equal(t, "@every 1h", cfg.Workbook.RefreshSchedule)
		assert.Equal(t, 30, cfg.Forecast.DefaultHorizon)
		assert.InDelta(t, 0.95, cfg.Forecast.DefaultConfidence, 1e-9)
		assert.InDelta(t, 0.05, cfg.Forecast.ChangepointPriorScale, 1e-9)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.False(t, cfg.Archive.Enabled)
		assert.Equal(t, "us-east-1", cfg.Archive.Region)
		assert.Equal(t, "s3", cfg.Archive.Driver)
		assert.Equal(t, 30, cfg.HTTP.ExportRateLimit)
	})

	t.Run("loads values from environment variables with PHARMA prefix", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PHARMA_APP_PORT", "9000")
		t.Setenv("PHARMA_APP_ENV", "testing")
		t.Setenv("PHARMA_WORKBOOK_PATH", "/srv/data/ledger.xlsx")
		t.Setenv("PHARMA_WORKBOOK_STRICT_DATES", "false")
		t.Setenv("PHARMA_WORKBOOK_CACHE_TTL", "10m")
		t.Setenv("PHARMA_FORECAST_DEFAULT_HORIZON", "14")
		t.Setenv("PHARMA_REDIS_ENABLED", "true")
		t.Setenv("PHARMA_REDIS_HOST", "cache.internal")
		t.Setenv("PHARMA_REDIS_PORT", "6380")
		t.Setenv("PHARMA_HTTP_EXPORT_RATE_LIMIT", "0")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "/srv/data/ledger.xlsx", cfg.Workbook.Path)
		assert.False(t, cfg.Workbook.StrictDates)
		assert.Equal(t, 10*time.Minute, cfg.Workbook.CacheTTL)
		assert.Equal(t, 14, cfg.Forecast.DefaultHorizon)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "cache.internal:6380", cfg.Redis.Addr())
		assert.Equal(t, 0, cfg.HTTP.ExportRateLimit)
	})

	t.Run("local archive needs no bucket", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PHARMA_ARCHIVE_ENABLED", "true")
		t.Setenv("PHARMA_ARCHIVE_DRIVER", "local")
		t.Setenv("PHARMA_ARCHIVE_DIRECTORY", "/var/lib/pharma/reports")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Archive.Driver)
		assert.Equal(t, "/var/lib/pharma/reports", cfg.Archive.Directory)
	})

	t.Run("reads a .env file in the working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		writeFile(t, dir, ".env", "PHARMA_APP_NAME=from-dotenv\n")
		t.Cleanup(func() { _ = os.Unsetenv("PHARMA_APP_NAME") })

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "from-dotenv", cfg.App.Name)
	})

	t.Run("reads config.toml", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		writeFile(t, dir, "config.toml", "[forecast]\ndefault_horizon = 60\ndefault_confidence = 0.9\n\n[log]\nformat = \"json\"\n")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 60, cfg.Forecast.DefaultHorizon)
		assert.InDelta(t, 0.9, cfg.Forecast.DefaultConfidence, 1e-9)
		assert.Equal(t, "json", cfg.Log.Format)
	})
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid log level",
			env:     map[string]string{"PHARMA_LOG_LEVEL": "verbose"},
			wantErr: "Level",
		},
		{
			name:    "unknown environment",
			env:     map[string]string{"PHARMA_APP_ENV": "qa"},
			wantErr: "Env",
		},
		{
			name:    "horizon out of range",
			env:     map[string]string{"PHARMA_FORECAST_DEFAULT_HORIZON": "120"},
			wantErr: "DefaultHorizon",
		},
		{
			name:    "archive without bucket",
			env:     map[string]string{"PHARMA_ARCHIVE_ENABLED": "true"},
			wantErr: "Bucket",
		},
		{
			name:    "unknown archive driver",
			env:     map[string]string{"PHARMA_ARCHIVE_DRIVER": "ftp"},
			wantErr: "Driver",
		},
		{
			name: "wildcard CORS in production",
			env: map[string]string{
				"PHARMA_APP_ENV":           "production",
				"PHARMA_HTTP_CORS_ORIGINS": "*",
			},
			wantErr: "cors_origins",
		},
		{
			name: "half configured archive credentials in production",
			env: map[string]string{
				"PHARMA_APP_ENV":            "production",
				"PHARMA_ARCHIVE_ENABLED":    "true",
				"PHARMA_ARCHIVE_BUCKET":     "reports",
				"PHARMA_ARCHIVE_ACCESS_KEY": "AKIA",
			},
			wantErr: "secret_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		App:      AppConfig{Name: "custom", Port: "7000"},
		Workbook: WorkbookConfig{Path: "x.xlsx", CacheTTL: time.Minute},
		Forecast: ForecastConfig{DefaultHorizon: 7},
	}
	applyDefaults(cfg)

	assert.Equal(t, "custom", cfg.App.Name)
	assert.Equal(t, "7000", cfg.App.Port)
	assert.Equal(t, "x.xlsx", cfg.Workbook.Path)
	assert.Equal(t, time.Minute, cfg.Workbook.CacheTTL)
	assert.Equal(t, 7, cfg.Forecast.DefaultHorizon)
	assert.Equal(t, "development", cfg.App.Env)
	require.NoError(t, cfg.validate())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

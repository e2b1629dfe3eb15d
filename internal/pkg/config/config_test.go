package config_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockroom/internal/pkg/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("host", "h", "", "")
	flags.StringP("port", "p", "", "")
	flags.StringP("cache", "c", "", "")
	flags.String("config", "", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func loadWith(t *testing.T, validators []config.Validator, args ...string) (*config.Config, error) {
	t.Helper()
	t.Setenv("STOCKROOM_APP_ENVIRONMENT", "test")

	v := config.NewViper()
	require.NoError(t, config.BindFlags(v, newFlags(t, args...)))
	return config.Load(v, quietLogger(), validators...)
}

// load validates the way the serve command does
func load(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	return loadWith(t, []config.Validator{&config.ServerValidator{}}, args...)
}

func TestLoad_FromFlags(t *testing.T) {
	cache := t.TempDir()

	cfg, err := load(t, "-h", "127.0.0.1", "-p", "9090", "-c", cache)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:9090", cfg.GetServerAddress())
	assert.Equal(t, filepath.Join(cache, "inventory.json"), cfg.InventoryPath())
	assert.Equal(t, filepath.Join(cache, "uploads"), cfg.UploadPath())
	assert.Equal(t, config.PhotoBackendLocal, cfg.Storage.PhotoBackend)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing_host", args: []string{"-p", "8080", "-c", "/tmp/cache"}},
		{name: "missing_port", args: []string{"-h", "localhost", "-c", "/tmp/cache"}},
		{name: "missing_cache", args: []string{"-h", "localhost", "-p", "8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrMissingRequiredConfig))
		})
	}
}

func TestLoad_WithoutServerValidatorNeedsOnlyCache(t *testing.T) {
	cache := t.TempDir()

	cfg, err := loadWith(t, nil, "-c", cache)
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.Host)
	assert.Equal(t, filepath.Join(cache, "inventory.json"), cfg.InventoryPath())

	_, err = loadWith(t, nil)
	assert.True(t, errors.Is(err, config.ErrMissingRequiredConfig))
}

func TestLoad_RateLimitCanBeDisabled(t *testing.T) {
	t.Setenv("STOCKROOM_SECURITY_RATE_LIMIT_REQUESTS", "0")

	cfg, err := load(t, "-h", "localhost", "-p", "8080", "-c", t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, cfg.Security.RateLimitRequests)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("STOCKROOM_SERVER_HOST", "0.0.0.0")
	t.Setenv("STOCKROOM_SERVER_PORT", "7000")
	t.Setenv("STOCKROOM_STORAGE_CACHE_DIR", t.TempDir())
	t.Setenv("STOCKROOM_STORAGE_CLEANUP_INTERVAL", "5m")
	t.Setenv("STOCKROOM_SECURITY_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Storage.CleanupInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_FlagsBeatEnvironment(t *testing.T) {
	t.Setenv("STOCKROOM_SERVER_PORT", "7000")

	cfg, err := load(t, "-h", "localhost", "-p", "8000", "-c", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stockroom.yaml")
	content := `
server:
  host: localhost
  port: "8181"
storage:
  cache_dir: ` + dir + `
  upload_dir: /var/photos
security:
  allowed_origins:
    - https://shop.example
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg, err := load(t, "--config", file)
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, "/var/photos", cfg.UploadPath())
	assert.Equal(t, []string{"https://shop.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	_, err := load(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			App:    config.AppConfig{Environment: "test"},
			Server: config.ServerConfig{Host: "localhost", Port: "8080", MaxUploadSizeMB: 8},
			Storage: config.StorageConfig{
				CacheDir:      "/tmp/cache",
				InventoryFile: "inventory.json",
				UploadDir:     "uploads",
				PhotoBackend:  config.PhotoBackendLocal,
			},
			AWS:      config.AWSConfig{Region: "us-east-1"},
			Security: config.SecurityConfig{RateLimitRequests: 10, RateLimitDuration: time.Minute, AllowedOrigins: []string{"*"}},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*config.Config)
		wantErr     bool
		wantMissing bool
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "bad_port", mutate: func(c *config.Config) { c.Server.Port = "http" }, wantErr: true},
		{name: "s3_without_bucket", mutate: func(c *config.Config) { c.Storage.PhotoBackend = config.PhotoBackendS3 }, wantErr: true, wantMissing: true},
		{name: "s3_with_bucket", mutate: func(c *config.Config) {
			c.Storage.PhotoBackend = config.PhotoBackendS3
			c.AWS.S3Bucket = "photos"
			c.AWS.S3Prefix = "uploads"
		}},
		{name: "s3_cleanup_needs_prefix", mutate: func(c *config.Config) {
			c.Storage.PhotoBackend = config.PhotoBackendS3
			c.Storage.CleanupInterval = time.Hour
			c.AWS.S3Bucket = "photos"
			c.AWS.S3Prefix = "/"
		}, wantErr: true, wantMissing: true},
		{name: "s3_without_prefix_cleanup_disabled", mutate: func(c *config.Config) {
			c.Storage.PhotoBackend = config.PhotoBackendS3
			c.AWS.S3Bucket = "photos"
		}},
		{name: "unknown_backend", mutate: func(c *config.Config) { c.Storage.PhotoBackend = "ftp" }, wantErr: true},
		{name: "missing_host", mutate: func(c *config.Config) { c.Server.Host = "" }, wantErr: true, wantMissing: true},
		{name: "rate_limit_disabled", mutate: func(c *config.Config) { c.Security.RateLimitRequests = 0 }},
		{name: "negative_rate_limit", mutate: func(c *config.Config) { c.Security.RateLimitRequests = -1 }, wantErr: true},
		{name: "rate_limit_without_window", mutate: func(c *config.Config) { c.Security.RateLimitDuration = 0 }, wantErr: true},
		{name: "production_rejects_wildcard_origin", mutate: func(c *config.Config) {
			c.App.Environment = "production"
			c.Security.SecureHeaders = true
		}, wantErr: true},
		{name: "production_with_explicit_origin", mutate: func(c *config.Config) {
			c.App.Environment = "production"
			c.Security.SecureHeaders = true
			c.Security.AllowedOrigins = []string{"https://shop.example"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate(&config.ServerValidator{})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMissing, errors.Is(err, config.ErrMissingRequiredConfig))
		})
	}
}

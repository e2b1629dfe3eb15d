// internal/pkg/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the service,
// e.g. STOCKROOM_SERVER_PORT for server.port.
const EnvPrefix = "STOCKROOM"

// Photo storage backends
const (
	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	// Application
	App AppConfig

	// Server
	Server ServerConfig

	// Inventory file and photo storage
	Storage StorageConfig

	// AWS (S3 photo backend)
	AWS AWSConfig

	// Security
	Security SecurityConfig

	// Metrics
	Metrics MetricsConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadSizeMB int64
}

// StorageConfig holds inventory and photo storage configuration
type StorageConfig struct {
	CacheDir           string `required:"true"`
	InventoryFile      string `required:"true"`
	UploadDir          string
	PhotoBackend       string `required:"true"` // local, s3
	WatchInventory     bool
	WatchDebounce      time.Duration
	CleanupInterval    time.Duration // zero disables the orphan photo sweep
	CleanupGracePeriod time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Prefix        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// NewViper returns a viper instance reading STOCKROOM_* environment
// variables with every default registered
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// BindFlags binds command-line flags to their configuration keys
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"host":      "server.host",
		"port":      "server.port",
		"cache":     "storage.cache_dir",
		"log-level": "app.log_level",
		"config":    "config_file",
	}

	for flag, key := range bindings {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load builds the configuration from flags, environment, an optional config
// file and defaults, in that order of precedence. extra validators run after
// the ones every command needs.
func Load(v *viper.Viper, logger *slog.Logger, extra ...Validator) (*Config, error) {
	env := v.GetString("app.environment")

	// Load .env file in development
	if isDevelopment(env) {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
			env = v.GetString("app.environment")
		}
	}

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		logger.Info("config file loaded", slog.String("file", v.ConfigFileUsed()))
	}

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Environment: env,
			Version:     v.GetString("app.version"),
			LogLevel:    v.GetString("app.log_level"),
			LogFormat:   v.GetString("app.log_format"),
			Debug:       v.GetBool("app.debug"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxUploadSizeMB: v.GetInt64("server.max_upload_size_mb"),
		},
		Storage: StorageConfig{
			CacheDir:           v.GetString("storage.cache_dir"),
			InventoryFile:      v.GetString("storage.inventory_file"),
			UploadDir:          v.GetString("storage.upload_dir"),
			PhotoBackend:       strings.ToLower(v.GetString("storage.photo_backend")),
			WatchInventory:     v.GetBool("storage.watch_inventory"),
			WatchDebounce:      v.GetDuration("storage.watch_debounce"),
			CleanupInterval:    v.GetDuration("storage.cleanup_interval"),
			CleanupGracePeriod: v.GetDuration("storage.cleanup_grace_period"),
		},
		AWS: AWSConfig{
			Region:          v.GetString("aws.region"),
			AccessKeyID:     v.GetString("aws.access_key_id"),
			SecretAccessKey: v.GetString("aws.secret_access_key"),
			S3Bucket:        v.GetString("aws.s3_bucket"),
			S3Prefix:        v.GetString("aws.s3_prefix"),
			S3Endpoint:      v.GetString("aws.s3_endpoint"),
			UsePathStyle:    v.GetBool("aws.use_path_style"),
		},
		Security: SecurityConfig{
			RateLimitRequests: v.GetInt("security.rate_limit_requests"),
			RateLimitDuration: v.GetDuration("security.rate_limit_duration"),
			AllowedOrigins:    splitList(v.GetStringSlice("security.allowed_origins")),
			SecureHeaders:     v.GetBool("security.secure_headers"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	// Validate configuration
	if err := cfg.Validate(extra...); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate runs every validator that applies to the environment, then extra
func (c *Config) Validate(extra ...Validator) error {
	validators := []Validator{&BasicValidator{}, &StorageValidator{}}
	validators = append(validators, extra...)
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}

	for _, validator := range validators {
		if err := validator.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// InventoryPath returns the path of the inventory JSON file
func (c *Config) InventoryPath() string {
	return c.resolve(c.Storage.InventoryFile)
}

// UploadPath returns the directory that holds uploaded photos
func (c *Config) UploadPath() string {
	return c.resolve(c.Storage.UploadDir)
}

// MaxUploadBytes returns the multipart memory limit for photo uploads
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadSizeMB << 20
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func isDevelopment(env string) bool {
	return env == "development" || env == "local"
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Storage.CacheDir, p)
}

// Helper functions

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stockroom")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_size_mb", 32)

	v.SetDefault("storage.inventory_file", "inventory.json")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.photo_backend", PhotoBackendLocal)
	v.SetDefault("storage.watch_inventory", true)
	v.SetDefault("storage.watch_debounce", 250*time.Millisecond)
	v.SetDefault("storage.cleanup_interval", time.Hour)
	v.SetDefault("storage.cleanup_grace_period", 24*time.Hour)

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.s3_prefix", "uploads")

	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_duration", time.Minute)
	v.SetDefault("security.allowed_origins", "*")
	v.SetDefault("security.secure_headers", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// splitList accepts both YAML lists and comma-separated environment values
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

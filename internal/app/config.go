package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/civigo/civigo/internal/database"
	"github.com/civigo/civigo/internal/verification"
)

// Config represents the runtime configuration for the Civigo backend.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	AWS          AWSConfig          `mapstructure:"aws"`
	Verification VerificationConfig `mapstructure:"verification"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Maintenance  MaintenanceConfig  `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	LogLevel          string        `mapstructure:"log_level"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection options for the one-time token store.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AWSConfig configures the managed vision and object storage providers.
type AWSConfig struct {
	Region         string        `mapstructure:"region"`
	Bucket         string        `mapstructure:"bucket"`
	CollectionID   string        `mapstructure:"collection_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PresignTTL     time.Duration `mapstructure:"presign_ttl"`
}

// VerificationConfig carries the decision policy thresholds and the image
// quality bars. Numbers here are policy, kept out of call sites.
type VerificationConfig struct {
	AutoApprove    float64       `mapstructure:"auto_approve"`
	ManualReview   float64       `mapstructure:"manual_review"`
	Login          float64       `mapstructure:"login"`
	CompareFloor   float64       `mapstructure:"compare_floor"`
	MinBrightness  float64       `mapstructure:"min_brightness"`
	MaxBrightness  float64       `mapstructure:"max_brightness"`
	MinSharpness   float64       `mapstructure:"min_sharpness"`
	MinConfidence  float64       `mapstructure:"min_confidence"`
	HolderValidity time.Duration `mapstructure:"holder_validity"`
}

// AuthConfig captures authentication-related settings.
type AuthConfig struct {
	JWT        JWTSettings        `mapstructure:"jwt"`
	LoginToken LoginTokenSettings `mapstructure:"login_token"`
	Bootstrap  BootstrapReviewer  `mapstructure:"bootstrap_reviewer"`
}

// JWTSettings configures session access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// LoginTokenSettings controls the one-time login token broker.
type LoginTokenSettings struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// BootstrapReviewer optionally provisions an initial reviewer account.
type BootstrapReviewer struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MaintenanceConfig controls background cleanup jobs.
type MaintenanceConfig struct {
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
	AuditSchedule      string `mapstructure:"audit_schedule"`
}

// DatabaseServiceConfig converts the viper section into the database package form.
func (c DatabaseConfig) DatabaseServiceConfig() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql":
		cfg.Host = c.Postgres.Host
		cfg.Port = c.Postgres.Port
		cfg.Name = c.Postgres.Database
		cfg.User = c.Postgres.Username
		cfg.Password = c.Postgres.Password
	case "mysql", "mariadb":
		cfg.Host = c.MySQL.Host
		cfg.Port = c.MySQL.Port
		cfg.Name = c.MySQL.Database
		cfg.User = c.MySQL.Username
		cfg.Password = c.MySQL.Password
	}

	return cfg
}

// Policy converts the verification section into the decision policy table.
func (c VerificationConfig) Policy() verification.Policy {
	return verification.Policy{
		AutoApprove:  c.AutoApprove,
		ManualReview: c.ManualReview,
		Login:        c.Login,
		CompareFloor: c.CompareFloor,
	}
}

// QualityBounds converts the verification section into the quality gate bars.
func (c VerificationConfig) QualityBounds() verification.QualityBounds {
	return verification.QualityBounds{
		MinBrightness: c.MinBrightness,
		MaxBrightness: c.MaxBrightness,
		MinSharpness:  c.MinSharpness,
		MinConfidence: c.MinConfidence,
	}
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("CIVIGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Verification.Policy().Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.rate_limit_requests", 30)
	v.SetDefault("server.rate_limit_window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/civigo.sqlite")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.timeout", "5s")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.bucket", "civigo-documents")
	v.SetDefault("aws.collection_id", "civigo-citizens")
	v.SetDefault("aws.request_timeout", "10s")
	v.SetDefault("aws.presign_ttl", "15m")

	v.SetDefault("verification.auto_approve", 70)
	v.SetDefault("verification.manual_review", 50)
	v.SetDefault("verification.login", 60)
	v.SetDefault("verification.compare_floor", 50)
	v.SetDefault("verification.min_brightness", 20)
	v.SetDefault("verification.max_brightness", 80)
	v.SetDefault("verification.min_sharpness", 20)
	v.SetDefault("verification.min_confidence", 90)
	v.SetDefault("verification.holder_validity", "43800h") // 5 years

	v.SetDefault("auth.jwt.issuer", "civigo")
	v.SetDefault("auth.jwt.access_token_ttl", "15m")
	v.SetDefault("auth.login_token.ttl", "10m")
	v.SetDefault("auth.login_token.sweep_schedule", "@every 5m")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("maintenance.audit_retention_days", 90)
	v.SetDefault("maintenance.audit_schedule", "@daily")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

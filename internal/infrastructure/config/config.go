package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Connector setting keys that may be preset in the import section
var importSettingKeys = []string{
	"import_variations_without_stock",
	"check_active_main_variation",
	"variation_number_field",
}

// Config holds all connector configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Log           LogConfig
	Telemetry     TelemetryConfig
	Plentymarkets PlentymarketsConfig
	Import        ImportConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Password    string
	DB          int
	IdentityTTL time.Duration // how long resolved identities stay cached
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to export traces
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)

	MetricsEnabled        bool          // Whether to export import metrics
	MetricsExportInterval time.Duration // Metric export interval (default 60s)
	DBTracingEnabled      bool          // Whether to trace database statements
	LogsEnabled           bool          // Whether to export log records
}

// PlentymarketsConfig holds the REST API client settings
type PlentymarketsConfig struct {
	BaseURL         string
	Username        string
	Password        string
	Timeout         time.Duration
	RateLimit       float64 // requests per second
	RateBurst       int
	MaxRetries      int
	MaxResponseSize int64
	// BreakerFailures consecutive unavailable responses open the circuit
	BreakerFailures uint32
	// BreakerCooldown keeps an open circuit open before probing again
	BreakerCooldown time.Duration
}

// ImportConfig holds import run settings
type ImportConfig struct {
	// WarmReferenceData prefetches barcode and shipping data at run start
	WarmReferenceData bool
	// PseudoSalesPriceID marks the sales price used as list price; 0 disables it
	PseudoSalesPriceID int
	// Settings preset connector settings; stored settings take precedence
	Settings map[string]any
}

// Load loads configuration from config.toml in the default search paths and
// environment variables.
// Priority (highest to lowest):
// 1. Environment variables with CONNECTOR_ prefix (e.g., CONNECTOR_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading the given file instead of
// searching for config.toml when path is not empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/connector")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CONNECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// an explicit zero disables retries, so this default cannot live in
	// applyDefaults
	v.SetDefault("plentymarkets.max_retries", 3)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:     v.GetBool("redis.enabled"),
			Host:        v.GetString("redis.host"),
			Port:        v.GetInt("redis.port"),
			Password:    v.GetString("redis.password"),
			DB:          v.GetInt("redis.db"),
			IdentityTTL: v.GetDuration("redis.identity_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),

			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			DBTracingEnabled:      v.GetBool("telemetry.db_tracing_enabled"),
			LogsEnabled:           v.GetBool("telemetry.logs_enabled"),
		},
		Plentymarkets: PlentymarketsConfig{
			BaseURL:         v.GetString("plentymarkets.base_url"),
			Username:        v.GetString("plentymarkets.username"),
			Password:        v.GetString("plentymarkets.password"),
			Timeout:         v.GetDuration("plentymarkets.timeout"),
			RateLimit:       v.GetFloat64("plentymarkets.rate_limit"),
			RateBurst:       v.GetInt("plentymarkets.rate_burst"),
			MaxRetries:      v.GetInt("plentymarkets.max_retries"),
			MaxResponseSize: v.GetInt64("plentymarkets.max_response_size"),
			BreakerFailures: v.GetUint32("plentymarkets.breaker_failures"),
			BreakerCooldown: v.GetDuration("plentymarkets.breaker_cooldown"),
		},
		Import: ImportConfig{
			WarmReferenceData:  v.GetBool("import.warm_reference_data"),
			PseudoSalesPriceID: v.GetInt("import.pseudo_sales_price_id"),
			Settings:           importSettings(v),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// importSettings collects the preset connector settings from the file and
// the environment
func importSettings(v *viper.Viper) map[string]any {
	settings := make(map[string]any)
	for key, value := range v.GetStringMap("import.settings") {
		settings[key] = value
	}
	for _, key := range importSettingKeys {
		if v.IsSet("import.settings." + key) {
			settings[key] = v.Get("import.settings." + key)
		}
	}
	return settings
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "erp-connector"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "connector"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.IdentityTTL == 0 {
		cfg.Redis.IdentityTTL = 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Plentymarkets.Timeout == 0 {
		cfg.Plentymarkets.Timeout = 30 * time.Second
	}
	if cfg.Plentymarkets.RateLimit == 0 {
		cfg.Plentymarkets.RateLimit = 2
	}
	if cfg.Plentymarkets.RateBurst == 0 {
		cfg.Plentymarkets.RateBurst = 1
	}
	if cfg.Plentymarkets.MaxResponseSize == 0 {
		cfg.Plentymarkets.MaxResponseSize = 10 << 20 // 10MB
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Plentymarkets.BaseURL != "" && !strings.HasPrefix(c.Plentymarkets.BaseURL, "https://") {
			return fmt.Errorf("plentymarkets.base_url must use https in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Plentymarkets.RateLimit < 0 {
		return fmt.Errorf("plentymarkets.rate_limit cannot be negative")
	}
	if c.Plentymarkets.MaxRetries < 0 {
		return fmt.Errorf("plentymarkets.max_retries cannot be negative")
	}
	if c.Import.PseudoSalesPriceID < 0 {
		return fmt.Errorf("import.pseudo_sales_price_id cannot be negative")
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

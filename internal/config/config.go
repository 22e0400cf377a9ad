package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logger   LoggerConfig   `yaml:"logger"`
	Security SecurityConfig `yaml:"security"`
	Data     DataConfig     `yaml:"data"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Auth     AuthConfig     `yaml:"auth"`
	Report   ReportConfig   `yaml:"report"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"rate_limit_enabled"`
	RateLimitRPS    int      `yaml:"rate_limit_rps"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	TrustedProxies  []string `yaml:"trusted_proxies"`
}

const (
	DataDriverPostgres = "postgres"
	DataDriverCSV      = "csv"

	RealtimeDriverPostgres = "postgres"
	RealtimeDriverRedis    = "redis"
	RealtimeDriverNone     = "none"
)

type DataConfig struct {
	Driver       string        `yaml:"driver"`
	DatabaseURL  string        `yaml:"database_url"`
	CSVDir       string        `yaml:"csv_dir"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// InstallTriggers creates the NOTIFY triggers the postgres change
	// feed listens to. Needs DDL rights on the tables.
	InstallTriggers bool `yaml:"install_triggers"`
}

type RealtimeConfig struct {
	Driver          string        `yaml:"driver"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	ChannelPrefix   string        `yaml:"channel_prefix"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	PollInterval    time.Duration `yaml:"poll_interval"`
}

type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
	AdminRole string `yaml:"admin_role"`
}

type ReportConfig struct {
	Timezone           string   `yaml:"timezone"`
	DeliveredStatuses  []string `yaml:"delivered_statuses"`
	RevenueStatuses    []string `yaml:"revenue_statuses"`
	PendingStatuses    []string `yaml:"pending_statuses"`
	AlertLimit         int      `yaml:"alert_limit"`
	RecentCustomerDays int      `yaml:"recent_customer_days"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Data: DataConfig{
			Driver:       DataDriverCSV,
			CSVDir:       "data",
			FetchTimeout: 30 * time.Second,
		},
		Realtime: RealtimeConfig{
			Driver:          RealtimeDriverNone,
			RedisAddr:       "localhost:6379",
			ChannelPrefix:   "scr:changes",
			RefreshInterval: 2 * time.Second,
			PollInterval:    5 * time.Minute,
		},
		Auth: AuthConfig{
			AdminRole: "admin",
		},
		Report: ReportConfig{
			Timezone:           "Asia/Kolkata",
			DeliveredStatuses:  []string{"completed", "delivered"},
			RevenueStatuses:    []string{"paid", "shipped", "delivered"},
			PendingStatuses:    []string{"pending", "pending_payment", "processing"},
			AlertLimit:         6,
			RecentCustomerDays: 7,
		},
		Tracing: TracingConfig{
			ServiceName: "scr-dashboard",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnvString("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Logger.Level = getEnvString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnvString("LOG_FORMAT", c.Logger.Format)

	c.Security.EnableRateLimit = getEnvBool("SECURITY_RATE_LIMIT_ENABLED", c.Security.EnableRateLimit)
	c.Security.RateLimitRPS = getEnvInt("SECURITY_RATE_LIMIT_RPS", c.Security.RateLimitRPS)
	c.Security.RateLimitBurst = getEnvInt("SECURITY_RATE_LIMIT_BURST", c.Security.RateLimitBurst)
	c.Security.AllowedOrigins = getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", c.Security.AllowedOrigins)
	c.Security.TrustedProxies = getEnvStringSlice("SECURITY_TRUSTED_PROXIES", c.Security.TrustedProxies)

	c.Data.Driver = getEnvString("DATA_DRIVER", c.Data.Driver)
	c.Data.DatabaseURL = getEnvString("DATABASE_URL", c.Data.DatabaseURL)
	c.Data.CSVDir = getEnvString("CSV_DIR", c.Data.CSVDir)
	c.Data.FetchTimeout = getEnvDuration("DATA_FETCH_TIMEOUT", c.Data.FetchTimeout)
	c.Data.InstallTriggers = getEnvBool("DATA_INSTALL_TRIGGERS", c.Data.InstallTriggers)

	c.Realtime.Driver = getEnvString("REALTIME_DRIVER", c.Realtime.Driver)
	c.Realtime.RedisAddr = getEnvString("REDIS_ADDR", c.Realtime.RedisAddr)
	c.Realtime.RedisPassword = getEnvString("REDIS_PASSWORD", c.Realtime.RedisPassword)
	c.Realtime.RedisDB = getEnvInt("REDIS_DB", c.Realtime.RedisDB)
	c.Realtime.ChannelPrefix = getEnvString("REALTIME_CHANNEL_PREFIX", c.Realtime.ChannelPrefix)
	c.Realtime.RefreshInterval = getEnvDuration("REALTIME_REFRESH_INTERVAL", c.Realtime.RefreshInterval)
	c.Realtime.PollInterval = getEnvDuration("REALTIME_POLL_INTERVAL", c.Realtime.PollInterval)

	c.Auth.Enabled = getEnvBool("AUTH_ENABLED", c.Auth.Enabled)
	c.Auth.JWTSecret = getEnvString("AUTH_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.AdminRole = getEnvString("AUTH_ADMIN_ROLE", c.Auth.AdminRole)

	c.Report.Timezone = getEnvString("REPORT_TIMEZONE", c.Report.Timezone)
	c.Report.DeliveredStatuses = getEnvStringSlice("REPORT_DELIVERED_STATUSES", c.Report.DeliveredStatuses)
	c.Report.RevenueStatuses = getEnvStringSlice("REPORT_REVENUE_STATUSES", c.Report.RevenueStatuses)
	c.Report.PendingStatuses = getEnvStringSlice("REPORT_PENDING_STATUSES", c.Report.PendingStatuses)
	c.Report.AlertLimit = getEnvInt("REPORT_ALERT_LIMIT", c.Report.AlertLimit)
	c.Report.RecentCustomerDays = getEnvInt("REPORT_RECENT_CUSTOMER_DAYS", c.Report.RecentCustomerDays)

	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.ServiceName = getEnvString("TRACING_SERVICE_NAME", c.Tracing.ServiceName)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	switch c.Data.Driver {
	case DataDriverPostgres:
		if c.Data.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for the postgres data driver")
		}
	case DataDriverCSV:
		if c.Data.CSVDir == "" {
			return fmt.Errorf("CSV directory cannot be empty")
		}
	default:
		return fmt.Errorf("invalid data driver %q, must be one of: %s, %s", c.Data.Driver, DataDriverPostgres, DataDriverCSV)
	}

	if c.Data.FetchTimeout <= 0 {
		return fmt.Errorf("data fetch timeout must be positive")
	}

	switch c.Realtime.Driver {
	case RealtimeDriverPostgres:
		if c.Data.Driver != DataDriverPostgres {
			return fmt.Errorf("postgres change feed requires the postgres data driver")
		}
	case RealtimeDriverRedis:
		if c.Realtime.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis change feed")
		}
	case RealtimeDriverNone:
	default:
		return fmt.Errorf("invalid realtime driver %q, must be one of: %s, %s, %s",
			c.Realtime.Driver, RealtimeDriverPostgres, RealtimeDriverRedis, RealtimeDriverNone)
	}

	if c.Realtime.RefreshInterval < 0 || c.Realtime.PollInterval < 0 {
		return fmt.Errorf("realtime intervals cannot be negative")
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required when auth is enabled")
	}

	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("invalid report timezone %q: %w", c.Report.Timezone, err)
	}

	if len(c.Report.DeliveredStatuses) == 0 || len(c.Report.RevenueStatuses) == 0 {
		return fmt.Errorf("delivered and revenue status sets cannot be empty")
	}

	if c.Report.AlertLimit <= 0 {
		return fmt.Errorf("alert limit must be positive")
	}

	if c.Report.RecentCustomerDays <= 0 {
		return fmt.Errorf("recent customer days must be positive")
	}

	return nil
}

// Location resolves Report.Timezone. validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

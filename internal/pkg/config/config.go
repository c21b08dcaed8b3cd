// internal/pkg/config/config.go
package config

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Asynq          AsynqConfig
	AWS            AWSConfig
	Ledger         LedgerConfig
	FileProcessing FileProcessingConfig
	Security       SecurityConfig
	Server         ServerConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `validate:"required"`
	Environment string `validate:"oneof=development local test staging production"`
	Version     string
	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFormat   string `validate:"oneof=json text"`
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `validate:"required"`
	Port               string `validate:"required"`
	User               string `validate:"required"`
	Password           string
	Name               string `validate:"required"`
	SSLMode            string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConnections     int32  `validate:"gt=0,gtefield=MinConnections"`
	MinConnections     int32  `validate:"gte=0"`
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host            string `validate:"required"`
	Port            string `validate:"required"`
	Password        string
	DB              int `validate:"gte=0"`
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int `validate:"gt=0"`
	MinIdleConns    int
	PoolTimeout     time.Duration
	TTL             time.Duration
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr            string `validate:"required"`
	RedisPassword        string
	RedisDB              int
	Concurrency          int            `validate:"gt=0"`
	Queues               map[string]int `validate:"required"`
	StrictPriority       bool
	RetryMax             int
	ShutdownTimeout      time.Duration
	HealthCheckInterval  time.Duration
	DelayedTaskCheckTime time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string `validate:"required"`
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string `validate:"required"`
	S3Endpoint      string // MinIO in development
	UsePathStyle    bool
	SecretsEnabled  bool
	SecretName      string `validate:"required_if=SecretsEnabled true"`
}

// LedgerConfig tunes the stock ledger and its background jobs
type LedgerConfig struct {
	MaxRetries         int           `validate:"gte=0,lte=20"`
	RetryBackoff       time.Duration `validate:"gte=0"`
	DefaultThreshold   int64         `validate:"gte=0"`
	DefaultWarehouseID int64         `validate:"gt=0"`
	LowStockPageSize   int           `validate:"gt=0,lte=10000"`
	LowStockCacheTTL   time.Duration `validate:"gte=0"`
	CatalogCacheTTL    time.Duration `validate:"gte=0"`
	AlertCooldown      time.Duration `validate:"gte=0"`
	LowStockScanCron   string
	ReconcileCron      string
}

// FileProcessingConfig holds spreadsheet import/export configuration
type FileProcessingConfig struct {
	ExcelMaxSizeMB    int `validate:"gt=0"`
	ProcessingTimeout time.Duration
	TempDir           string
	ExportPrefix      string
	ImportPrefix      string
	// Storage selects where exports and uploads live: s3, or local under TempDir
	Storage string `validate:"oneof=s3 local"`
}

// SecurityConfig holds HTTP security configuration
type SecurityConfig struct {
	RateLimitRequests int `validate:"gt=0"`
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	RequestIDHeader   string
	PrincipalHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `validate:"required"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	EnablePprof     bool
	TLSEnabled      bool
	TLSCertFile     string `validate:"required_if=TLSEnabled true"`
	TLSKeyFile      string `validate:"required_if=TLSEnabled true"`
}

// Load reads configuration from the environment, a .env file in development,
// and AWS Secrets Manager when AWS_SECRETS_ENABLED is set.
func Load(ctx context.Context, logger *slog.Logger) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetDefault("APP_ENV", "development")

	env := v.GetString("APP_ENV")
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded")
		}
	}

	cfg := build(v, env)

	if cfg.AWS.SecretsEnabled {
		sm, err := NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.AWS.SecretName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create secrets manager: %w", err)
		}
		if err := ApplySecrets(ctx, cfg, sm); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func build(v *viper.Viper, env string) *Config {
	e := envReader{v: v}
	dev := env == "development" || env == "local"

	redisHost := e.str("REDIS_HOST", "localhost")
	redisPort := e.str("REDIS_PORT", "6379")

	return &Config{
		App: AppConfig{
			Name:        e.str("APP_NAME", "stockledger"),
			Environment: env,
			Version:     e.str("APP_VERSION", "dev"),
			LogLevel:    e.str("LOG_LEVEL", "info"),
			LogFormat:   e.str("LOG_FORMAT", "json"),
			Debug:       e.boolean("APP_DEBUG", dev),
		},
		Database: DatabaseConfig{
			Host:               e.str("DB_HOST", "localhost"),
			Port:               e.str("DB_PORT", "5432"),
			User:               e.str("DB_USER", "stockledger"),
			Password:           e.str("DB_PASSWORD", "stockledger_dev"),
			Name:               e.str("DB_NAME", "stockledger"),
			SSLMode:            e.str("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(e.integer("DB_MAX_CONNECTIONS", 25)),
			MinConnections:     int32(e.integer("DB_MIN_CONNECTIONS", 5)),
			MaxConnLifetime:    e.duration("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    e.duration("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  e.duration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     e.duration("DB_CONNECT_TIMEOUT", 10*time.Second),
			EnableQueryLogging: e.boolean("DB_QUERY_LOGGING", false),
			AutoMigrate:        e.boolean("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:            redisHost,
			Port:            redisPort,
			Password:        e.str("REDIS_PASSWORD", ""),
			DB:              e.integer("REDIS_DB", 0),
			MaxRetries:      e.integer("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: e.duration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: e.duration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			DialTimeout:     e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:        e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns:    e.integer("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:     e.duration("REDIS_POOL_TIMEOUT", 4*time.Second),
			TTL:             e.duration("REDIS_TTL", time.Hour),
		},
		Asynq: AsynqConfig{
			RedisAddr:            net.JoinHostPort(redisHost, redisPort),
			RedisPassword:        e.str("REDIS_PASSWORD", ""),
			RedisDB:              e.integer("ASYNQ_REDIS_DB", 0),
			Concurrency:          e.integer("ASYNQ_CONCURRENCY", 10),
			Queues:               parseQueues(e.str("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:       e.boolean("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:             e.integer("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout:      e.duration("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthCheckInterval:  e.duration("ASYNQ_HEALTH_CHECK_INTERVAL", 30*time.Second),
			DelayedTaskCheckTime: e.duration("ASYNQ_DELAYED_TASK_CHECK", 5*time.Second),
		},
		AWS: AWSConfig{
			Region:          e.str("AWS_REGION", "us-east-1"),
			AccessKeyID:     e.str("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: e.str("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        e.str("AWS_S3_BUCKET", "stockledger-exports"),
			S3Endpoint:      e.str("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    e.boolean("AWS_S3_PATH_STYLE", dev),
			SecretsEnabled:  e.boolean("AWS_SECRETS_ENABLED", false),
			SecretName:      e.str("AWS_SECRET_NAME", ""),
		},
		Ledger: LedgerConfig{
			MaxRetries:         e.integer("LEDGER_MAX_RETRIES", 3),
			RetryBackoff:       e.duration("LEDGER_RETRY_BACKOFF", 25*time.Millisecond),
			DefaultThreshold:   int64(e.integer("LEDGER_DEFAULT_THRESHOLD", 5)),
			DefaultWarehouseID: int64(e.integer("LEDGER_DEFAULT_WAREHOUSE_ID", 1)),
			LowStockPageSize:   e.integer("LEDGER_LOWSTOCK_PAGE_SIZE", 200),
			LowStockCacheTTL:   e.duration("LEDGER_LOWSTOCK_CACHE_TTL", 30*time.Second),
			CatalogCacheTTL:    e.duration("LEDGER_CATALOG_CACHE_TTL", 5*time.Minute),
			AlertCooldown:      e.duration("LEDGER_ALERT_COOLDOWN", time.Hour),
			LowStockScanCron:   e.str("LEDGER_LOWSTOCK_SCAN_CRON", "*/15 * * * *"),
			ReconcileCron:      e.str("LEDGER_RECONCILE_CRON", "0 3 * * *"),
		},
		FileProcessing: FileProcessingConfig{
			ExcelMaxSizeMB:    e.integer("EXCEL_MAX_SIZE_MB", 20),
			ProcessingTimeout: e.duration("PROCESSING_TIMEOUT", 5*time.Minute),
			TempDir:           e.str("TEMP_DIR", "/tmp"),
			ExportPrefix:      e.str("EXPORT_PREFIX", "exports/audit"),
			ImportPrefix:      e.str("IMPORT_PREFIX", "imports/receipts"),
			Storage:           e.str("FILE_STORAGE", "s3"),
		},
		Security: SecurityConfig{
			RateLimitRequests: e.integer("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: e.duration("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    e.slice("ALLOWED_ORIGINS", []string{"*"}),
			SecureHeaders:     e.boolean("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   e.str("REQUEST_ID_HEADER", "X-Request-ID"),
			PrincipalHeader:   e.str("PRINCIPAL_HEADER", "X-User-ID"),
		},
		Server: ServerConfig{
			Host:            e.str("SERVER_HOST", "0.0.0.0"),
			Port:            e.str("SERVER_PORT", "8080"),
			ReadTimeout:     e.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    e.duration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     e.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:  e.integer("SERVER_MAX_HEADER_BYTES", 1<<20),
			GracefulTimeout: e.duration("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			EnablePprof:     e.boolean("ENABLE_PPROF", false),
			TLSEnabled:      e.boolean("TLS_ENABLED", false),
			TLSCertFile:     e.str("TLS_CERT_FILE", ""),
			TLSKeyFile:      e.str("TLS_KEY_FILE", ""),
		},
	}
}

// GetDatabaseURL returns the connection string in URL form
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		net.JoinHostPort(c.Database.Host, c.Database.Port),
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// envReader reads typed values through viper, falling back to def when unset or malformed
type envReader struct {
	v *viper.Viper
}

func (e envReader) str(key, def string) string {
	if s := strings.TrimSpace(e.v.GetString(key)); s != "" {
		return s
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if !e.v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(e.v.GetString(key))
	if err != nil {
		return def
	}
	return b
}

func (e envReader) integer(key string, def int) int {
	if !e.v.IsSet(key) {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(e.v.GetString(key)))
	if err != nil {
		return def
	}
	return i
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if !e.v.IsSet(key) {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(e.v.GetString(key)))
	if err != nil {
		return def
	}
	return d
}

func (e envReader) slice(key string, def []string) []string {
	s := e.str(key, "")
	if s == "" {
		return def
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		name, weight, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		priority, err := strconv.Atoi(strings.TrimSpace(weight))
		if err == nil && priority > 0 {
			queues[strings.TrimSpace(name)] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}

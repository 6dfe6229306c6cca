package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Queue    QueueConfig
	Auth     AuthConfig
	App      AppConfig
	Admin    AdminConfig
	Stripe   StripeConfig
	Sentry   SentryConfig
	Tracing  TracingConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
	Webhooks []models.WebhookEndpoint
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	BaseURL         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	RateLimitRPS    int
	RateLimitBurst  int
}

// DatabaseConfig holds database configuration.
// Driver "memory" keeps everything in process for local runs.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
	Migrate  bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds payment proof storage configuration.
// Backend is "local" or "minio".
type StorageConfig struct {
	Backend         string
	LocalDir        string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// AuthConfig holds session and token configuration
type AuthConfig struct {
	SessionSecret     string
	SessionEncryption string
	SecureCookie      bool
	SessionMaxAge     time.Duration
	JWTSecret         string
	TokenTTL          time.Duration
	LoginAttempts     int64
	LoginWindow       time.Duration
}

// AppConfig holds business rules
type AppConfig struct {
	Name                  string
	Timezone              string
	AccessDuration        time.Duration
	MinTopup              int64
	AllowedProofExtension []string
	DefaultPaymentMethod  string
	PaymentAccounts       []models.PaymentAccount
	AccessCodeDuration    time.Duration
	DeviceCookieMaxAge    time.Duration
	AnnouncementCacheTTL  time.Duration
}

// AdminConfig seeds the first administrator
type AdminConfig struct {
	Email    string
	Password string
}

// StripeConfig enables card top-ups when SecretKey is set
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

// TracingConfig holds Jaeger configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// MetricsConfig holds the Prometheus listener configuration
type MetricsConfig struct {
	Enabled         bool
	Port            int
	WorkerPort      int
	MonitorInterval time.Duration
}

// LoggingConfig mirrors logging.Config
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Location resolves the display timezone, falling back to a fixed UTC+7 zone
// when the tz database is unavailable
func (a AppConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(a.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("WIB", 7*60*60)
}

// PaymentAccount returns the transfer details for a method
func (a AppConfig) PaymentAccount(method string) (models.PaymentAccount, bool) {
	for _, acc := range a.PaymentAccounts {
		if strings.EqualFold(acc.Method, method) {
			return acc, true
		}
	}
	return models.PaymentAccount{}, false
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.baseURL", "http://localhost:8080")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.maxUploadBytes", 16*1024*1024) // 16MB
	v.SetDefault("server.rateLimitRPS", 20)
	v.SetDefault("server.rateLimitBurst", 40)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "streamflix")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 2)
	v.SetDefault("database.migrate", true)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localDir", "uploads/payment_proofs")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "payment-proofs")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)

	// Queue defaults
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")

	// Auth defaults
	v.SetDefault("auth.sessionSecret", "streamflix-secret-key-change-this-in-production")
	v.SetDefault("auth.sessionEncryption", "")
	v.SetDefault("auth.secureCookie", false)
	v.SetDefault("auth.sessionMaxAge", "720h")
	v.SetDefault("auth.jwtSecret", "streamflix-jwt-secret-change-this")
	v.SetDefault("auth.tokenTTL", "24h")
	v.SetDefault("auth.loginAttempts", 10)
	v.SetDefault("auth.loginWindow", "15m")

	// App defaults
	v.SetDefault("app.name", "StreamFlix")
	v.SetDefault("app.timezone", "Asia/Jakarta")
	v.SetDefault("app.accessDuration", "48h")
	v.SetDefault("app.minTopup", 5000)
	v.SetDefault("app.allowedProofExtension", []string{"png", "jpg", "jpeg", "gif", "pdf", "webp"})
	v.SetDefault("app.defaultPaymentMethod", "dana")
	v.SetDefault("app.paymentAccounts", []map[string]interface{}{
		{"method": "dana", "label": "DANA", "accountNumber": "082320781747", "accountName": "STREAMFLIX OFFICIAL"},
		{"method": "ovo", "label": "OVO", "accountNumber": "082320781747", "accountName": "STREAMFLIX OFFICIAL"},
		{"method": "gopay", "label": "GoPay", "accountNumber": "082320781747", "accountName": "STREAMFLIX OFFICIAL"},
		{"method": "bank_transfer", "label": "Bank Transfer", "accountNumber": "082320781747", "accountName": "STREAMFLIX OFFICIAL"},
	})
	v.SetDefault("app.accessCodeDuration", "720h")
	v.SetDefault("app.deviceCookieMaxAge", "8760h")
	v.SetDefault("app.announcementCacheTTL", "1m")

	// Admin defaults
	v.SetDefault("admin.email", "admin@streamflix.com")
	v.SetDefault("admin.password", "admin123")

	// Stripe defaults
	v.SetDefault("stripe.secretKey", "")
	v.SetDefault("stripe.webhookSecret", "")
	v.SetDefault("stripe.currency", "idr")

	// Sentry defaults
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.release", "dev")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "streamflix")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.workerPort", 9091)
	v.SetDefault("metrics.monitorInterval", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.maxSizeMB", 100)
	v.SetDefault("logging.maxBackups", 5)
	v.SetDefault("logging.maxAgeDays", 30)
}

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// 開発用の既定シークレット
const (
	defaultAccessSecret  = "change-me-access-secret"
	defaultWebhookSecret = "webhook-secret-key"
)

// Config はアプリケーション設定を表す
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Purchase PurchaseConfig
	Worker   WorkerConfig
	Metrics  MetricsConfig
}

// AppConfig は実行環境の設定
type AppConfig struct {
	Env            string
	MigrationsPath string
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig は注文イベント配信の設定。Brokersが空なら配信しない
type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
}

// AuthConfig はアクセストークン検証の設定
type AuthConfig struct {
	AccessSecret string
}

// PaymentConfig は決済コールバックの設定
type PaymentConfig struct {
	WebhookSecret string
}

// PurchaseConfig は購入トランザクションのリトライ設定
type PurchaseConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// WorkerConfig はバックグラウンドワーカーの設定
type WorkerConfig struct {
	StatsInterval time.Duration
}

// MetricsConfig は /metrics のBasic認証設定。どちらかが空なら認証しない
type MetricsConfig struct {
	User     string
	Password string
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	return &Config{
		App: AppConfig{
			Env:            getEnv("APP_ENV", "development"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ticket_marketplace"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:    getCSVEnv("KAFKA_BROKERS"),
			OrderTopic: getEnv("KAFKA_ORDER_TOPIC", "ticket.orders"),
		},
		Auth: AuthConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", defaultAccessSecret),
		},
		Payment: PaymentConfig{
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", defaultWebhookSecret),
		},
		Purchase: PurchaseConfig{
			MaxRetries:   getIntEnv("PURCHASE_MAX_RETRIES", 3),
			RetryBackoff: getDurationEnv("PURCHASE_RETRY_BACKOFF", 50*time.Millisecond),
		},
		Worker: WorkerConfig{
			StatsInterval: getDurationEnv("ORDER_STATS_INTERVAL", time.Minute),
		},
		Metrics: MetricsConfig{
			User:     getEnv("METRICS_USER", ""),
			Password: getEnv("METRICS_PASSWORD", ""),
		},
	}
}

// Validate は本番環境で既定のシークレットが使われていないかを検証する
func (c *Config) Validate() error {
	if !c.App.IsProduction() {
		return nil
	}
	if c.Auth.AccessSecret == defaultAccessSecret {
		return errors.New("本番環境では JWT_ACCESS_SECRET を設定してください")
	}
	if c.Payment.WebhookSecret == defaultWebhookSecret {
		return errors.New("本番環境では PAYMENT_WEBHOOK_SECRET を設定してください")
	}
	return nil
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Enabled はKafkaへの配信が有効かを返す
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// AuthEnabled は認証が有効かどうかを返す
func (c *MetricsConfig) AuthEnabled() bool {
	return c.User != "" && c.Password != ""
}

// IsProduction は本番環境かを返す
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getCSVEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

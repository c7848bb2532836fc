package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Service   ServiceConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
	Websocket WebsocketConfig
}

type ServiceConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

// IsDevelopment reports whether the service runs in development mode
func (s ServiceConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

type HTTPConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	EventsTopic   string
	PurchaseTopic string
	GroupID       string
}

type JWTConfig struct {
	Secret string
}

type CacheConfig struct {
	ItemTTL time.Duration
	ListTTL time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// WebsocketConfig lists the browser origins allowed to open /ws. Empty means same origin only.
type WebsocketConfig struct {
	AllowedOrigins []string
}

type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "catalog-service")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_PORT", "8081")
	v.SetDefault("HTTP_REQUEST_TIMEOUT", "30s")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "catalogdb")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_EVENTS_TOPIC", "catalog-events")
	v.SetDefault("KAFKA_PURCHASE_TOPIC", "product-purchased")
	v.SetDefault("KAFKA_GROUP_ID", "catalog-service")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("CACHE_ITEM_TTL", "10m")
	v.SetDefault("CACHE_LIST_TTL", "15m")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	v.SetDefault("WS_ALLOWED_ORIGINS", "")
}

// Load reads configuration from the environment, after loading any .env file found in the
// working directory. Missing .env files are not an error.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        v.GetString("SERVICE_NAME"),
			Environment: v.GetString("ENVIRONMENT"),
			LogLevel:    v.GetString("LOG_LEVEL"),
		},
		HTTP: HTTPConfig{
			Port:           v.GetString("HTTP_PORT"),
			RequestTimeout: v.GetDuration("HTTP_REQUEST_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Enabled:       v.GetBool("KAFKA_ENABLED"),
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			EventsTopic:   v.GetString("KAFKA_EVENTS_TOPIC"),
			PurchaseTopic: v.GetString("KAFKA_PURCHASE_TOPIC"),
			GroupID:       v.GetString("KAFKA_GROUP_ID"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Cache: CacheConfig{
			ItemTTL: v.GetDuration("CACHE_ITEM_TTL"),
			ListTTL: v.GetDuration("CACHE_LIST_TTL"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Tracing: TracingConfig{
			Enabled:        v.GetBool("TRACING_ENABLED"),
			JaegerEndpoint: v.GetString("JAEGER_ENDPOINT"),
		},
		Websocket: WebsocketConfig{
			AllowedOrigins: splitList(v.GetString("WS_ALLOWED_ORIGINS")),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

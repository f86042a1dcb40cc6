package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Session store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config содержит конфигурацию studio-server
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	Server   ServerConfig
	Log      LogConfig
	LMS      LMSConfig
	Session  SessionConfig
	Redis    RedisConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	CORS     CORSConfig
}

// ServerConfig содержит настройки HTTP сервера.
type ServerConfig struct {
	Port         string        `envconfig:"STUDIO_SERVER_PORT" default:"8090"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10m"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	MaxUploadMB  int64         `envconfig:"MAX_UPLOAD_MB" default:"2048"`
}

type LogConfig struct {
	Level    string `envconfig:"LOG_LEVEL" default:"info"`
	Encoding string `envconfig:"LOG_ENCODING" default:"json"`
	Output   string `envconfig:"LOG_OUTPUT"`
}

// LMSConfig описывает REST API платформы, в которой хранятся курсы.
type LMSConfig struct {
	BaseURL       string        `envconfig:"LMS_API_URL" default:"http://localhost:8000/api"`
	Timeout       time.Duration `envconfig:"LMS_API_TIMEOUT" default:"15s"`
	UploadTimeout time.Duration `envconfig:"LMS_UPLOAD_TIMEOUT" default:"30m"`
}

type SessionConfig struct {
	Store         string        `envconfig:"SESSION_STORE" default:"memory"`
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	PurgeInterval time.Duration `envconfig:"SESSION_PURGE_INTERVAL" default:"10m"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Password string // из секрета redis_password
}

type DatabaseConfig struct {
	Host        string        `envconfig:"DB_HOST" default:"localhost"`
	Port        string        `envconfig:"DB_PORT" default:"5432"`
	User        string        `envconfig:"DB_USER" default:"postgres"`
	Name        string        `envconfig:"DB_NAME" default:"studio"`
	SSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	IdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	Password    string        // из секрета db_password
}

// RabbitMQConfig: пустой URL отключает публикацию событий в очередь.
type RabbitMQConfig struct {
	URL         string `envconfig:"RABBITMQ_URL"`
	EventsQueue string `envconfig:"STUDIO_EVENTS_QUEUE" default:"studio_events"`
}

type CORSConfig struct {
	AllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

// LoadConfig reads the environment and Docker secrets.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	switch cfg.Session.Store {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.Session.Store)
	}
	if cfg.Session.PurgeInterval <= 0 {
		return nil, fmt.Errorf("SESSION_PURGE_INTERVAL must be positive, got %s", cfg.Session.PurgeInterval)
	}

	var err error
	switch cfg.Session.Store {
	case StorePostgres:
		if cfg.Database.Password, err = ReadSecret("db_password"); err != nil {
			return nil, fmt.Errorf("не удалось прочитать секрет db_password: %w", err)
		}
	case StoreRedis:
		cfg.Redis.Password = ReadOptionalSecret("redis_password")
	}

	return &cfg, nil
}

// GetDSN returns the postgres connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.SSLMode)
}

// GetAllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c *Config) GetAllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORS.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogFields describes the config for the startup log, secrets masked.
func (c *Config) LogFields() []zap.Field {
	mask := func(s string) string {
		if s == "" {
			return "[НЕ ЗАДАН]"
		}
		return "[ЗАГРУЖЕН]"
	}
	return []zap.Field{
		zap.String("env", c.Env),
		zap.String("port", c.Server.Port),
		zap.String("lmsURL", c.LMS.BaseURL),
		zap.Duration("lmsTimeout", c.LMS.Timeout),
		zap.String("sessionStore", c.Session.Store),
		zap.Duration("sessionTTL", c.Session.TTL),
		zap.String("redisAddr", c.Redis.Addr),
		zap.String("redisPassword", mask(c.Redis.Password)),
		zap.String("dbHost", c.Database.Host),
		zap.String("dbName", c.Database.Name),
		zap.String("dbPassword", mask(c.Database.Password)),
		zap.Bool("rabbitEnabled", c.RabbitMQ.URL != ""),
		zap.String("eventsQueue", c.RabbitMQ.EventsQueue),
		zap.Strings("corsOrigins", c.GetAllowedOrigins()),
	}
}

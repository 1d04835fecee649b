package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPAddr           string        `env:"HTTP_ADDR" env-default:":8090"`
	LogLevel           string        `env:"LOG_LEVEL" env-default:"info"`
	JWTSecret          string        `env:"JWT_SECRET" env-required:"true"`
	NATSURL            string        `env:"NATS_URL" env-default:""`
	NATSSubjectPrefix  string        `env:"NATS_SUBJECT_PREFIX" env-default:"fixzit.notifications"`
	RedisAddr          string        `env:"REDIS_ADDR" env-default:""`
	RedisPassword      string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB            int           `env:"REDIS_DB" env-default:"0"`
	HeartbeatInterval  time.Duration `env:"HEARTBEAT_INTERVAL" env-default:"30s"`
	MaxConnsPerUser    int           `env:"MAX_CONNECTIONS_PER_USER" env-default:"5"`
	StaleConnTimeout   time.Duration `env:"STALE_CONNECTION_TIMEOUT" env-default:"5m"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" env-default:"60s"`
	SSERetryMillis     int           `env:"SSE_RETRY_MILLIS" env-default:"3000"`
	PresenceTTL        time.Duration `env:"PRESENCE_TTL" env-default:"60s"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	OTLPEndpoint       string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
}

func Load() (*Config, error) {
	var cfg Config

	// ReadEnv only: the service is configured through the environment
	// and nothing else, so a missing file can never mask a typo.
	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return &cfg, nil
}

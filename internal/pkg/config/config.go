package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// TokenTTL bounds issued session JWTs.
	TokenTTL time.Duration `env:"TOKEN_TTL, default=24h"`
	// VerifyTokenTTL bounds email verification tokens in Redis.
	VerifyTokenTTL time.Duration `env:"VERIFY_TOKEN_TTL, default=24h"`
	// VoteTTL is how long a vote-kick may stay open before the sweeper
	// expires it.
	VoteTTL time.Duration `env:"VOTE_TTL, default=72h"`
	// MailWorkers sizes the outbound mail dispatcher.
	MailWorkers int `env:"MAIL_WORKERS, default=4"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Escrow EscrowConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=cryptogig"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type EscrowConfig struct {
	URL     string        `env:"ESCROW_URL, default=http://localhost:9090"`
	Timeout time.Duration `env:"ESCROW_TIMEOUT, default=10s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

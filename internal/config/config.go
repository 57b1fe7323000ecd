package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	ServerPort  string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENV" env-default:"development"`

	// Database configuration
	DBHost     string `env:"DB_HOST" env-default:"localhost"`
	DBPort     string `env:"DB_PORT" env-default:"5432"`
	DBUser     string `env:"DB_USER" env-default:"postgres"`
	DBPassword string `env:"DB_PASSWORD" env-default:"postgres"`
	DBName     string `env:"DB_NAME" env-default:"topicslog"`

	// Redis configuration
	RedisAddress string `env:"REDIS_ADDRESS" env-default:"localhost:6379"`

	// JWT configuration
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"72h"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	// Static assets served to the installable front end
	AssetDir        string `env:"ASSET_DIR" env-default:"./web"`
	AssetGeneration string `env:"ASSET_GENERATION" env-default:"topicslog-v3-dark-zen-1"`

	// Background writes and request guards
	WorkerPoolSize int           `env:"WORKER_POOL_SIZE" env-default:"4"`
	InFlightTTL    time.Duration `env:"INFLIGHT_TTL" env-default:"30s"`
	RowLimit       int           `env:"ROW_LIMIT" env-default:"800"`

	FrontendAddress string `env:"FRONTEND_ADDRESS" env-default:"https://production-frontend.com"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
		c.DBHost,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBPort,
	)
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envPath, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = generateRandomSecret(32) // Generate a 32-byte random secret if not declared
	}
	if cfg.RowLimit <= 0 {
		cfg.RowLimit = 800
	}

	return &cfg, nil
}

// generateRandomSecret generates a random hex secret of n bytes
func generateRandomSecret(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/iliyamo/stadium-booking/internal/logging"
)

// StoreDriver selects the record storage backend.
type StoreDriver string

const (
	StoreMySQL  StoreDriver = "mysql"
	StoreMemory StoreDriver = "memory"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (dev, test, prod)
	Port           string // HTTP port to listen on
	Store          StoreDriver
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	RunMigrations  bool
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	AMQPURL        string // empty disables event publishing
	AMQPExchange   string
	EventLogPath   string
	TelegramToken  string // empty disables owner notifications
	TelegramChatID int64
}

// Load reads an optional .env file, then the environment. Missing required
// variables stop the process.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("APP_PORT", "8080"),
		Store:          StoreDriver(getenv("STORE_DRIVER", string(StoreMySQL))),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		AMQPURL:        os.Getenv("AMQP_URL"),
		AMQPExchange:   getenv("AMQP_EXCHANGE", "bookings"),
		EventLogPath:   getenv("EVENT_LOG_PATH", "logs/booking.log"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
	if id := os.Getenv("TELEGRAM_CHAT_ID"); id != "" {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			logging.Default().Fatal("invalid TELEGRAM_CHAT_ID", "value", id)
		}
		cfg.TelegramChatID = n
	}

	switch cfg.Store {
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
		cfg.RunMigrations = envBool("DB_MIGRATE", true)
	case StoreMemory:
	default:
		logging.Default().Fatal("unknown STORE_DRIVER", "value", string(cfg.Store))
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logging.Default().Fatal("missing required env var", "key", key)
	}
	return v
}

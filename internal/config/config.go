package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Retention values for ROOM_RETENTION
const (
	RetentionEvict   = "evict"
	RetentionPersist = "persist"
)

type Config struct {
	AppPort       string
	JWTSecret     string
	AllowedOrigin string
	StaticDir     string
	Version       string

	// Optional backends; empty disables the feature
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NatsURL       string

	LogLevel string
	LogJSON  bool

	// Rooms
	RulesetFile   string
	RoomRetention string
	RoomIdleTTL   time.Duration

	// Rate limits
	WSRateLimit   int
	WSRateWindow  time.Duration
	APIRateLimit  int
	APIRateWindow time.Duration
}

var ErrMissingSecret = errors.New("JWT_SECRET is not set")

// Load reads the config from env (and .env when present)
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		StaticDir:     getEnv("STATIC_DIR", "./public"),
		Version:       getEnv("APP_VERSION", "dev"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		NatsURL:       os.Getenv("NATS_URL"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",

		RulesetFile:   os.Getenv("RULESET_FILE"),
		RoomRetention: strings.ToLower(getEnv("ROOM_RETENTION", RetentionEvict)),
		RoomIdleTTL:   getSeconds("ROOM_IDLE_TTL", time.Hour),

		WSRateLimit:   getPositive("WS_RATE_LIMIT", 30),
		WSRateWindow:  getSeconds("WS_RATE_WINDOW", time.Minute),
		APIRateLimit:  getPositive("API_RATE_LIMIT", 60),
		APIRateWindow: getSeconds("API_RATE_WINDOW", time.Minute),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}

	if cfg.RoomRetention != RetentionEvict && cfg.RoomRetention != RetentionPersist {
		cfg.RoomRetention = RetentionEvict
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getPositive(key string, def int) int {
	if n := getInt(key, def); n > 0 {
		return n
	}
	return def
}

// getSeconds reads a whole number of seconds; zero is allowed and disables
// whatever the duration drives
func getSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

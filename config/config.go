package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	IndexPath      string
	ListenAddr     string
	UserAgent      string
	RequestTimeout time.Duration
	RateLimit      int
	RankInterval   time.Duration
	DrainInterval  time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		IndexPath:      getEnv("INDEX_PATH", "index.json"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		UserAgent:      getEnv("USER_AGENT", "LinkRank/1.0"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT", 30)) * time.Second,
		RateLimit:      getEnvInt("RATE_LIMIT", 15),
		RankInterval:   time.Duration(getEnvInt("RANK_INTERVAL_MS", 1000)) * time.Millisecond,
		DrainInterval:  time.Duration(getEnvInt("DRAIN_INTERVAL_MS", 100)) * time.Millisecond,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

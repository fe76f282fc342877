package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type APIConfig struct {
	Addr        string
	DatabaseURL string
	SavePath    string
	SaveEvery   time.Duration
	AutoEndDay  bool
	DayLength   time.Duration
	StartMoney  float64
	RandomSeed  int64
	LogLevel    string
	SaveSlot    string
}

type WorkerConfig struct {
	APIBaseURL string
	DayLength  time.Duration
	LogLevel   string
}

type CLIConfig struct {
	APIBaseURL string
}

// LoadEnvFile reads a .env file when present. Missing files are fine; real
// environments set variables directly.
func LoadEnvFile() {
	_ = godotenv.Load()
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("SIDEGIG_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:        addr,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SavePath:    envDefault("SIDEGIG_SAVE_PATH", "sidegig.db"),
		SaveEvery:   envDurationDefault("SIDEGIG_SAVE_EVERY", 30*time.Second),
		AutoEndDay:  envBoolDefault("SIDEGIG_AUTO_END_DAY", false),
		DayLength:   envDurationDefault("SIDEGIG_DAY_LENGTH", 10*time.Minute),
		StartMoney:  envFloatDefault("SIDEGIG_START_MONEY", 45),
		RandomSeed:  envInt64Default("SIDEGIG_RANDOM_SEED", 0),
		LogLevel:    envLogLevelDefault("SIDEGIG_LOG_LEVEL", "info"),
		SaveSlot:    envDefault("SIDEGIG_SAVE_SLOT", "default"),
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	return WorkerConfig{
		APIBaseURL: strings.TrimRight(envDefault("GIG_API_BASE_URL", "http://localhost:8080"), "/"),
		DayLength:  envDurationDefault("SIDEGIG_DAY_LENGTH", 10*time.Minute),
		LogLevel:   envLogLevelDefault("SIDEGIG_LOG_LEVEL", "info"),
	}, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("GIG_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// SlogLevel maps a config level name onto its slog level.
func SlogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envLogLevelDefault(key, fallback string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "debug", "info", "warn", "error":
		return v
	default:
		return fallback
	}
}

package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Logging  LoggingConfig
	EventBus EventBusConfig
	Import   ImportConfig
	Storage  StorageConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

type WorkerConfig struct {
	PoolSize   int
	MaxRetries int
}

type LoggingConfig struct {
	Level string
}

type EventBusConfig struct {
	ChannelBufferSize int
}

type ImportConfig struct {
	CheckDuplicates bool
	ValidateSKUs    bool
	UpdateExisting  bool
	SkipDuplicates  bool
	LookupChunkSize int
	LookupRetries   int
	// MutationsPerSecond throttles create/update calls; 0 means unlimited.
	MutationsPerSecond float64
	CSVDelimiter       rune
	CSVEncoding        string
}

type StorageConfig struct {
	Driver          string
	DatabaseURL     string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Worker: WorkerConfig{
			PoolSize:   getIntEnv("WORKER_POOL_SIZE", 2),
			MaxRetries: getIntEnv("MAX_RETRIES", 5),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		EventBus: EventBusConfig{
			ChannelBufferSize: getIntEnv("EVENT_CHANNEL_BUFFER_SIZE", 1000),
		},
		Import: ImportConfig{
			CheckDuplicates:    getBoolEnv("CHECK_DUPLICATES", true),
			ValidateSKUs:       getBoolEnv("VALIDATE_SKUS", true),
			UpdateExisting:     getBoolEnv("UPDATE_EXISTING", false),
			SkipDuplicates:     getBoolEnv("SKIP_DUPLICATES", true),
			LookupChunkSize:    getIntEnv("LOOKUP_CHUNK_SIZE", 500),
			LookupRetries:      getIntEnv("LOOKUP_RETRIES", 3),
			MutationsPerSecond: getFloatEnv("MUTATIONS_PER_SECOND", 0),
			CSVDelimiter:       getRuneEnv("CSV_DELIMITER", ','),
			CSVEncoding:        strings.ToLower(getEnv("CSV_ENCODING", "utf-8")),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMemory)),
			DatabaseURL:     getEnv("DATABASE_URL", ""),
			MaxConns:        getIntEnv("DB_MAX_CONNS", 10),
			MinConns:        getIntEnv("DB_MIN_CONNS", 1),
			MaxConnLifetime: getDurationEnv("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getFloatEnv(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %g", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getRuneEnv reads a single character; "\t" and "tab" mean a tab.
func getRuneEnv(key string, defaultValue rune) rune {
	valueStr := os.Getenv(key)
	switch valueStr {
	case "":
		return defaultValue
	case `\t`, "tab":
		return '\t'
	}

	runes := []rune(valueStr)
	if len(runes) != 1 {
		log.Printf("Invalid value for %s: %s, using default: %q", key, valueStr, defaultValue)
		return defaultValue
	}

	return runes[0]
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

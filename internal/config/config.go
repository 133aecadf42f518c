package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration, read from the environment.
// Call Load after godotenv has populated the process environment.
type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret string

	// OpenLibrary endpoints. Overridable so tests and mirrors can point the
	// client elsewhere.
	OpenLibraryBaseURL string
	CoverBaseURL       string
	DefaultCoverPath   string

	Recommendations Recommendations
}

// Recommendations holds the tunable constants of the recommendation engine.
// The weights are heuristics, not load-bearing semantics; only relative
// ordering of scores matters to callers.
type Recommendations struct {
	CacheTTL time.Duration

	AuthorPassWeight  float64
	SubjectPassWeight float64
	PopularPassWeight float64

	AuthorMatchWeight  float64
	SubjectMatchWeight float64
	DecadeMatchWeight  float64
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		OpenLibraryBaseURL: getEnvOrDefault("OPENLIBRARY_BASE_URL", "https://openlibrary.org"),
		CoverBaseURL:       getEnvOrDefault("COVER_BASE_URL", "https://covers.openlibrary.org/b/id"),
		DefaultCoverPath:   getEnvOrDefault("DEFAULT_COVER_PATH", "/images/default-cover.jpg"),

		Recommendations: Recommendations{
			CacheTTL:           getEnvDuration("REC_CACHE_TTL", time.Hour),
			AuthorPassWeight:   getEnvFloat("REC_AUTHOR_PASS_WEIGHT", 0.4),
			SubjectPassWeight:  getEnvFloat("REC_SUBJECT_PASS_WEIGHT", 0.35),
			PopularPassWeight:  getEnvFloat("REC_POPULAR_PASS_WEIGHT", 0.25),
			AuthorMatchWeight:  getEnvFloat("REC_AUTHOR_MATCH_WEIGHT", 0.3),
			SubjectMatchWeight: getEnvFloat("REC_SUBJECT_MATCH_WEIGHT", 0.2),
			DecadeMatchWeight:  getEnvFloat("REC_DECADE_MATCH_WEIGHT", 0.1),
		},
	}
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

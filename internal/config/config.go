package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Embedding EmbeddingConfig
	Match     MatchConfig
	Database  DatabaseConfig
	Directory DirectoryConfig
	Geofence  GeofenceDefaults
}

type EmbeddingConfig struct {
	URL string // face embedding service base URL (defaults to http://localhost:8000)
	Dim int    // embedding dimension produced by the service (defaults to 128)
}

type MatchConfig struct {
	Threshold float64 // maximum accepted Euclidean distance (defaults to 0.5)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type DirectoryConfig struct {
	DatabaseURL string // MySQL DSN of the HR user directory (e.g., hr:hr@tcp(mysql:3306)/hr)
}

// GeofenceDefaults seeds the geo policy when the settings table has no
// overrides yet. Values come from the embedded defaults.yaml and can be
// replaced per-deployment through the settings API.
type GeofenceDefaults struct {
	Latitude     float64  `yaml:"latitude"`
	Longitude    float64  `yaml:"longitude"`
	RadiusMeters float64  `yaml:"radius_meters"`
	AllowedIPs   []string `yaml:"allowed_ips"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var geo GeofenceDefaults
	if err := yaml.Unmarshal(defaultsYAML, &geo); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", 128),
		},
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", 0.5),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Directory: DirectoryConfig{
			DatabaseURL: os.Getenv("HR_DATABASE_URL"),
		},
		Geofence: geo,
	}
}

package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var tuningYAML []byte

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Search   SearchConfig
}

type DatabaseConfig struct {
	SQLitePath   string // path to the SQLite database file (default tag-search.db)
	URL          string // PostgreSQL connection URL; when set, takes precedence over SQLite
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

type ServerConfig struct {
	Port int // HTTP listen port (default 8080)
}

// SearchConfig carries the similarity tuning knobs. Defaults come from the
// embedded tuning.yaml and can be overridden per invocation via flags.
type SearchConfig struct {
	NumPermutations  int     `yaml:"num_permutations"`
	CatchThreshold   float64 `yaml:"catch_threshold"`
	DisplayThreshold float64 `yaml:"display_threshold"`
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

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var search SearchConfig
	if err := yaml.Unmarshal(tuningYAML, &search); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded tuning.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			SQLitePath:   envString("SQLITE_PATH", "tag-search.db"),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Server: ServerConfig{
			Port: envInt("SERVER_PORT", 8080),
		},
		Search: search,
	}
}

package config

import (
	"os"
	"strconv"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Children lookup modes
const (
	// ChildrenLookupStrict checks the parent record itself before listing children.
	ChildrenLookupStrict = "strict"
	// ChildrenLookupLegacy treats a parent as existing only when it has at least
	// one folder-typed child.
	ChildrenLookupLegacy = "legacy"
)

type Config struct {
	Port        string
	Environment string
	Store       string // memory, sqlite or postgres
	DatabaseURL string // postgres connection string
	SQLitePath  string
	TablePrefix string
	CORSOrigins string
	// Logging
	LogFormat   string // text or json
	LogLevel    string
	LogDir      string // empty disables the log file
	LogMaxFiles int
	// Hierarchy behaviour
	ChildrenLookup    string
	AutocompleteLimit int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       env,
		Store:             getEnv("STORE", StoreMemory),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "./nodetree.db"),
		TablePrefix:       getTablePrefix(env),
		CORSOrigins:       getEnv("CORS_ORIGINS", "http://localhost:3000"),
		LogFormat:         getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
		LogLevel:          getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		LogDir:            getEnv("LOG_DIR", ""),
		LogMaxFiles:       getEnvInt("LOG_MAX_FILES", 10),
		ChildrenLookup:    getEnv("CHILDREN_LOOKUP", ChildrenLookupStrict),
		AutocompleteLimit: getEnvInt("AUTOCOMPLETE_LIMIT", DefaultAutocompleteLimit),
	}
}

// getDefaultLogFormat returns json in production and colored text elsewhere
func getDefaultLogFormat(env string) string {
	if env == "prod" {
		return "json"
	}
	return "text"
}

func getDefaultLogLevel(env string) string {
	if env == "dev" {
		return "debug"
	}
	return "info"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

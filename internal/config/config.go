// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Policy values.
const (
	PolicyNotFound = "not_found" // missing resource answers 404
	PolicyZero     = "zero"      // missing resource reports a zero count
	PolicyNoop     = "noop"      // like/unlike on a missing resource does nothing
	PolicyUpsert   = "upsert"    // duplicate keyword save is idempotent
	PolicyConflict = "conflict"  // duplicate keyword save is rejected
)

// MaxTopLimit caps the number of resources a top-count query may return.
const MaxTopLimit = 100

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Storage StorageConfig
	Search  SearchConfig
	Policy  PolicyConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins    []string      // Allowed origins (default: *)
	RateLimitRPS   float64       // Requests per second per client IP, 0 disables (default: 50)
	RateLimitBurst int           // Burst size per client IP (default: 100)
}

// StorageConfig selects and configures the record store.
type StorageConfig struct {
	Backend       string // badger, sqlite, mongo or postgres (default: badger)
	DataPath      string // Directory for embedded backends and the search index
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string
}

// SearchConfig holds full-text search configuration.
type SearchConfig struct {
	Enabled bool // default: true
}

// PolicyConfig holds the behaviors that differ between deployments of the
// original service. Each one is chosen explicitly rather than guessed.
type PolicyConfig struct {
	// InitialCount is the count of a resource created by its first save (0 or 1, default: 1).
	InitialCount int64
	// MissingCount decides what getCount answers for an unknown id (default: not_found).
	MissingCount string
	// MissingLike decides what like/unlike do for an unknown id (default: not_found).
	MissingLike string
	// DuplicateKeyword decides whether saving an existing keyword succeeds (default: upsert).
	DuplicateKeyword string
	// TopLimit is the default size of the top-count list (default: 5).
	TopLimit int
}

// BadgerPath is where the badger backend keeps its files.
func (c *Config) BadgerPath() string { return filepath.Join(c.Storage.DataPath, "badger") }

// SQLitePath is the sqlite database file.
func (c *Config) SQLitePath() string { return filepath.Join(c.Storage.DataPath, "oerhub.db") }

// SearchIndexPath is the bleve index directory.
func (c *Config) SearchIndexPath() string { return filepath.Join(c.Storage.DataPath, "search") }

// LoadConfig loads configuration from the process arguments.
// See Load for precedence.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("oerhub", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins (default: *)")
	rateLimitRPS := fs.String("rate-limit-rps", "", "Requests per second per client, 0 disables (default: 50)")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Burst per client (default: 100)")

	// Storage flags
	backend := fs.String("storage", "", "Storage backend: badger, sqlite, mongo, postgres (default: badger)")
	dataPath := fs.String("data-path", "", "Directory for embedded databases and the search index")
	mongoURI := fs.String("mongo-uri", "", "MongoDB connection string")
	mongoDatabase := fs.String("mongo-database", "", "MongoDB database name (default: oerhub)")
	postgresDSN := fs.String("postgres-dsn", "", "PostgreSQL connection string")

	searchEnabled := fs.String("search-enabled", "", "Enable full-text search (default: true)")

	// Policy flags
	initialCount := fs.String("initial-count", "", "Count of a newly saved OER: 0 or 1 (default: 1)")
	missingCount := fs.String("missing-count", "", "getCount on unknown id: not_found or zero (default: not_found)")
	missingLike := fs.String("missing-like", "", "like/unlike on unknown id: not_found or noop (default: not_found)")
	duplicateKeyword := fs.String("duplicate-keyword", "", "Saving an existing keyword: upsert or conflict (default: upsert)")
	topLimit := fs.String("top-limit", "", "Default size of the top-count list (default: 5)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			// PORT is what the original deployment used.
			Port:        getConfigValue(*serverPort, "SERVER_PORT", getConfigValue("", "PORT", "8080")),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getConfigValue(*backend, "STORAGE_BACKEND", BackendBadger)),
			DataPath:      getConfigValue(*dataPath, "DATA_PATH", ""),
			MongoURI:      getConfigValue(*mongoURI, "MONGO_URI", getConfigValue("", "ATLAS_URI", "")),
			MongoDatabase: getConfigValue(*mongoDatabase, "MONGO_DATABASE", "oerhub"),
			PostgresDSN:   getConfigValue(*postgresDSN, "POSTGRES_DSN", ""),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
		},
		Policy: PolicyConfig{
			MissingCount:     strings.ToLower(getConfigValue(*missingCount, "MISSING_COUNT_POLICY", PolicyNotFound)),
			MissingLike:      strings.ToLower(getConfigValue(*missingLike, "MISSING_LIKE_POLICY", PolicyNotFound)),
			DuplicateKeyword: strings.ToLower(getConfigValue(*duplicateKeyword, "DUPLICATE_KEYWORD_POLICY", PolicyUpsert)),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}

	rps := getConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", "50")
	if cfg.Server.RateLimitRPS, err = strconv.ParseFloat(rps, 64); err != nil {
		return nil, fmt.Errorf("invalid rate limit rps %q: %w", rps, err)
	}
	cfg.Server.RateLimitBurst = getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 100)

	ic := getConfigValue(*initialCount, "INITIAL_COUNT", "1")
	if cfg.Policy.InitialCount, err = strconv.ParseInt(ic, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid initial count %q: %w", ic, err)
	}
	cfg.Policy.TopLimit = getIntConfigValue(*topLimit, "TOP_LIMIT", 5)

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("invalid rate limit: %v (must be >= 0)", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("invalid rate limit burst: %d (must be >= 1)", c.Server.RateLimitBurst)
	}

	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validatePolicy()
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendBadger, BackendSQLite:
		if c.Storage.DataPath == "" {
			return errors.New("data path cannot be empty after expansion")
		}
	case BackendMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo backend")
		}
		if c.Storage.MongoDatabase == "" {
			return errors.New("MONGO_DATABASE cannot be empty")
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be badger, sqlite, mongo, or postgres)", c.Storage.Backend)
	}

	if c.Search.Enabled && c.Storage.DataPath == "" {
		return errors.New("data path is required when search is enabled")
	}
	return nil
}

func (c *Config) validatePolicy() error {
	p := c.Policy
	if p.InitialCount != 0 && p.InitialCount != 1 {
		return fmt.Errorf("invalid initial count: %d (must be 0 or 1)", p.InitialCount)
	}
	if p.MissingCount != PolicyNotFound && p.MissingCount != PolicyZero {
		return fmt.Errorf("invalid missing count policy: %s (must be not_found or zero)", p.MissingCount)
	}
	if p.MissingLike != PolicyNotFound && p.MissingLike != PolicyNoop {
		return fmt.Errorf("invalid missing like policy: %s (must be not_found or noop)", p.MissingLike)
	}
	if p.DuplicateKeyword != PolicyUpsert && p.DuplicateKeyword != PolicyConflict {
		return fmt.Errorf("invalid duplicate keyword policy: %s (must be upsert or conflict)", p.DuplicateKeyword)
	}
	if p.TopLimit < 1 || p.TopLimit > MaxTopLimit {
		return fmt.Errorf("invalid top limit: %d (must be between 1 and %d)", p.TopLimit, MaxTopLimit)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/OERHub/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "OERHub", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envKey != "" {
		if envValue := os.Getenv(envKey); envValue != "" {
			return envValue
		}
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return d, nil
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultCollectionName is the single key under which the bookmark list is stored.
const DefaultCollectionName = "bookmarks"

// DirName is the name of both the global base directory (~/.repovault)
// and the repo-local overlay directory.
const DirName = ".repovault"

// ExportsDirName is the default export/import directory inside the base directory.
const ExportsDirName = "exports"

// configFileNames are tried in order inside a config directory.
var configFileNames = []string{"config.json", "config.yaml", "config.yml"}

// Config holds application configuration.
type Config struct {
	// Backend selects the persistence gateway: sqlite, badger, redis or memory
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// CollectionName is the storage key for the bookmark list
	CollectionName string `json:"collection_name,omitempty" yaml:"collection_name,omitempty"`

	// Redis connection settings (backend "redis" only).
	RedisAddr           string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword       string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB             int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	RedisConnectTimeout string `json:"redis_connect_timeout,omitempty" yaml:"redis_connect_timeout,omitempty"`

	// AllowedPaths is an allowlist of directories for file import/export.
	// Paths outside <base>/exports require either being in this list or AllowUnsafePaths=true.
	// Relative paths are ignored.
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" yaml:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits open SQLite connections. 0 means sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle SQLite connections. 0 means sql.DB default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`

	// CORSOrigins are extra origins allowed to call the web API.
	// chrome-extension:// and moz-extension:// origins are always allowed.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// PrettyLog selects the colored console encoder instead of JSON
	PrettyLog bool `json:"pretty_log,omitempty" yaml:"pretty_log,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend:             BackendSQLite,
		CollectionName:      DefaultCollectionName,
		RedisAddr:           "localhost:6379",
		RedisConnectTimeout: "10s",
		LogLevel:            "info",
	}
}

// ConnectTimeout parses RedisConnectTimeout, falling back to 10s.
func (c *Config) ConnectTimeout() time.Duration {
	d, err := time.ParseDuration(c.RedisConnectTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendBadger, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, badger, redis or memory)", c.Backend)
	}
	if strings.TrimSpace(c.CollectionName) == "" {
		return fmt.Errorf("collection_name must not be empty")
	}
	return nil
}

// BaseDir returns $REPOVAULT_HOME or ~/.repovault.
func BaseDir() (string, error) {
	if dir := os.Getenv("REPOVAULT_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName), nil
}

// Load loads configuration from baseDir/config.{json,yaml}.
// Returns default config if no file exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.repovault.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(findConfigFile(baseDir))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both the global directory and the nearest
// repo-local .repovault directory found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(findConfigFile(globalDir))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .repovault config file.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		if path := findConfigFile(filepath.Join(dir, DirName)); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// findConfigFile returns the first existing config file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Backend = firstNonEmpty(overlay.Backend, base.Backend)
	result.CollectionName = firstNonEmpty(overlay.CollectionName, base.CollectionName)
	result.RedisAddr = firstNonEmpty(overlay.RedisAddr, base.RedisAddr)
	result.RedisPassword = firstNonEmpty(overlay.RedisPassword, base.RedisPassword)
	result.RedisConnectTimeout = firstNonEmpty(overlay.RedisConnectTimeout, base.RedisConnectTimeout)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.RedisDB = overlay.RedisDB
	if result.RedisDB == 0 {
		result.RedisDB = base.RedisDB
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths
	result.PrettyLog = base.PrettyLog || overlay.PrettyLog

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.CORSOrigins = mergeStringSlice(base.CORSOrigins, overlay.CORSOrigins)

	return result
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return strings.TrimSpace(b)
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DirName is the name of the global (~/.qdpx) and repo (.qdpx) config directories.
const DirName = ".qdpx"

// MaxCodeDepthLimit is the largest accepted max_code_depth. Indexed snapshots
// of trees this deep still decode.
const MaxCodeDepthLimit = 16384

// Config holds application configuration.
type Config struct {
	// MaxCodeDepth bounds Code nesting during decode
	MaxCodeDepth int `json:"max_code_depth" env:"QDPX_MAX_CODE_DEPTH"`

	// LoadStrategy is "seek" (read the archive from the open file) or
	// "memory" (read the whole file first).
	LoadStrategy string `json:"load_strategy,omitempty" env:"QDPX_LOAD_STRATEGY"`

	// MaxArchiveBytes caps the file size accepted by the memory strategy.
	MaxArchiveBytes int64 `json:"max_archive_bytes,omitempty" env:"QDPX_MAX_ARCHIVE_BYTES"`

	// StrictReferences makes validate stop at the first dangling reference.
	StrictReferences bool `json:"strict_references,omitempty" env:"QDPX_STRICT_REFERENCES"`

	// CheckSources makes validate reject an empty Sources element.
	CheckSources bool `json:"check_sources,omitempty" env:"QDPX_CHECK_SOURCES"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" env:"QDPX_LOG_LEVEL"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format,omitempty" env:"QDPX_LOG_FORMAT"`

	// AllowedPaths is an allowlist of directories project files may be read from.
	// Paths outside the working directory require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" env:"QDPX_ALLOWED_PATHS" env-separator:","`

	// AllowUnsafePaths disables directory restrictions for the tool server and web UI.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" env:"QDPX_ALLOW_UNSAFE_PATHS"`

	// DBMaxOpenConns limits the maximum number of open index database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" env:"QDPX_DB_MAX_OPEN_CONNS"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" env:"QDPX_DB_MAX_IDLE_CONNS"`

	// DisabledTools is a list of tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" env:"QDPX_DISABLED_TOOLS" env-separator:","`

	// DisabledTypes is a list of tool groups to disable entirely.
	// Known types: "project", "index".
	DisabledTypes []string `json:"disabled_types,omitempty" env:"QDPX_DISABLED_TYPES" env-separator:","`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxCodeDepth:    256,
		LoadStrategy:    "seek",
		MaxArchiveBytes: 1 << 30,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.qdpx.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.qdpx) and repo (.qdpx) directories,
// then applies QDPX_* environment variables.
// Repo config is found by walking upward from startDir to find the nearest .qdpx/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo, then env
	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overwrites fields whose QDPX_* variable is set.
func ApplyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config: read env: %w", err)
	}
	return nil
}

// Validate rejects values the rest of the program cannot use.
func (c *Config) Validate() error {
	if c.MaxCodeDepth <= 0 {
		return fmt.Errorf("config: max_code_depth must be positive, got %d", c.MaxCodeDepth)
	}
	if c.MaxCodeDepth > MaxCodeDepthLimit {
		return fmt.Errorf("config: max_code_depth must be at most %d, got %d", MaxCodeDepthLimit, c.MaxCodeDepth)
	}
	switch c.LoadStrategy {
	case "", "seek", "memory":
	default:
		return fmt.Errorf("config: load_strategy must be seek or memory, got %q", c.LoadStrategy)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// FindRepoConfig walks upward from startDir to find the nearest .qdpx/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
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
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.MaxCodeDepth = pick(overlay.MaxCodeDepth, base.MaxCodeDepth)
	result.LoadStrategy = pick(overlay.LoadStrategy, base.LoadStrategy)
	result.MaxArchiveBytes = pick(overlay.MaxArchiveBytes, base.MaxArchiveBytes)
	result.LogLevel = pick(overlay.LogLevel, base.LogLevel)
	result.LogFormat = pick(overlay.LogFormat, base.LogFormat)
	result.DBMaxOpenConns = pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.StrictReferences = base.StrictReferences || overlay.StrictReferences
	result.CheckSources = base.CheckSources || overlay.CheckSources
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
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

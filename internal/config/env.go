// Package config provides centralized configuration management.
// All CLIBRIDGE_* environment lookups and the optional YAML config file
// live here.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BridgeEnv holds all bridge environment variables.
type BridgeEnv struct {
	// Providers is the ordered list of enabled provider ids (CLIBRIDGE_PROVIDERS)
	Providers []string

	// ClaudeBin is the Claude Code executable (CLIBRIDGE_CLAUDE_BIN)
	ClaudeBin string

	// CodexBin is the Codex executable (CLIBRIDGE_CODEX_BIN)
	CodexBin string

	// WorkDir is the working directory for provider subprocesses (CLIBRIDGE_WORKDIR)
	WorkDir string

	// SystemPrompt is prepended to every prompt when set (CLIBRIDGE_SYSTEM_PROMPT)
	SystemPrompt string

	// MaxHistory bounds stored messages per conversation (CLIBRIDGE_MAX_HISTORY)
	MaxHistory int

	// EditInterval is the minimum gap between message edits (CLIBRIDGE_EDIT_INTERVAL)
	EditInterval time.Duration

	// RequestTimeout bounds one provider invocation, 0 disables (CLIBRIDGE_REQUEST_TIMEOUT)
	RequestTimeout time.Duration

	// MessageLimit is the chat platform's maximum message length (CLIBRIDGE_MESSAGE_LIMIT)
	MessageLimit int

	// Store selects the session backend: file, sqlite or redis (CLIBRIDGE_STORE)
	Store string

	// StorePath overrides the session file / database path (CLIBRIDGE_STORE_PATH)
	StorePath string

	// RedisURL is the redis connection URL for the redis store (CLIBRIDGE_REDIS_URL)
	RedisURL string

	// MetricsAddr enables the metrics endpoint when non-empty (CLIBRIDGE_METRICS_ADDR)
	MetricsAddr string

	// ConfigFile is the config file consulted (CLIBRIDGE_CONFIG)
	ConfigFile string

	// ConfigErr is set when the config file exists but could not be used
	ConfigErr error
}

var (
	env     *BridgeEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call. Values come from CLIBRIDGE_*
// variables, then the config file, then built-in defaults.
func Env() *BridgeEnv {
	envOnce.Do(func() {
		path := ConfigFilePath()
		fc, err := LoadFile(path)
		d := fc.apply(defaults())

		env = &BridgeEnv{
			Providers:      splitList(getEnvDefault("CLIBRIDGE_PROVIDERS", strings.Join(d.Providers, ","))),
			ClaudeBin:      getEnvDefault("CLIBRIDGE_CLAUDE_BIN", d.ClaudeBin),
			CodexBin:       getEnvDefault("CLIBRIDGE_CODEX_BIN", d.CodexBin),
			WorkDir:        getEnvDefault("CLIBRIDGE_WORKDIR", d.WorkDir),
			SystemPrompt:   getEnvDefault("CLIBRIDGE_SYSTEM_PROMPT", d.SystemPrompt),
			MaxHistory:     getEnvInt("CLIBRIDGE_MAX_HISTORY", d.MaxHistory),
			EditInterval:   getEnvDuration("CLIBRIDGE_EDIT_INTERVAL", d.EditInterval),
			RequestTimeout: getEnvDuration("CLIBRIDGE_REQUEST_TIMEOUT", d.RequestTimeout),
			MessageLimit:   getEnvInt("CLIBRIDGE_MESSAGE_LIMIT", d.MessageLimit),
			Store:          strings.ToLower(getEnvDefault("CLIBRIDGE_STORE", d.Store)),
			StorePath:      getEnvDefault("CLIBRIDGE_STORE_PATH", d.StorePath),
			RedisURL:       getEnvDefault("CLIBRIDGE_REDIS_URL", d.RedisURL),
			MetricsAddr:    getEnvDefault("CLIBRIDGE_METRICS_ADDR", d.MetricsAddr),
			ConfigFile:     path,
			ConfigErr:      err,
		}
	})
	return env
}

// defaults returns the built-in configuration.
func defaults() *BridgeEnv {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &BridgeEnv{
		Providers:      []string{"claude", "codex"},
		ClaudeBin:      "claude",
		CodexBin:       "codex",
		WorkDir:        wd,
		MaxHistory:     20,
		EditInterval:   1500 * time.Millisecond,
		RequestTimeout: 15 * time.Minute,
		MessageLimit:   4096,
		Store:          "file",
		RedisURL:       "redis://localhost:6379/0",
	}
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or bare milliseconds ("1500").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, ok := parseDuration(os.Getenv(key)); ok {
		return d
	}
	return fallback
}

func parseDuration(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond, true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

func splitList(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Paths holds standard bridge directory paths.
type Paths struct {
	// Home is the bridge home directory (~/.clibridge)
	Home string

	// Data is the data directory (~/.clibridge/data)
	Data string

	// SessionsFile is the JSON session store (~/.clibridge/data/sessions.json)
	SessionsFile string

	// SessionsDB is the sqlite session store (~/.clibridge/data/sessions.db)
	SessionsDB string

	// LogFile receives logs while the full-screen UI owns the terminal (~/.clibridge/logs/clibridge.log)
	LogFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		bridgeHome := filepath.Join(home, ".clibridge")
		data := filepath.Join(bridgeHome, "data")

		paths = &Paths{
			Home:         bridgeHome,
			Data:         data,
			SessionsFile: filepath.Join(data, "sessions.json"),
			SessionsDB:   filepath.Join(data, "sessions.db"),
			LogFile:      filepath.Join(bridgeHome, "logs", "clibridge.log"),
		}
	})
	return paths
}

// ResetPaths resets the cached paths (for testing).
func ResetPaths() {
	pathsOnce = sync.Once{}
	paths = nil
}

// Path returns a path under the bridge home directory.
func Path(parts ...string) string {
	p := GetPaths()
	allParts := append([]string{p.Home}, parts...)
	return filepath.Join(allParts...)
}

// StoreLocation returns the path the configured store driver should use.
func (e *BridgeEnv) StoreLocation() string {
	if e.StorePath != "" {
		return e.StorePath
	}
	if e.Store == "sqlite" {
		return GetPaths().SessionsDB
	}
	return GetPaths().SessionsFile
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration file. Every field is
// optional; CLIBRIDGE_* environment variables take precedence.
//
//	providers: [codex, claude]
//	claude_bin: /usr/local/bin/claude
//	edit_interval: 2s
//	store: sqlite
type FileConfig struct {
	Providers      []string `yaml:"providers"`
	ClaudeBin      string   `yaml:"claude_bin"`
	CodexBin       string   `yaml:"codex_bin"`
	WorkDir        string   `yaml:"workdir"`
	SystemPrompt   string   `yaml:"system_prompt"`
	MaxHistory     *int     `yaml:"max_history"`
	EditInterval   string   `yaml:"edit_interval"`
	RequestTimeout string   `yaml:"request_timeout"`
	MessageLimit   *int     `yaml:"message_limit"`
	Store          string   `yaml:"store"`
	StorePath      string   `yaml:"store_path"`
	RedisURL       string   `yaml:"redis_url"`
	MetricsAddr    string   `yaml:"metrics_addr"`
}

// ConfigFilePath returns CLIBRIDGE_CONFIG or ~/.clibridge/config.yaml.
func ConfigFilePath() string {
	if p := os.Getenv("CLIBRIDGE_CONFIG"); p != "" {
		return p
	}
	return Path("config.yaml")
}

// LoadFile reads a config file. A missing file yields an empty config.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return &FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := fc.validate(); err != nil {
		return &FileConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *FileConfig) validate() error {
	for name, v := range map[string]string{"edit_interval": fc.EditInterval, "request_timeout": fc.RequestTimeout} {
		if v == "" {
			continue
		}
		if _, ok := parseDuration(v); !ok {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	if fc.MaxHistory != nil && *fc.MaxHistory < 0 {
		return fmt.Errorf("max_history: must not be negative")
	}
	if fc.MessageLimit != nil && *fc.MessageLimit < 0 {
		return fmt.Errorf("message_limit: must not be negative")
	}
	switch strings.ToLower(fc.Store) {
	case "", "file", "sqlite", "redis":
	default:
		return fmt.Errorf("store: unknown kind %q", fc.Store)
	}
	return nil
}

// apply overlays the file's values onto defaults.
func (fc *FileConfig) apply(d *BridgeEnv) *BridgeEnv {
	if len(fc.Providers) > 0 {
		d.Providers = splitList(strings.Join(fc.Providers, ","))
	}
	setString(&d.ClaudeBin, fc.ClaudeBin)
	setString(&d.CodexBin, fc.CodexBin)
	setString(&d.WorkDir, fc.WorkDir)
	setString(&d.SystemPrompt, fc.SystemPrompt)
	setString(&d.Store, strings.ToLower(fc.Store))
	setString(&d.StorePath, fc.StorePath)
	setString(&d.RedisURL, fc.RedisURL)
	setString(&d.MetricsAddr, fc.MetricsAddr)
	if fc.MaxHistory != nil {
		d.MaxHistory = *fc.MaxHistory
	}
	if fc.MessageLimit != nil {
		d.MessageLimit = *fc.MessageLimit
	}
	if v, ok := parseDuration(fc.EditInterval); ok {
		d.EditInterval = v
	}
	if v, ok := parseDuration(fc.RequestTimeout); ok {
		d.RequestTimeout = v
	}
	return d
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// Load loads configuration from multiple sources (priority order):
//  1. Global config (~/.config/ledgerline/ledgerline.{json,jsonc,yaml})
//  2. LEDGERLINE_CONFIG file
//  3. LEDGERLINE_CONFIG_CONTENT inline JSON
//  4. Environment variables
func Load() (*types.Config, error) {
	config := &types.Config{
		Provider: make(map[string]types.ProviderConfig),
	}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Global config
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "ledgerline.json"))
	loadOnce(filepath.Join(globalPath, "ledgerline.jsonc"))
	loadOnce(filepath.Join(globalPath, "ledgerline.yaml"))

	// 2. LEDGERLINE_CONFIG file override
	if configPath := os.Getenv("LEDGERLINE_CONFIG"); configPath != "" {
		loadOnce(configPath)
	}

	// 3. LEDGERLINE_CONFIG_CONTENT inline JSON
	if configContent := os.Getenv("LEDGERLINE_CONFIG_CONTENT"); configContent != "" {
		var inlineConfig types.Config
		if err := json.Unmarshal([]byte(configContent), &inlineConfig); err == nil {
			mergeConfig(config, &inlineConfig)
		}
	}

	// 4. Environment variables (highest priority)
	applyEnvOverrides(config)

	return config, nil
}

// LoadFile loads a single config file on top of the defaults. Used when the
// server is started with an explicit --config flag.
func LoadFile(path string) (*types.Config, error) {
	config := &types.Config{
		Provider: make(map[string]types.ProviderConfig),
	}
	if err := loadConfigFile(path, config); err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
// YAML files are selected by extension; everything else is parsed as JSONC.
func loadConfigFile(path string, config *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	data = interpolate(data)

	var fileConfig types.Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	default:
		data = jsonc.ToJSON(data)
		if err := json.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} placeholders.
func interpolate(data []byte) []byte {
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})
}

// mergeConfig merges src into dst; non-zero src fields win.
func mergeConfig(dst, src *types.Config) {
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Pretty {
		dst.Log.Pretty = true
	}

	if src.Policy.MaxActiveSessions > 0 {
		dst.Policy.MaxActiveSessions = src.Policy.MaxActiveSessions
	}
	if src.Policy.ContextWindow > 0 {
		dst.Policy.ContextWindow = src.Policy.ContextWindow
	}
	if src.Policy.ListLimit > 0 {
		dst.Policy.ListLimit = src.Policy.ListLimit
	}
	if src.Policy.IdleAfter != "" {
		dst.Policy.IdleAfter = src.Policy.IdleAfter
	}
	if src.Policy.SummarizeTimeout != "" {
		dst.Policy.SummarizeTimeout = src.Policy.SummarizeTimeout
	}
	if src.Policy.SweepInterval != "" {
		dst.Policy.SweepInterval = src.Policy.SweepInterval
	}

	if src.Summarizer.Model != "" {
		dst.Summarizer.Model = src.Summarizer.Model
	}
	if src.Summarizer.MaxTokens > 0 {
		dst.Summarizer.MaxTokens = src.Summarizer.MaxTokens
	}

	if dst.Provider == nil {
		dst.Provider = make(map[string]types.ProviderConfig)
	}
	for id, pc := range src.Provider {
		existing := dst.Provider[id]
		if pc.APIKey != "" {
			existing.APIKey = pc.APIKey
		}
		if pc.BaseURL != "" {
			existing.BaseURL = pc.BaseURL
		}
		if pc.Model != "" {
			existing.Model = pc.Model
		}
		if pc.MaxTokens > 0 {
			existing.MaxTokens = pc.MaxTokens
		}
		if pc.Disabled {
			existing.Disabled = true
		}
		dst.Provider[id] = existing
	}
}

// applyEnvOverrides applies LEDGERLINE_* environment variables.
func applyEnvOverrides(config *types.Config) {
	if v := os.Getenv("LEDGERLINE_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv("LEDGERLINE_MODEL"); v != "" {
		config.Summarizer.Model = v
	}
	if v := os.Getenv("LEDGERLINE_MAX_ACTIVE_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Policy.MaxActiveSessions = n
		}
	}
	if v := os.Getenv("LEDGERLINE_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Policy.ContextWindow = n
		}
	}
	if v := os.Getenv("LEDGERLINE_IDLE_AFTER"); v != "" {
		config.Policy.IdleAfter = v
	}
	if v := os.Getenv("LEDGERLINE_SWEEP_INTERVAL"); v != "" {
		config.Policy.SweepInterval = v
	}
}

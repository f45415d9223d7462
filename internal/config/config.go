// Package config provides configuration loading and structs for the ronbun server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Parse     ParseConfig     `yaml:"parse"`
	Translate TranslateConfig `yaml:"translate"`
	Stream    StreamConfig    `yaml:"stream"`
	Sync      SyncConfig      `yaml:"sync"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the local artifact root, the durable store settings, and
// the completion-ledger database path.
type StorageConfig struct {
	LocalRoot  string    `yaml:"local_root"`
	Namespace  string    `yaml:"namespace"`
	LedgerPath string    `yaml:"ledger_path"`
	OSS        OSSConfig `yaml:"oss"`
}

// OSSConfig holds durable object-store (Aliyun OSS) credentials. When Endpoint
// or Bucket is empty the durable tier is disabled and uploads are skipped.
type OSSConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
}

// Enabled reports whether the durable store is configured.
func (o *OSSConfig) Enabled() bool {
	return o.Endpoint != "" && o.Bucket != ""
}

// FetchConfig holds source-document retrieval settings. URL templates take the
// sanitized paper id via %s.
type FetchConfig struct {
	DirectURLTemplate  string `yaml:"direct_url_template"`
	LandingURLTemplate string `yaml:"landing_url_template"`
	UserAgent          string `yaml:"user_agent"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
}

// ParseConfig holds remote conversion-service settings. When ServiceURL is
// empty, parsing falls back to local PDF text extraction.
type ParseConfig struct {
	ServiceURL     string `yaml:"service_url"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
}

// TranslateConfig holds translation-capability settings. When APIKey (and the
// env var named by APIKeyEnv) is empty, translations are explicit placeholders.
type TranslateConfig struct {
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	APIKey          string  `yaml:"api_key"`
	APIKeyEnv       string  `yaml:"api_key_env"`
	Temperature     float64 `yaml:"temperature"`
	MaxChars        int     `yaml:"max_chars"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	Style           string  `yaml:"style"` // blockquote | heading_split | quoted
	MinHeadingLevel int     `yaml:"min_heading_level"`
	TargetLang      string  `yaml:"target_lang"`
}

// StreamConfig holds streaming-delivery settings.
type StreamConfig struct {
	ChunkBytes       int `yaml:"chunk_bytes"`
	KeepaliveSeconds int `yaml:"keepalive_seconds"`
}

// SyncConfig holds artifact-directory sync settings.
type SyncConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.LocalRoot = expandPath(cfg.Storage.LocalRoot, configDir)
	cfg.Storage.LedgerPath = expandPath(cfg.Storage.LedgerPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
